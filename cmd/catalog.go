package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/graha/internal/catalog"
	"github.com/papapumpkin/graha/internal/ui"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate rule catalogues",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a catalogue file and list every problem found",
	Long: `Validates the given catalogue file, or the configured catalogue when no
file is given. All problems are reported at once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogValidate,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print the rules of a catalogue",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogShow,
}

var catalogDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the embedded default catalogue as TOML, as a starting point for edits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(catalog.DefaultData())
		return err
	},
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd, catalogShowCmd, catalogDefaultCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	path := s.cfg.Catalog
	if len(args) == 1 {
		path = args[0]
	}
	source := path
	if source == "" {
		source = catalog.DefaultSource
	}

	c, err := loadCatalog(s.cfg, path)
	if err != nil {
		s.printer.CatalogInvalid(source, err)
		if n := len(catalog.Problems(err)); n > 0 {
			return fmt.Errorf("validation failed with %d error(s)", n)
		}
		return err
	}
	s.printer.CatalogValid(c)
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	c, err := loadCatalog(s.cfg, path)
	if err != nil {
		s.printer.CatalogInvalid(path, err)
		return err
	}
	return ui.RenderCatalog(cmd.OutOrStdout(), c)
}
