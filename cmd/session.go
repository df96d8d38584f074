package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/papapumpkin/graha/internal/ansi"
	"github.com/papapumpkin/graha/internal/catalog"
	"github.com/papapumpkin/graha/internal/config"
	"github.com/papapumpkin/graha/internal/logging"
	"github.com/papapumpkin/graha/internal/ui"
)

// session bundles what every subcommand needs: the resolved configuration,
// a logger, and a printer for status lines on stderr.
type session struct {
	cfg      config.Config
	log      *logrus.Logger
	printer  *ui.Printer
	logClose io.Closer
}

func newSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:      cfg,
		log:      log,
		printer:  ui.New(os.Stderr, ansi.IsTerminal(os.Stderr)),
		logClose: closer,
	}, nil
}

func (s *session) Close() error {
	return s.logClose.Close()
}

// loadCatalog loads the configured catalogue, or path when it is not
// empty, and applies the disabled patterns and return tolerance override.
// Every call builds a fresh Catalog.
func loadCatalog(cfg config.Config, path string) (*catalog.Catalog, error) {
	if path == "" {
		path = cfg.Catalog
	}
	c, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	if len(cfg.DisabledPatterns) > 0 {
		if c, err = c.WithDisabled(cfg.DisabledPatterns...); err != nil {
			return nil, err
		}
	}
	return c.WithReturnTolerance(cfg.ReturnTolerance), nil
}
