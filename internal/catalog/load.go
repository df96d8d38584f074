package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultSource is the Source of the embedded catalogue.
const DefaultSource = "default"

//go:embed default.toml
var defaultTOML []byte

// Format is a catalogue encoding.
type Format string

// Supported encodings.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf infers the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Default returns the embedded catalogue.
func Default() (*Catalog, error) {
	return Parse(defaultTOML, FormatTOML, DefaultSource)
}

// DefaultData returns the raw embedded catalogue, for display.
func DefaultData() []byte {
	return bytes.Clone(defaultTOML)
}

// Load reads, decodes, and validates a catalogue file. An empty path loads
// the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	return Parse(data, format, path)
}

// Parse decodes data in the given format and builds a Catalog from it.
// Unknown keys are rejected so that a misspelt option is not silently
// ignored.
func Parse(data []byte, format Format, source string) (*Catalog, error) {
	f, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}
	return Build(f, source)
}

// Decode decodes a catalogue file without validating it.
func Decode(data []byte, format Format) (File, error) {
	var f File
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return File{}, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return File{}, err
		}
	default:
		return File{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return f, nil
}
