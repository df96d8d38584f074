package ephemeris

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/graha/internal/chart"
)

// bodyEntry is one body as written in a chart file. Speed is optional.
type bodyEntry struct {
	Name      string   `toml:"name" yaml:"name"`
	Longitude float64  `toml:"longitude" yaml:"longitude"`
	Latitude  float64  `toml:"latitude,omitempty" yaml:"latitude,omitempty"`
	Speed     *float64 `toml:"speed,omitempty" yaml:"speed,omitempty"`
}

// snapshotFile is the on-disk shape of a chart file.
type snapshotFile struct {
	Instant   time.Time   `toml:"instant" yaml:"instant"`
	Location  Location    `toml:"location" yaml:"location"`
	Ascendant *float64    `toml:"ascendant,omitempty" yaml:"ascendant,omitempty"`
	Night     bool        `toml:"night,omitempty" yaml:"night,omitempty"`
	Bodies    []bodyEntry `toml:"bodies" yaml:"bodies"`
	Natal     []bodyEntry `toml:"natal,omitempty" yaml:"natal,omitempty"`
}

// Snapshot is a chart recorded at a fixed instant: the transiting bodies,
// optionally the natal bodies they are compared against, the ascendant,
// and whether the chart is a night chart. It serves as a Provider for its
// own instant.
type Snapshot struct {
	Source    string
	Instant   time.Time
	Location  Location
	Ascendant *float64
	Night     bool
	Bodies    chart.Set
	Natal     *chart.Set
}

// LoadSnapshot reads a TOML (.toml) or YAML (.yaml, .yml) chart file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chart: %w", err)
	}
	var yamlFormat bool
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
	case ".yaml", ".yml":
		yamlFormat = true
	default:
		return nil, fmt.Errorf("chart %s: unsupported extension", path)
	}
	s, err := ParseSnapshot(data, yamlFormat)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

// ParseSnapshot decodes a chart file, YAML when yamlFormat is set and TOML
// otherwise.
func ParseSnapshot(data []byte, yamlFormat bool) (*Snapshot, error) {
	var f snapshotFile
	if yamlFormat {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	} else {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
	}

	if f.Ascendant != nil && !chart.Finite(*f.Ascendant) {
		return nil, fmt.Errorf("ascendant: %w", chart.ErrInvalidLongitude)
	}
	bodies, err := toSet(f.Bodies)
	if err != nil {
		return nil, fmt.Errorf("bodies: %w", err)
	}
	s := &Snapshot{
		Instant:   f.Instant,
		Location:  f.Location,
		Ascendant: f.Ascendant,
		Night:     f.Night,
		Bodies:    bodies,
	}
	if len(f.Natal) > 0 {
		natal, err := toSet(f.Natal)
		if err != nil {
			return nil, fmt.Errorf("natal: %w", err)
		}
		s.Natal = &natal
	}
	return s, nil
}

func toSet(entries []bodyEntry) (chart.Set, error) {
	bodies := make([]chart.Body, 0, len(entries))
	for _, e := range entries {
		b := chart.NewBody(e.Name, e.Longitude)
		b.Latitude = e.Latitude
		if e.Speed != nil {
			b = b.WithSpeed(*e.Speed)
		}
		bodies = append(bodies, b)
	}
	return chart.NewSet(bodies...)
}

// Query returns the query this snapshot answers.
func (s *Snapshot) Query() Query {
	return Query{Instant: s.Instant, Location: s.Location}
}

// Positions returns the recorded bodies. A query for a different instant
// fails with ErrUnavailable; a zero instant on either side matches.
func (s *Snapshot) Positions(ctx context.Context, q Query) (chart.Set, error) {
	if err := ctx.Err(); err != nil {
		return chart.Set{}, err
	}
	if !q.Instant.IsZero() && !s.Instant.IsZero() && !q.Instant.Equal(s.Instant) {
		return chart.Set{}, fmt.Errorf("%w: snapshot %s holds %s, not %s",
			ErrUnavailable, s.Source, s.Instant.Format(time.RFC3339), q.Instant.Format(time.RFC3339))
	}
	if s.Bodies.Len() == 0 {
		return chart.Set{}, fmt.Errorf("%w: snapshot %s has no bodies", ErrUnavailable, s.Source)
	}
	return s.Bodies, nil
}
