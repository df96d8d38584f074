// Package ephemeris defines the boundary to the external position provider
// and a file-backed provider for fixed charts. No astronomy happens here:
// positions are supplied, never computed.
package ephemeris

import (
	"context"
	"errors"
	"time"

	"github.com/papapumpkin/graha/internal/chart"
)

// ErrUnavailable indicates the provider has no positions for a query.
var ErrUnavailable = errors.New("ephemeris data unavailable")

// Location is a place on Earth in decimal degrees.
type Location struct {
	Name      string  `toml:"name,omitempty" yaml:"name,omitempty" json:"name,omitempty"`
	Latitude  float64 `toml:"latitude" yaml:"latitude" json:"latitude"`
	Longitude float64 `toml:"longitude" yaml:"longitude" json:"longitude"`
}

// Query asks for body positions at one instant and place.
type Query struct {
	Instant  time.Time
	Location Location
}

// Provider supplies body positions. A failure is fatal to the request that
// asked; callers do not retry.
type Provider interface {
	Positions(ctx context.Context, q Query) (chart.Set, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, q Query) (chart.Set, error)

// Positions calls f.
func (f ProviderFunc) Positions(ctx context.Context, q Query) (chart.Set, error) {
	return f(ctx, q)
}
