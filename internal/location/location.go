// Package location resolves the device position and a readable address
// for it. Every lookup is bounded; address resolution degrades to the raw
// coordinates.
package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

// Coordinates is a raw position fix
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Accuracy in meters; 0 when unknown
	Accuracy float64 `json:"accuracy,omitempty"`
}

// Sample is one location lookup result. It is produced per request and
// never persisted.
type Sample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	TakenAt   time.Time `json:"takenAt"`
}

// MapsLink returns the Google Maps link for the sample
func (s Sample) MapsLink() string {
	return MapsLink(s.Latitude, s.Longitude)
}

// DisplayText returns the resolved address, or the coordinates when no
// address is known
func (s Sample) DisplayText() string {
	if s.Address != "" {
		return s.Address
	}
	return CoordinatesText(s.Latitude, s.Longitude)
}

// MapsLink builds https://www.google.com/maps?q=<lat>,<lng>
func MapsLink(lat, lng float64) string {
	return "https://www.google.com/maps?q=" + formatCoord(lat) + "," + formatCoord(lng)
}

// CoordinatesText renders coordinates with six decimals
func CoordinatesText(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Locator produces a position fix
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// Resolver turns coordinates into a human-readable address
type Resolver interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// LocatorFunc adapts a function to Locator
type LocatorFunc func(ctx context.Context) (Coordinates, error)

func (f LocatorFunc) Locate(ctx context.Context) (Coordinates, error) { return f(ctx) }

// StaticLocator reports fixed, configured coordinates
type StaticLocator struct {
	coords *Coordinates
}

// NewStaticLocator returns a locator for lat/lng. Nil pointers yield a
// locator that always reports ErrLocationUnavailable.
func NewStaticLocator(lat, lng *float64, accuracy float64) *StaticLocator {
	if lat == nil || lng == nil {
		return &StaticLocator{}
	}
	return &StaticLocator{coords: &Coordinates{Latitude: *lat, Longitude: *lng, Accuracy: accuracy}}
}

func (s *StaticLocator) Locate(ctx context.Context) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	if s.coords == nil {
		return Coordinates{}, fmt.Errorf("%w: no coordinates configured", apperrors.ErrLocationUnavailable)
	}
	return *s.coords, nil
}

// Service combines a Locator and an optional Resolver under one timeout
type Service struct {
	locator  Locator
	resolver Resolver
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a location service. A nil resolver skips address
// lookup; a non-positive timeout uses ten seconds.
func NewService(locator Locator, resolver Resolver, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		locator:  locator,
		resolver: resolver,
		timeout:  timeout,
		now:      time.Now,
		logger:   logging.OrNop(logger),
	}
}

// Current returns a fresh sample. Locator failure or timeout is reported as
// ErrLocationUnavailable; resolver failure only drops to coordinate text.
func (s *Service) Current(ctx context.Context) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coords, err := s.locator.Locate(ctx)
	if err != nil {
		s.logger.Warn("Location lookup failed", zap.Error(err))
		return Sample{}, fmt.Errorf("%w: %v", apperrors.ErrLocationUnavailable, err)
	}

	sample := Sample{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Accuracy:  coords.Accuracy,
		TakenAt:   s.now(),
	}

	if s.resolver == nil {
		sample.Address = CoordinatesText(coords.Latitude, coords.Longitude)
		return sample, nil
	}

	address, err := s.resolver.Reverse(ctx, coords.Latitude, coords.Longitude)
	if err != nil || address == "" {
		s.logger.Debug("Address lookup failed, using coordinates", zap.Error(err))
		address = CoordinatesText(coords.Latitude, coords.Longitude)
	}
	sample.Address = address
	return sample, nil
}

// Locate satisfies Locator so a Service can be passed where a bare fix is
// needed
func (s *Service) Locate(ctx context.Context) (Coordinates, error) {
	sample, err := s.Current(ctx)
	if err != nil {
		return Coordinates{}, err
	}
	return Coordinates{Latitude: sample.Latitude, Longitude: sample.Longitude, Accuracy: sample.Accuracy}, nil
}
