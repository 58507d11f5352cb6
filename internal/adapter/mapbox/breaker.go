package mapbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

// BreakerGeocoder stops calling the wrapped geocoder after a run of
// consecutive failures and lets one probe through once the cooldown elapses.
type BreakerGeocoder struct {
	inner   domain.Geocoder
	breaker *gobreaker.CircuitBreaker[domain.GeocodingResult]
}

// NewBreakerGeocoder wraps inner with a circuit breaker that opens after
// failures consecutive errors and stays open for cooldown.
func NewBreakerGeocoder(inner domain.Geocoder, failures int, cooldown time.Duration, logger *slog.Logger) *BreakerGeocoder {
	threshold := uint32(max(failures, 1)) //nolint:gosec // bounded by config validation
	settings := gobreaker.Settings{
		Name:        "mapbox",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("geocoder circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerGeocoder{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[domain.GeocodingResult](settings),
	}
}

func (b *BreakerGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	result, err := b.breaker.Execute(func() (domain.GeocodingResult, error) {
		return b.inner.ReverseGeocode(ctx, lat, lon)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.GeocodingResult{}, fmt.Errorf("geocoder unavailable: %w", err)
	}
	return result, err
}

// State reports the breaker state, for logging and tests.
func (b *BreakerGeocoder) State() gobreaker.State {
	return b.breaker.State()
}
