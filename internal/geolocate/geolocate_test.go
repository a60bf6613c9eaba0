package geolocate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_finder/internal/domain"
)

var nairobi = domain.Coordinates{Lat: -1.286389, Lng: 36.817223}

type providerFunc func(ctx context.Context, hint string) (domain.Coordinates, error)

func (f providerFunc) Locate(ctx context.Context, hint string) (domain.Coordinates, error) {
	return f(ctx, hint)
}

func TestResolveSuccess(t *testing.T) {
	r := NewResolver(providerFunc(func(ctx context.Context, hint string) (domain.Coordinates, error) {
		return domain.Coordinates{Lat: 51.5, Lng: -0.12}, nil
	}), time.Second, nairobi)

	loc, err := r.Resolve(context.Background(), "81.2.69.142")
	require.NoError(t, err)
	assert.Equal(t, domain.LocationGeoIP, loc.Source)
	assert.Equal(t, 51.5, loc.Lat)
}

func TestResolveFailureFallsBack(t *testing.T) {
	r := NewResolver(providerFunc(func(ctx context.Context, hint string) (domain.Coordinates, error) {
		return domain.Coordinates{}, errors.New("denied")
	}), time.Second, nairobi)

	loc, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrLocationUnavailable)
	assert.Equal(t, domain.LocationDefault, loc.Source)
	assert.Equal(t, nairobi, loc.Coordinates)
}

func TestResolveTimeoutFallsBack(t *testing.T) {
	r := NewResolver(providerFunc(func(ctx context.Context, hint string) (domain.Coordinates, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return domain.Coordinates{Lat: 1, Lng: 1}, nil
	}), 20*time.Millisecond, nairobi)

	start := time.Now()
	loc, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrLocationUnavailable)
	assert.Equal(t, nairobi, loc.Coordinates)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveWithoutProvider(t *testing.T) {
	loc, err := NewResolver(nil, 0, nairobi).Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrLocationUnavailable)
	assert.Equal(t, domain.LocationDefault, loc.Source)
}
