// Package geolocate resolves the user's location with a bounded wait and a fixed fallback.
package geolocate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"

	"parking_finder/internal/domain"
)

var ErrLocationUnavailable = errors.New("location unavailable")

// Provider looks up coordinates for a client. The hint is the client's IP address.
type Provider interface {
	Locate(ctx context.Context, hint string) (domain.Coordinates, error)
}

// Resolver bounds a provider by a timeout and substitutes the default location on failure.
type Resolver struct {
	provider Provider
	timeout  time.Duration
	fallback domain.Coordinates
}

// NewResolver builds a resolver; provider may be nil, in which case every lookup falls back.
func NewResolver(provider Provider, timeout time.Duration, fallback domain.Coordinates) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{provider: provider, timeout: timeout, fallback: fallback}
}

func (r *Resolver) Default() domain.UserLocation {
	return domain.UserLocation{Coordinates: r.fallback, Source: domain.LocationDefault}
}

// Resolve always returns a usable location. When the provider fails, times out or is missing,
// the default location is returned together with an error wrapping ErrLocationUnavailable.
func (r *Resolver) Resolve(ctx context.Context, hint string) (domain.UserLocation, error) {
	if r.provider == nil {
		return r.Default(), fmt.Errorf("%w: no provider configured", ErrLocationUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		c   domain.Coordinates
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := r.provider.Locate(ctx, hint)
		ch <- result{c, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return r.Default(), fmt.Errorf("%w: %v", ErrLocationUnavailable, res.err)
		}
		return domain.UserLocation{Coordinates: res.c, Source: domain.LocationGeoIP}, nil
	case <-ctx.Done():
		return r.Default(), fmt.Errorf("%w: %v", ErrLocationUnavailable, ctx.Err())
	}
}

// GeoIPProvider looks client addresses up in a MaxMind City database.
type GeoIPProvider struct {
	reader *geoip2.Reader
}

func OpenGeoIP(path string) (*GeoIPProvider, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	return &GeoIPProvider{reader: reader}, nil
}

func (p *GeoIPProvider) Close() error { return p.reader.Close() }

func (p *GeoIPProvider) Locate(ctx context.Context, hint string) (domain.Coordinates, error) {
	ip := net.ParseIP(hint)
	if ip == nil {
		return domain.Coordinates{}, fmt.Errorf("invalid client address %q", hint)
	}
	if ip.IsLoopback() || ip.IsPrivate() {
		return domain.Coordinates{}, fmt.Errorf("client address %s is not routable", hint)
	}
	city, err := p.reader.City(ip)
	if err != nil {
		return domain.Coordinates{}, err
	}
	if city.Location.Latitude == 0 && city.Location.Longitude == 0 {
		return domain.Coordinates{}, fmt.Errorf("no location for %s", hint)
	}
	return domain.Coordinates{Lat: city.Location.Latitude, Lng: city.Location.Longitude}, nil
}
