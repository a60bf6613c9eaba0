package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"parking_finder/internal/domain"
	"parking_finder/internal/geo"
	"parking_finder/internal/logger"
	"parking_finder/internal/repository"
	"parking_finder/internal/source"
)

// ErrSuperseded is returned when an asynchronous load or location lookup completes after a newer
// one was already committed. Its result is discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// SpotStore owns the canonical spot collection and the current user location.
type SpotStore struct {
	repo   repository.SpotRepository
	source source.Source

	mu            sync.Mutex
	location      *domain.UserLocation
	loadIssued    uint64
	loadCommitted uint64
	locIssued     uint64
	locCommitted  uint64
}

func NewSpotStore(repo repository.SpotRepository, src source.Source) *SpotStore {
	return &SpotStore{repo: repo, source: src}
}

// LoadAll replaces the whole collection from the data source. A DataFormatError from the
// source is returned unchanged and leaves the current collection untouched.
func (s *SpotStore) LoadAll(ctx context.Context) ([]domain.ParkingSpot, error) {
	s.mu.Lock()
	s.loadIssued++
	ticket := s.loadIssued
	s.mu.Unlock()

	spots, err := s.source.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket < s.loadCommitted {
		logger.L().Info("load_superseded", "ticket", ticket, "committed", s.loadCommitted)
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceAll(ctx, spots); err != nil {
		return nil, fmt.Errorf("SpotStore.LoadAll: %w", err)
	}
	s.loadCommitted = ticket
	logger.L().Info("spots_loaded", "source", s.source.Name(), "count", len(spots))
	return s.repo.FindAll(ctx)
}

func (s *SpotStore) Create(ctx context.Context, candidate domain.ParkingSpot) (*domain.ParkingSpot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate.Type = domain.NormalizeType(candidate.Type)
	candidate.CalculatedDistance = nil
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, &candidate)
	if err != nil {
		return nil, fmt.Errorf("SpotStore.Create: %w", err)
	}
	return created, nil
}

// Update merges the patch onto the record with the given id. The read-merge-write holds the
// store lock so a location change or reload cannot interleave with it.
func (s *SpotStore) Update(ctx context.Context, id int, patch domain.ParkingSpotPatch) (*domain.ParkingSpot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := existing.Merge(patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	// recomputed on the next snapshot
	merged.CalculatedDistance = nil
	return s.repo.Update(ctx, &merged)
}

// Delete removes the record and reports whether anything was removed.
func (s *SpotStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Delete(ctx, id)
}

func (s *SpotStore) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	return s.repo.FindByID(ctx, id)
}

// All returns the records in insertion order.
func (s *SpotStore) All(ctx context.Context) ([]domain.ParkingSpot, error) {
	return s.repo.FindAll(ctx)
}

// SetUserLocation replaces the current location and invalidates every derived distance.
// It also supersedes any location lookup still in flight.
func (s *SpotStore) SetUserLocation(ctx context.Context, loc domain.UserLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locIssued++
	return s.commitLocation(ctx, s.locIssued, loc)
}

// LocateUser runs an asynchronous lookup and commits its result only if no newer location was
// set meanwhile. A lookup that fails but still yields a location (the default) is committed and
// its error returned alongside.
func (s *SpotStore) LocateUser(ctx context.Context, locate func(context.Context) (domain.UserLocation, error)) (domain.UserLocation, error) {
	s.mu.Lock()
	s.locIssued++
	ticket := s.locIssued
	s.mu.Unlock()

	loc, lookupErr := locate(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket < s.locCommitted {
		return loc, ErrSuperseded
	}
	if err := s.commitLocation(ctx, ticket, loc); err != nil {
		return loc, err
	}
	return loc, lookupErr
}

func (s *SpotStore) commitLocation(ctx context.Context, ticket uint64, loc domain.UserLocation) error {
	if err := s.repo.ClearDerived(ctx); err != nil {
		return fmt.Errorf("SpotStore.SetUserLocation: %w", err)
	}
	l := loc
	s.location = &l
	s.locCommitted = ticket
	logger.L().Debug("user_location_set", "lat", loc.Lat, "lng", loc.Lng, "source", loc.Source)
	return nil
}

func (s *SpotStore) UserLocation() *domain.UserLocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return nil
	}
	l := *s.location
	return &l
}

// Snapshot reads the records together with the current location, recomputing the derived
// distances that were invalidated since the last read.
func (s *SpotStore) Snapshot(ctx context.Context) (domain.StoreSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spots, err := s.repo.FindAll(ctx)
	if err != nil {
		return domain.StoreSnapshot{}, fmt.Errorf("SpotStore.Snapshot: %w", err)
	}
	snap := domain.StoreSnapshot{Spots: spots}
	if s.location == nil {
		return snap, nil
	}
	l := *s.location
	snap.Location = &l

	stale := make(map[int]float64)
	for i := range spots {
		if spots[i].CalculatedDistance != nil {
			continue
		}
		if km, ok := geo.DistanceFrom(&l.Coordinates, spots[i]); ok {
			stale[spots[i].ID] = km
			spots[i].CalculatedDistance = &km
		}
	}
	if len(stale) > 0 {
		if err := s.repo.SetDerived(ctx, stale); err != nil {
			return domain.StoreSnapshot{}, fmt.Errorf("SpotStore.Snapshot: %w", err)
		}
	}
	return snap, nil
}
