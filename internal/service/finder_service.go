package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"parking_finder/internal/domain"
	"parking_finder/internal/geolocate"
	"parking_finder/internal/logger"
	"parking_finder/internal/metrics"
	"parking_finder/internal/presentation"
	"parking_finder/internal/ranking"
	"parking_finder/internal/repository"
	"parking_finder/internal/viewmodel"
)

// Notifier delivers transient notifications to connected clients.
type Notifier interface {
	Notify(n domain.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(domain.Notification) {}

// FinderService runs every state change through the store and then refreshes the presentation,
// so callers never touch the sync directly for data changes.
type FinderService struct {
	store    *SpotStore
	sync     *presentation.Sync
	builder  *viewmodel.Builder
	resolver *geolocate.Resolver
	notifier Notifier
}

func NewFinderService(store *SpotStore, sync *presentation.Sync, builder *viewmodel.Builder,
	resolver *geolocate.Resolver, notifier Notifier) *FinderService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &FinderService{
		store:    store,
		sync:     sync,
		builder:  builder,
		resolver: resolver,
		notifier: notifier,
	}
}

// Load replaces the collection from the data source. On failure the error frame is published
// and the error returned; a superseded load changes nothing.
func (s *FinderService) Load(ctx context.Context) (domain.Frame, error) {
	_, err := s.store.LoadAll(ctx)
	if errors.Is(err, ErrSuperseded) {
		return s.sync.Current(), err
	}
	if err != nil {
		sentry.CaptureException(err)
		frame := s.sync.LoadFailed(ctx, err)
		s.notify(domain.NotifyError, presentation.LoadErrorMessage)
		return frame, err
	}
	return s.sync.Refresh(ctx, presentation.ReasonLoaded)
}

func (s *FinderService) Spots(ctx context.Context) ([]domain.ParkingSpot, error) {
	return s.store.All(ctx)
}

func (s *FinderService) Spot(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	return s.store.FindByID(ctx, id)
}

func (s *FinderService) CreateSpot(ctx context.Context, candidate domain.ParkingSpot) (*domain.ParkingSpot, error) {
	created, err := s.store.Create(ctx, candidate)
	if err != nil {
		s.notify(domain.NotifyError, "Could not add parking spot: "+err.Error())
		return nil, err
	}
	s.refresh(ctx, presentation.ReasonCreated)
	s.notify(domain.NotifySuccess, fmt.Sprintf("Parking spot %q added", created.Name))
	return created, nil
}

func (s *FinderService) UpdateSpot(ctx context.Context, id int, patch domain.ParkingSpotPatch) (*domain.ParkingSpot, error) {
	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notify(domain.NotifyError, fmt.Sprintf("Parking spot %d not found", id))
		} else {
			s.notify(domain.NotifyError, "Could not update parking spot: "+err.Error())
		}
		return nil, err
	}
	s.refresh(ctx, presentation.ReasonUpdated)
	s.notify(domain.NotifySuccess, fmt.Sprintf("Parking spot %q updated", updated.Name))
	return updated, nil
}

// DeleteSpot is idempotent: deleting an unknown id reports false and leaves the view alone.
func (s *FinderService) DeleteSpot(ctx context.Context, id int) (bool, error) {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		s.notify(domain.NotifyError, "Could not delete parking spot: "+err.Error())
		return false, err
	}
	if !removed {
		return false, nil
	}
	s.refresh(ctx, presentation.ReasonDeleted)
	s.notify(domain.NotifySuccess, fmt.Sprintf("Parking spot %d deleted", id))
	return true, nil
}

// SetLocation records device-reported coordinates.
func (s *FinderService) SetLocation(ctx context.Context, c domain.Coordinates) (domain.Frame, error) {
	loc := domain.UserLocation{Coordinates: c, Source: domain.LocationDevice}
	if err := s.store.SetUserLocation(ctx, loc); err != nil {
		return s.sync.Current(), err
	}
	return s.sync.Refresh(ctx, presentation.ReasonLocation)
}

// Locate resolves the location server side. An unavailable location is not an error for the
// caller: the default coordinates are used and the user is warned.
func (s *FinderService) Locate(ctx context.Context, hint string) (domain.UserLocation, domain.Frame, error) {
	loc, err := s.store.LocateUser(ctx, func(ctx context.Context) (domain.UserLocation, error) {
		return s.resolver.Resolve(ctx, hint)
	})
	switch {
	case errors.Is(err, ErrSuperseded):
		logger.L().Info("locate_superseded", "hint", hint)
		return loc, s.sync.Current(), err
	case errors.Is(err, geolocate.ErrLocationUnavailable):
		metrics.GeolocationFallbacksTotal.Inc()
		logger.L().Warn("location_unavailable", "err", err)
		s.notify(domain.NotifyWarning, "Could not determine your location. Showing distances from the city centre.")
	case err != nil:
		return loc, s.sync.Current(), err
	}
	frame, err := s.sync.Refresh(ctx, presentation.ReasonLocation)
	return loc, frame, err
}

func (s *FinderService) Location() *domain.UserLocation {
	return s.store.UserLocation()
}

func (s *FinderService) Categories(ctx context.Context) ([]string, error) {
	spots, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.Categories(spots), nil
}

func (s *FinderService) refresh(ctx context.Context, reason string) {
	if _, err := s.sync.Refresh(ctx, reason); err != nil {
		logger.L().Error("refresh_failed", "reason", reason, "err", err)
	}
}

func (s *FinderService) notify(level domain.NotificationLevel, msg string) {
	s.notifier.Notify(domain.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	})
}
