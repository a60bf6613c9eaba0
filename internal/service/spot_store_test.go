package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"

	"parking_finder/internal/domain"
	"parking_finder/internal/repository"
	"parking_finder/internal/repository/memory"
	"parking_finder/internal/source"
)

// scriptedSource answers each Fetch with the next function in calls.
type scriptedSource struct {
	mu    sync.Mutex
	calls []func(ctx context.Context) ([]domain.ParkingSpot, error)
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) Fetch(ctx context.Context) ([]domain.ParkingSpot, error) {
	s.mu.Lock()
	next := s.calls[0]
	if len(s.calls) > 1 {
		s.calls = s.calls[1:]
	}
	s.mu.Unlock()
	return next(ctx)
}

func staticSource(spots ...domain.ParkingSpot) *scriptedSource {
	return &scriptedSource{calls: []func(context.Context) ([]domain.ParkingSpot, error){
		func(context.Context) ([]domain.ParkingSpot, error) {
			out := make([]domain.ParkingSpot, len(spots))
			for i := range spots {
				out[i] = spots[i].Clone()
			}
			return out, nil
		},
	}}
}

func spotAt(id int, name string, price float64, lat, lng float64) domain.ParkingSpot {
	return domain.ParkingSpot{
		ID:          id,
		Name:        name,
		Type:        "street",
		Price:       price,
		Capacity:    10,
		Available:   5,
		Coordinates: &domain.Coordinates{Lat: lat, Lng: lng},
	}
}

func newLoadedStore(t *testing.T, spots ...domain.ParkingSpot) *SpotStore {
	t.Helper()
	store := NewSpotStore(memory.NewSpotRepository(), staticSource(spots...))
	_, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	return store
}

func TestLoadAllSurfacesDataFormatError(t *testing.T) {
	src := &scriptedSource{calls: []func(context.Context) ([]domain.ParkingSpot, error){
		func(context.Context) ([]domain.ParkingSpot, error) {
			return []domain.ParkingSpot{spotAt(1, "A", 10, 0, 0)}, nil
		},
		func(context.Context) ([]domain.ParkingSpot, error) {
			return source.Decode([]byte(`{"spots": []}`))
		},
	}}
	store := NewSpotStore(memory.NewSpotRepository(), src)
	ctx := context.Background()
	_, err := store.LoadAll(ctx)
	require.NoError(t, err)

	_, err = store.LoadAll(ctx)
	assert.ErrorIs(t, err, source.ErrDataFormat)
	var dfe *source.DataFormatError
	assert.True(t, errors.As(err, &dfe))

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "failed load must not touch the collection")
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := &scriptedSource{calls: []func(context.Context) ([]domain.ParkingSpot, error){
		func(context.Context) ([]domain.ParkingSpot, error) {
			close(started)
			<-release
			return []domain.ParkingSpot{spotAt(1, "Old", 10, 0, 0)}, nil
		},
		func(context.Context) ([]domain.ParkingSpot, error) {
			return []domain.ParkingSpot{spotAt(1, "New", 10, 0, 0)}, nil
		},
	}}
	store := NewSpotStore(memory.NewSpotRepository(), src)
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := store.LoadAll(ctx)
		errc <- err
	}()
	<-started

	_, err := store.LoadAll(ctx)
	require.NoError(t, err)
	close(release)
	assert.ErrorIs(t, <-errc, ErrSuperseded)

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "New", all[0].Name)
}

func TestCreateAssignsIDAboveExisting(t *testing.T) {
	store := newLoadedStore(t, spotAt(3, "A", 10, 0, 0), spotAt(7, "B", 20, 0, 1))
	ctx := context.Background()

	created, err := store.Create(ctx, domain.ParkingSpot{Name: "C", Type: " Garage ", Capacity: 4, Available: 4})
	require.NoError(t, err)
	assert.Equal(t, 8, created.ID)
	assert.Equal(t, "garage", created.Type)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	store := newLoadedStore(t)
	_, err := store.Create(context.Background(), domain.ParkingSpot{Name: "X", Capacity: 2, Available: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidSpot)
}

func TestUpdateMergesPartialFields(t *testing.T) {
	store := newLoadedStore(t, spotAt(1, "A", 10, 0, 0))
	ctx := context.Background()

	updated, err := store.Update(ctx, 1, domain.ParkingSpotPatch{Price: null.FloatFrom(25), Covered: null.BoolFrom(true)})
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Price)
	assert.True(t, updated.Amenities.Covered)
	assert.Equal(t, "A", updated.Name)
	assert.Equal(t, 1, updated.ID)
}

func TestUpdateUnknownID(t *testing.T) {
	store := newLoadedStore(t, spotAt(1, "A", 10, 0, 0))
	_, err := store.Update(context.Background(), 42, domain.ParkingSpotPatch{Name: null.StringFrom("B")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newLoadedStore(t, spotAt(1, "A", 10, 0, 0), spotAt(2, "B", 10, 0, 0))
	ctx := context.Background()

	removed, err := store.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, removed)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSnapshotRecomputesDistancesAfterLocationChange(t *testing.T) {
	store := newLoadedStore(t, spotAt(1, "A", 10, 0, 0), spotAt(2, "B", 10, 0, 1))
	ctx := context.Background()

	require.NoError(t, store.SetUserLocation(ctx, domain.UserLocation{Coordinates: domain.Coordinates{Lat: 0, Lng: 0}}))
	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Spots[1].CalculatedDistance)
	assert.InDelta(t, 111.19, *snap.Spots[1].CalculatedDistance, 0.01)

	require.NoError(t, store.SetUserLocation(ctx, domain.UserLocation{Coordinates: domain.Coordinates{Lat: 0, Lng: 1}}))
	snap, err = store.Snapshot(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0, *snap.Spots[1].CalculatedDistance, 1e-9)
	assert.InDelta(t, 111.19, *snap.Spots[0].CalculatedDistance, 0.01)
	assert.Equal(t, 1.0, snap.Location.Lng)
}

func TestLocateUserSupersededByDeviceLocation(t *testing.T) {
	store := newLoadedStore(t)
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	errc := make(chan error, 1)
	go func() {
		_, err := store.LocateUser(ctx, func(context.Context) (domain.UserLocation, error) {
			close(started)
			<-release
			return domain.UserLocation{Coordinates: domain.Coordinates{Lat: 9, Lng: 9}}, nil
		})
		errc <- err
	}()
	<-started

	device := domain.UserLocation{Coordinates: domain.Coordinates{Lat: 1, Lng: 2}, Source: domain.LocationDevice}
	require.NoError(t, store.SetUserLocation(ctx, device))
	close(release)

	assert.ErrorIs(t, <-errc, ErrSuperseded)
	assert.Equal(t, &device, store.UserLocation())
}

func TestLocateUserCommitsFallbackAndReturnsError(t *testing.T) {
	store := newLoadedStore(t)
	lookupErr := errors.New("denied")
	fallback := domain.UserLocation{Coordinates: domain.Coordinates{Lat: -1.28, Lng: 36.81}, Source: domain.LocationDefault}

	loc, err := store.LocateUser(context.Background(), func(context.Context) (domain.UserLocation, error) {
		return fallback, lookupErr
	})
	assert.ErrorIs(t, err, lookupErr)
	assert.Equal(t, fallback, loc)
	assert.Equal(t, &fallback, store.UserLocation())
}

// hookedRepo runs onFind inside FindByID, between the read and the write of an update.
type hookedRepo struct {
	repository.SpotRepository
	onFind func()
}

func (r *hookedRepo) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	if r.onFind != nil {
		hook := r.onFind
		r.onFind = nil
		hook()
	}
	return r.SpotRepository.FindByID(ctx, id)
}

func TestUpdateNeverWritesBackStaleDistance(t *testing.T) {
	repo := &hookedRepo{SpotRepository: memory.NewSpotRepository()}
	store := NewSpotStore(repo, staticSource(spotAt(1, "A", 10, 0, 1)))
	ctx := context.Background()
	_, err := store.LoadAll(ctx)
	require.NoError(t, err)

	require.NoError(t, store.SetUserLocation(ctx, domain.UserLocation{Coordinates: domain.Coordinates{Lat: 0, Lng: 0}}))
	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.InDelta(t, 111.19, *snap.Spots[0].CalculatedDistance, 0.01)

	moved := make(chan error, 1)
	repo.onFind = func() {
		go func() {
			moved <- store.SetUserLocation(ctx, domain.UserLocation{Coordinates: domain.Coordinates{Lat: 0, Lng: 1}})
		}()
		// give the location change a chance to run inside the update window
		time.Sleep(20 * time.Millisecond)
	}

	_, err = store.Update(ctx, 1, domain.ParkingSpotPatch{Name: null.StringFrom("Renamed")})
	require.NoError(t, err)
	require.NoError(t, <-moved)

	snap, err = store.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Spots[0].CalculatedDistance)
	assert.InDelta(t, 0, *snap.Spots[0].CalculatedDistance, 1e-9)
	assert.Equal(t, "Renamed", snap.Spots[0].Name)

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.NotNil(t, all[0].CalculatedDistance)
	assert.InDelta(t, 0, *all[0].CalculatedDistance, 1e-9)
}
