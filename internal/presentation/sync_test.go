package presentation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_finder/internal/domain"
	"parking_finder/internal/viewmodel"
)

type fakeSource struct {
	snap domain.StoreSnapshot
	err  error
}

func (f *fakeSource) Snapshot(ctx context.Context) (domain.StoreSnapshot, error) {
	return f.snap, f.err
}

type recorder struct {
	frames []domain.Frame
}

func (r *recorder) SetData(frame domain.Frame) { r.frames = append(r.frames, frame) }

func (r *recorder) last() domain.Frame { return r.frames[len(r.frames)-1] }

func spots(n int) []domain.ParkingSpot {
	out := make([]domain.ParkingSpot, n)
	for i := range out {
		out[i] = domain.ParkingSpot{
			ID:          i + 1,
			Name:        fmt.Sprintf("Spot %02d", i+1),
			Type:        []string{"street", "lot"}[i%2],
			Price:       float64(100 - i),
			Capacity:    10,
			Available:   i,
			Coordinates: &domain.Coordinates{Lat: 0, Lng: float64(i)},
		}
	}
	return out
}

func newTestSync(src *fakeSource, featured int, targets ...Target) *Sync {
	return NewSync(src, viewmodel.NewBuilder("KSH", "img.jpg"), featured, targets...)
}

func cardIDs(views []domain.SpotView) []int {
	out := make([]int, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

func markerIDs(markers []domain.MarkerDescriptor) []int {
	out := make([]int, len(markers))
	for i, m := range markers {
		out[i] = m.ID
	}
	return out
}

func TestRefreshPublishesSameFrameToAllTargets(t *testing.T) {
	mapTarget, listTarget, slideTarget := &recorder{}, &recorder{}, &recorder{}
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(5)}}
	s := newTestSync(src, 3, mapTarget, listTarget, slideTarget)

	ctx := context.Background()
	_, err := s.Refresh(ctx, ReasonLoaded)
	require.NoError(t, err)
	_, err = s.SetFilter(ctx, "street")
	require.NoError(t, err)
	_, err = s.SetSort(ctx, domain.SortPrice)
	require.NoError(t, err)

	require.Len(t, mapTarget.frames, 3)
	for i := range mapTarget.frames {
		assert.Equal(t, mapTarget.frames[i], listTarget.frames[i])
		assert.Equal(t, mapTarget.frames[i], slideTarget.frames[i])
		assert.Equal(t, uint64(i+1), mapTarget.frames[i].Version)
	}

	last := listTarget.last()
	assert.Equal(t, []int{5, 3, 1}, cardIDs(last.Cards))
	assert.Equal(t, cardIDs(last.Cards), markerIDs(last.Markers))
	require.NotNil(t, last.Slideshow)
	assert.Equal(t, cardIDs(last.Cards), cardIDs(last.Slideshow.Slides))
	assert.Equal(t, Idle, s.State())
}

func TestSlideshowSuppressedBelowFeaturedCount(t *testing.T) {
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(2)}}
	s := newTestSync(src, 3)

	frame, err := s.Refresh(context.Background(), ReasonLoaded)
	require.NoError(t, err)
	assert.Nil(t, frame.Slideshow)
	assert.Len(t, frame.Cards, 2)

	// moving a suppressed slideshow is a no-op
	assert.Equal(t, frame.Version, s.ShowNext().Version)
	assert.Equal(t, 0, s.View().SlideIndex)
}

func TestShowNextWrapsModuloSubsetLength(t *testing.T) {
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(6)}}
	s := newTestSync(src, 3)
	_, err := s.Refresh(context.Background(), ReasonLoaded)
	require.NoError(t, err)

	for n := 1; n <= 7; n++ {
		frame := s.ShowNext()
		require.NotNil(t, frame.Slideshow)
		assert.Equal(t, n%3, frame.Slideshow.Index)
		assert.Equal(t, n%3, s.View().SlideIndex)
	}
}

func TestShowPreviousWraps(t *testing.T) {
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(4)}}
	s := newTestSync(src, 3)
	_, err := s.Refresh(context.Background(), ReasonLoaded)
	require.NoError(t, err)

	assert.Equal(t, 2, s.ShowPrevious().Slideshow.Index)
	assert.Equal(t, 1, s.ShowPrevious().Slideshow.Index)
}

func TestSingleSlideIsNoop(t *testing.T) {
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(3)}}
	s := newTestSync(src, 1)
	_, err := s.Refresh(context.Background(), ReasonLoaded)
	require.NoError(t, err)

	frame := s.ShowNext()
	require.NotNil(t, frame.Slideshow)
	assert.Equal(t, 0, frame.Slideshow.Index)
	assert.Equal(t, 0, s.ShowPrevious().Slideshow.Index)
}

func TestSlideIndexClampedWhenSubsetShrinks(t *testing.T) {
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(6)}}
	s := newTestSync(src, 3)
	ctx := context.Background()
	_, err := s.Refresh(ctx, ReasonLoaded)
	require.NoError(t, err)
	s.ShowNext()
	s.ShowNext()
	require.Equal(t, 2, s.View().SlideIndex)

	src.snap.Spots = spots(2)
	frame, err := s.Refresh(ctx, ReasonDeleted)
	require.NoError(t, err)
	assert.Nil(t, frame.Slideshow)
	assert.Equal(t, 0, s.View().SlideIndex)

	src.snap.Spots = spots(5)
	frame, err = s.Refresh(ctx, ReasonLoaded)
	require.NoError(t, err)
	require.NotNil(t, frame.Slideshow)
	assert.Equal(t, 0, frame.Slideshow.Index)
}

func TestUnknownFilterRendersEmptyState(t *testing.T) {
	target := &recorder{}
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(4)}}
	s := newTestSync(src, 3, target)

	frame, err := s.SetFilter(context.Background(), "helipad")
	require.NoError(t, err)
	assert.True(t, frame.Empty)
	assert.Equal(t, EmptyMessage, frame.Message)
	assert.Empty(t, frame.Cards)
	assert.Empty(t, frame.Markers)
	assert.Nil(t, frame.Slideshow)
	assert.Empty(t, frame.Error)
}

func TestLoadFailedPublishesErrorFrame(t *testing.T) {
	target := &recorder{}
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(4)}}
	s := newTestSync(src, 3, target)
	ctx := context.Background()

	frame := s.LoadFailed(ctx, errors.New("malformed"))
	assert.Equal(t, LoadErrorMessage, frame.Error)
	assert.Empty(t, frame.Markers)
	assert.Empty(t, frame.Cards)
	assert.Nil(t, frame.Slideshow)

	// the error stays until a load succeeds
	frame, err := s.SetSort(ctx, domain.SortName)
	require.NoError(t, err)
	assert.Equal(t, LoadErrorMessage, frame.Error)

	frame, err = s.Refresh(ctx, ReasonLoaded)
	require.NoError(t, err)
	assert.Empty(t, frame.Error)
	assert.Len(t, frame.Cards, 4)
	assert.Len(t, target.frames, 3)
}

func TestSnapshotErrorKeepsPreviousFrame(t *testing.T) {
	target := &recorder{}
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(4)}}
	s := newTestSync(src, 3, target)
	ctx := context.Background()
	first, err := s.Refresh(ctx, ReasonLoaded)
	require.NoError(t, err)

	src.err = errors.New("boom")
	frame, err := s.Refresh(ctx, ReasonCreated)
	require.Error(t, err)
	assert.Equal(t, first.Version, frame.Version)
	assert.Len(t, target.frames, 1)
}

func TestInvalidSortKey(t *testing.T) {
	s := newTestSync(&fakeSource{}, 3)
	_, err := s.SetSort(context.Background(), "rating")
	assert.ErrorIs(t, err, ErrInvalidSortKey)
}

func TestDistancesFollowCurrentLocation(t *testing.T) {
	src := &fakeSource{snap: domain.StoreSnapshot{
		Spots:    spots(3),
		Location: &domain.UserLocation{Coordinates: domain.Coordinates{Lat: 0, Lng: 0}, Source: domain.LocationDevice},
	}}
	s := newTestSync(src, 3)
	ctx := context.Background()
	_, err := s.SetSort(ctx, domain.SortDistance)
	require.NoError(t, err)
	frame := s.Current()
	assert.Equal(t, []int{1, 2, 3}, cardIDs(frame.Cards))
	assert.Equal(t, "0.0 km from you", frame.Cards[0].DistanceLabel)

	src.snap.Location = &domain.UserLocation{Coordinates: domain.Coordinates{Lat: 0, Lng: 2}, Source: domain.LocationDevice}
	frame, err = s.Refresh(ctx, ReasonLocation)
	require.NoError(t, err)
	assert.Equal(t, 3, frame.Cards[0].ID)
	assert.Equal(t, "0.0 km from you", frame.Cards[0].DistanceLabel)
	assert.Equal(t, "222.4 km from you", frame.Cards[2].DistanceLabel)
}

func TestSetViewAppliesFilterAndSortInOneFrame(t *testing.T) {
	target := &recorder{}
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(5)}}
	s := newTestSync(src, 3, target)
	ctx := context.Background()

	filter, key := "street", domain.SortPrice
	frame, err := s.SetView(ctx, &filter, &key)
	require.NoError(t, err)
	require.Len(t, target.frames, 1)
	assert.Equal(t, ReasonView, frame.Reason)
	assert.Equal(t, []int{5, 3, 1}, cardIDs(frame.Cards))
	assert.Equal(t, domain.ViewState{Filter: "street", Sort: domain.SortPrice}, frame.View)

	bad := domain.SortKey("rating")
	other := "lot"
	_, err = s.SetView(ctx, &other, &bad)
	assert.ErrorIs(t, err, ErrInvalidSortKey)
	assert.Len(t, target.frames, 1)
	assert.Equal(t, "street", s.View().Filter)

	frame, err = s.SetView(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, target.frames, 1)
	assert.Equal(t, uint64(1), frame.Version)
}

func TestFrameCarriesPaddedMarkerBounds(t *testing.T) {
	target := &recorder{}
	src := &fakeSource{snap: domain.StoreSnapshot{Spots: spots(5)}}
	s := newTestSync(src, 3, target)
	ctx := context.Background()

	frame, err := s.Refresh(ctx, ReasonLoaded)
	require.NoError(t, err)
	require.NotNil(t, frame.Bounds)
	// lng spans 0..4, lat is constant
	assert.InDelta(t, -0.8, frame.Bounds.West, 1e-9)
	assert.InDelta(t, 4.8, frame.Bounds.East, 1e-9)
	assert.Zero(t, frame.Bounds.South)
	assert.Zero(t, frame.Bounds.North)

	frame, err = s.SetFilter(ctx, "garage")
	require.NoError(t, err)
	assert.Nil(t, frame.Bounds)
}
