// Package presentation keeps the map, the card list and the slideshow on one derived frame.
package presentation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"parking_finder/internal/domain"
	"parking_finder/internal/logger"
	"parking_finder/internal/metrics"
	"parking_finder/internal/ranking"
	"parking_finder/internal/viewmodel"
)

const (
	ReasonInitial    = "initial"
	ReasonLoaded     = "data_loaded"
	ReasonLoadFailed = "load_failed"
	ReasonLocation   = "location_updated"
	ReasonFilter     = "filter_changed"
	ReasonSort       = "sort_changed"
	ReasonView       = "view_changed"
	ReasonCreated    = "spot_created"
	ReasonUpdated    = "spot_updated"
	ReasonDeleted    = "spot_deleted"
	ReasonSlide      = "slide_changed"
)

const (
	EmptyMessage     = "No parking spots found matching your criteria."
	LoadErrorMessage = "Unable to load parking data. Please try again later."
)

var ErrInvalidSortKey = errors.New("invalid sort key")

type State int

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "refreshing"
	}
	return "idle"
}

// SnapshotSource is read on every refresh; the sync never keeps records between refreshes.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.StoreSnapshot, error)
}

// Target receives every published frame. SetData is called with the sync lock held, in version
// order, so implementations must not block or call back into the Sync.
type Target interface {
	SetData(frame domain.Frame)
}

type Sync struct {
	source   SnapshotSource
	builder  *viewmodel.Builder
	featured int

	mu        sync.Mutex
	targets   []Target
	state     State
	view      domain.ViewState
	version   uint64
	current   domain.Frame
	loadError string
}

func NewSync(source SnapshotSource, builder *viewmodel.Builder, featured int, targets ...Target) *Sync {
	if featured < 1 {
		featured = 1
	}
	return &Sync{
		source:   source,
		builder:  builder,
		featured: featured,
		targets:  targets,
		view:     domain.ViewState{Filter: domain.FilterAll},
	}
}

func (s *Sync) AddTarget(t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, t)
}

// Refresh rebuilds the frame from the current store snapshot and view state and publishes it.
func (s *Sync) Refresh(ctx context.Context, reason string) (domain.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reason == ReasonLoaded {
		s.loadError = ""
	}
	return s.refreshLocked(ctx, reason)
}

// LoadFailed publishes the error frame: no markers, no cards, no slideshow. Later refreshes keep
// showing the error until a load succeeds.
func (s *Sync) LoadFailed(ctx context.Context, err error) domain.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	metrics.LoadFailuresTotal.Inc()
	logger.L().Error("load_failed", "err", err)
	s.loadError = LoadErrorMessage
	frame, _ := s.refreshLocked(ctx, ReasonLoadFailed)
	return frame
}

func (s *Sync) SetFilter(ctx context.Context, filter string) (domain.Frame, error) {
	if filter == "" {
		filter = domain.FilterAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Filter = filter
	return s.refreshLocked(ctx, ReasonFilter)
}

func (s *Sync) SetSort(ctx context.Context, key domain.SortKey) (domain.Frame, error) {
	if !key.Valid() {
		return domain.Frame{}, fmt.Errorf("%w: %q", ErrInvalidSortKey, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Sort = key
	return s.refreshLocked(ctx, ReasonSort)
}

// SetView applies a filter and/or sort change with a single refresh. Nil arguments keep the
// current value; an invalid sort key changes nothing.
func (s *Sync) SetView(ctx context.Context, filter *string, key *domain.SortKey) (domain.Frame, error) {
	if key != nil && !key.Valid() {
		return domain.Frame{}, fmt.Errorf("%w: %q", ErrInvalidSortKey, *key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	reason := ReasonView
	switch {
	case filter == nil && key == nil:
		return s.current, nil
	case key == nil:
		reason = ReasonFilter
	case filter == nil:
		reason = ReasonSort
	}
	if filter != nil {
		s.view.Filter = *filter
		if s.view.Filter == "" {
			s.view.Filter = domain.FilterAll
		}
	}
	if key != nil {
		s.view.Sort = *key
	}
	return s.refreshLocked(ctx, reason)
}

// ShowNext advances the slideshow. It is a no-op when the featured subset has fewer than two members.
func (s *Sync) ShowNext() domain.Frame { return s.moveSlide(1) }

// ShowPrevious moves the slideshow back, wrapping to the last slide.
func (s *Sync) ShowPrevious() domain.Frame { return s.moveSlide(-1) }

func (s *Sync) moveSlide(step int) domain.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	show := s.current.Slideshow
	if show == nil || len(show.Slides) <= 1 {
		return s.current
	}
	n := len(show.Slides)
	s.view.SlideIndex = ((s.view.SlideIndex+step)%n + n) % n

	frame := s.current
	frame.Slideshow = &domain.SlideshowFrame{Slides: show.Slides, Index: s.view.SlideIndex}
	frame.View = s.view
	frame.Reason = ReasonSlide
	s.publishLocked(frame)
	return s.current
}

// Rotate advances the slideshow every interval until ctx is done.
func (s *Sync) Rotate(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ShowNext()
		}
	}
}

func (s *Sync) Current() domain.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Sync) View() domain.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// State reports Refreshing only while a refresh holds the lock; callers outside see Idle.
func (s *Sync) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sync) refreshLocked(ctx context.Context, reason string) (domain.Frame, error) {
	start := time.Now()
	s.state = Refreshing
	defer func() {
		s.state = Idle
		metrics.RefreshesTotal.WithLabelValues(reason).Inc()
		metrics.RefreshDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	frame := domain.Frame{
		Reason:  reason,
		Markers: []domain.MarkerDescriptor{},
		Cards:   []domain.SpotView{},
	}

	if s.loadError != "" {
		s.view.SlideIndex = 0
		frame.View = s.view
		frame.Error = s.loadError
		s.publishLocked(frame)
		return s.current, nil
	}

	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		// nothing is published; targets keep the previous, mutually consistent frame
		return s.current, fmt.Errorf("Sync.Refresh: %w", err)
	}
	frame.Location = snap.Location

	var ref *domain.Coordinates
	if snap.Location != nil {
		c := snap.Location.Coordinates
		ref = &c
	}
	ordered := ranking.Apply(snap.Spots, s.view.Filter, s.view.Sort, ref)
	views := s.builder.Build(ordered, ref)

	frame.Cards = views
	frame.Markers = viewmodel.Markers(views)
	frame.Bounds = viewmodel.Bounds(frame.Markers, viewmodel.BoundsPadding)
	if len(views) == 0 {
		frame.Empty = true
		frame.Message = EmptyMessage
	}

	if len(views) >= s.featured {
		s.view.SlideIndex = s.view.SlideIndex % s.featured
		frame.Slideshow = &domain.SlideshowFrame{Slides: views[:s.featured:s.featured], Index: s.view.SlideIndex}
	} else {
		s.view.SlideIndex = 0
	}
	frame.View = s.view

	s.publishLocked(frame)
	return s.current, nil
}

func (s *Sync) publishLocked(frame domain.Frame) {
	s.version++
	frame.Version = s.version
	frame.BuiltAt = time.Now().UTC()
	s.current = frame
	for _, t := range s.targets {
		t.SetData(frame)
	}
	logger.L().Debug("frame_published", "version", frame.Version, "reason", frame.Reason,
		"cards", len(frame.Cards), "markers", len(frame.Markers), "slideshow", frame.Slideshow != nil)
}
