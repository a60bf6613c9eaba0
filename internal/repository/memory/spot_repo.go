package memory

import (
	"context"
	"fmt"
	"sync"

	"parking_finder/internal/domain"
	"parking_finder/internal/repository"
)

type spotRepository struct {
	mu    sync.RWMutex
	spots []domain.ParkingSpot
	index map[int]int // id -> position in spots
}

func NewSpotRepository() repository.SpotRepository {
	return &spotRepository{index: make(map[int]int)}
}

func (r *spotRepository) FindAll(ctx context.Context) ([]domain.ParkingSpot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ParkingSpot, len(r.spots))
	for i, s := range r.spots {
		out[i] = s.Clone()
	}
	return out, nil
}

func (r *spotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, ok := r.index[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s := r.spots[pos].Clone()
	return &s, nil
}

func (r *spotRepository) Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maxID := 0
	for _, s := range r.spots {
		maxID = max(maxID, s.ID)
	}
	stored := spot.Clone()
	stored.ID = maxID + 1
	r.index[stored.ID] = len(r.spots)
	r.spots = append(r.spots, stored)
	out := stored.Clone()
	return &out, nil
}

func (r *spotRepository) Update(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, ok := r.index[spot.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.spots[pos] = spot.Clone()
	out := r.spots[pos].Clone()
	return &out, nil
}

func (r *spotRepository) Delete(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, ok := r.index[id]
	if !ok {
		return false, nil
	}
	r.spots = append(r.spots[:pos], r.spots[pos+1:]...)
	r.reindex()
	return true, nil
}

func (r *spotRepository) ReplaceAll(ctx context.Context, spots []domain.ParkingSpot) error {
	index := make(map[int]int, len(spots))
	copied := make([]domain.ParkingSpot, len(spots))
	for i, s := range spots {
		if _, dup := index[s.ID]; dup {
			return fmt.Errorf("SpotRepository.ReplaceAll: duplicate id %d", s.ID)
		}
		index[s.ID] = i
		copied[i] = s.Clone()
	}
	r.mu.Lock()
	r.spots = copied
	r.index = index
	r.mu.Unlock()
	return nil
}

func (r *spotRepository) ClearDerived(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.spots {
		r.spots[i].CalculatedDistance = nil
	}
	return nil
}

func (r *spotRepository) SetDerived(ctx context.Context, km map[int]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, d := range km {
		if pos, ok := r.index[id]; ok {
			d := d
			r.spots[pos].CalculatedDistance = &d
		}
	}
	return nil
}

func (r *spotRepository) reindex() {
	r.index = make(map[int]int, len(r.spots))
	for i, s := range r.spots {
		r.index[s.ID] = i
	}
}
