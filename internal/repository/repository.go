package repository

import (
	"context"
	"errors"

	"parking_finder/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// SpotRepository holds the canonical spot collection in insertion order.
type SpotRepository interface {
	FindAll(ctx context.Context) ([]domain.ParkingSpot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error)
	// Create assigns the next id (max existing id + 1, or 1 when empty).
	Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error)
	Update(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error)
	// Delete reports whether a record was removed; a missing id is not an error.
	Delete(ctx context.Context, id int) (bool, error)
	ReplaceAll(ctx context.Context, spots []domain.ParkingSpot) error
	// ClearDerived drops every derived distance after a location change.
	ClearDerived(ctx context.Context) error
	// SetDerived stores computed distances (km) by id; unknown ids are ignored.
	SetDerived(ctx context.Context, km map[int]float64) error
}
