// Package ranking filters and orders parking spots for presentation.
package ranking

import (
	"math"
	"slices"
	"strings"

	"parking_finder/internal/domain"
	"parking_finder/internal/geo"
)

// Apply filters records by category and orders them by sortKey. The input slice is not modified.
//
// A filter value that matches no category yields an empty result rather than falling back to
// "all", so a stale or mistyped filter never shows spots the user did not ask for.
func Apply(records []domain.ParkingSpot, filter string, sortKey domain.SortKey, ref *domain.Coordinates) []domain.ParkingSpot {
	out := Filter(records, filter)
	Sort(out, sortKey, ref)
	return out
}

// Filter keeps the records whose type equals filter (case-insensitive). "all" and "" keep everything.
func Filter(records []domain.ParkingSpot, filter string) []domain.ParkingSpot {
	f := strings.ToLower(strings.TrimSpace(filter))
	out := make([]domain.ParkingSpot, 0, len(records))
	for _, r := range records {
		if f == "" || f == domain.FilterAll || strings.EqualFold(r.Type, f) {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders records in place. All orderings are stable, so re-sorting unchanged data is idempotent.
func Sort(records []domain.ParkingSpot, sortKey domain.SortKey, ref *domain.Coordinates) {
	switch sortKey {
	case domain.SortNone:
		return
	case domain.SortDistance:
		// distances are computed once, not per comparison
		keyed := make([]distanceKeyed, len(records))
		for i, r := range records {
			keyed[i] = distanceKeyed{spot: r, km: resolvedDistance(r, ref)}
		}
		slices.SortStableFunc(keyed, func(a, b distanceKeyed) int {
			return cmpFloat(a.km, b.km)
		})
		for i := range keyed {
			records[i] = keyed[i].spot
		}
	case domain.SortPrice:
		slices.SortStableFunc(records, func(a, b domain.ParkingSpot) int {
			return cmpFloat(a.Price, b.Price)
		})
	default:
		slices.SortStableFunc(records, func(a, b domain.ParkingSpot) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	}
}

// Categories lists the distinct spot types in first-seen order.
func Categories(records []domain.ParkingSpot) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Type] {
			seen[r.Type] = true
			out = append(out, r.Type)
		}
	}
	return out
}

type distanceKeyed struct {
	spot domain.ParkingSpot
	km   float64
}

func resolvedDistance(r domain.ParkingSpot, ref *domain.Coordinates) float64 {
	if d, ok := geo.DistanceFrom(ref, r); ok {
		return d
	}
	return math.Inf(1)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
