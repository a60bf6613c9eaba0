package geo

import (
	"github.com/golang/geo/s2"

	"parking_finder/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used for every distance in the service.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometres.
// s2.LatLng.Distance evaluates the haversine formula, so identical points give exactly 0
// and antipodal points stay finite. Out-of-range coordinates are not rejected.
func Distance(a, b domain.Coordinates) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// DistanceFrom returns the distance from ref to the spot, or false when either side lacks coordinates.
func DistanceFrom(ref *domain.Coordinates, spot domain.ParkingSpot) (float64, bool) {
	if ref == nil || spot.Coordinates == nil {
		return 0, false
	}
	return Distance(*ref, *spot.Coordinates), true
}
