package domain

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/guregu/null.v4"
)

var ErrInvalidSpot = errors.New("invalid parking spot")

const DefaultSpotType = "other"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Amenities are independent capability flags; none excludes another.
type Amenities struct {
	Security   bool `json:"security"`
	Covered    bool `json:"covered"`
	EVCharging bool `json:"evCharging"`
	Accessible bool `json:"accessible"`
}

type ParkingSpot struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	Destination    string       `json:"destination,omitempty"`
	Address        string       `json:"address,omitempty"`
	Type           string       `json:"type"`
	Price          float64      `json:"price"`
	Capacity       int          `json:"capacity"`
	Available      int          `json:"available"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	Distance       string       `json:"distance,omitempty"` // static fallback from the data source
	Amenities      Amenities    `json:"amenities"`
	OperatingHours string       `json:"operatingHours,omitempty"`
	PaymentMethods []string     `json:"paymentMethods,omitempty"`
	Image          string       `json:"image,omitempty"`

	// CalculatedDistance is derived from the current user location and never persisted.
	// It is cleared whenever the location changes.
	CalculatedDistance *float64 `json:"calculatedDistance,omitempty"`
}

// Clone returns a deep copy so callers never share slices or pointers with the store.
func (s ParkingSpot) Clone() ParkingSpot {
	out := s
	if s.Coordinates != nil {
		c := *s.Coordinates
		out.Coordinates = &c
	}
	if s.PaymentMethods != nil {
		out.PaymentMethods = append([]string(nil), s.PaymentMethods...)
	}
	if s.CalculatedDistance != nil {
		d := *s.CalculatedDistance
		out.CalculatedDistance = &d
	}
	return out
}

// Validate checks the rules enforced on create and update.
func (s ParkingSpot) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSpot)
	}
	if s.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidSpot)
	}
	if s.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidSpot)
	}
	if s.Available < 0 || s.Available > s.Capacity {
		return fmt.Errorf("%w: available must be between 0 and capacity (%d)", ErrInvalidSpot, s.Capacity)
	}
	return nil
}

// NormalizeType lower-cases and trims a category so filters compare on one spelling.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return DefaultSpotType
	}
	return t
}

// ParkingSpotDTO is the form submission boundary for creating a spot.
type ParkingSpotDTO struct {
	Name           string   `json:"name" binding:"required,notblank"`
	Destination    string   `json:"destination" binding:"required,notblank"`
	Address        string   `json:"address" binding:"required,notblank"`
	Type           string   `json:"type"`
	Price          *float64 `json:"price" binding:"required,gte=0"`
	Capacity       *int     `json:"capacity" binding:"required,gte=0"`
	Available      *int     `json:"available" binding:"omitempty,gte=0"`
	Lat            *float64 `json:"lat" binding:"required"`
	Lng            *float64 `json:"lng" binding:"required"`
	Security       bool     `json:"security"`
	Covered        bool     `json:"covered"`
	EVCharging     bool     `json:"evCharging"`
	Accessible     bool     `json:"accessible"`
	OperatingHours string   `json:"operatingHours"`
	PaymentMethods []string `json:"paymentMethods"`
	Image          string   `json:"image"`
}

func (d ParkingSpotDTO) ToSpot() ParkingSpot {
	spot := ParkingSpot{
		Name:           strings.TrimSpace(d.Name),
		Destination:    strings.TrimSpace(d.Destination),
		Address:        strings.TrimSpace(d.Address),
		Type:           NormalizeType(d.Type),
		Amenities:      Amenities{Security: d.Security, Covered: d.Covered, EVCharging: d.EVCharging, Accessible: d.Accessible},
		OperatingHours: d.OperatingHours,
		PaymentMethods: d.PaymentMethods,
		Image:          d.Image,
	}
	if d.Price != nil {
		spot.Price = *d.Price
	}
	if d.Capacity != nil {
		spot.Capacity = *d.Capacity
	}
	spot.Available = spot.Capacity
	if d.Available != nil {
		spot.Available = *d.Available
	}
	if d.Lat != nil && d.Lng != nil {
		spot.Coordinates = &Coordinates{Lat: *d.Lat, Lng: *d.Lng}
	}
	return spot
}

// ParkingSpotPatch carries a partial update; invalid (absent) fields are left untouched.
type ParkingSpotPatch struct {
	Name           null.String  `json:"name"`
	Destination    null.String  `json:"destination"`
	Address        null.String  `json:"address"`
	Type           null.String  `json:"type"`
	Price          null.Float   `json:"price"`
	Capacity       null.Int     `json:"capacity"`
	Available      null.Int     `json:"available"`
	Coordinates    *Coordinates `json:"coordinates"`
	Distance       null.String  `json:"distance"`
	Security       null.Bool    `json:"security"`
	Covered        null.Bool    `json:"covered"`
	EVCharging     null.Bool    `json:"evCharging"`
	Accessible     null.Bool    `json:"accessible"`
	OperatingHours null.String  `json:"operatingHours"`
	PaymentMethods []string     `json:"paymentMethods"`
	Image          null.String  `json:"image"`
}

// Merge applies the patch onto a copy of s. The id is never changed.
func (s ParkingSpot) Merge(p ParkingSpotPatch) ParkingSpot {
	out := s.Clone()
	if p.Name.Valid {
		out.Name = strings.TrimSpace(p.Name.String)
	}
	if p.Destination.Valid {
		out.Destination = strings.TrimSpace(p.Destination.String)
	}
	if p.Address.Valid {
		out.Address = strings.TrimSpace(p.Address.String)
	}
	if p.Type.Valid {
		out.Type = NormalizeType(p.Type.String)
	}
	if p.Price.Valid {
		out.Price = p.Price.Float64
	}
	if p.Capacity.Valid {
		out.Capacity = int(p.Capacity.Int64)
	}
	if p.Available.Valid {
		out.Available = int(p.Available.Int64)
	}
	if p.Coordinates != nil {
		c := *p.Coordinates
		out.Coordinates = &c
		out.CalculatedDistance = nil
	}
	if p.Distance.Valid {
		out.Distance = p.Distance.String
	}
	if p.Security.Valid {
		out.Amenities.Security = p.Security.Bool
	}
	if p.Covered.Valid {
		out.Amenities.Covered = p.Covered.Bool
	}
	if p.EVCharging.Valid {
		out.Amenities.EVCharging = p.EVCharging.Bool
	}
	if p.Accessible.Valid {
		out.Amenities.Accessible = p.Accessible.Bool
	}
	if p.OperatingHours.Valid {
		out.OperatingHours = p.OperatingHours.String
	}
	if p.PaymentMethods != nil {
		out.PaymentMethods = append([]string(nil), p.PaymentMethods...)
	}
	if p.Image.Valid {
		out.Image = p.Image.String
	}
	return out
}
