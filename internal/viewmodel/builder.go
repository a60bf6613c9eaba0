package viewmodel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"parking_finder/internal/domain"
	"parking_finder/internal/geo"
)

const UnknownDistance = "unknown"

// Amenity tag labels, in display order.
const (
	TagSecurity   = "Security"
	TagCovered    = "Covered"
	TagEVCharging = "EV Charging"
	TagAccessible = "Accessible"
)

type Builder struct {
	currency      string
	fallbackImage string
	printer       *message.Printer
}

func NewBuilder(currency, fallbackImage string) *Builder {
	return &Builder{
		currency:      currency,
		fallbackImage: fallbackImage,
		printer:       message.NewPrinter(language.English),
	}
}

// Build turns an ordered list into spot views, preserving order. It never fails on missing
// distance data.
func (b *Builder) Build(ordered []domain.ParkingSpot, ref *domain.Coordinates) []domain.SpotView {
	views := make([]domain.SpotView, 0, len(ordered))
	for _, s := range ordered {
		views = append(views, b.View(s, ref))
	}
	return views
}

func (b *Builder) View(s domain.ParkingSpot, ref *domain.Coordinates) domain.SpotView {
	v := domain.SpotView{
		ID:               s.ID,
		Name:             s.Name,
		Destination:      s.Destination,
		Address:          s.Address,
		Type:             s.Type,
		TypeLabel:        strings.ToUpper(s.Type),
		Price:            s.Price,
		PriceLabel:       b.PriceLabel(s.Price),
		Capacity:         s.Capacity,
		Available:        s.Available,
		AvailabilityText: fmt.Sprintf("%d/%d SPACES", s.Available, s.Capacity),
		Tags:             Tags(s.Amenities),
		OperatingHours:   s.OperatingHours,
		Image:            s.Image,
	}
	if s.Coordinates != nil {
		c := *s.Coordinates
		v.Coordinates = &c
	}
	if len(s.PaymentMethods) > 0 {
		v.PaymentMethods = append([]string(nil), s.PaymentMethods...)
	}
	if strings.TrimSpace(v.Image) == "" {
		v.Image = b.fallbackImage
	}

	if km, ok := geo.DistanceFrom(ref, s); ok {
		v.DistanceKm = &km
		v.DistanceComputed = true
		v.DistanceLabel = DistanceLabel(km)
	} else if strings.TrimSpace(s.Distance) != "" {
		v.DistanceLabel = s.Distance
	} else {
		v.DistanceLabel = UnknownDistance
	}
	return v
}

// DistanceLabel formats a computed distance, e.g. "111.2 km from you".
func DistanceLabel(km float64) string {
	return strconv.FormatFloat(km, 'f', 1, 64) + " km from you"
}

// PriceLabel renders an hourly price with digit grouping, e.g. "KSH 1,200/HR".
func (b *Builder) PriceLabel(price float64) string {
	if price == math.Trunc(price) {
		return b.printer.Sprintf("%s %d/HR", b.currency, int64(price))
	}
	return b.printer.Sprintf("%s %.2f/HR", b.currency, price)
}

// Tags lists the amenities that are present, always in the same order.
func Tags(a domain.Amenities) []string {
	tags := make([]string, 0, 4)
	if a.Security {
		tags = append(tags, TagSecurity)
	}
	if a.Covered {
		tags = append(tags, TagCovered)
	}
	if a.EVCharging {
		tags = append(tags, TagEVCharging)
	}
	if a.Accessible {
		tags = append(tags, TagAccessible)
	}
	return tags
}

// Markers derives map marker descriptors from views. Views without coordinates are listed
// but not mapped.
func Markers(views []domain.SpotView) []domain.MarkerDescriptor {
	markers := make([]domain.MarkerDescriptor, 0, len(views))
	for _, v := range views {
		if v.Coordinates == nil {
			continue
		}
		markers = append(markers, domain.MarkerDescriptor{
			ID:        v.ID,
			Lat:       v.Coordinates.Lat,
			Lng:       v.Coordinates.Lng,
			IconLabel: strconv.Itoa(v.Available),
			Type:      v.Type,
		})
	}
	return markers
}

// BoundsPadding widens the marker box by this share of its span on every side.
const BoundsPadding = 0.2

// Bounds is the box enclosing every marker, padded by ratio of its span on each side.
// It returns nil when there are no markers.
func Bounds(markers []domain.MarkerDescriptor, ratio float64) *domain.MarkerBounds {
	if len(markers) == 0 {
		return nil
	}
	b := domain.MarkerBounds{South: markers[0].Lat, North: markers[0].Lat, West: markers[0].Lng, East: markers[0].Lng}
	for _, m := range markers[1:] {
		b.South = math.Min(b.South, m.Lat)
		b.North = math.Max(b.North, m.Lat)
		b.West = math.Min(b.West, m.Lng)
		b.East = math.Max(b.East, m.Lng)
	}
	dLat := (b.North - b.South) * ratio
	dLng := (b.East - b.West) * ratio
	b.South -= dLat
	b.North += dLat
	b.West -= dLng
	b.East += dLng
	return &b
}

// Detail builds the detail panel model for a single spot.
func (b *Builder) Detail(s domain.ParkingSpot, ref *domain.Coordinates) domain.DetailView {
	v := b.View(s, ref)
	lines := []string{
		"Type: " + v.TypeLabel,
		"Price: " + v.PriceLabel,
		"Available: " + v.AvailabilityText,
		"Distance: " + v.DistanceLabel,
	}
	if v.Address != "" {
		lines = append(lines, "Address: "+v.Address)
	}
	if v.Destination != "" {
		lines = append(lines, "Near: "+v.Destination)
	}
	if v.OperatingHours != "" {
		lines = append(lines, "Hours: "+v.OperatingHours)
	}
	if len(v.PaymentMethods) > 0 {
		lines = append(lines, "Payment: "+strings.Join(v.PaymentMethods, ", "))
	}
	if len(v.Tags) > 0 {
		lines = append(lines, "Amenities: "+strings.Join(v.Tags, ", "))
	}
	return domain.DetailView{Spot: v, Title: v.Name, Lines: lines}
}
