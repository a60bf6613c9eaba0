package domain

import "time"

const FilterAll = "all"

type SortKey string

const (
	SortDefault  SortKey = ""
	SortName     SortKey = "name"
	SortPrice    SortKey = "price"
	SortDistance SortKey = "distance"
	SortNone     SortKey = "none" // insertion order
)

func (k SortKey) Valid() bool {
	switch k {
	case SortDefault, SortName, SortPrice, SortDistance, SortNone:
		return true
	}
	return false
}

// ViewState is the user's active view selection, owned by the presentation sync.
type ViewState struct {
	Filter     string  `json:"filter"`
	Sort       SortKey `json:"sort"`
	SlideIndex int     `json:"slide_index"`
}

// SpotView is a presentation-ready spot. DistanceKm is nil when no distance could be computed.
type SpotView struct {
	ID               int          `json:"id"`
	Name             string       `json:"name"`
	Destination      string       `json:"destination,omitempty"`
	Address          string       `json:"address,omitempty"`
	Type             string       `json:"type"`
	TypeLabel        string       `json:"type_label"`
	Price            float64      `json:"price"`
	PriceLabel       string       `json:"price_label"`
	Capacity         int          `json:"capacity"`
	Available        int          `json:"available"`
	AvailabilityText string       `json:"availability_label"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	DistanceKm       *float64     `json:"distance_km,omitempty"`
	DistanceLabel    string       `json:"distance_label"`
	DistanceComputed bool         `json:"distance_computed"`
	Tags             []string     `json:"tags"`
	OperatingHours   string       `json:"operating_hours,omitempty"`
	PaymentMethods   []string     `json:"payment_methods,omitempty"`
	Image            string       `json:"image"`
}

// MarkerDescriptor is what the map widget consumes.
type MarkerDescriptor struct {
	ID        int     `json:"id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	IconLabel string  `json:"icon_label"`
	Type      string  `json:"type"`
}

// MarkerBounds is the map viewport that fits every marker: south/north latitudes, west/east longitudes.
type MarkerBounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// DetailView replaces the blocking alert the web client used to show on "details".
type DetailView struct {
	Spot  SpotView `json:"spot"`
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

type SlideshowFrame struct {
	Slides []SpotView `json:"slides"`
	Index  int        `json:"index"`
}

// Frame is one immutable, fully derived rendering of the pipeline. Every presentation
// target receives the same Frame value.
type Frame struct {
	Version   uint64             `json:"version"`
	Reason    string             `json:"reason"`
	View      ViewState          `json:"view"`
	Location  *UserLocation      `json:"location,omitempty"`
	Markers   []MarkerDescriptor `json:"markers"`
	Bounds    *MarkerBounds      `json:"bounds,omitempty"` // nil when nothing is mapped
	Cards     []SpotView         `json:"cards"`
	Slideshow *SlideshowFrame    `json:"slideshow,omitempty"` // nil means suppressed
	Empty     bool               `json:"empty"`
	Message   string             `json:"message,omitempty"`
	Error     string             `json:"error,omitempty"`
	BuiltAt   time.Time          `json:"built_at"`
}

type NotificationLevel string

const (
	NotifyInfo    NotificationLevel = "info"
	NotifySuccess NotificationLevel = "success"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Notification is a transient toast pushed to connected clients.
type Notification struct {
	ID        string            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
}

type IntentAction string

const (
	IntentDetails IntentAction = "details"
	IntentSelect  IntentAction = "select"
	IntentDelete  IntentAction = "delete"
)

// Intent is a click/selection coming back from any presentation target.
type Intent struct {
	ID     int          `json:"id" binding:"required"`
	Action IntentAction `json:"action" binding:"required"`
}

type IntentResult struct {
	Action  IntentAction      `json:"action"`
	ID      int               `json:"id"`
	Detail  *DetailView       `json:"detail,omitempty"`
	Marker  *MarkerDescriptor `json:"marker,omitempty"`
	Deleted bool              `json:"deleted,omitempty"`
}

// StoreSnapshot is a consistent read of the store: records plus the location they were ranked against.
type StoreSnapshot struct {
	Spots    []ParkingSpot
	Location *UserLocation
}
