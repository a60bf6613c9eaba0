// Package source fetches the full parking spot collection from a read-only data source.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"parking_finder/internal/domain"
)

// ErrDataFormat matches every DataFormatError through errors.Is.
var ErrDataFormat = errors.New("malformed parking data")

// DataFormatError reports a payload that is not a collection of spot-shaped records.
type DataFormatError struct {
	Reason string
	Index  int // element index, -1 when the document itself is malformed
	Err    error
}

func (e *DataFormatError) Error() string {
	msg := "malformed parking data: " + e.Reason
	if e.Index >= 0 {
		msg = fmt.Sprintf("malformed parking data: element %d: %s", e.Index, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }

func (e *DataFormatError) Unwrap() error { return e.Err }

// Source returns the complete spot collection. Implementations never mutate the upstream data.
type Source interface {
	Fetch(ctx context.Context) ([]domain.ParkingSpot, error)
	Name() string
}

const collectionKey = "parkingSpots"

type rawAmenities struct {
	Security       bool `json:"security"`
	Covered        bool `json:"covered"`
	EVCharging     bool `json:"evCharging"`
	Accessible     bool `json:"accessible"`
	DisabledAccess bool `json:"disabledAccess"`
}

// rawSpot accepts every field spelling the web client's fixtures have used.
type rawSpot struct {
	ID             int                 `json:"id"`
	Name           string              `json:"name"`
	Destination    string              `json:"destination"`
	Address        string              `json:"address"`
	Type           string              `json:"type"`
	Category       string              `json:"category"`
	Price          float64             `json:"price"`
	Capacity       *int                `json:"capacity"`
	Spaces         *int                `json:"spaces"`
	Available      *int                `json:"available"`
	Coordinates    *domain.Coordinates `json:"coordinates"`
	Location       *domain.Coordinates `json:"location"`
	Distance       json.RawMessage     `json:"distance"`
	Amenities      *rawAmenities       `json:"amenities"`
	OperatingHours string              `json:"operatingHours"`
	PaymentMethods []string            `json:"paymentMethods"`
	Image          string              `json:"image"`
}

// Decode parses a `{"parkingSpots": [...]}` document. A missing key, a non-list value or a
// non-object element is a DataFormatError; nothing is coerced to an empty collection.
func Decode(data []byte) ([]domain.ParkingSpot, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DataFormatError{Reason: "payload is not a JSON object", Index: -1, Err: err}
	}
	if doc == nil {
		return nil, &DataFormatError{Reason: "payload is not a JSON object", Index: -1}
	}
	rawList, ok := doc[collectionKey]
	if !ok {
		return nil, &DataFormatError{Reason: fmt.Sprintf("missing %q key", collectionKey), Index: -1}
	}
	trimmed := bytes.TrimSpace(rawList)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &DataFormatError{Reason: fmt.Sprintf("%q is not a list", collectionKey), Index: -1}
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, &DataFormatError{Reason: fmt.Sprintf("%q is not a list", collectionKey), Index: -1, Err: err}
	}

	spots := make([]domain.ParkingSpot, 0, len(elements))
	for i, el := range elements {
		el = bytes.TrimSpace(el)
		if len(el) == 0 || el[0] != '{' {
			return nil, &DataFormatError{Reason: "not an object", Index: i}
		}
		var rs rawSpot
		if err := json.Unmarshal(el, &rs); err != nil {
			return nil, &DataFormatError{Reason: "unexpected field type", Index: i, Err: err}
		}
		spot, err := rs.toSpot()
		if err != nil {
			return nil, &DataFormatError{Reason: err.Error(), Index: i}
		}
		spots = append(spots, spot)
	}
	if err := AssignIDs(spots); err != nil {
		return nil, err
	}
	return spots, nil
}

func (rs rawSpot) toSpot() (domain.ParkingSpot, error) {
	if strings.TrimSpace(rs.Name) == "" {
		return domain.ParkingSpot{}, errors.New("name is required")
	}
	spot := domain.ParkingSpot{
		ID:             rs.ID,
		Name:           rs.Name,
		Destination:    rs.Destination,
		Address:        rs.Address,
		Price:          rs.Price,
		OperatingHours: rs.OperatingHours,
		PaymentMethods: rs.PaymentMethods,
		Image:          rs.Image,
	}

	t := rs.Type
	if t == "" {
		t = rs.Category
	}
	spot.Type = domain.NormalizeType(t)

	switch {
	case rs.Capacity != nil:
		spot.Capacity = *rs.Capacity
	case rs.Spaces != nil:
		spot.Capacity = *rs.Spaces
	case rs.Available != nil:
		spot.Capacity = *rs.Available
	}
	spot.Available = spot.Capacity
	if rs.Available != nil {
		spot.Available = *rs.Available
	}

	if rs.Coordinates != nil {
		spot.Coordinates = rs.Coordinates
	} else if rs.Location != nil {
		spot.Coordinates = rs.Location
	}

	d, err := staticDistance(rs.Distance)
	if err != nil {
		return domain.ParkingSpot{}, err
	}
	spot.Distance = d

	if rs.Amenities != nil {
		spot.Amenities = domain.Amenities{
			Security:   rs.Amenities.Security,
			Covered:    rs.Amenities.Covered,
			EVCharging: rs.Amenities.EVCharging,
			Accessible: rs.Amenities.Accessible || rs.Amenities.DisabledAccess,
		}
	}
	if err := spot.Validate(); err != nil {
		return domain.ParkingSpot{}, err
	}
	return spot, nil
}

// staticDistance keeps a string as-is and a number in its source text form.
func staticDistance(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("distance must be a string or a number")
	}
	return n.String() + " km", nil
}

// AssignIDs rejects duplicate ids and gives records without an id (0 or negative) the next
// free id in order.
func AssignIDs(spots []domain.ParkingSpot) error {
	seen := make(map[int]bool, len(spots))
	maxID := 0
	for i, s := range spots {
		if s.ID <= 0 {
			continue
		}
		if seen[s.ID] {
			return &DataFormatError{Reason: fmt.Sprintf("duplicate id %d", s.ID), Index: i}
		}
		seen[s.ID] = true
		maxID = max(maxID, s.ID)
	}
	for i := range spots {
		if spots[i].ID <= 0 {
			maxID++
			spots[i].ID = maxID
		}
	}
	return nil
}

// readPayload reads at most maxPayloadBytes; a longer body is an error, never a truncated document.
func readPayload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPayloadBytes {
		return nil, fmt.Errorf("payload exceeds %d MiB", maxPayloadBytes>>20)
	}
	return data, nil
}
