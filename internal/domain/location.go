package domain

type LocationSource string

const (
	LocationDevice  LocationSource = "device"
	LocationGeoIP   LocationSource = "geoip"
	LocationDefault LocationSource = "default"
)

type UserLocation struct {
	Coordinates
	Source LocationSource `json:"source"`
}

type LocationDTO struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}
