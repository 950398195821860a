package domain

import "time"

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point lies inside latitude/longitude bounds.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// IsZero reports whether the point was never set.
func (p GeoPoint) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// Company represents a logistics company that employs dispatch riders.
type Company struct {
	ID               string
	Name             string
	Location         GeoPoint
	Phone            string // WhatsApp contact
	Email            string // Optional
	FormattedAddress string
	CreatedAt        time.Time
}
