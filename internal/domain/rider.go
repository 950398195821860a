package domain

import "time"

// Rider represents a dispatch rider registered under a company.
type Rider struct {
	ID               string
	CompanyID        string
	Name             string
	Location         GeoPoint
	Phone            string
	FormattedAddress string
	IsAvailable      bool
	CreatedAt        time.Time
}
