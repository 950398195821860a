package geo

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"dispatch/internal/domain"
)

// ErrAddressNotFound is returned when the provider has no match for an address.
var ErrAddressNotFound = errors.New("address not found")

// Geocoder resolves a free-text address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeoPoint, string, error)
}

// GoogleGeocoder resolves addresses with the Google Maps Geocoding API.
type GoogleGeocoder struct {
	client *maps.Client
}

// NewGoogleGeocoder creates a geocoder for the given API key.
func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{client: client}, nil
}

// Geocode returns the first match's location and the provider's formatted address.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, string, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return domain.GeoPoint{}, "", fmt.Errorf("failed to geocode address: %w", err)
	}
	if len(results) == 0 {
		return domain.GeoPoint{}, "", ErrAddressNotFound
	}

	loc := results[0].Geometry.Location
	return domain.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}, results[0].FormattedAddress, nil
}
