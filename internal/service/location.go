package service

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/domain"
	"dispatch/internal/geo"
)

// resolveLocation returns the given point, or geocodes address when the
// point is missing and a geocoder is configured. A geocoded location comes
// back with the provider's formatted address.
func resolveLocation(ctx context.Context, geocoder geo.Geocoder, point *domain.GeoPoint, address string) (domain.GeoPoint, string, error) {
	address = strings.TrimSpace(address)

	if point != nil {
		if !point.Valid() {
			return domain.GeoPoint{}, "", ErrInvalidLocation
		}
		return *point, address, nil
	}

	if geocoder == nil || address == "" {
		return domain.GeoPoint{}, "", ErrMissingLocation
	}

	resolved, formatted, err := geocoder.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, geo.ErrAddressNotFound) {
			return domain.GeoPoint{}, "", ErrMissingLocation
		}
		return domain.GeoPoint{}, "", err
	}
	if formatted == "" {
		formatted = address
	}
	return resolved, formatted, nil
}
