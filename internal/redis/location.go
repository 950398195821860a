package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// riderLocationKey holds only riders that are currently available.
const riderLocationKey = "riders:available:locations"

// maxNearbyResults caps a single geo search.
const maxNearbyResults = 200

// RiderLocation is an indexed rider position and its distance to the
// search point.
type RiderLocation struct {
	RiderID    string
	Lat        float64
	Lng        float64
	DistanceKm float64
}

// LocationStore keeps a geo index of available riders in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation adds or moves a rider in the index.
func (s *LocationStore) UpdateLocation(ctx context.Context, riderID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, riderLocationKey, &redis.GeoLocation{
		Name:      riderID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyRiders returns indexed riders within radiusKm, nearest first.
func (s *LocationStore) FindNearbyRiders(ctx context.Context, lat, lng, radiusKm float64) ([]RiderLocation, error) {
	results, err := s.client.GeoSearchLocation(ctx, riderLocationKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      maxNearbyResults,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]RiderLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, RiderLocation{
			RiderID:    r.Name,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			DistanceKm: r.Dist,
		})
	}
	return locations, nil
}

// RemoveLocation drops a rider from the index.
func (s *LocationStore) RemoveLocation(ctx context.Context, riderID string) error {
	return s.client.ZRem(ctx, riderLocationKey, riderID).Err()
}
