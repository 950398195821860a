package geo

import (
	"math"
	"sort"

	"dispatch/internal/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points in kilometers.
func DistanceKm(a, b domain.GeoPoint) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Candidate pairs a rider with its distance to a pickup point.
type Candidate struct {
	Rider      *domain.Rider
	DistanceKm float64
}

// RankByDistance orders riders by distance from origin, nearest first.
// Riders at equal distance keep their input order.
func RankByDistance(origin domain.GeoPoint, riders []*domain.Rider) []Candidate {
	out := make([]Candidate, 0, len(riders))
	for _, r := range riders {
		out = append(out, Candidate{Rider: r, DistanceKm: DistanceKm(origin, r.Location)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
