package services

import (
	"math"
	"pamekids-service/internal/domain"
	"sort"
)

const earthRadiusMeters = 6_371_000

// NearbyLocation is a location with its great-circle distance from the origin.
type NearbyLocation struct {
	Location       domain.Location
	DistanceMeters int
}

// Nearby returns the locations within radiusMeters of origin, closest first.
// Locations without coordinates are skipped. Equal distances are ordered by
// ID so results are deterministic. A limit <= 0 returns every match.
func Nearby(locations []domain.Location, origin domain.Coordinates, radiusMeters float64, limit int) []NearbyLocation {
	out := make([]NearbyLocation, 0)
	for _, loc := range locations {
		if loc.Coordinates.IsZero() {
			continue
		}
		d := DistanceMeters(origin, loc.Coordinates)
		if radiusMeters > 0 && d > radiusMeters {
			continue
		}
		out = append(out, NearbyLocation{Location: loc, DistanceMeters: int(math.Round(d))})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].Location.ID < out[j].Location.ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DistanceMeters is the haversine distance between a and b.
func DistanceMeters(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
