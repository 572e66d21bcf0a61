// Package geo computes great-circle distances between stops.
//
// Coordinates are WGS-84 degrees and are not range checked: an out-of-range
// latitude or longitude yields a finite but meaningless distance.
package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in degrees. A nil *Coordinate
// means the position is unknown.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// NewCoordinate returns nil unless both lat and lon are present.
func NewCoordinate(lat, lon *float64) *Coordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &Coordinate{Lat: *lat, Lon: *lon}
}

// Haversine returns the unrounded great-circle distance in kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Distance returns the haversine distance between a and b in kilometers,
// rounded to two decimals. ok is false when either position is unknown.
func Distance(a, b *Coordinate) (km float64, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return Round2(Haversine(a.Lat, a.Lon, b.Lat, b.Lon)), true
}

// PathLegs returns the rounded distance of every consecutive pair. ok is
// false when there are fewer than two points or any leg is unknown.
func PathLegs(points []*Coordinate) (legs []float64, ok bool) {
	if len(points) < 2 {
		return nil, false
	}
	legs = make([]float64, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		d, ok := Distance(points[i], points[i+1])
		if !ok {
			return nil, false
		}
		legs = append(legs, d)
	}
	return legs, true
}

// PathDistance sums the rounded legs of an ordered path and rounds the total
// once more, so the total always equals the sum of the displayed legs.
func PathDistance(points []*Coordinate) (km float64, ok bool) {
	legs, ok := PathLegs(points)
	if !ok {
		return 0, false
	}
	return SumKm(legs...), true
}

// SumKm adds distances and rounds the result to two decimals.
func SumKm(values ...float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return Round2(total)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Located is anything with an optional position.
type Located interface {
	Coordinate() *Coordinate
}

// Ranked pairs an item with its distance from a reference point. Known is
// false when the item has no position.
type Ranked[T Located] struct {
	Item       T
	DistanceKm float64
	Known      bool
}

// Nearest orders items by distance from origin, nearest first.
// Items with unknown positions keep their relative order at the end. A
// positive limit truncates the result.
func Nearest[T Located](origin *Coordinate, items []T, limit int) []Ranked[T] {
	ranked := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		d, ok := Distance(origin, item.Coordinate())
		ranked = append(ranked, Ranked[T]{Item: item, DistanceKm: d, Known: ok})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Known != ranked[j].Known {
			return ranked[i].Known
		}
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
