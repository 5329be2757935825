package utils

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Location represents a geographical coordinate
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

// IsZero reports whether no coordinate was supplied.
func (l Location) IsZero() bool {
	return l.Latitude == 0 && l.Longitude == 0
}

// DistanceKm returns the great-circle distance between two locations.
func DistanceKm(a, b Location) float64 {
	return geo.DistanceHaversine(a.point(), b.point()) / 1000
}

// SortByDistance orders items by their distance from origin, nearest first.
// locate extracts each item's position; ties keep their input order.
func SortByDistance[T any](items []T, origin Location, locate func(T) Location) []float64 {
	distances := make([]float64, len(items))
	idx := make([]int, len(items))
	for i, item := range items {
		distances[i] = DistanceKm(origin, locate(item))
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return distances[idx[a]] < distances[idx[b]] })

	sorted := make([]T, len(items))
	sortedDist := make([]float64, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
		sortedDist[i] = distances[j]
	}
	copy(items, sorted)
	return sortedDist
}
