// Package geo holds the small amount of spherical math the presence engine
// needs: a cheap bounding box pre-filter, great-circle distance and the
// random offset used to obfuscate check-in locations.
package geo

import (
	"fmt"
	"math"
)

const (
	// KmPerDegree is the flat-earth conversion used for both the search box
	// and the fuzz offset.
	KmPerDegree = 111.0

	earthRadiusKm = 6371.0
)

// BoundingBox is an axis-aligned lat/lng rectangle.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// BoundingBoxAround returns the box enclosing a circle of radiusKm around
// (lat, lng). Corners overshoot the circle; callers sort by true distance.
func BoundingBoxAround(lat, lng, radiusKm float64) BoundingBox {
	latDelta := radiusKm / KmPerDegree

	cosLat := math.Cos(lat * math.Pi / 180)
	minLng, maxLng := -180.0, 180.0
	if cosLat > 1e-9 {
		lngDelta := radiusKm / (KmPerDegree * cosLat)
		minLng, maxLng = lng-lngDelta, lng+lngDelta
	}

	return BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: minLng,
		MaxLng: maxLng,
	}
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// DistanceKm is the haversine great-circle distance between two points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Float64Source yields uniform values in [0, 1). *math/rand.Rand and
// *math/rand/v2.Rand both satisfy it.
type Float64Source interface {
	Float64() float64
}

// FuzzPoint moves (lat, lng) by a random bearing and a random distance in
// [0, radiusKm]. The distance is uniform over the radius, not the area, so
// points cluster toward the centre. The result is always a valid coordinate:
// latitude stops at the poles and longitude wraps across the antimeridian.
func FuzzPoint(lat, lng, radiusKm float64, rng Float64Source) (float64, float64) {
	theta := rng.Float64() * 2 * math.Pi
	r := rng.Float64() * radiusKm

	dLat := r * math.Cos(theta) / KmPerDegree
	dLng := 0.0
	if cosLat := math.Cos(toRadians(lat)); cosLat > 1e-9 {
		dLng = r * math.Sin(theta) / (KmPerDegree * cosLat)
	}

	return ClampLat(lat + dLat), WrapLng(lng + dLng)
}

// ClampLat limits lat to [-90, 90].
func ClampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// WrapLng folds lng into [-180, 180).
func WrapLng(lng float64) float64 {
	if lng >= -180 && lng < 180 {
		return lng
	}
	w := math.Mod(lng+180, 360)
	if w < 0 {
		w += 360
	}
	return w - 180
}

// CacheKey rounds a coordinate pair to 4 decimal places (~11m).
func CacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", round4(lat), round4(lng))
}

// ValidCoordinates reports whether lat/lng are finite and in range.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		// drop the sign of -0 so "-0.0000" and "0.0000" share a key
		return 0
	}
	return r
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
