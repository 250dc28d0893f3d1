package presence

import (
	"strings"

	"github.com/bwise1/workin/internal/geo"
	"github.com/bwise1/workin/internal/model"
)

// NormalizeVisibility maps raw input onto the three known values. Anything
// unrecognized, including empty, is public.
func NormalizeVisibility(raw string) model.Visibility {
	switch model.Visibility(strings.ToLower(strings.TrimSpace(raw))) {
	case model.VisibilityNearby:
		return model.VisibilityNearby
	case model.VisibilityPrivate:
		return model.VisibilityPrivate
	default:
		return model.VisibilityPublic
	}
}

// ShouldFuzz is true for discoverable check-ins with a positive radius.
// Private check-ins are never returned to non-owners, so they are never fuzzed.
func ShouldFuzz(v model.Visibility, fuzzKm float64) bool {
	return (v == model.VisibilityPublic || v == model.VisibilityNearby) && fuzzKm > 0
}

// DisplayPoint picks the frozen display coordinates for a new check-in, or
// nil when no fuzzing applies.
func DisplayPoint(lat, lng float64, v model.Visibility, fuzzKm float64, rng geo.Float64Source) (*float64, *float64) {
	if !ShouldFuzz(v, fuzzKm) {
		return nil, nil
	}
	dLat, dLng := geo.FuzzPoint(lat, lng, fuzzKm, rng)
	return &dLat, &dLng
}

// CanView reports whether viewer may see c at all. An empty viewer is
// anonymous and never matches an owner.
func CanView(c *model.Checkin, viewer string) bool {
	if c.Visibility != model.VisibilityPrivate {
		return true
	}
	return isOwner(c, viewer)
}

// VisibleCoordsFor returns the coordinates viewer is allowed to see.
func VisibleCoordsFor(c *model.Checkin, viewer string) (float64, float64) {
	if isOwner(c, viewer) {
		return c.Lat, c.Lng
	}
	if c.DisplayLat != nil && c.DisplayLng != nil {
		return *c.DisplayLat, *c.DisplayLng
	}
	return c.Lat, c.Lng
}

func isOwner(c *model.Checkin, viewer string) bool {
	return viewer != "" && viewer == c.OwnerID
}
