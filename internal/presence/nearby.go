package presence

import (
	"context"
	"sort"

	"github.com/bwise1/workin/internal/geo"
	"github.com/bwise1/workin/internal/model"
	"github.com/pkg/errors"
)

type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// NearbyCheckins returns live check-ins around the query centre, closest
// first by true distance, with coordinates already made safe for viewer.
// viewer may be empty for anonymous callers.
//
// The candidate set comes from a bounding box, so results can reach slightly
// past RadiusKm toward the box corners.
func (s *Service) NearbyCheckins(ctx context.Context, viewer string, q NearbyQuery) ([]model.CheckinView, error) {
	if !geo.ValidCoordinates(q.Lat, q.Lng) {
		return nil, errors.Wrapf(ErrInvalid, "coordinates %f,%f out of range", q.Lat, q.Lng)
	}
	radius := q.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}

	now := s.now()
	box := geo.BoundingBoxAround(q.Lat, q.Lng, radius)

	rows, err := s.store.ActiveCheckinsInBox(ctx, box, now.Add(-CheckinTTL), nearbyFetchLimit)
	if err != nil {
		return nil, errors.Wrap(err, "fetch checkins in box")
	}

	type candidate struct {
		checkin  *model.Checkin
		distance float64
	}
	candidates := make([]candidate, 0, len(rows))
	for i := range rows {
		c := &rows[i]
		if !IsLive(c, now) || !CanView(c, viewer) {
			continue
		}
		candidates = append(candidates, candidate{
			checkin:  c,
			distance: geo.DistanceKm(q.Lat, q.Lng, c.Lat, c.Lng),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if len(candidates) > nearbyPageSize {
		candidates = candidates[:nearbyPageSize]
	}

	views := make([]model.CheckinView, 0, len(candidates))
	for _, cand := range candidates {
		v := toView(cand.checkin, viewer, now)
		// reported distance is to the visible point, never the true one
		d := geo.DistanceKm(q.Lat, q.Lng, v.Lat, v.Lng)
		v.DistanceKm = &d
		views = append(views, v)
	}
	return views, nil
}
