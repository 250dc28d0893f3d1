package presence

import (
	"context"
	"strings"

	"github.com/bwise1/workin/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SpacesByCity lists the spaces registered in city. A blank city matches
// nothing.
func (s *Service) SpacesByCity(ctx context.Context, city string) ([]model.Space, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return []model.Space{}, nil
	}
	spaces, err := s.store.SpacesByCity(ctx, city, spaceListLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list spaces")
	}
	return spaces, nil
}

// GetSpace returns a space with the live check-ins there that viewer may
// see. ActiveCount counts only those.
func (s *Service) GetSpace(ctx context.Context, viewer string, id uuid.UUID) (model.SpaceDetail, error) {
	sp, err := s.store.SpaceByID(ctx, id)
	if err != nil {
		return model.SpaceDetail{}, errors.Wrap(err, "load space")
	}
	if sp == nil {
		return model.SpaceDetail{}, errors.Wrapf(ErrNotFound, "space %s", id)
	}

	now := s.now()
	rows, err := s.store.ActiveCheckinsAtSpace(ctx, id, now.Add(-CheckinTTL), spaceActiveLimit)
	if err != nil {
		return model.SpaceDetail{}, errors.Wrap(err, "list checkins at space")
	}

	active := make([]model.CheckinView, 0, len(rows))
	for i := range rows {
		c := &rows[i]
		if !IsLive(c, now) || !CanView(c, viewer) {
			continue
		}
		active = append(active, toView(c, viewer, now))
	}
	return model.SpaceDetail{Space: *sp, ActiveCount: len(active), Active: active}, nil
}

// normalizeSpaceInput trims the venue fields and drops blank optionals.
func normalizeSpaceInput(in model.SpaceInput) (model.SpaceInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, errors.Wrap(ErrInvalid, "space name is required")
	}
	in.City = trimmedOrNil(in.City)
	in.Country = trimmedOrNil(in.Country)
	in.Address = trimmedOrNil(in.Address)
	return in, nil
}

// attachSpace points checkin at the space named by in, reusing one of the
// same name next to the check-in or registering a new one.
func attachSpace(ctx context.Context, repo Repository, checkin *model.Checkin, in model.SpaceInput) error {
	sp, err := repo.FindSpace(ctx, in.Name, checkin.Lat, checkin.Lng, SpaceMatchDegrees)
	if err != nil {
		return errors.Wrap(err, "find space")
	}
	if sp == nil {
		sp = &model.Space{
			ID:        uuid.New(),
			Name:      in.Name,
			City:      in.City,
			Country:   in.Country,
			Address:   in.Address,
			Lat:       checkin.Lat,
			Lng:       checkin.Lng,
			CreatedAt: checkin.StartedAt,
		}
		if err := repo.InsertSpace(ctx, sp); err != nil {
			return errors.Wrap(err, "insert space")
		}
	}
	id := sp.ID
	checkin.SpaceID = &id
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
