package presence

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/bwise1/workin/internal/geo"
	"github.com/bwise1/workin/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// StartCheckin creates identity's single active check-in.
func (s *Service) StartCheckin(ctx context.Context, identity string, req model.StartCheckinRequest) (model.StartCheckinResponse, error) {
	if identity == "" {
		return model.StartCheckinResponse{}, ErrUnauthorized
	}
	if !geo.ValidCoordinates(req.Latitude, req.Longitude) {
		return model.StartCheckinResponse{}, errors.Wrapf(ErrInvalid, "coordinates %f,%f out of range", req.Latitude, req.Longitude)
	}

	// Fail fast before spending a geocoding round trip. The authoritative
	// check runs again inside the transaction below.
	existing, err := s.store.ActiveCheckinByOwner(ctx, identity)
	if err != nil {
		return model.StartCheckinResponse{}, errors.Wrap(err, "load active checkin")
	}
	if IsLive(existing, s.now()) {
		return model.StartCheckinResponse{}, ErrAlreadyCheckedIn
	}

	profile, err := s.store.Profile(ctx, identity)
	if err != nil {
		return model.StartCheckinResponse{}, errors.Wrap(err, "load profile")
	}
	var prefs model.Preferences
	if profile != nil {
		prefs = profile.Preferences
	}

	visibility := effectiveVisibility(req.Visibility, prefs.DefaultVisibility)

	var space *model.SpaceInput
	if req.Space != nil {
		if visibility == model.VisibilityPrivate {
			return model.StartCheckinResponse{}, errors.Wrap(ErrInvalid, "a private check-in cannot name a space")
		}
		in, err := normalizeSpaceInput(*req.Space)
		if err != nil {
			return model.StartCheckinResponse{}, err
		}
		space = &in
	}

	fuzzKm := effectiveFuzzKm(req.FuzzKm, prefs.DefaultFuzzKm)
	displayLat, displayLng := DisplayPoint(req.Latitude, req.Longitude, visibility, fuzzKm, s.rng)

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = DefaultNote
	}

	placeName := s.resolvePlace(ctx, req.Latitude, req.Longitude)

	checkin := &model.Checkin{
		ID:           uuid.New(),
		OwnerID:      identity,
		Lat:          req.Latitude,
		Lng:          req.Longitude,
		DisplayLat:   displayLat,
		DisplayLng:   displayLng,
		PlaceName:    placeName,
		Note:         note,
		Status:       effectiveStatus(req.Status, prefs.DefaultStatus),
		Visibility:   visibility,
		Active:       true,
		ShareID:      s.rng.code(shareIDLength),
		Participants: []string{},
	}

	// A share id collision aborts the whole transaction, so a retry starts
	// a fresh one with a new code.
	for attempt := 1; ; attempt++ {
		err = s.store.RunInTx(ctx, func(repo Repository) error {
			return s.insertCheckin(ctx, repo, checkin, space)
		})
		if !errors.Is(err, ErrShareIDTaken) || attempt == shareIDAttempts {
			break
		}
		log.Printf("[Presence] share id %s taken, regenerating", checkin.ShareID)
		checkin.ShareID = s.rng.code(shareIDLength)
	}
	if err != nil {
		return model.StartCheckinResponse{}, err
	}

	return model.StartCheckinResponse{ID: checkin.ID, ShareID: checkin.ShareID}, nil
}

// insertCheckin ends an expired active row, if any, and stores checkin as
// its owner's only active one, attached to space when one is named.
func (s *Service) insertCheckin(ctx context.Context, repo Repository, checkin *model.Checkin, space *model.SpaceInput) error {
	now := s.now()

	current, err := repo.ActiveCheckinByOwner(ctx, checkin.OwnerID)
	if err != nil {
		return errors.Wrap(err, "load active checkin")
	}
	if current != nil {
		if IsLive(current, now) {
			return ErrAlreadyCheckedIn
		}
		if err := repo.EndCheckin(ctx, current.ID, now); err != nil {
			return errors.Wrap(err, "end expired checkin")
		}
		log.Printf("[Presence] ended expired checkin %s for %s", current.ID, checkin.OwnerID)
	}

	checkin.StartedAt = now
	checkin.SpaceID = nil
	if space != nil {
		if err := attachSpace(ctx, repo, checkin, *space); err != nil {
			return err
		}
	}

	if err := repo.InsertCheckin(ctx, checkin); err != nil {
		switch {
		case errors.Is(err, ErrActiveCheckinExists):
			return ErrAlreadyCheckedIn
		case errors.Is(err, ErrShareIDTaken):
			return err
		}
		return errors.Wrap(err, "insert checkin")
	}

	return repo.IncrementCheckinsCount(ctx, checkin.OwnerID)
}

// StopCheckin ends identity's active check-in. Having nothing to stop is not
// an error.
func (s *Service) StopCheckin(ctx context.Context, identity string) (model.StopCheckinResponse, error) {
	if identity == "" {
		return model.StopCheckinResponse{}, ErrUnauthorized
	}

	var ended bool
	err := s.store.RunInTx(ctx, func(repo Repository) error {
		current, err := repo.ActiveCheckinByOwner(ctx, identity)
		if err != nil {
			return errors.Wrap(err, "load active checkin")
		}
		if current == nil {
			return nil
		}
		if err := repo.EndCheckin(ctx, current.ID, s.now()); err != nil {
			return errors.Wrap(err, "end checkin")
		}
		ended = true
		return nil
	})
	if err != nil {
		return model.StopCheckinResponse{}, err
	}
	return model.StopCheckinResponse{Ended: ended}, nil
}

// GetMyActiveCheckin returns identity's live check-in, or nil once it has
// been stopped or has outlived CheckinTTL.
func (s *Service) GetMyActiveCheckin(ctx context.Context, identity string) (*model.Checkin, error) {
	if identity == "" {
		return nil, ErrUnauthorized
	}
	current, err := s.store.ActiveCheckinByOwner(ctx, identity)
	if err != nil {
		return nil, errors.Wrap(err, "load active checkin")
	}
	if !IsLive(current, s.now()) {
		return nil, nil
	}
	return current, nil
}

func (s *Service) GetCheckinByID(ctx context.Context, viewer string, id uuid.UUID) (model.CheckinView, error) {
	c, err := s.store.CheckinByID(ctx, id)
	if err != nil {
		return model.CheckinView{}, errors.Wrap(err, "load checkin")
	}
	return s.viewable(c, viewer)
}

// GetCheckinByShareID resolves a share link to the check-in, its space if
// any, and how many identities were accepted into it.
func (s *Service) GetCheckinByShareID(ctx context.Context, viewer, shareID string) (model.SharedCheckin, error) {
	c, err := s.store.CheckinByShareID(ctx, shareID)
	if err != nil {
		return model.SharedCheckin{}, errors.Wrap(err, "load checkin")
	}
	view, err := s.viewable(c, viewer)
	if err != nil {
		return model.SharedCheckin{}, err
	}

	shared := model.SharedCheckin{Checkin: view, JoinsCount: len(view.Participants)}
	if c.SpaceID != nil {
		sp, err := s.store.SpaceByID(ctx, *c.SpaceID)
		if err != nil {
			return model.SharedCheckin{}, errors.Wrap(err, "load space")
		}
		shared.Space = sp
	}
	return shared, nil
}

// ListActiveCheckins is the global view of live check-ins, filtered and
// obfuscated for viewer like nearby results.
func (s *Service) ListActiveCheckins(ctx context.Context, viewer string) ([]model.CheckinView, error) {
	now := s.now()
	rows, err := s.store.ActiveCheckins(ctx, now.Add(-CheckinTTL), activeListLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list active checkins")
	}

	views := make([]model.CheckinView, 0, len(rows))
	for i := range rows {
		c := &rows[i]
		if !IsLive(c, now) || !CanView(c, viewer) {
			continue
		}
		views = append(views, toView(c, viewer, now))
	}
	return views, nil
}

func (s *Service) ActiveStats(ctx context.Context) (model.ActiveStats, error) {
	now := s.now()
	rows, err := s.store.ActiveCheckins(ctx, now.Add(-CheckinTTL), activeStatsSample)
	if err != nil {
		return model.ActiveStats{}, errors.Wrap(err, "sample active checkins")
	}

	var stats model.ActiveStats
	owners := make(map[string]struct{}, len(rows))
	for i := range rows {
		if !IsLive(&rows[i], now) {
			continue
		}
		stats.ActiveCount++
		owners[rows[i].OwnerID] = struct{}{}
	}
	stats.UniqueIdentities = len(owners)
	return stats, nil
}

func (s *Service) viewable(c *model.Checkin, viewer string) (model.CheckinView, error) {
	if c == nil || !CanView(c, viewer) {
		return model.CheckinView{}, ErrNotFound
	}
	return toView(c, viewer, s.now()), nil
}

func toView(c *model.Checkin, viewer string, now time.Time) model.CheckinView {
	lat, lng := VisibleCoordsFor(c, viewer)
	participants := c.Participants
	if participants == nil {
		participants = []string{}
	}
	return model.CheckinView{
		ID:           c.ID,
		OwnerID:      c.OwnerID,
		Lat:          lat,
		Lng:          lng,
		PlaceName:    c.PlaceName,
		Note:         c.Note,
		Status:       c.Status,
		Visibility:   c.Visibility,
		ShareID:      c.ShareID,
		StartedAt:    c.StartedAt,
		EndedAt:      c.EndedAt,
		Live:         IsLive(c, now),
		Participants: participants,
		SpaceID:      c.SpaceID,
	}
}

func effectiveVisibility(explicit, fallback *string) model.Visibility {
	if explicit != nil {
		return NormalizeVisibility(*explicit)
	}
	if fallback != nil {
		return NormalizeVisibility(*fallback)
	}
	return model.VisibilityPublic
}

func effectiveFuzzKm(explicit, fallback *float64) float64 {
	v := 0.0
	switch {
	case explicit != nil:
		v = *explicit
	case fallback != nil:
		v = *fallback
	}
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func effectiveStatus(explicit, fallback *string) *string {
	for _, s := range []*string{explicit, fallback} {
		if s == nil {
			continue
		}
		if t := strings.TrimSpace(*s); t != "" {
			return &t
		}
	}
	return nil
}
