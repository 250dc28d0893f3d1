package memory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bwise1/workin/internal/geo"
	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/internal/presence"
	"github.com/google/uuid"
)

// repo works on tables directly; the caller holds the lock. With journal set
// every mutation first records how to reverse itself.
type repo struct {
	d       *tables
	journal bool
	undo    []func()
}

func (r *repo) record(fn func()) {
	if r.journal {
		r.undo = append(r.undo, fn)
	}
}

func (r *repo) rollback() {
	for i := len(r.undo) - 1; i >= 0; i-- {
		r.undo[i]()
	}
	r.undo = nil
}

func (r *repo) ActiveCheckinByOwner(_ context.Context, ownerID string) (*model.Checkin, error) {
	id, ok := r.d.activeByOwner[ownerID]
	if !ok {
		return nil, nil
	}
	return cloneCheckin(r.d.checkins[id]), nil
}

func (r *repo) CheckinByID(_ context.Context, id uuid.UUID) (*model.Checkin, error) {
	c, ok := r.d.checkins[id]
	if !ok {
		return nil, nil
	}
	return cloneCheckin(c), nil
}

func (r *repo) CheckinByShareID(_ context.Context, shareID string) (*model.Checkin, error) {
	id, ok := r.d.shareIndex[shareID]
	if !ok {
		return nil, nil
	}
	return cloneCheckin(r.d.checkins[id]), nil
}

func (r *repo) InsertCheckin(_ context.Context, c *model.Checkin) error {
	if _, exists := r.d.checkins[c.ID]; exists {
		return fmt.Errorf("checkin %s already exists", c.ID)
	}
	if c.Active {
		if _, taken := r.d.activeByOwner[c.OwnerID]; taken {
			return presence.ErrActiveCheckinExists
		}
	}
	if c.ShareID != "" {
		if _, taken := r.d.shareIndex[c.ShareID]; taken {
			return presence.ErrShareIDTaken
		}
	}

	stored := cloneCheckin(c)
	r.d.checkins[c.ID] = stored
	r.d.checkinOrder = append(r.d.checkinOrder, c.ID)
	if c.Active {
		r.d.activeByOwner[c.OwnerID] = c.ID
	}
	if c.ShareID != "" {
		r.d.shareIndex[c.ShareID] = c.ID
	}

	r.record(func() {
		delete(r.d.checkins, c.ID)
		r.d.checkinOrder = r.d.checkinOrder[:len(r.d.checkinOrder)-1]
		if stored.Active {
			delete(r.d.activeByOwner, stored.OwnerID)
		}
		if stored.ShareID != "" {
			delete(r.d.shareIndex, stored.ShareID)
		}
	})
	return nil
}

func (r *repo) EndCheckin(_ context.Context, id uuid.UUID, endedAt time.Time) error {
	c, ok := r.d.checkins[id]
	if !ok {
		return fmt.Errorf("checkin %s not found", id)
	}

	prevActive, prevEnded := c.Active, c.EndedAt
	c.Active = false
	ended := endedAt
	c.EndedAt = &ended
	if r.d.activeByOwner[c.OwnerID] == id {
		delete(r.d.activeByOwner, c.OwnerID)
	}

	r.record(func() {
		c.Active, c.EndedAt = prevActive, prevEnded
		if prevActive {
			r.d.activeByOwner[c.OwnerID] = id
		}
	})
	return nil
}

func (r *repo) AddParticipant(_ context.Context, checkinID uuid.UUID, identity string) error {
	c, ok := r.d.checkins[checkinID]
	if !ok {
		return fmt.Errorf("checkin %s not found", checkinID)
	}
	if c.HasParticipant(identity) {
		return nil
	}

	prev := c.Participants
	c.Participants = append(append([]string{}, prev...), identity)
	r.record(func() { c.Participants = prev })
	return nil
}

func (r *repo) ActiveCheckinsInBox(_ context.Context, box geo.BoundingBox, since time.Time, limit int) ([]model.Checkin, error) {
	return r.collectActive(since, limit, func(c *model.Checkin) bool {
		return box.Contains(c.Lat, c.Lng)
	}), nil
}

func (r *repo) ActiveCheckins(_ context.Context, since time.Time, limit int) ([]model.Checkin, error) {
	return r.collectActive(since, limit, nil), nil
}

func (r *repo) ActiveCheckinsAtSpace(_ context.Context, spaceID uuid.UUID, since time.Time, limit int) ([]model.Checkin, error) {
	return r.collectActive(since, limit, func(c *model.Checkin) bool {
		return c.SpaceID != nil && *c.SpaceID == spaceID
	}), nil
}

// collectActive walks insertion order backwards so results come newest first.
func (r *repo) collectActive(since time.Time, limit int, keep func(*model.Checkin) bool) []model.Checkin {
	out := []model.Checkin{}
	for i := len(r.d.checkinOrder) - 1; i >= 0 && len(out) < limit; i-- {
		c := r.d.checkins[r.d.checkinOrder[i]]
		if !c.Active || c.StartedAt.Before(since) {
			continue
		}
		if keep != nil && !keep(c) {
			continue
		}
		out = append(out, *cloneCheckin(c))
	}
	return out
}

func (r *repo) SpaceByID(_ context.Context, id uuid.UUID) (*model.Space, error) {
	sp, ok := r.d.spaces[id]
	if !ok {
		return nil, nil
	}
	return cloneSpace(sp), nil
}

func (r *repo) SpacesByCity(_ context.Context, city string, limit int) ([]model.Space, error) {
	out := []model.Space{}
	for _, id := range r.d.spaceOrder {
		if len(out) == limit {
			break
		}
		sp := r.d.spaces[id]
		if sp.City != nil && *sp.City == city {
			out = append(out, *cloneSpace(sp))
		}
	}
	return out, nil
}

func (r *repo) FindSpace(_ context.Context, name string, lat, lng, tolerance float64) (*model.Space, error) {
	for _, id := range r.d.spaceOrder {
		sp := r.d.spaces[id]
		if sp.Name == name && math.Abs(sp.Lat-lat) < tolerance && math.Abs(sp.Lng-lng) < tolerance {
			return cloneSpace(sp), nil
		}
	}
	return nil, nil
}

func (r *repo) InsertSpace(_ context.Context, sp *model.Space) error {
	if _, exists := r.d.spaces[sp.ID]; exists {
		return fmt.Errorf("space %s already exists", sp.ID)
	}
	r.d.spaces[sp.ID] = cloneSpace(sp)
	r.d.spaceOrder = append(r.d.spaceOrder, sp.ID)

	r.record(func() {
		delete(r.d.spaces, sp.ID)
		r.d.spaceOrder = r.d.spaceOrder[:len(r.d.spaceOrder)-1]
	})
	return nil
}

func (r *repo) InsertNotification(_ context.Context, n *model.Notification) error {
	if _, exists := r.d.notifications[n.ID]; exists {
		return fmt.Errorf("notification %s already exists", n.ID)
	}
	stored := *n
	r.d.notifications[n.ID] = &stored
	r.d.notificationOrder = append(r.d.notificationOrder, n.ID)

	r.record(func() {
		delete(r.d.notifications, n.ID)
		r.d.notificationOrder = r.d.notificationOrder[:len(r.d.notificationOrder)-1]
	})
	return nil
}

func (r *repo) NotificationByID(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	n, ok := r.d.notifications[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *repo) MarkNotificationRead(_ context.Context, id uuid.UUID) error {
	n, ok := r.d.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s not found", id)
	}
	if n.Read {
		return nil
	}
	n.Read = true
	r.record(func() { n.Read = false })
	return nil
}

func (r *repo) MarkAllNotificationsRead(_ context.Context, recipientID string) (int, error) {
	count := 0
	for _, id := range r.d.notificationOrder {
		n := r.d.notifications[id]
		if n.RecipientID != recipientID || n.Read {
			continue
		}
		n.Read = true
		r.record(func() { n.Read = false })
		count++
	}
	return count, nil
}

// UnreadNotifications returns newest first.
func (r *repo) UnreadNotifications(_ context.Context, recipientID string, limit int) ([]model.Notification, error) {
	out := []model.Notification{}
	for i := len(r.d.notificationOrder) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.d.notifications[r.d.notificationOrder[i]]
		if n.RecipientID == recipientID && !n.Read {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *repo) Profile(_ context.Context, id string) (*model.Profile, error) {
	p, ok := r.d.profiles[id]
	if !ok {
		return nil, nil
	}
	return cloneProfile(p), nil
}

func (r *repo) UpsertProfile(_ context.Context, identity model.Identity, now time.Time) error {
	p, ok := r.d.profiles[identity.Subject]
	if !ok {
		r.d.profiles[identity.Subject] = &model.Profile{
			ID:          identity.Subject,
			DisplayName: identity.DisplayName,
			AvatarURL:   identity.AvatarURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		r.record(func() { delete(r.d.profiles, identity.Subject) })
		return nil
	}

	prev := *p
	p.DisplayName = identity.DisplayName
	p.AvatarURL = identity.AvatarURL
	p.UpdatedAt = now
	r.record(func() { *p = prev })
	return nil
}

func (r *repo) UpdatePreferences(_ context.Context, id string, prefs model.Preferences, now time.Time) error {
	p, ok := r.d.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s not found", id)
	}
	prev := *p
	p.Preferences = prefs
	p.UpdatedAt = now
	r.record(func() { *p = prev })
	return nil
}

func (r *repo) UpdateProfileDetails(_ context.Context, id string, details model.ProfileDetails, now time.Time) error {
	p, ok := r.d.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s not found", id)
	}
	if details.Handle != nil {
		for otherID, other := range r.d.profiles {
			if otherID != id && other.Handle != nil && *other.Handle == *details.Handle {
				return presence.ErrHandleTaken
			}
		}
	}

	prev := *p
	p.ProfileDetails = cloneProfile(&model.Profile{ProfileDetails: details}).ProfileDetails
	p.UpdatedAt = now
	r.record(func() { *p = prev })
	return nil
}

// IncrementCheckinsCount is a no-op for identities without a profile row.
func (r *repo) IncrementCheckinsCount(_ context.Context, id string) error {
	p, ok := r.d.profiles[id]
	if !ok {
		return nil
	}
	p.CheckinsCount++
	r.record(func() { p.CheckinsCount-- })
	return nil
}

func (r *repo) GeocodeEntry(_ context.Context, key string) (*model.GeocodeEntry, error) {
	e, ok := r.d.geocode[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) PutGeocodeEntry(_ context.Context, entry model.GeocodeEntry) error {
	prev, existed := r.d.geocode[entry.Key]
	r.d.geocode[entry.Key] = entry
	r.record(func() {
		if existed {
			r.d.geocode[entry.Key] = prev
		} else {
			delete(r.d.geocode, entry.Key)
		}
	})
	return nil
}

func cloneCheckin(c *model.Checkin) *model.Checkin {
	cp := *c
	cp.Participants = append([]string{}, c.Participants...)
	if c.DisplayLat != nil {
		v := *c.DisplayLat
		cp.DisplayLat = &v
	}
	if c.DisplayLng != nil {
		v := *c.DisplayLng
		cp.DisplayLng = &v
	}
	if c.Status != nil {
		v := *c.Status
		cp.Status = &v
	}
	if c.EndedAt != nil {
		v := *c.EndedAt
		cp.EndedAt = &v
	}
	if c.SpaceID != nil {
		v := *c.SpaceID
		cp.SpaceID = &v
	}
	return &cp
}

func cloneSpace(sp *model.Space) *model.Space {
	cp := *sp
	cp.City = clonePtr(sp.City)
	cp.Country = clonePtr(sp.Country)
	cp.Address = clonePtr(sp.Address)
	return &cp
}

func cloneProfile(p *model.Profile) *model.Profile {
	cp := *p
	cp.Handle = clonePtr(p.Handle)
	cp.Bio = clonePtr(p.Bio)
	if p.Links != nil {
		cp.Links = append([]string{}, p.Links...)
	}
	if p.Skills != nil {
		cp.Skills = append([]string{}, p.Skills...)
	}
	return &cp
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
