// Package memory is an in-process presence store. It enforces the same
// constraints as the Postgres schema: one active check-in per owner, and
// all-or-nothing transactions.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bwise1/workin/internal/geo"
	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/internal/presence"
	"github.com/google/uuid"
)

var _ presence.Store = (*Store)(nil)

// Store guards all tables with one RWMutex. Reads share it, writes and
// transactions hold it exclusively, which makes every transaction
// serializable.
type Store struct {
	mu sync.RWMutex
	d  tables
}

type tables struct {
	checkins      map[uuid.UUID]*model.Checkin
	checkinOrder  []uuid.UUID // insertion order
	activeByOwner map[string]uuid.UUID
	shareIndex    map[string]uuid.UUID

	spaces     map[uuid.UUID]*model.Space
	spaceOrder []uuid.UUID

	notifications     map[uuid.UUID]*model.Notification
	notificationOrder []uuid.UUID

	profiles map[string]*model.Profile
	geocode  map[string]model.GeocodeEntry
}

func NewStore() *Store {
	return &Store{
		d: tables{
			checkins:      make(map[uuid.UUID]*model.Checkin),
			activeByOwner: make(map[string]uuid.UUID),
			shareIndex:    make(map[string]uuid.UUID),
			spaces:        make(map[uuid.UUID]*model.Space),
			notifications: make(map[uuid.UUID]*model.Notification),
			profiles:      make(map[string]*model.Profile),
			geocode:       make(map[string]model.GeocodeEntry),
		},
	}
}

// RunInTx runs fn under the write lock. If fn fails every write it made is
// undone in reverse order before the lock is released.
func (s *Store) RunInTx(ctx context.Context, fn func(presence.Repository) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &repo{d: &s.d, journal: true}
	defer func() {
		if p := recover(); p != nil {
			r.rollback()
			panic(p)
		} else if err != nil {
			r.rollback()
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	return fn(r)
}

func (s *Store) read() *repo {
	return &repo{d: &s.d}
}

func (s *Store) ActiveCheckinByOwner(ctx context.Context, ownerID string) (*model.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ActiveCheckinByOwner(ctx, ownerID)
}

func (s *Store) CheckinByID(ctx context.Context, id uuid.UUID) (*model.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().CheckinByID(ctx, id)
}

func (s *Store) CheckinByShareID(ctx context.Context, shareID string) (*model.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().CheckinByShareID(ctx, shareID)
}

func (s *Store) InsertCheckin(ctx context.Context, c *model.Checkin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().InsertCheckin(ctx, c)
}

func (s *Store) EndCheckin(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().EndCheckin(ctx, id, endedAt)
}

func (s *Store) AddParticipant(ctx context.Context, checkinID uuid.UUID, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().AddParticipant(ctx, checkinID, identity)
}

func (s *Store) ActiveCheckinsInBox(ctx context.Context, box geo.BoundingBox, since time.Time, limit int) ([]model.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ActiveCheckinsInBox(ctx, box, since, limit)
}

func (s *Store) ActiveCheckins(ctx context.Context, since time.Time, limit int) ([]model.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ActiveCheckins(ctx, since, limit)
}

func (s *Store) ActiveCheckinsAtSpace(ctx context.Context, spaceID uuid.UUID, since time.Time, limit int) ([]model.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ActiveCheckinsAtSpace(ctx, spaceID, since, limit)
}

func (s *Store) SpaceByID(ctx context.Context, id uuid.UUID) (*model.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().SpaceByID(ctx, id)
}

func (s *Store) SpacesByCity(ctx context.Context, city string, limit int) ([]model.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().SpacesByCity(ctx, city, limit)
}

func (s *Store) FindSpace(ctx context.Context, name string, lat, lng, tolerance float64) (*model.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().FindSpace(ctx, name, lat, lng, tolerance)
}

func (s *Store) InsertSpace(ctx context.Context, sp *model.Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().InsertSpace(ctx, sp)
}

func (s *Store) InsertNotification(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().InsertNotification(ctx, n)
}

func (s *Store) NotificationByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().NotificationByID(ctx, id)
}

func (s *Store) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().MarkNotificationRead(ctx, id)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().MarkAllNotificationsRead(ctx, recipientID)
}

func (s *Store) UnreadNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().UnreadNotifications(ctx, recipientID, limit)
}

func (s *Store) Profile(ctx context.Context, id string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().Profile(ctx, id)
}

func (s *Store) UpsertProfile(ctx context.Context, identity model.Identity, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().UpsertProfile(ctx, identity, now)
}

func (s *Store) UpdatePreferences(ctx context.Context, id string, prefs model.Preferences, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().UpdatePreferences(ctx, id, prefs, now)
}

func (s *Store) UpdateProfileDetails(ctx context.Context, id string, details model.ProfileDetails, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().UpdateProfileDetails(ctx, id, details, now)
}

func (s *Store) IncrementCheckinsCount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().IncrementCheckinsCount(ctx, id)
}

func (s *Store) GeocodeEntry(ctx context.Context, key string) (*model.GeocodeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GeocodeEntry(ctx, key)
}

func (s *Store) PutGeocodeEntry(ctx context.Context, entry model.GeocodeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().PutGeocodeEntry(ctx, entry)
}
