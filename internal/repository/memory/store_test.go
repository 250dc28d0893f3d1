package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwise1/workin/internal/geo"
	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/internal/presence"
	"github.com/google/uuid"
)

var base = time.Date(2025, 4, 5, 9, 0, 0, 0, time.UTC)

func newCheckin(owner string, lat, lng float64, startedAt time.Time) *model.Checkin {
	return &model.Checkin{
		ID:           uuid.New(),
		OwnerID:      owner,
		Lat:          lat,
		Lng:          lng,
		PlaceName:    "Cafe",
		Note:         "Working here",
		Visibility:   model.VisibilityPublic,
		Active:       true,
		ShareID:      uuid.NewString()[:10],
		StartedAt:    startedAt,
		Participants: []string{},
	}
}

func TestInsertCheckinOneActivePerOwner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.InsertCheckin(ctx, newCheckin("alice", 1, 1, base)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.InsertCheckin(ctx, newCheckin("alice", 2, 2, base))
	if !errors.Is(err, presence.ErrActiveCheckinExists) {
		t.Fatalf("second insert = %v; want ErrActiveCheckinExists", err)
	}

	current, err := s.ActiveCheckinByOwner(ctx, "alice")
	if err != nil || current == nil {
		t.Fatalf("ActiveCheckinByOwner = %v, %v", current, err)
	}
	if err := s.EndCheckin(ctx, current.ID, base.Add(time.Hour)); err != nil {
		t.Fatalf("EndCheckin: %v", err)
	}
	if err := s.InsertCheckin(ctx, newCheckin("alice", 2, 2, base.Add(time.Hour))); err != nil {
		t.Fatalf("insert after end: %v", err)
	}
}

func TestInsertCheckinDuplicateShareID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first := newCheckin("alice", 1, 1, base)
	if err := s.InsertCheckin(ctx, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	dup := newCheckin("bob", 2, 2, base)
	dup.ShareID = first.ShareID
	if err := s.InsertCheckin(ctx, dup); !errors.Is(err, presence.ErrShareIDTaken) {
		t.Fatalf("duplicate share id insert = %v; want ErrShareIDTaken", err)
	}
	if got, _ := s.ActiveCheckinByOwner(ctx, "bob"); got != nil {
		t.Errorf("rejected checkin was stored: %+v", got)
	}
}

func TestEndCheckinKeepsHistory(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := newCheckin("alice", 1, 1, base)
	if err := s.InsertCheckin(ctx, c); err != nil {
		t.Fatal(err)
	}
	endedAt := base.Add(2 * time.Hour)
	if err := s.EndCheckin(ctx, c.ID, endedAt); err != nil {
		t.Fatal(err)
	}

	got, err := s.CheckinByID(ctx, c.ID)
	if err != nil || got == nil {
		t.Fatalf("CheckinByID = %v, %v", got, err)
	}
	if got.Active {
		t.Errorf("Active = true after end")
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(endedAt) {
		t.Errorf("EndedAt = %v; want %v", got.EndedAt, endedAt)
	}
	if mine, _ := s.ActiveCheckinByOwner(ctx, "alice"); mine != nil {
		t.Errorf("ActiveCheckinByOwner = %v; want nil", mine)
	}
	if byShare, _ := s.CheckinByShareID(ctx, c.ShareID); byShare == nil {
		t.Errorf("CheckinByShareID lost ended checkin")
	}
}

func TestReturnedCheckinsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := newCheckin("alice", 1, 1, base)
	if err := s.InsertCheckin(ctx, c); err != nil {
		t.Fatal(err)
	}
	c.PlaceName = "mutated"

	got, _ := s.CheckinByID(ctx, c.ID)
	got.Participants = append(got.Participants, "mallory")

	again, _ := s.CheckinByID(ctx, c.ID)
	if again.PlaceName != "Cafe" {
		t.Errorf("PlaceName = %q; caller mutation leaked into store", again.PlaceName)
	}
	if len(again.Participants) != 0 {
		t.Errorf("Participants = %v; caller mutation leaked into store", again.Participants)
	}
}

func TestActiveCheckinsInBox(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	inside := newCheckin("a", 37.77, -122.42, base)
	outside := newCheckin("b", 40.71, -74.00, base.Add(time.Minute))
	stale := newCheckin("c", 37.78, -122.41, base.Add(-7*time.Hour))
	newer := newCheckin("d", 37.76, -122.43, base.Add(2*time.Minute))
	for _, c := range []*model.Checkin{inside, outside, stale, newer} {
		if err := s.InsertCheckin(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	box := geo.BoundingBoxAround(37.77, -122.42, 10)
	got, err := s.ActiveCheckinsInBox(ctx, box, base.Add(-time.Hour), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d checkins; want 2", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != inside.ID {
		t.Errorf("order = %s, %s; want newest first", got[0].OwnerID, got[1].OwnerID)
	}

	limited, _ := s.ActiveCheckinsInBox(ctx, box, base.Add(-time.Hour), 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: got %d", len(limited))
	}
}

func TestAddParticipantIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := newCheckin("alice", 1, 1, base)
	if err := s.InsertCheckin(ctx, c); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := s.AddParticipant(ctx, c.ID, "bob"); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := s.CheckinByID(ctx, c.ID)
	if len(got.Participants) != 1 || got.Participants[0] != "bob" {
		t.Errorf("Participants = %v; want [bob]", got.Participants)
	}
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		n := &model.Notification{
			ID:          uuid.New(),
			RecipientID: "alice",
			Type:        model.NotificationSayHello,
			Message:     "hi",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.InsertNotification(ctx, n); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, n.ID)
	}
	other := &model.Notification{ID: uuid.New(), RecipientID: "bob", Type: model.NotificationSayHello}
	if err := s.InsertNotification(ctx, other); err != nil {
		t.Fatal(err)
	}

	unread, _ := s.UnreadNotifications(ctx, "alice", 2)
	if len(unread) != 2 || unread[0].ID != ids[2] || unread[1].ID != ids[1] {
		t.Fatalf("UnreadNotifications = %v; want two newest first", unread)
	}

	if err := s.MarkNotificationRead(ctx, ids[2]); err != nil {
		t.Fatal(err)
	}
	cleared, err := s.MarkAllNotificationsRead(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if cleared != 2 {
		t.Errorf("cleared = %d; want 2", cleared)
	}
	if left, _ := s.UnreadNotifications(ctx, "alice", 20); len(left) != 0 {
		t.Errorf("alice still has %d unread", len(left))
	}
	if left, _ := s.UnreadNotifications(ctx, "bob", 20); len(left) != 1 {
		t.Errorf("bob has %d unread; want 1", len(left))
	}
}

func TestUpsertProfileKeepsPreferences(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := model.Identity{Subject: "alice", DisplayName: "Alice"}
	if err := s.UpsertProfile(ctx, id, base); err != nil {
		t.Fatal(err)
	}
	private := string(model.VisibilityPrivate)
	if err := s.UpdatePreferences(ctx, "alice", model.Preferences{DefaultVisibility: &private}, base); err != nil {
		t.Fatal(err)
	}
	if err := s.IncrementCheckinsCount(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	id.DisplayName = "Alice B"
	if err := s.UpsertProfile(ctx, id, base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	p, _ := s.Profile(ctx, "alice")
	if p.DisplayName != "Alice B" {
		t.Errorf("DisplayName = %q", p.DisplayName)
	}
	if p.Preferences.DefaultVisibility == nil || *p.Preferences.DefaultVisibility != private {
		t.Errorf("DefaultVisibility lost on upsert")
	}
	if p.CheckinsCount != 1 {
		t.Errorf("CheckinsCount = %d; want 1", p.CheckinsCount)
	}
	if !p.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v; want %v", p.CreatedAt, base)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if err := s.UpsertProfile(ctx, model.Identity{Subject: "alice"}, base); err != nil {
		t.Fatal(err)
	}
	c := newCheckin("alice", 1, 1, base)
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(r presence.Repository) error {
		if err := r.InsertCheckin(ctx, c); err != nil {
			return err
		}
		if err := r.IncrementCheckinsCount(ctx, "alice"); err != nil {
			return err
		}
		if err := r.PutGeocodeEntry(ctx, model.GeocodeEntry{Key: "1.0000,1.0000", PlaceName: "X"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx = %v; want boom", err)
	}

	if got, _ := s.CheckinByID(ctx, c.ID); got != nil {
		t.Errorf("checkin survived rollback")
	}
	if got, _ := s.ActiveCheckinByOwner(ctx, "alice"); got != nil {
		t.Errorf("active index survived rollback")
	}
	if got, _ := s.CheckinByShareID(ctx, c.ShareID); got != nil {
		t.Errorf("share index survived rollback")
	}
	if p, _ := s.Profile(ctx, "alice"); p.CheckinsCount != 0 {
		t.Errorf("CheckinsCount = %d after rollback", p.CheckinsCount)
	}
	if e, _ := s.GeocodeEntry(ctx, "1.0000,1.0000"); e != nil {
		t.Errorf("geocode entry survived rollback")
	}

	// the rolled back owner can still check in
	if err := s.InsertCheckin(ctx, newCheckin("alice", 1, 1, base)); err != nil {
		t.Errorf("insert after rollback: %v", err)
	}
}

func TestRunInTxRollsBackEnd(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := newCheckin("alice", 1, 1, base)
	if err := s.InsertCheckin(ctx, c); err != nil {
		t.Fatal(err)
	}

	_ = s.RunInTx(ctx, func(r presence.Repository) error {
		if err := r.EndCheckin(ctx, c.ID, base); err != nil {
			return err
		}
		return errors.New("abort")
	})

	got, _ := s.ActiveCheckinByOwner(ctx, "alice")
	if got == nil || !got.Active || got.EndedAt != nil {
		t.Errorf("ActiveCheckinByOwner = %+v; want restored active checkin", got)
	}
}

func TestConcurrentInsertsKeepOneActive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunInTx(ctx, func(r presence.Repository) error {
				cur, err := r.ActiveCheckinByOwner(ctx, "alice")
				if err != nil {
					return err
				}
				if cur != nil {
					return presence.ErrActiveCheckinExists
				}
				return r.InsertCheckin(ctx, newCheckin("alice", 1, 1, base))
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Errorf("%d concurrent inserts succeeded; want 1", success)
	}
	active, _ := s.ActiveCheckins(ctx, base.Add(-time.Hour), 100)
	if len(active) != 1 {
		t.Errorf("%d active checkins; want 1", len(active))
	}
}

func newSpace(name, city string, lat, lng float64, createdAt time.Time) *model.Space {
	return &model.Space{ID: uuid.New(), Name: name, City: &city, Lat: lat, Lng: lng, CreatedAt: createdAt}
}

func TestSpaces(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	factory := newSpace("Factory", "Berlin", 52.52, 13.405, base)
	oberholz := newSpace("St. Oberholz", "Berlin", 52.529, 13.401, base.Add(time.Minute))
	hub := newSpace("Hub", "Lagos", 6.45, 3.39, base)
	for _, sp := range []*model.Space{factory, oberholz, hub} {
		if err := s.InsertSpace(ctx, sp); err != nil {
			t.Fatal(err)
		}
	}

	berlin, _ := s.SpacesByCity(ctx, "Berlin", 10)
	if len(berlin) != 2 || berlin[0].ID != factory.ID || berlin[1].ID != oberholz.ID {
		t.Errorf("SpacesByCity(Berlin) = %+v", berlin)
	}
	if capped, _ := s.SpacesByCity(ctx, "Berlin", 1); len(capped) != 1 {
		t.Errorf("limit ignored: %d spaces", len(capped))
	}

	testCases := []struct {
		name     string
		space    string
		lat, lng float64
		want     *model.Space
	}{
		{"exact", "Factory", 52.52, 13.405, factory},
		{"within tolerance", "Factory", 52.5204, 13.4046, factory},
		{"too far north", "Factory", 52.5206, 13.405, nil},
		{"other name", "Factory Berlin", 52.52, 13.405, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.FindSpace(ctx, tc.space, tc.lat, tc.lng, 0.0005)
			if err != nil {
				t.Fatal(err)
			}
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("FindSpace = %s; want none", got.ID)
			case tc.want != nil && (got == nil || got.ID != tc.want.ID):
				t.Errorf("FindSpace = %v; want %s", got, tc.want.ID)
			}
		})
	}

	got, _ := s.SpaceByID(ctx, factory.ID)
	*got.City = "Paris"
	if again, _ := s.SpaceByID(ctx, factory.ID); *again.City != "Berlin" {
		t.Errorf("SpaceByID returned shared storage")
	}
}

func TestActiveCheckinsAtSpace(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	spaceID := uuid.New()

	at := func(owner string, startedAt time.Time) *model.Checkin {
		c := newCheckin(owner, 1, 1, startedAt)
		c.SpaceID = &spaceID
		return c
	}
	old := at("alice", base.Add(-7*time.Hour))
	here := at("bob", base)
	elsewhere := newCheckin("carol", 1, 1, base)
	for _, c := range []*model.Checkin{old, here, elsewhere} {
		if err := s.InsertCheckin(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.ActiveCheckinsAtSpace(ctx, spaceID, base.Add(-6*time.Hour), 10)
	if len(got) != 1 || got[0].ID != here.ID {
		t.Fatalf("ActiveCheckinsAtSpace = %d rows; want only bob's", len(got))
	}
	if got[0].SpaceID == nil || *got[0].SpaceID != spaceID {
		t.Errorf("SpaceID = %v", got[0].SpaceID)
	}
}

func TestUpdateProfileDetails(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, who := range []string{"alice", "bob"} {
		if err := s.UpsertProfile(ctx, model.Identity{Subject: who}, base); err != nil {
			t.Fatal(err)
		}
	}

	handle := "ace"
	skills := []string{"go"}
	if err := s.UpdateProfileDetails(ctx, "alice", model.ProfileDetails{Handle: &handle, Skills: skills}, base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	skills[0] = "rust"

	p, _ := s.Profile(ctx, "alice")
	if p.Handle == nil || *p.Handle != "ace" || len(p.Skills) != 1 || p.Skills[0] != "go" {
		t.Errorf("stored details = %+v", p.ProfileDetails)
	}
	if !p.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", p.UpdatedAt)
	}

	err := s.UpdateProfileDetails(ctx, "bob", model.ProfileDetails{Handle: &handle}, base)
	if !errors.Is(err, presence.ErrHandleTaken) {
		t.Errorf("duplicate handle = %v; want ErrHandleTaken", err)
	}
	if err := s.UpdateProfileDetails(ctx, "nobody", model.ProfileDetails{}, base); err == nil {
		t.Error("expected an error for a missing profile")
	}
}

func TestRunInTxRollsBackSpace(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sp := newSpace("Factory", "Berlin", 52.52, 13.405, base)

	err := s.RunInTx(ctx, func(r presence.Repository) error {
		if err := r.InsertSpace(ctx, sp); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("RunInTx succeeded")
	}
	if got, _ := s.SpaceByID(ctx, sp.ID); got != nil {
		t.Errorf("space survived rollback")
	}
	if list, _ := s.SpacesByCity(ctx, "Berlin", 10); len(list) != 0 {
		t.Errorf("space order survived rollback: %d", len(list))
	}
}
