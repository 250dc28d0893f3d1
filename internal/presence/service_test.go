package presence_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/internal/presence"
	"github.com/bwise1/workin/internal/repository/memory"
	"github.com/google/uuid"
)

var epoch = time.Date(2025, 4, 5, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type stubGeocoder struct {
	mu    sync.Mutex
	name  string
	err   error
	delay time.Duration
	calls int
}

func (g *stubGeocoder) PlaceName(ctx context.Context, lat, lng float64) (string, error) {
	g.mu.Lock()
	g.calls++
	name, err, delay := g.name, g.err, g.delay
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return name, err
}

func (g *stubGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (n *recordingNotifier) Notify(msg model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) Sent() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Notification{}, n.sent...)
}

type fixture struct {
	svc      *presence.Service
	store    *memory.Store
	clock    *clock
	geocoder *stubGeocoder
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewStore(),
		clock:    &clock{t: epoch},
		geocoder: &stubGeocoder{name: "Blue Bottle"},
		notifier: &recordingNotifier{},
	}
	f.svc = presence.NewService(f.store, presence.Options{
		Geocoder:       f.geocoder,
		Notifier:       f.notifier,
		GeocodeTimeout: 200 * time.Millisecond,
		Now:            f.clock.Now,
		Rand:           rand.New(rand.NewSource(42)),
	})
	return f
}

func (f *fixture) signUp(t *testing.T, subject, displayName string) {
	t.Helper()
	err := f.svc.SyncIdentity(context.Background(), model.Identity{
		Subject:     subject,
		DisplayName: displayName,
		AvatarURL:   "https://img.example/" + subject + ".png",
	})
	if err != nil {
		t.Fatalf("SyncIdentity(%s): %v", subject, err)
	}
}

func (f *fixture) start(t *testing.T, identity string, req model.StartCheckinRequest) uuid.UUID {
	t.Helper()
	res, err := f.svc.StartCheckin(context.Background(), identity, req)
	if err != nil {
		t.Fatalf("StartCheckin(%s): %v", identity, err)
	}
	return res.ID
}

func checkinAt(lat, lng float64) model.StartCheckinRequest {
	return model.StartCheckinRequest{Latitude: lat, Longitude: lng}
}

func withVisibility(req model.StartCheckinRequest, v string, fuzzKm float64) model.StartCheckinRequest {
	req.Visibility = &v
	req.FuzzKm = &fuzzKm
	return req
}

func ptr[T any](v T) *T {
	return &v
}
