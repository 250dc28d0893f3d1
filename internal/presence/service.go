// Package presence implements the check-in lifecycle, nearby discovery with
// location fuzzing, and the wave / join-request workflow on top of a Store.
package presence

import (
	"math/rand"
	"sync"
	"time"

	"github.com/bwise1/workin/internal/model"
)

const (
	// CheckinTTL bounds how long an active check-in stays live. Expiry is
	// computed on read; nothing sweeps rows in the background.
	CheckinTTL = 6 * time.Hour

	DefaultRadiusKm    = 10.0
	DefaultNote        = "Working here"
	UnknownPlace       = "Unknown place"
	nearbyFetchLimit   = 100
	nearbyPageSize     = 30
	activeListLimit    = 100
	activeStatsSample  = 500
	unreadLimit        = 20
	shareIDLength      = 10
	shareIDAttempts    = 2
	spaceListLimit     = 200
	spaceActiveLimit   = 100
	defaultGeocodeWait = 4 * time.Second

	// SpaceMatchDegrees is how close, per axis, a named venue must be to an
	// existing space of the same name to reuse it.
	SpaceMatchDegrees = 0.0005
)

type Options struct {
	Geocoder       Geocoder
	Notifier       Notifier
	GeocodeTimeout time.Duration
	// Now and Rand default to the wall clock and a time-seeded source.
	Now  func() time.Time
	Rand *rand.Rand
}

type Service struct {
	store          Store
	geocoder       Geocoder
	notifier       Notifier
	geocodeTimeout time.Duration
	now            func() time.Time
	rng            *lockedRand
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:          store,
		geocoder:       opts.Geocoder,
		notifier:       opts.Notifier,
		geocodeTimeout: opts.GeocodeTimeout,
		now:            opts.Now,
	}
	if s.geocodeTimeout <= 0 {
		s.geocodeTimeout = defaultGeocodeWait
	}
	if s.now == nil {
		s.now = time.Now
	}
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.rng = &lockedRand{r: r}
	return s
}

// IsLive reports whether c is active and still inside its TTL at now.
func IsLive(c *model.Checkin, now time.Time) bool {
	return c != nil && c.Active && now.Sub(c.StartedAt) < CheckinTTL
}

// lockedRand serializes access to a *rand.Rand, which is not safe for
// concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) code(n int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

	l.mu.Lock()
	defer l.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[l.r.Intn(len(charset))]
	}
	return string(b)
}

func (s *Service) notify(n model.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}
