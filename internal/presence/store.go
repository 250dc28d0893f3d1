package presence

import (
	"context"
	"errors"
	"time"

	"github.com/bwise1/workin/internal/geo"
	"github.com/bwise1/workin/internal/model"
	"github.com/google/uuid"
)

// ErrActiveCheckinExists is returned by InsertCheckin when the owner already
// holds a row with active=true. Stores must enforce this with a constraint,
// not a read-then-write in the caller.
var ErrActiveCheckinExists = errors.New("owner already has an active checkin")

// ErrShareIDTaken is returned by InsertCheckin when another row already
// carries the same share id.
var ErrShareIDTaken = errors.New("share id already taken")

// ErrHandleTaken is returned by UpdateProfileDetails when another profile
// already uses the handle.
var ErrHandleTaken = errors.New("handle already taken")

// Repository is the set of reads and writes the engine performs against the
// presence store. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	ActiveCheckinByOwner(ctx context.Context, ownerID string) (*model.Checkin, error)
	CheckinByID(ctx context.Context, id uuid.UUID) (*model.Checkin, error)
	CheckinByShareID(ctx context.Context, shareID string) (*model.Checkin, error)
	InsertCheckin(ctx context.Context, c *model.Checkin) error
	EndCheckin(ctx context.Context, id uuid.UUID, endedAt time.Time) error
	AddParticipant(ctx context.Context, checkinID uuid.UUID, identity string) error
	// ActiveCheckinsInBox returns rows with active=true and started_at >= since
	// whose true coordinates fall in box, newest first.
	ActiveCheckinsInBox(ctx context.Context, box geo.BoundingBox, since time.Time, limit int) ([]model.Checkin, error)
	ActiveCheckins(ctx context.Context, since time.Time, limit int) ([]model.Checkin, error)
	// ActiveCheckinsAtSpace is ActiveCheckins narrowed to one space.
	ActiveCheckinsAtSpace(ctx context.Context, spaceID uuid.UUID, since time.Time, limit int) ([]model.Checkin, error)

	SpaceByID(ctx context.Context, id uuid.UUID) (*model.Space, error)
	// SpacesByCity matches city exactly, oldest first.
	SpacesByCity(ctx context.Context, city string, limit int) ([]model.Space, error)
	// FindSpace returns the oldest space called name whose coordinates are
	// each within tolerance degrees of lat,lng.
	FindSpace(ctx context.Context, name string, lat, lng, tolerance float64) (*model.Space, error)
	InsertSpace(ctx context.Context, sp *model.Space) error

	InsertNotification(ctx context.Context, n *model.Notification) error
	NotificationByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error)
	// UnreadNotifications returns newest first.
	UnreadNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error)

	Profile(ctx context.Context, id string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, identity model.Identity, now time.Time) error
	UpdatePreferences(ctx context.Context, id string, prefs model.Preferences, now time.Time) error
	UpdateProfileDetails(ctx context.Context, id string, details model.ProfileDetails, now time.Time) error
	IncrementCheckinsCount(ctx context.Context, id string) error

	GeocodeEntry(ctx context.Context, key string) (*model.GeocodeEntry, error)
	PutGeocodeEntry(ctx context.Context, entry model.GeocodeEntry) error
}

// Store is a Repository that can also run a function as one serializable
// transaction. Writes made through the Repository handed to fn are committed
// only if fn returns nil.
type Store interface {
	Repository
	RunInTx(ctx context.Context, fn func(Repository) error) error
}

// Geocoder resolves a coordinate to a human-readable place label.
type Geocoder interface {
	PlaceName(ctx context.Context, lat, lng float64) (string, error)
}

// Notifier pushes a freshly stored notification to its recipient. Delivery
// is best-effort; the row is already readable by query.
type Notifier interface {
	Notify(n model.Notification)
}
