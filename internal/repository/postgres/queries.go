package postgres

import (
	"context"
	"time"

	"github.com/bwise1/workin/internal/geo"
	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/internal/presence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// queries implements presence.Repository over either the pool or a tx.
type queries struct {
	conn DBTX
}

const checkinColumns = `id, owner_id, lat, lng, display_lat, display_lng, place_name, note,
	status, visibility, active, share_id, started_at, ended_at, participants, space_id`

func scanCheckin(row pgx.Row) (*model.Checkin, error) {
	var (
		c          model.Checkin
		visibility string
	)
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Lat,
		&c.Lng,
		&c.DisplayLat,
		&c.DisplayLng,
		&c.PlaceName,
		&c.Note,
		&c.Status,
		&visibility,
		&c.Active,
		&c.ShareID,
		&c.StartedAt,
		&c.EndedAt,
		&c.Participants,
		&c.SpaceID,
	)
	if err != nil {
		return nil, err
	}
	c.Visibility = model.Visibility(visibility)
	if c.Participants == nil {
		c.Participants = []string{}
	}
	return &c, nil
}

// optional turns pgx.ErrNoRows into a nil result.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (q *queries) ActiveCheckinByOwner(ctx context.Context, ownerID string) (*model.Checkin, error) {
	stmt := `SELECT ` + checkinColumns + ` FROM checkins WHERE owner_id = $1 AND active`
	return optional(scanCheckin(q.conn.QueryRow(ctx, stmt, ownerID)))
}

func (q *queries) CheckinByID(ctx context.Context, id uuid.UUID) (*model.Checkin, error) {
	stmt := `SELECT ` + checkinColumns + ` FROM checkins WHERE id = $1`
	return optional(scanCheckin(q.conn.QueryRow(ctx, stmt, id)))
}

func (q *queries) CheckinByShareID(ctx context.Context, shareID string) (*model.Checkin, error) {
	stmt := `SELECT ` + checkinColumns + ` FROM checkins WHERE share_id = $1`
	return optional(scanCheckin(q.conn.QueryRow(ctx, stmt, shareID)))
}

func (q *queries) InsertCheckin(ctx context.Context, c *model.Checkin) error {
	stmt := `
		INSERT INTO checkins (` + checkinColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	participants := c.Participants
	if participants == nil {
		participants = []string{}
	}
	_, err := q.conn.Exec(ctx, stmt,
		c.ID,
		c.OwnerID,
		c.Lat,
		c.Lng,
		c.DisplayLat,
		c.DisplayLng,
		c.PlaceName,
		c.Note,
		c.Status,
		string(c.Visibility),
		c.Active,
		c.ShareID,
		c.StartedAt,
		c.EndedAt,
		participants,
		c.SpaceID,
	)
	switch {
	case isActiveOwnerConflict(err):
		return presence.ErrActiveCheckinExists
	case isShareIDConflict(err):
		return presence.ErrShareIDTaken
	}
	return err
}

func (q *queries) EndCheckin(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	stmt := `UPDATE checkins SET active = FALSE, ended_at = $2 WHERE id = $1`
	tag, err := q.conn.Exec(ctx, stmt, id, endedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("checkin %s not found", id)
	}
	return nil
}

func (q *queries) AddParticipant(ctx context.Context, checkinID uuid.UUID, identity string) error {
	stmt := `
		UPDATE checkins
		SET participants = array_append(participants, $2)
		WHERE id = $1 AND NOT ($2 = ANY(participants))
	`
	_, err := q.conn.Exec(ctx, stmt, checkinID, identity)
	return err
}

func (q *queries) ActiveCheckinsInBox(ctx context.Context, box geo.BoundingBox, since time.Time, limit int) ([]model.Checkin, error) {
	stmt := `
		SELECT ` + checkinColumns + `
		FROM checkins
		WHERE active
		  AND started_at >= $1
		  AND lat BETWEEN $2 AND $3
		  AND lng BETWEEN $4 AND $5
		ORDER BY started_at DESC
		LIMIT $6
	`
	return q.listCheckins(ctx, stmt, since, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit)
}

func (q *queries) ActiveCheckins(ctx context.Context, since time.Time, limit int) ([]model.Checkin, error) {
	stmt := `
		SELECT ` + checkinColumns + `
		FROM checkins
		WHERE active AND started_at >= $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	return q.listCheckins(ctx, stmt, since, limit)
}

func (q *queries) ActiveCheckinsAtSpace(ctx context.Context, spaceID uuid.UUID, since time.Time, limit int) ([]model.Checkin, error) {
	stmt := `
		SELECT ` + checkinColumns + `
		FROM checkins
		WHERE active AND space_id = $1 AND started_at >= $2
		ORDER BY started_at DESC
		LIMIT $3
	`
	return q.listCheckins(ctx, stmt, spaceID, since, limit)
}

func (q *queries) listCheckins(ctx context.Context, stmt string, args ...any) ([]model.Checkin, error) {
	rows, err := q.conn.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Checkin{}
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

const spaceColumns = `id, name, city, country, address, lat, lng, created_at`

func scanSpace(row pgx.Row) (*model.Space, error) {
	var sp model.Space
	err := row.Scan(
		&sp.ID,
		&sp.Name,
		&sp.City,
		&sp.Country,
		&sp.Address,
		&sp.Lat,
		&sp.Lng,
		&sp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (q *queries) SpaceByID(ctx context.Context, id uuid.UUID) (*model.Space, error) {
	stmt := `SELECT ` + spaceColumns + ` FROM spaces WHERE id = $1`
	return optional(scanSpace(q.conn.QueryRow(ctx, stmt, id)))
}

func (q *queries) SpacesByCity(ctx context.Context, city string, limit int) ([]model.Space, error) {
	stmt := `
		SELECT ` + spaceColumns + `
		FROM spaces
		WHERE city = $1
		ORDER BY created_at, id
		LIMIT $2
	`
	rows, err := q.conn.Query(ctx, stmt, city, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Space{}
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *sp)
	}
	return list, rows.Err()
}

func (q *queries) FindSpace(ctx context.Context, name string, lat, lng, tolerance float64) (*model.Space, error) {
	stmt := `
		SELECT ` + spaceColumns + `
		FROM spaces
		WHERE name = $1
		  AND lat > $2 - $4 AND lat < $2 + $4
		  AND lng > $3 - $4 AND lng < $3 + $4
		ORDER BY created_at, id
		LIMIT 1
	`
	return optional(scanSpace(q.conn.QueryRow(ctx, stmt, name, lat, lng, tolerance)))
}

func (q *queries) InsertSpace(ctx context.Context, sp *model.Space) error {
	stmt := `
		INSERT INTO spaces (` + spaceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q.conn.Exec(ctx, stmt,
		sp.ID,
		sp.Name,
		sp.City,
		sp.Country,
		sp.Address,
		sp.Lat,
		sp.Lng,
		sp.CreatedAt,
	)
	return err
}

const notificationColumns = `id, recipient_id, sender_id, related_checkin_id, type,
	payload_image_url, message, read, created_at`

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var (
		n   model.Notification
		typ string
	)
	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.SenderID,
		&n.RelatedCheckinID,
		&typ,
		&n.PayloadImageURL,
		&n.Message,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Type = model.NotificationType(typ)
	return &n, nil
}

func (q *queries) InsertNotification(ctx context.Context, n *model.Notification) error {
	stmt := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.conn.Exec(ctx, stmt,
		n.ID,
		n.RecipientID,
		n.SenderID,
		n.RelatedCheckinID,
		string(n.Type),
		n.PayloadImageURL,
		n.Message,
		n.Read,
		n.CreatedAt,
	)
	return err
}

func (q *queries) NotificationByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	stmt := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	return optional(scanNotification(q.conn.QueryRow(ctx, stmt, id)))
}

func (q *queries) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	_, err := q.conn.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	return err
}

func (q *queries) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error) {
	stmt := `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND NOT read`
	tag, err := q.conn.Exec(ctx, stmt, recipientID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (q *queries) UnreadNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	stmt := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND NOT read
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := q.conn.Query(ctx, stmt, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

func (q *queries) Profile(ctx context.Context, id string) (*model.Profile, error) {
	stmt := `
		SELECT id, display_name, avatar_url, default_visibility, default_fuzz_km,
		       default_status, checkins_count, created_at, updated_at,
		       handle, bio, links, skills
		FROM profiles WHERE id = $1
	`
	var p model.Profile
	err := q.conn.QueryRow(ctx, stmt, id).Scan(
		&p.ID,
		&p.DisplayName,
		&p.AvatarURL,
		&p.Preferences.DefaultVisibility,
		&p.Preferences.DefaultFuzzKm,
		&p.Preferences.DefaultStatus,
		&p.CheckinsCount,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Handle,
		&p.Bio,
		&p.Links,
		&p.Skills,
	)
	return optional(&p, err)
}

func (q *queries) UpsertProfile(ctx context.Context, identity model.Identity, now time.Time) error {
	stmt := `
		INSERT INTO profiles (id, display_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := q.conn.Exec(ctx, stmt, identity.Subject, identity.DisplayName, identity.AvatarURL, now)
	return err
}

func (q *queries) UpdatePreferences(ctx context.Context, id string, prefs model.Preferences, now time.Time) error {
	stmt := `
		UPDATE profiles
		SET default_visibility = $2, default_fuzz_km = $3, default_status = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := q.conn.Exec(ctx, stmt, id, prefs.DefaultVisibility, prefs.DefaultFuzzKm, prefs.DefaultStatus, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("profile %s not found", id)
	}
	return nil
}

func (q *queries) UpdateProfileDetails(ctx context.Context, id string, details model.ProfileDetails, now time.Time) error {
	stmt := `
		UPDATE profiles
		SET handle = $2, bio = $3, links = $4, skills = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := q.conn.Exec(ctx, stmt, id, details.Handle, details.Bio, details.Links, details.Skills, now)
	if isHandleConflict(err) {
		return presence.ErrHandleTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("profile %s not found", id)
	}
	return nil
}

func (q *queries) IncrementCheckinsCount(ctx context.Context, id string) error {
	_, err := q.conn.Exec(ctx, `UPDATE profiles SET checkins_count = checkins_count + 1 WHERE id = $1`, id)
	return err
}

func (q *queries) GeocodeEntry(ctx context.Context, key string) (*model.GeocodeEntry, error) {
	var e model.GeocodeEntry
	err := q.conn.QueryRow(ctx, `SELECT key, place_name, updated_at FROM geocode_cache WHERE key = $1`, key).
		Scan(&e.Key, &e.PlaceName, &e.UpdatedAt)
	return optional(&e, err)
}

func (q *queries) PutGeocodeEntry(ctx context.Context, entry model.GeocodeEntry) error {
	stmt := `
		INSERT INTO geocode_cache (key, place_name, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET place_name = EXCLUDED.place_name, updated_at = EXCLUDED.updated_at
	`
	_, err := q.conn.Exec(ctx, stmt, entry.Key, entry.PlaceName, entry.UpdatedAt)
	return err
}
