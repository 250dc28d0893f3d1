// Package postgres is the pgx-backed presence store.
package postgres

import (
	"context"
	"log"

	"github.com/bwise1/workin/internal/db"
	"github.com/bwise1/workin/internal/presence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const maxTxAttempts = 3

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ presence.Store = (*Store)(nil)

// Store runs single statements on the pool and transactions through
// db.RunInTx.
type Store struct {
	*queries
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{
		queries: &queries{conn: database.Pool()},
		db:      database,
	}
}

// RunInTx retries fn when Postgres aborts the serializable transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(presence.Repository) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.db.RunInTx(ctx, func(tx pgx.Tx) error {
			return fn(&queries{conn: tx})
		})
		if !isSerializationFailure(err) {
			return err
		}
		log.Printf("[DB] serialization failure, attempt %d/%d", attempt, maxTxAttempts)
	}
	return errors.Wrap(err, "transaction kept conflicting")
}

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	activeOwnerIndex         = "checkins_one_active_per_owner"
	shareIDConstraint        = "checkins_share_id_key"
	handleIndex              = "profiles_handle_key"
)

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isSerializationFailure(err error) bool {
	code, _ := pgCode(err)
	return code == codeSerializationFailure
}

// isActiveOwnerConflict reports whether err came from the one-active-per-owner
// partial index.
func isActiveOwnerConflict(err error) bool {
	code, constraint := pgCode(err)
	return code == codeUniqueViolation && constraint == activeOwnerIndex
}

func isShareIDConflict(err error) bool {
	code, constraint := pgCode(err)
	return code == codeUniqueViolation && constraint == shareIDConstraint
}

func isHandleConflict(err error) bool {
	code, constraint := pgCode(err)
	return code == codeUniqueViolation && constraint == handleIndex
}
