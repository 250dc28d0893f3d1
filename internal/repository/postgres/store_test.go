package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

func TestErrorClassification(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		ownerConflict bool
		shareConflict bool
		serialization bool
	}{
		{"nil", nil, false, false, false},
		{"plain", errors.New("boom"), false, false, false},
		{"active owner", &pgconn.PgError{Code: "23505", ConstraintName: activeOwnerIndex}, true, false, false},
		{"wrapped active owner", errors.Wrap(&pgconn.PgError{Code: "23505", ConstraintName: activeOwnerIndex}, "insert"), true, false, false},
		{"share id collision", &pgconn.PgError{Code: "23505", ConstraintName: "checkins_share_id_key"}, false, true, false},
		{"wrapped share id collision", errors.Wrap(&pgconn.PgError{Code: "23505", ConstraintName: shareIDConstraint}, "insert"), false, true, false},
		{"other unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "profiles_pkey"}, false, false, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, false, false, true},
		{"fmt wrapped serialization", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), false, false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isActiveOwnerConflict(tc.err); got != tc.ownerConflict {
				t.Errorf("isActiveOwnerConflict = %v; want %v", got, tc.ownerConflict)
			}
			if got := isShareIDConflict(tc.err); got != tc.shareConflict {
				t.Errorf("isShareIDConflict = %v; want %v", got, tc.shareConflict)
			}
			if got := isSerializationFailure(tc.err); got != tc.serialization {
				t.Errorf("isSerializationFailure = %v; want %v", got, tc.serialization)
			}
		})
	}
}

func TestIsHandleConflict(t *testing.T) {
	if !isHandleConflict(errors.Wrap(&pgconn.PgError{Code: "23505", ConstraintName: handleIndex}, "update")) {
		t.Error("handle index violation not recognised")
	}
	if isHandleConflict(&pgconn.PgError{Code: "23505", ConstraintName: shareIDConstraint}) {
		t.Error("share id violation taken for a handle conflict")
	}
	if isHandleConflict(nil) {
		t.Error("nil taken for a handle conflict")
	}
}

func TestOptional(t *testing.T) {
	v := 7

	got, err := optional(&v, pgx.ErrNoRows)
	if got != nil || err != nil {
		t.Errorf("optional(ErrNoRows) = %v, %v; want nil, nil", got, err)
	}

	got, err = optional(&v, errors.Wrap(pgx.ErrNoRows, "scan"))
	if got != nil || err != nil {
		t.Errorf("optional(wrapped ErrNoRows) = %v, %v; want nil, nil", got, err)
	}

	boom := errors.New("boom")
	if _, err := optional(&v, boom); err != boom {
		t.Errorf("optional(boom) err = %v; want boom", err)
	}

	got, err = optional(&v, nil)
	if err != nil || got == nil || *got != 7 {
		t.Errorf("optional(ok) = %v, %v", got, err)
	}
}
