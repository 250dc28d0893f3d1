package presence

import "errors"

// Operation failures surfaced to callers. None of them are retried here.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrAlreadyCheckedIn = errors.New("you already have an active check-in")
	ErrNotCheckedIn     = errors.New("you must have an active check-in to join others")
	ErrSelfTarget       = errors.New("cannot send notification to yourself")
	ErrSelfJoin         = errors.New("cannot join your own check-in")
	ErrAlreadyJoined    = errors.New("already joined this check-in")
	ErrNotFound         = errors.New("not found")
	ErrInvalid          = errors.New("invalid request")
)
