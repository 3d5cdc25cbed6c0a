package session

import "errors"

// Sentinel errors for the session lifecycle. Callers classify with
// errors.Is; the HTTP layer maps each kind to a status code.
var (
	// ErrValidation marks a missing or malformed required field.
	ErrValidation = errors.New("validation failed")

	// ErrPermission marks an ownership mismatch on start or stop.
	ErrPermission = errors.New("session owned by another user")

	// ErrNoActiveSession marks an operation against an inactive session.
	ErrNoActiveSession = errors.New("no active monitoring session")

	// ErrNoData marks a stop attempt before any reading was recorded.
	// The session stays active so the caller can retry once data arrives.
	ErrNoData = errors.New("no data recorded")

	// ErrPersistence marks a failed durable write of a finished summary.
	ErrPersistence = errors.New("persistence write failed")
)
