package repository

import "errors"

var (
	// ErrNotFound is returned when a record doesn't exist
	ErrNotFound = errors.New("record not found")

	// ErrNotPending is returned by Claim when the record exists but is not
	// in the pending state (already claimed, terminal, or cancelled).
	ErrNotPending = errors.New("record is not pending")

	// ErrNotDue is returned by Claim when the record is pending but its
	// scheduled time has not arrived yet.
	ErrNotDue = errors.New("record is not due yet")
)
