package errs

import "errors"

// Engine-level sentinel errors shared across the command and query layers.
var (
	// ErrInvalidInput covers malformed command data: non-positive visitor
	// counts, unknown order types, unparsable slots. No state change.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned when a command does not apply to the
	// order's current status. The order is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCapacityRejected: no room and the waiting list is not applicable
	// (past slot, park unavailable).
	ErrCapacityRejected = errors.New("capacity rejected")

	// ErrStorageUnavailable wraps persistence collaborator failures after
	// in-memory mutations have been rolled back.
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrOrderNotFound = errors.New("order not found")
	ErrParkNotFound  = errors.New("park not found")
	ErrSlotNotFound  = errors.New("capacity slot not found")
)
