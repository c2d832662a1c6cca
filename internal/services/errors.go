package services

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is matched by every *CapacityExceededError
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrTicketNotFound is returned when cancelling or reading an unknown ticket
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrInvariantViolation means the store contradicted a check made earlier in the same transaction
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrConflict is returned once serialization failures exhaust the retry budget
	ErrConflict = errors.New("booking conflict, please retry")
	// ErrNoPassengers is returned for an empty booking request
	ErrNoPassengers = errors.New("at least one passenger is required")
	// ErrTooManyPassengers is returned when a group exceeds the per-ticket limit
	ErrTooManyPassengers = errors.New("too many passengers on one ticket")
)

// CapacityExceededError reports a group that does not fit in the free inventory
type CapacityExceededError struct {
	Requested int
	Confirmed int
	RAC       int
	Waiting   int
}

// Available returns the total number of free slots at the time of the check
func (e *CapacityExceededError) Available() int {
	return e.Confirmed + e.RAC + e.Waiting
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf(
		"Only %d total seats available (Confirmed: %d, RAC: %d, Waiting: %d). Cannot accommodate %d passengers.",
		e.Available(), e.Confirmed, e.RAC, e.Waiting, e.Requested,
	)
}

func (e *CapacityExceededError) Unwrap() error {
	return ErrCapacityExceeded
}
