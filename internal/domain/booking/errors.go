package booking

import "errors"

var (
	// ErrNoAvailability: no eligible lane is free for the requested slot. The
	// caller must pick another slot or date.
	ErrNoAvailability = errors.New("no availability for the requested slot")

	// ErrPastTime: the requested slot is before now on today's date.
	ErrPastTime = errors.New("requested slot is in the past")

	// ErrConflict: the conditional insert lost the race for the last place on
	// the lane. Surfaced to callers identically to ErrNoAvailability.
	ErrConflict = errors.New("booking conflicts with an existing appointment")

	ErrNotFound = errors.New("booking not found")

	// ErrInvalidInput marks caller mistakes (malformed date or time, slots
	// outside the center's window) so handlers can keep them apart from
	// internal failures.
	ErrInvalidInput = errors.New("invalid input")
)
