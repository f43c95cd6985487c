package tasks

import "errors"

var (
	// ErrNotFound means the task does not exist (or vanished mid-update)
	ErrNotFound = errors.New("task not found")
	// ErrForbidden means the actor has no rights over the task's scope
	ErrForbidden = errors.New("permission denied")
	// ErrInvalidTransition wraps the guard's business reason
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrConcurrencyConflict means the expected version did not match; the
	// caller should reload and retry
	ErrConcurrencyConflict = errors.New("task was modified concurrently")
	// ErrValidation covers bad input, including an unavailable assignee
	ErrValidation = errors.New("validation failed")
	// ErrPeriodPaid blocks financial edits once the assignee's payroll
	// period is settled
	ErrPeriodPaid = errors.New("payroll period already paid")
)
