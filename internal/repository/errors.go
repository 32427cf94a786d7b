package repository

import "errors"

// Sentinel errors so callers can distinguish "denied" from "error" from
// "already done" instead of matching on strings.
var (
	ErrTestNotFound       = errors.New("test not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrLinkNotFound       = errors.New("public link not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrTimeSlotNotFound   = errors.New("time slot not found")

	// ErrAlreadyTerminated means the attempt is in a terminal state and the
	// requested mutation was skipped. Callers usually treat this as a no-op.
	ErrAlreadyTerminated = errors.New("attempt already in a terminal state")
	// ErrAlreadyFinalized means finalize was called on a COMPLETED or
	// TERMINATED attempt; the stored score is never overwritten.
	ErrAlreadyFinalized = errors.New("attempt already finalized")
	// ErrAlreadyCompleted means the invitation already has a finished attempt.
	ErrAlreadyCompleted = errors.New("invitation already has a completed attempt")

	ErrUsageLimitReached = errors.New("link usage limit reached")
	ErrSlotFull          = errors.New("time slot is full")
)
