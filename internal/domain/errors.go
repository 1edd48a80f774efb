package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without
// leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrNoCandidates means no reviewable user is available right now: the
	// Found pool is empty or every candidate is leased to another reviewer.
	// Retryable; surfaced as 404.
	ErrNoCandidates = errors.New("no candidates available")

	// ErrIdentityGone means the upstream identity no longer exists and the
	// stale local record has been deleted. The caller should simply retry;
	// surfaced as 400 with a user-facing message, not as a server error.
	ErrIdentityGone = errors.New("identity no longer exists upstream")
)
