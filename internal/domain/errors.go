package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrSlugExhausted is returned when every handle candidate, including the
	// randomized fallbacks, was invalid or already reserved by another user.
	ErrSlugExhausted = errors.New("could not allocate unique handle")

	// ErrNameChangeLimit is returned when a user has spent all of their
	// lifetime first/last name edits.
	ErrNameChangeLimit = errors.New("name change limit reached")
)
