package events

import "errors"

var (
	// ErrOrgMismatch is returned when a timeline item belongs to a different
	// org than the contact it was read for.
	ErrOrgMismatch = errors.New("org mismatch for contact event")

	// ErrTooManyFetches is returned when assembling one page of history
	// needed more engine queries than allowed.
	ErrTooManyFetches = errors.New("too many fetches for contact history")

	// ErrUnknownType and ErrUnknownTag mark items written by a newer
	// producer. Readers skip them.
	ErrUnknownType = errors.New("unknown event type")
	ErrUnknownTag  = errors.New("unknown tag kind")
)
