// Package ident provides the time-ordered identifiers used as sort keys by
// both the contact history and the channel log tables.
//
// Identifiers are RFC 9562 version 7 UUIDs rendered as lowercase hyphenated
// strings. The first 48 bits hold milliseconds since the Unix epoch, so the
// textual order of two identifiers matches the order of the instants they
// were created at.
//
// There are two constructors and the boundary between them is deliberate:
//
//   - New returns a random identifier for a newly created event or log.
//   - FromInstant returns the same identifier every time it is called for a
//     given millisecond. It is used for approximate range query bounds and to
//     give legacy records an identifier during backfill.
package ident
