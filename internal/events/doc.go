// Package events stores and reads the per-contact event timeline.
//
// Every contact owns one partition, con#<contact-uuid>. Events are immutable
// items with sort key evt#<event-uuid>; because event identifiers are version
// 7 UUIDs, sort key order is chronological. Later mutations are stored as
// tags beside their event, evt#<event-uuid>#<kind>, and merged into the
// event every time it is read:
//
//	con#40248365-...  evt#01989ad8-...          {"type":"msg_created",...}
//	con#40248365-...  evt#01989ad8-...#del      {"created_on":...,"by_contact":true}
//	con#40248365-...  evt#01989ad8-...#sts      {"created_on":...,"status":"delivered"}
//
// Event is a closed sum type: one struct per event type, all embedding the
// Base envelope. Tag is likewise closed: each kind knows how to apply itself
// to an envelope.
package events
