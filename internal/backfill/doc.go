// Package backfill moves message history out of cold-storage archives and
// into contact timelines.
//
// It runs in two steps per org. The update step rewrites each archive so that
// every record has a UUID, deriving one from the record's creation time when
// missing. The import step then converts each record into timeline items:
//
//	incoming message            msg_received (+ del tag if deleted)
//	outgoing ivr/voice message  ivr_created
//	other outgoing message      msg_created (+ sts tag if status is final)
//
// Both steps can be re-run: update leaves records with UUIDs alone, and import
// writes items with deterministic keys.
package backfill
