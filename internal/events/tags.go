package events

import (
	"time"

	"github.com/roach88/eventhistory/internal/ident"
)

// TagKind identifies the kind of a tag and is the last segment of its sort key.
type TagKind string

// Tag kinds.
const (
	TagKindDeleted TagKind = "del"
	TagKindStatus  TagKind = "sts"
)

// Tag is a mutation stored beside an event and merged into it on read.
//
// Each kind applies itself to the event envelope, so a new kind can't be
// added without saying how it merges.
type Tag interface {
	EventUUID() ident.UUID
	Kind() TagKind
	apply(b *Base)
}

// DeleteTag records that an event was deleted.
type DeleteTag struct {
	Event     ident.UUID `json:"-"`
	CreatedOn time.Time  `json:"created_on"`
	ByContact bool       `json:"by_contact,omitempty"`
}

func (t *DeleteTag) EventUUID() ident.UUID { return t.Event }
func (t *DeleteTag) Kind() TagKind         { return TagKindDeleted }

func (t *DeleteTag) apply(b *Base) {
	b.Deleted = &Deletion{CreatedOn: t.CreatedOn, ByContact: t.ByContact}
}

// StatusTag records the latest delivery status of an outgoing message.
type StatusTag struct {
	Event     ident.UUID `json:"-"`
	CreatedOn time.Time  `json:"created_on"`
	Status    string     `json:"status"`
	Reason    string     `json:"reason,omitempty"`
}

func (t *StatusTag) EventUUID() ident.UUID { return t.Event }
func (t *StatusTag) Kind() TagKind         { return TagKindStatus }

func (t *StatusTag) apply(b *Base) {
	b.Status = &StatusChange{CreatedOn: t.CreatedOn, Status: t.Status, Reason: t.Reason}
}

// newTag returns an empty tag of the given kind for event.
func newTag(kind TagKind, event ident.UUID) (Tag, bool) {
	switch kind {
	case TagKindDeleted:
		return &DeleteTag{Event: event}, true
	case TagKindStatus:
		return &StatusTag{Event: event}, true
	}
	return nil, false
}
