package backfill

import (
	"fmt"
	"time"

	"github.com/roach88/eventhistory/internal/archives"
	"github.com/roach88/eventhistory/internal/events"
	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/kv"
)

// Src marks items written by the backfill.
const Src = "archives"

// finalStatuses are the statuses of outgoing messages that get a status tag.
var finalStatuses = map[string]bool{
	"wired":     true,
	"sent":      true,
	"delivered": true,
	"read":      true,
	"errored":   true,
	"failed":    true,
}

func recordTime(rec archives.Record) (time.Time, error) {
	s, _ := rec["created_on"].(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid created_on %q: %w", s, err)
	}
	return t.UTC(), nil
}

func str(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}

// recordItems converts an archive record to the timeline items for it.
func recordItems(orgID int64, rec archives.Record) ([]*kv.Item, error) {
	uuid := ident.UUID(str(rec, "uuid"))
	if uuid == "" {
		return nil, ErrMissingUUID
	}

	createdOn, err := recordTime(rec)
	if err != nil {
		return nil, err
	}

	contactRef, _ := rec["contact"].(map[string]any)
	contact := events.Contact{UUID: ident.UUID(str(contactRef, "uuid")), OrgID: orgID}
	msg := recordMsg(rec, createdOn)

	var evt events.Event
	var tags []events.Tag

	switch {
	case str(rec, "direction") == "in":
		evt = &events.MsgReceived{Base: base(uuid, events.TypeMsgReceived, createdOn), Msg: msg}
		if str(rec, "visibility") == "deleted" {
			tags = append(tags, &events.DeleteTag{Event: uuid, CreatedOn: createdOn, ByContact: true})
		}
	case str(rec, "type") == "ivr" || str(rec, "type") == "voice":
		evt = &events.IVRCreated{Base: base(uuid, events.TypeIVRCreated, createdOn), Msg: msg}
	default:
		evt = &events.MsgCreated{Base: base(uuid, events.TypeMsgCreated, createdOn), Msg: msg}
		if status := str(rec, "status"); finalStatuses[status] && msg.UnsendableReason == "" {
			tags = append(tags, &events.StatusTag{Event: uuid, CreatedOn: createdOn, Status: status})
		}
	}

	item, err := events.NewEventItem(contact, evt)
	if err != nil {
		return nil, err
	}
	items := []*kv.Item{item}

	for _, tag := range tags {
		item, err := events.NewTagItem(contact, tag)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	for _, item := range items {
		item.Src = Src
	}
	return items, nil
}

func base(uuid ident.UUID, typ events.Type, createdOn time.Time) events.Base {
	return events.Base{UUID: uuid, Type: typ, CreatedOn: createdOn}
}

func recordMsg(rec archives.Record, createdOn time.Time) events.Msg {
	msg := events.Msg{Text: str(rec, "text"), URN: str(rec, "urn")}

	if ch, ok := rec["channel"].(map[string]any); ok {
		msg.Channel = &events.ChannelRef{UUID: ident.UUID(str(ch, "uuid")), Name: str(ch, "name")}
	}
	if atts, ok := rec["attachments"].([]any); ok {
		for _, a := range atts {
			if s, ok := a.(string); ok {
				msg.Attachments = append(msg.Attachments, s)
			}
		}
	}

	// broadcasts no longer exist when their messages are archived so the
	// best we can do is a UUID for when it was created
	if b := rec["broadcast"]; b != nil && b != "" {
		msg.BroadcastUUID = ident.FromInstant(createdOn)
	}

	if str(rec, "direction") == "out" && str(rec, "status") == "failed" && msg.URN == "" && msg.Channel == nil {
		msg.UnsendableReason = "no_route"
	}
	return msg
}
