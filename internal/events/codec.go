package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/jsonx"
	"github.com/roach88/eventhistory/internal/kv"
)

const (
	contactPrefix = "con#"
	eventPrefix   = "evt#"
	eventsEnd     = "evt$" // sorts after every evt# key

	// maxInlineSize is the largest canonical payload stored entirely in Data.
	// Anything bigger keeps only its type inline and the rest in DataGZ.
	maxInlineSize = 1024
)

// Contact identifies the owner of a timeline.
type Contact struct {
	UUID  ident.UUID
	OrgID int64
}

func contactPK(contact ident.UUID) string {
	return contactPrefix + string(contact)
}

func eventSK(event ident.UUID) string {
	return eventPrefix + string(event)
}

func tagSK(event ident.UUID, kind TagKind) string {
	return eventPrefix + string(event) + "#" + string(kind)
}

// NewEventItem encodes an event as a store item.
func NewEventItem(c Contact, e Event) (*kv.Item, error) {
	b := e.Envelope()
	if b.UUID == "" {
		return nil, fmt.Errorf("encode event: missing uuid")
	}
	if !IsValidType(b.Type) {
		return nil, fmt.Errorf("encode event %s: unknown event type %q", b.UUID, b.Type)
	}

	doc, err := jsonx.ToDocument(e)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", b.UUID, err)
	}

	// identity lives in the sort key and tags are merged on read
	delete(doc, "uuid")
	delete(doc, "_deleted")
	delete(doc, "_status")

	item := &kv.Item{
		PK:    contactPK(c.UUID),
		SK:    eventSK(b.UUID),
		OrgID: c.OrgID,
	}

	raw, err := jsonx.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", b.UUID, err)
	}
	if len(raw) <= maxInlineSize {
		item.Data = doc
		return item, nil
	}

	rest := jsonx.Merge(doc, nil)
	delete(rest, "type")
	gz, err := jsonx.MarshalGZ(rest)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", b.UUID, err)
	}
	item.Data = map[string]any{"type": string(b.Type)}
	item.DataGZ = gz
	return item, nil
}

// NewTagItem encodes a tag as a store item. Tags are always stored inline.
func NewTagItem(c Contact, t Tag) (*kv.Item, error) {
	if t.EventUUID() == "" {
		return nil, fmt.Errorf("encode %s tag: missing event uuid", t.Kind())
	}

	doc, err := jsonx.ToDocument(t)
	if err != nil {
		return nil, fmt.Errorf("encode %s tag for %s: %w", t.Kind(), t.EventUUID(), err)
	}

	return &kv.Item{
		PK:    contactPK(c.UUID),
		SK:    tagSK(t.EventUUID(), t.Kind()),
		OrgID: c.OrgID,
		Data:  doc,
	}, nil
}

// decodeItem decodes a timeline item into an Event or a Tag. Base events and
// tags are told apart by the number of # separators after the evt# prefix.
func decodeItem(item *kv.Item) (any, error) {
	rest, ok := strings.CutPrefix(item.SK, eventPrefix)
	if !ok {
		return nil, fmt.Errorf("decode %s: not an event item", item.SK)
	}

	doc := item.Data
	if len(item.DataGZ) > 0 {
		extra, err := jsonx.UnmarshalGZ(item.DataGZ)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", item.SK, err)
		}
		doc = jsonx.Merge(doc, extra)
	}

	switch strings.Count(rest, "#") {
	case 0:
		return decodeEvent(ident.UUID(rest), doc)
	case 1:
		uuid, kind, _ := strings.Cut(rest, "#")
		tag, ok := newTag(TagKind(kind), ident.UUID(uuid))
		if !ok {
			return nil, fmt.Errorf("decode %s: %w %q", item.SK, ErrUnknownTag, kind)
		}
		if err := fromDocument(doc, tag); err != nil {
			return nil, fmt.Errorf("decode %s: %w", item.SK, err)
		}
		return tag, nil
	default:
		return nil, fmt.Errorf("decode %s: malformed sort key", item.SK)
	}
}

func decodeEvent(uuid ident.UUID, doc map[string]any) (Event, error) {
	typ, _ := doc["type"].(string)
	e, err := newEvent(Type(typ))
	if err != nil {
		return nil, fmt.Errorf("decode event %s: %w", uuid, err)
	}

	if err := fromDocument(doc, e); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", uuid, err)
	}
	e.Envelope().UUID = uuid
	return e, nil
}

func fromDocument(doc map[string]any, v any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Document converts an event to its generic document form, the shape
// returned to callers at the serialization boundary.
func Document(e Event) (map[string]any, error) {
	return jsonx.ToDocument(e)
}
