package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/kv"
)

const (
	// DefaultLimit applies when a query doesn't set a limit.
	DefaultLimit = 50

	// minFetchSize is the smallest page requested from the engine. Tags are
	// interleaved with events so small limits still need to scan past them.
	minFetchSize = 20

	// maxFetches caps engine queries per call.
	maxFetches = 100
)

// HistoryQuery selects events from a contact's timeline.
type HistoryQuery struct {
	// After and Before bound created_on to [After, Before). A zero value
	// leaves that side unbounded.
	After  time.Time
	Before time.Time

	// Ticket scopes ticket events to one ticket. When empty only basic
	// ticket lifecycle events are included.
	Ticket ident.UUID

	Limit int
}

// forward reports whether results are returned oldest first. That is only
// the case when the caller gives a lower bound and no upper bound.
func (q HistoryQuery) forward() bool {
	return q.Before.IsZero() && !q.After.IsZero()
}

func (q HistoryQuery) inWindow(t time.Time) bool {
	if !q.After.IsZero() && t.Before(q.After) {
		return false
	}
	if !q.Before.IsZero() && !t.Before(q.Before) {
		return false
	}
	return true
}

// History reads and writes contact timelines.
type History struct {
	table kv.Table
	users UserDirectory
}

// NewHistory creates a history store over t. users may be nil in which case
// user references are returned as stored.
func NewHistory(t kv.Table, users UserDirectory) *History {
	return &History{table: t, users: users}
}

// Write stores events for a contact. Writing the same event again overwrites
// it with identical content.
func (h *History) Write(ctx context.Context, c Contact, evts ...Event) (err error) {
	w := kv.NewBatchWriter(ctx, h.table)
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	for _, e := range evts {
		item, err := NewEventItem(c, e)
		if err != nil {
			return err
		}
		if err := w.Put(item); err != nil {
			return err
		}
	}
	return nil
}

// WriteTag stores tags for events of a contact. A tag replaces any previous
// tag of the same kind on the same event.
func (h *History) WriteTag(ctx context.Context, c Contact, tags ...Tag) (err error) {
	w := kv.NewBatchWriter(ctx, h.table)
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	for _, t := range tags {
		item, err := NewTagItem(c, t)
		if err != nil {
			return err
		}
		if err := w.Put(item); err != nil {
			return err
		}
	}
	return nil
}

// GetByContact returns up to q.Limit events of the contact with created_on in
// [q.After, q.Before), with their tags merged in.
//
// Events are newest first unless only q.After is given. Time bounds are
// converted to approximate identifier bounds for the range query and results
// are then filtered exactly by created_on.
func (h *History) GetByContact(ctx context.Context, c Contact, q HistoryQuery) ([]Event, error) {
	if !q.After.IsZero() && !q.Before.IsZero() && !q.After.Before(q.Before) {
		return []Event{}, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	forward := q.forward()

	query := kv.Query{
		PK:      contactPK(c.UUID),
		SKFrom:  eventPrefix,
		SKTo:    eventsEnd,
		Forward: forward,
		Limit:   max(limit, minFetchSize),
	}
	if !q.After.IsZero() {
		query.SKFrom = eventSK(ident.FromInstant(q.After))
	}
	if !q.Before.IsZero() {
		query.SKTo = eventSK(ident.FromInstant(q.Before.Add(time.Millisecond)))
	}

	a := &assembler{query: q, limit: limit, forward: forward}

	for fetches := 0; !a.done; fetches++ {
		if fetches >= maxFetches {
			return nil, fmt.Errorf("contact %s: %w", c.UUID, ErrTooManyFetches)
		}

		page, err := h.table.Query(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("query history of contact %s: %w", c.UUID, err)
		}

		for _, item := range page.Items {
			if item.OrgID != c.OrgID {
				return nil, fmt.Errorf("item %s of contact %s has org %d, expected %d: %w", item.SK, c.UUID, item.OrgID, c.OrgID, ErrOrgMismatch)
			}

			decoded, err := decodeItem(item)
			if errors.Is(err, ErrUnknownType) || errors.Is(err, ErrUnknownTag) {
				slog.Warn("skipping unknown history item", "contact", c.UUID, "sk", item.SK, "error", err)
				continue
			}
			if err != nil {
				return nil, err
			}

			a.add(decoded)
			if a.done {
				break
			}
		}

		if page.LastSK == "" {
			break
		}
		query.StartAfterSK = page.LastSK
	}

	slog.Debug("read contact history", "contact", c.UUID, "events", len(a.events), "forward", forward)

	if h.users != nil {
		if err := refreshUsers(ctx, h.users, c.OrgID, a.events); err != nil {
			return nil, err
		}
	}

	return a.events, nil
}

// assembler collects events in scan order and merges tags into them.
//
// Ascending, a tag follows its event, so it's applied to the already
// collected event. Descending, tags come first and wait in pending until
// their event arrives. Tags of events that were filtered out are dropped.
type assembler struct {
	query   HistoryQuery
	limit   int
	forward bool

	events    []Event
	collected map[ident.UUID]Event
	pending   map[ident.UUID][]Tag
	done      bool
}

func (a *assembler) add(decoded any) {
	switch v := decoded.(type) {
	case Tag:
		if a.forward {
			if e, ok := a.collected[v.EventUUID()]; ok {
				v.apply(e.Envelope())
			}
			return
		}
		if a.pending == nil {
			a.pending = map[ident.UUID][]Tag{}
		}
		a.pending[v.EventUUID()] = append(a.pending[v.EventUUID()], v)

	case Event:
		// ascending, a full page is only complete once the next event shows
		// that no more tags follow the last one
		if len(a.events) == a.limit {
			a.done = true
			return
		}

		b := v.Envelope()
		if !a.forward {
			for _, t := range a.pending[b.UUID] {
				t.apply(b)
			}
			delete(a.pending, b.UUID)
		}

		if !a.query.inWindow(b.CreatedOn) || !includeForTicket(v, a.query.Ticket) {
			return
		}

		a.events = append(a.events, v)
		if a.forward {
			if a.collected == nil {
				a.collected = map[ident.UUID]Event{}
			}
			a.collected[b.UUID] = v
		} else if len(a.events) == a.limit {
			a.done = true
		}
	}
}
