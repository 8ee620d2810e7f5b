package kv

import (
	"context"
)

// Engine limits per underlying call.
const (
	MaxBatchGet   = 100
	MaxBatchWrite = 25
)

// Key is the composite primary key of an item.
type Key struct {
	PK string
	SK string
}

// Item is a single stored record.
type Item struct {
	PK    string
	SK    string
	OrgID int64

	// Data holds small attributes inline.
	Data map[string]any

	// DataGZ optionally holds gzipped JSON for larger attributes; decoded
	// and merged over Data by readers.
	DataGZ []byte

	// Src marks where an item came from when it wasn't written by a live
	// producer, e.g. "archives" for backfilled items.
	Src string
}

// Key returns the composite key of the item.
func (i *Item) Key() Key {
	return Key{PK: i.PK, SK: i.SK}
}

// Query is a range query within a single partition.
type Query struct {
	PK string

	// SKFrom and SKTo are inclusive sort key bounds. Empty means unbounded.
	SKFrom string
	SKTo   string

	// Forward scans in ascending sort key order when true.
	Forward bool

	// Limit caps the number of items returned. Zero means engine default.
	Limit int

	// StartAfterSK resumes a previous query: only items strictly after this
	// sort key in the scan direction are returned.
	StartAfterSK string
}

// Page is the result of one range query call.
type Page struct {
	Items []*Item

	// LastSK is set when the engine stopped because of Limit and more items
	// may match. Pass it back as Query.StartAfterSK to continue.
	LastSK string
}

// Table is the capability contract consumed from the engine.
// Writes are at-least-once and idempotent by key: a put overwrites any item
// with the same key.
type Table interface {
	Name() string
	Put(ctx context.Context, item *Item) error
	// BatchWrite writes at most MaxBatchWrite items.
	BatchWrite(ctx context.Context, items []*Item) error
	Query(ctx context.Context, q Query) (*Page, error)
	// BatchGet fetches at most MaxBatchGet keys. Missing keys are omitted.
	BatchGet(ctx context.Context, keys []Key) ([]*Item, error)
	// Scan walks the whole table in key order. Tooling only.
	Scan(ctx context.Context, limit int, startAfter *Key) ([]*Item, *Key, error)
	// Delete removes items by key. Tooling only.
	Delete(ctx context.Context, keys []Key) error
}
