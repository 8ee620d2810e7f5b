package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/roach88/eventhistory/internal/kv"
	"github.com/roach88/eventhistory/internal/store"
)

// OpenTable opens a fresh store in a temp directory and returns the named
// table, prefixed with "Test". The store is closed when the test ends.
func OpenTable(t *testing.T, name string) *store.Table {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.WithTablePrefix("Test"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.Table(name)
}

// CountingTable wraps a kv.Table and records how many engine calls of each
// kind were made, so tests can assert on fetch behavior.
//
// Thread-safety: counters are protected by an internal mutex.
type CountingTable struct {
	kv.Table

	mu      sync.Mutex
	calls   map[string]int
	queries []kv.Query
}

// NewCountingTable wraps t.
func NewCountingTable(t kv.Table) *CountingTable {
	return &CountingTable{Table: t, calls: map[string]int{}}
}

func (c *CountingTable) record(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[op]++
}

// Calls returns the number of calls made for op ("put", "batch_write",
// "query", "batch_get", "scan" or "delete").
func (c *CountingTable) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Total returns the number of calls made across all operations.
func (c *CountingTable) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

// Queries returns every query made, in call order.
func (c *CountingTable) Queries() []kv.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]kv.Query(nil), c.queries...)
}

// Reset clears all counters.
func (c *CountingTable) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.calls)
	c.queries = nil
}

func (c *CountingTable) Put(ctx context.Context, item *kv.Item) error {
	c.record("put")
	return c.Table.Put(ctx, item)
}

func (c *CountingTable) BatchWrite(ctx context.Context, items []*kv.Item) error {
	c.record("batch_write")
	return c.Table.BatchWrite(ctx, items)
}

func (c *CountingTable) Query(ctx context.Context, q kv.Query) (*kv.Page, error) {
	c.record("query")
	c.mu.Lock()
	c.queries = append(c.queries, q)
	c.mu.Unlock()
	return c.Table.Query(ctx, q)
}

func (c *CountingTable) BatchGet(ctx context.Context, keys []kv.Key) ([]*kv.Item, error) {
	c.record("batch_get")
	return c.Table.BatchGet(ctx, keys)
}

func (c *CountingTable) Scan(ctx context.Context, limit int, startAfter *kv.Key) ([]*kv.Item, *kv.Key, error) {
	c.record("scan")
	return c.Table.Scan(ctx, limit, startAfter)
}

func (c *CountingTable) Delete(ctx context.Context, keys []kv.Key) error {
	c.record("delete")
	return c.Table.Delete(ctx, keys)
}
