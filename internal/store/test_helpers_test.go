package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/eventhistory/internal/kv"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithTablePrefix("Test"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestItem creates an item with a small data document.
func createTestItem(pk, sk string, orgID int64) *kv.Item {
	return &kv.Item{
		PK:    pk,
		SK:    sk,
		OrgID: orgID,
		Data:  map[string]any{"type": "msg_created"},
	}
}

func sortKeys(items []*kv.Item) []string {
	sks := make([]string, len(items))
	for i, item := range items {
		sks[i] = item.SK
	}
	return sks
}
