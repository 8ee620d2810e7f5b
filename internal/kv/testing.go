package kv

import (
	"context"
	"fmt"
	"strings"
)

const scanPageSize = 100

// ScanAll returns every item in the table ordered by (PK, SK).
// Verification tooling: refuses to run against tables not named Test*.
func ScanAll(ctx context.Context, t Table) ([]*Item, error) {
	if !strings.HasPrefix(t.Name(), "Test") {
		return nil, fmt.Errorf("scan all: refusing to scan non-test table %s", t.Name())
	}

	var all []*Item
	var last *Key

	for {
		items, next, err := t.Scan(ctx, scanPageSize, last)
		if err != nil {
			return nil, fmt.Errorf("scan all: %w", err)
		}
		all = append(all, items...)

		if next == nil {
			break
		}
		last = next
	}

	return all, nil
}

// Truncate deletes every item in the table and returns how many were deleted.
// Verification tooling: refuses to run against tables not named Test*.
func Truncate(ctx context.Context, t Table) (int, error) {
	if !strings.HasPrefix(t.Name(), "Test") {
		return 0, fmt.Errorf("truncate: refusing to truncate non-test table %s", t.Name())
	}

	deleted := 0
	for {
		items, _, err := t.Scan(ctx, scanPageSize, nil)
		if err != nil {
			return deleted, fmt.Errorf("truncate: %w", err)
		}
		if len(items) == 0 {
			return deleted, nil
		}

		keys := make([]Key, len(items))
		for i, item := range items {
			keys[i] = item.Key()
		}
		if err := t.Delete(ctx, keys); err != nil {
			return deleted, fmt.Errorf("truncate: %w", err)
		}
		deleted += len(keys)
	}
}
