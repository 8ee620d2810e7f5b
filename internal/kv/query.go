package kv

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// BatchGet fetches items for the given keys, chunking calls at MaxBatchGet.
// Results are concatenated in no particular order; keys with no item are
// silently omitted.
func BatchGet(ctx context.Context, t Table, keys []Key) ([]*Item, error) {
	items := make([]*Item, 0, len(keys))

	for chunk := range slices.Chunk(keys, MaxBatchGet) {
		got, err := t.BatchGet(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("batch get from %s: %w", t.Name(), err)
		}
		items = append(items, got...)
	}

	return items, nil
}

// MergedPage is one page of a MergedPageQuery.
type MergedPage struct {
	Items []*Item

	// PrevSK is the first sort key of the page when the page was requested
	// with a resume cursor, i.e. it isn't the first page. It marks where the
	// page starts; passing it back as afterSK does not give the previous page.
	PrevSK string

	// NextSK is the last sort key of the page when more items exist beyond
	// it. Pass it back as afterSK to get the next page.
	NextSK string
}

// MergedPageQuery queries each partition for up to limit items after afterSK,
// merges the results by sort key and truncates to limit.
//
// Every partition contributes up to limit items, so a page is complete as
// long as no single partition holds more than limit items between two
// consecutive cursors. When shards are heavily skewed a page may return
// fewer items than exist, but the cursor never skips items because every
// partition resumes from the same sort key.
func MergedPageQuery(ctx context.Context, t Table, pks []string, desc bool, limit int, afterSK string) (*MergedPage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("merged page query: limit must be positive, got %d", limit)
	}

	var merged []*Item
	more := false

	for _, pk := range pks {
		page, err := t.Query(ctx, Query{
			PK:           pk,
			Forward:      !desc,
			Limit:        limit,
			StartAfterSK: afterSK,
		})
		if err != nil {
			return nil, fmt.Errorf("merged page query on %s: %w", pk, err)
		}

		merged = append(merged, page.Items...)
		if page.LastSK != "" {
			more = true
		}
	}

	slices.SortFunc(merged, func(a, b *Item) int {
		if desc {
			return strings.Compare(b.SK, a.SK)
		}
		return strings.Compare(a.SK, b.SK)
	})

	if len(merged) > limit {
		merged = merged[:limit]
		more = true
	}

	slog.Debug("merged page query", "table", t.Name(), "partitions", len(pks), "items", len(merged), "more", more)

	result := &MergedPage{Items: merged}
	if len(merged) > 0 {
		if afterSK != "" {
			result.PrevSK = merged[0].SK
		}
		if more {
			result.NextSK = merged[len(merged)-1].SK
		}
	}
	return result, nil
}
