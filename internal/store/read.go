package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/eventhistory/internal/kv"
	"github.com/roach88/eventhistory/internal/metrics"
)

// defaultQueryLimit applies when a query doesn't set a limit.
const defaultQueryLimit = 1000

// Table is one logical table within the store. It implements kv.Table.
type Table struct {
	db   *sql.DB
	name string
}

var _ kv.Table = (*Table)(nil)

// Name returns the prefixed table name.
func (t *Table) Name() string {
	return t.name
}

// Query performs a range query within a single partition.
// Results are ordered by sort key in the requested direction (BINARY collation).
func (t *Table) Query(ctx context.Context, q kv.Query) (*kv.Page, error) {
	metrics.EngineCalls.WithLabelValues(t.name, "query").Inc()

	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var sb strings.Builder
	args := []any{t.name, q.PK}

	sb.WriteString(`SELECT ` + itemColumns + ` FROM items WHERE tbl = ? AND pk = ?`)
	if q.SKFrom != "" {
		sb.WriteString(` AND sk >= ?`)
		args = append(args, q.SKFrom)
	}
	if q.SKTo != "" {
		sb.WriteString(` AND sk <= ?`)
		args = append(args, q.SKTo)
	}
	if q.StartAfterSK != "" {
		if q.Forward {
			sb.WriteString(` AND sk > ?`)
		} else {
			sb.WriteString(` AND sk < ?`)
		}
		args = append(args, q.StartAfterSK)
	}
	if q.Forward {
		sb.WriteString(` ORDER BY sk ASC`)
	} else {
		sb.WriteString(` ORDER BY sk DESC`)
	}
	sb.WriteString(` LIMIT ?`)
	args = append(args, limit+1)

	rows, err := t.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.PK, err)
	}
	defer rows.Close()

	items := make([]*kv.Item, 0, limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query %s: %w", q.PK, err)
	}

	page := &kv.Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.LastSK = items[limit-1].SK
	}

	metrics.EngineItems.WithLabelValues(t.name, "query").Add(float64(len(page.Items)))
	return page, nil
}

// BatchGet fetches up to kv.MaxBatchGet items by key. Missing keys are omitted.
func (t *Table) BatchGet(ctx context.Context, keys []kv.Key) ([]*kv.Item, error) {
	if len(keys) > kv.MaxBatchGet {
		return nil, fmt.Errorf("batch get: %d keys exceeds limit of %d", len(keys), kv.MaxBatchGet)
	}
	if len(keys) == 0 {
		return []*kv.Item{}, nil
	}

	metrics.EngineCalls.WithLabelValues(t.name, "batch_get").Inc()

	conds := make([]string, len(keys))
	args := make([]any, 0, 1+2*len(keys))
	args = append(args, t.name)
	for i, k := range keys {
		conds[i] = `(pk = ? AND sk = ?)`
		args = append(args, k.PK, k.SK)
	}

	rows, err := t.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE tbl = ? AND (`+strings.Join(conds, ` OR `)+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("batch get: %w", err)
	}
	defer rows.Close()

	items := make([]*kv.Item, 0, len(keys))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch get: %w", err)
	}

	metrics.EngineItems.WithLabelValues(t.name, "batch_get").Add(float64(len(items)))
	return items, nil
}

// Scan returns up to limit items in (PK, SK) order after startAfter, plus the
// key to resume from if more items remain.
func (t *Table) Scan(ctx context.Context, limit int, startAfter *kv.Key) ([]*kv.Item, *kv.Key, error) {
	metrics.EngineCalls.WithLabelValues(t.name, "scan").Inc()

	if limit <= 0 {
		limit = defaultQueryLimit
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE tbl = ?`
	args := []any{t.name}
	if startAfter != nil {
		query += ` AND (pk > ? OR (pk = ? AND sk > ?))`
		args = append(args, startAfter.PK, startAfter.PK, startAfter.SK)
	}
	query += ` ORDER BY pk ASC, sk ASC LIMIT ?`
	args = append(args, limit+1)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("scan: %w", err)
	}
	defer rows.Close()

	var items []*kv.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate scan: %w", err)
	}

	if len(items) > limit {
		items = items[:limit]
		last := items[limit-1].Key()
		return items, &last, nil
	}
	return items, nil, nil
}
