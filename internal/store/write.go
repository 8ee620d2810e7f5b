package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/eventhistory/internal/kv"
	"github.com/roach88/eventhistory/internal/metrics"
)

const upsertItemSQL = `
	INSERT INTO items (tbl, pk, sk, org_id, data, data_gz, src)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(tbl, pk, sk) DO UPDATE SET
		org_id = excluded.org_id,
		data = excluded.data,
		data_gz = excluded.data_gz,
		src = excluded.src
`

// Put writes a single item, replacing any item with the same key.
func (t *Table) Put(ctx context.Context, item *kv.Item) error {
	metrics.EngineCalls.WithLabelValues(t.name, "put").Inc()

	if err := t.upsert(ctx, t.db, item); err != nil {
		return fmt.Errorf("put item: %w", err)
	}

	metrics.EngineItems.WithLabelValues(t.name, "put").Inc()
	return nil
}

// BatchWrite writes up to kv.MaxBatchWrite items in a single transaction.
func (t *Table) BatchWrite(ctx context.Context, items []*kv.Item) error {
	if len(items) > kv.MaxBatchWrite {
		return fmt.Errorf("batch write: %d items exceeds limit of %d", len(items), kv.MaxBatchWrite)
	}
	if len(items) == 0 {
		return nil
	}

	metrics.EngineCalls.WithLabelValues(t.name, "batch_write").Inc()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("batch write: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, item := range items {
		if err := t.upsert(ctx, tx, item); err != nil {
			return fmt.Errorf("batch write: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("batch write: commit: %w", err)
	}

	metrics.EngineItems.WithLabelValues(t.name, "batch_write").Add(float64(len(items)))
	return nil
}

// Delete removes items by key. Missing keys are ignored.
func (t *Table) Delete(ctx context.Context, keys []kv.Key) error {
	metrics.EngineCalls.WithLabelValues(t.name, "delete").Inc()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE tbl = ? AND pk = ? AND sk = ?`, t.name, k.PK, k.SK); err != nil {
			return fmt.Errorf("delete %s/%s: %w", k.PK, k.SK, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (t *Table) upsert(ctx context.Context, db execer, item *kv.Item) error {
	if item.PK == "" || item.SK == "" {
		return fmt.Errorf("item must have both PK and SK (got %q, %q)", item.PK, item.SK)
	}

	data, err := marshalData(item.Data)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", item.PK, item.SK, err)
	}

	var dataGZ any
	if len(item.DataGZ) > 0 {
		dataGZ = item.DataGZ
	}
	var src any
	if item.Src != "" {
		src = item.Src
	}

	if _, err := db.ExecContext(ctx, upsertItemSQL, t.name, item.PK, item.SK, item.OrgID, data, dataGZ, src); err != nil {
		return fmt.Errorf("%s/%s: %w", item.PK, item.SK, err)
	}
	return nil
}
