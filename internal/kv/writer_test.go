package kv_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventhistory/internal/kv"
	"github.com/roach88/eventhistory/internal/testutil"
)

func TestBatchWriter_FlushesInBatches(t *testing.T) {
	tbl := testutil.NewCountingTable(testutil.OpenTable(t, "History"))
	ctx := context.Background()

	w := kv.NewBatchWriter(ctx, tbl)
	for i := 0; i < 60; i++ {
		require.NoError(t, w.Put(&kv.Item{PK: "con#1", SK: fmt.Sprintf("evt#%02d", i), OrgID: 1}))
	}
	assert.Equal(t, 2, tbl.Calls("batch_write"))
	assert.Equal(t, 50, w.Written())

	require.NoError(t, w.Close())
	assert.Equal(t, 3, tbl.Calls("batch_write"))
	assert.Equal(t, 60, w.Written())

	items, err := kv.ScanAll(ctx, tbl)
	require.NoError(t, err)
	assert.Len(t, items, 60)
}

func TestBatchWriter_DeduplicatesBufferedKeys(t *testing.T) {
	tbl := testutil.OpenTable(t, "History")
	ctx := context.Background()

	w := kv.NewBatchWriter(ctx, tbl)
	require.NoError(t, w.Put(&kv.Item{PK: "con#1", SK: "evt#1", OrgID: 1, Data: map[string]any{"type": "a"}}))
	require.NoError(t, w.Put(&kv.Item{PK: "con#1", SK: "evt#1", OrgID: 1, Data: map[string]any{"type": "b"}}))
	require.NoError(t, w.Close())

	assert.Equal(t, 1, w.Written())

	items, err := kv.ScanAll(ctx, tbl)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Data["type"])
}

func TestBatchWriter_CloseIsIdempotent(t *testing.T) {
	tbl := testutil.NewCountingTable(testutil.OpenTable(t, "History"))

	w := kv.NewBatchWriter(context.Background(), tbl)
	require.NoError(t, w.Put(&kv.Item{PK: "con#1", SK: "evt#1", OrgID: 1}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Equal(t, 1, tbl.Calls("batch_write"))
	assert.Error(t, w.Put(&kv.Item{PK: "con#1", SK: "evt#2", OrgID: 1}))
}
