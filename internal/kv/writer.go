package kv

import (
	"context"
	"fmt"
	"log/slog"
)

// BatchWriter buffers puts and writes them in batches of MaxBatchWrite.
//
// Buffered items are only written by Flush or Close, so callers must defer
// Close on every exit path or lose writes:
//
//	w := kv.NewBatchWriter(ctx, table)
//	defer func() {
//		if cerr := w.Close(); err == nil {
//			err = cerr
//		}
//	}()
//
// Puts to a key already in the buffer replace the buffered item.
type BatchWriter struct {
	ctx     context.Context
	table   Table
	buffer  []*Item
	index   map[Key]int
	written int
	closed  bool
}

// NewBatchWriter creates a writer for the given table.
func NewBatchWriter(ctx context.Context, t Table) *BatchWriter {
	return &BatchWriter{
		ctx:   ctx,
		table: t,
		index: make(map[Key]int, MaxBatchWrite),
	}
}

// Put adds an item to the buffer, flushing when the buffer is full.
func (w *BatchWriter) Put(item *Item) error {
	if w.closed {
		return fmt.Errorf("batch writer for %s is closed", w.table.Name())
	}

	if i, ok := w.index[item.Key()]; ok {
		w.buffer[i] = item
		return nil
	}

	w.index[item.Key()] = len(w.buffer)
	w.buffer = append(w.buffer, item)

	if len(w.buffer) >= MaxBatchWrite {
		return w.Flush()
	}
	return nil
}

// Flush writes all buffered items.
func (w *BatchWriter) Flush() error {
	if len(w.buffer) == 0 {
		return nil
	}

	if err := w.table.BatchWrite(w.ctx, w.buffer); err != nil {
		return fmt.Errorf("batch write to %s: %w", w.table.Name(), err)
	}

	slog.Debug("flushed batch", "table", w.table.Name(), "items", len(w.buffer))

	w.written += len(w.buffer)
	w.buffer = w.buffer[:0]
	clear(w.index)
	return nil
}

// Close flushes any remaining items. Safe to call more than once.
func (w *BatchWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.Flush()
}

// Written returns the number of items written so far.
func (w *BatchWriter) Written() int {
	return w.written
}
