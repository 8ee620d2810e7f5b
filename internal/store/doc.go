// Package store provides a SQLite-backed implementation of the kv.Table
// engine contract.
//
// All logical tables share one physical items table keyed by
// (tbl, pk, sk). Sort keys are compared with BINARY collation so range
// queries order items exactly as the wide-column engine does: by the bytes of
// the sort key.
//
// # Semantics
//
//   - Puts overwrite: ON CONFLICT(tbl, pk, sk) DO UPDATE. Writing the same
//     item twice leaves one identical row.
//   - Data is stored as canonical JSON (see internal/jsonx) and DataGZ as an
//     opaque blob.
//   - Query fetches Limit+1 rows to decide whether a resume key is needed.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
