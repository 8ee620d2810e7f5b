// Package kv defines the contract consumed from the wide-column engine and
// the generic query primitives built on top of it.
//
// The engine is a partition+sort key store with no secondary indexes. Items
// sharing a partition key are range-queryable by sort key; nothing else is.
// Every read API in this module is therefore phrased as one or more single
// partition range queries or as point lookups by full key.
//
// # Primitives
//
//   - BatchGet: point lookups for many keys, chunked at the engine limit.
//   - MergedPageQuery: one range query per partition, merged by sort key,
//     used to present a sharded timeline as a single ordered stream.
//   - BatchWriter: buffered writes that must be closed on every exit path.
//   - ScanAll / Truncate: verification tooling, never used by read paths.
package kv
