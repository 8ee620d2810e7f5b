// Package jsonx encodes the loosely typed documents stored in item Data and
// DataGZ attributes.
//
// Documents are serialised canonically (keys in RFC 8785 order, no HTML
// escaping, NFC normalised strings) so that writing the same event twice
// yields byte-identical items. That makes re-running a backfill a true no-op
// at the storage level rather than a rewrite with shuffled keys.
//
// Numbers are kept as json.Number throughout so large integer ids survive
// decode/encode round trips without float64 precision loss.
package jsonx
