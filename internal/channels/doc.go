// Package channels stores and reads channel logs: traces of the HTTP
// interactions between the platform and a channel's provider.
//
// A channel's logs are spread over sixteen partitions, one per possible last
// hex digit of the log UUID:
//
//	cha#<channel-uuid>#0 .. cha#<channel-uuid>#f   log#<log-uuid>
//
// Reads of a channel's timeline query all sixteen and merge by sort key.
// Traces and errors are stored gzipped in DataGZ.
package channels
