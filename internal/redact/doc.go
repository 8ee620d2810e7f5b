// Package redact masks sensitive values in free text and raw HTTP traces.
//
// Values are matched literally and in the encodings they commonly take inside
// requests and responses: without a leading plus, URL query escaped and JSON
// string escaped. Trace bodies can additionally have the values of named keys
// masked, for JSON and form encoded bodies.
package redact
