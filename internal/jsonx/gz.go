package jsonx

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// MarshalGZ encodes doc canonically and gzips it. The gzip header carries no
// timestamp so equal documents always compress to equal bytes.
func MarshalGZ(doc map[string]any) ([]byte, error) {
	raw, err := Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal gz: %w", err)
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("marshal gz: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("marshal gz: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalGZ decompresses and decodes a document written by MarshalGZ.
func UnmarshalGZ(data []byte) (map[string]any, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal gz: %w", err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unmarshal gz: %w", err)
	}
	return Decode(raw)
}

// Merge returns a new document holding the keys of base overlaid with the
// keys of extra.
func Merge(base, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
