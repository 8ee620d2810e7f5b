package redact

import (
	"bytes"
	"encoding/json"
	"net/url"
	"slices"
	"strings"
)

// Text returns s with every occurrence of value, in any of its common
// encodings, replaced by mask.
func Text(s, value, mask string) string {
	s, _ = text(s, value, mask)
	return s
}

func text(s, value, mask string) (string, bool) {
	if value == "" {
		return s, false
	}
	found := false
	for _, v := range variants(value) {
		if strings.Contains(s, v) {
			found = true
			s = strings.ReplaceAll(s, v, mask)
		}
	}
	return s, found
}

// variants returns the encodings of value to look for, longest first so that
// a shorter variant never leaves part of a longer one behind.
func variants(value string) []string {
	vs := []string{value}
	add := func(v string) {
		if v != "" && !slices.Contains(vs, v) {
			vs = append(vs, v)
		}
	}

	add(strings.TrimPrefix(value, "+"))
	add(url.QueryEscape(value))
	add(jsonEscape(value))

	slices.SortStableFunc(vs, func(a, b string) int { return len(b) - len(a) })
	return vs
}

func jsonEscape(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSuffix(buf.String(), "\n"), `"`)[1:]
}

// HTTPTrace returns a raw HTTP request or response with value masked
// everywhere and, in the body, the values under any of keys masked. It also
// reports whether anything was masked; when nothing was the trace is
// returned unchanged.
func HTTPTrace(trace, value, mask string, keys []string) (string, bool) {
	masked := false
	if len(keys) > 0 {
		if head, body, ok := strings.Cut(trace, "\r\n\r\n"); ok {
			if body, masked = Body(body, mask, keys); masked {
				trace = head + "\r\n\r\n" + body
			}
		}
	}
	trace, found := text(trace, value, mask)
	return trace, masked || found
}

// Body masks the values under keys in a JSON or form encoded body and
// reports whether any were found. Bodies with none of keys, and bodies of
// other kinds, are returned unchanged.
func Body(body, mask string, keys []string) (string, bool) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return body, false
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		if masked, ok := jsonBody(trimmed, mask, keys); ok {
			return masked, true
		}
		return body, false
	}

	if strings.Contains(trimmed, "=") && !strings.ContainsAny(trimmed, " \n") {
		if masked, ok := formBody(trimmed, mask, keys); ok {
			return masked, true
		}
	}
	return body, false
}

// jsonBody re-encodes body with the values under keys masked. It fails if
// body isn't JSON or has none of keys.
func jsonBody(body, mask string, keys []string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", false
	}

	if maskKeys(doc, mask, keys) == 0 {
		return "", false
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", false
	}
	return strings.TrimSuffix(buf.String(), "\n"), true
}

// maskKeys masks in place the values under keys and returns how many it
// masked.
func maskKeys(v any, mask string, keys []string) int {
	n := 0
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			if slices.Contains(keys, k) {
				val[k] = mask
				n++
			} else {
				n += maskKeys(child, mask, keys)
			}
		}
	case []any:
		for _, child := range val {
			n += maskKeys(child, mask, keys)
		}
	}
	return n
}

func formBody(body, mask string, keys []string) (string, bool) {
	masked := false
	pairs := strings.Split(body, "&")
	for i, pair := range pairs {
		k, _, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		if slices.Contains(keys, name) {
			pairs[i] = k + "=" + mask
			masked = true
		}
	}
	return strings.Join(pairs, "&"), masked
}
