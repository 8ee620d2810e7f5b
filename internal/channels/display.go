package channels

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/metrics"
	"github.com/roach88/eventhistory/internal/redact"
)

// unmatchedPrefix is how many characters of a value are kept when it is
// masked without a match.
const unmatchedPrefix = 10

// Display is the document form of a log shown to users.
type Display struct {
	UUID      ident.UUID      `json:"uuid"`
	Type      LogType         `json:"type"`
	HTTPLogs  []*HTTPLog      `json:"http_logs"`
	Errors    []*DisplayError `json:"errors"`
	IsError   bool            `json:"is_error"`
	ElapsedMS int             `json:"elapsed_ms"`
	CreatedOn time.Time       `json:"created_on"`
}

// DisplayError is a log error with a link to the provider's documentation
// for its code.
type DisplayError struct {
	Code    string  `json:"code"`
	ExtCode string  `json:"ext_code,omitempty"`
	Message string  `json:"message"`
	RefURL  *string `json:"ref_url"`
}

// GetDisplay projects a log for display. When anonymize is set every URL,
// trace and error message has the URN's path masked, and anything in which
// the path couldn't be found is cut down to a short prefix.
//
// Panics if a credential of the log's channel is still present in a trace.
func (s *Logs) GetDisplay(l *Log, anonymize bool, urn string) *Display {
	typ := s.types.Get(l.Channel.Type)

	d := &Display{
		UUID:      l.UUID,
		Type:      l.Type,
		HTTPLogs:  make([]*HTTPLog, len(l.HTTPLogs)),
		Errors:    make([]*DisplayError, len(l.Errors)),
		IsError:   l.IsError,
		ElapsedMS: l.ElapsedMS,
		CreatedOn: l.CreatedOn,
	}
	for i, h := range l.HTTPLogs {
		c := *h
		d.HTTPLogs[i] = &c
	}
	for i, e := range l.Errors {
		de := &DisplayError{Code: e.Code, ExtCode: e.ExtCode, Message: e.Message}
		if e.ExtCode != "" {
			ref := typ.ErrorRef(e.ExtCode)
			de.RefURL = &ref
		}
		d.Errors[i] = de
	}

	if anonymize {
		anonymizeDisplay(d, typ, urnPath(urn))
	}

	for _, h := range d.HTTPLogs {
		for _, secret := range typ.CredentialValues(l.Channel) {
			if strings.Contains(h.URL, secret) || strings.Contains(h.Request, secret) || strings.Contains(h.Response, secret) {
				panic(fmt.Sprintf("redact: credential survived in log %s", l.UUID))
			}
		}
	}

	return d
}

func anonymizeDisplay(d *Display, typ *ChannelType, path string) {
	for _, h := range d.HTTPLogs {
		h.URL = anonymizeValue(h.URL, path, nil)
		h.Request = anonymizeValue(h.Request, path, typ.RedactRequestKeys)
		h.Response = anonymizeValue(h.Response, path, typ.RedactResponseKeys)
	}
	for _, e := range d.Errors {
		e.Message = anonymizeValue(e.Message, path, nil)
	}
}

func anonymizeValue(original, path string, keys []string) string {
	if original == "" {
		return ""
	}
	if path == "" {
		return truncate(original) + Mask
	}

	var redacted string
	var found bool
	if len(keys) > 0 {
		redacted, found = redact.HTTPTrace(original, path, Mask, keys)
	} else {
		redacted = redact.Text(original, path, Mask)
		found = redacted != original
	}

	if !found {
		metrics.BlankedValues.Inc()
		return truncate(original) + Mask
	}
	return redacted
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > unmatchedPrefix {
		r = r[:unmatchedPrefix]
	}
	return string(r)
}

// urnPath returns the path of a URN like tel:+250788123123?channel=x, i.e.
// what is left without its scheme, query and fragment.
func urnPath(urn string) string {
	_, path, ok := strings.Cut(urn, ":")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return path
}
