package channels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/kv"
	"github.com/roach88/eventhistory/internal/metrics"
	"github.com/roach88/eventhistory/internal/redact"
)

// DefaultPageSize applies when GetByChannel is called without a limit.
const DefaultPageSize = 50

// Mask replaces redacted values.
const Mask = "********"

// LogPage is one page of a channel's logs, newest first.
type LogPage struct {
	Logs []*Log

	// Prev is the newest log of the page, set when the page isn't the first.
	// It bounds the page from above and isn't a cursor for the previous page.
	Prev ident.UUID

	// Next is the oldest log of the page when older logs exist. Pass it back
	// as after to get the next page.
	Next ident.UUID
}

// Logs reads and writes channel logs.
type Logs struct {
	table kv.Table
	types *Registry
}

// NewLogs creates a log store over t. A nil registry means the built-in
// channel types.
func NewLogs(t kv.Table, types *Registry) *Logs {
	if types == nil {
		types = DefaultRegistry()
	}
	return &Logs{table: t, types: types}
}

// Types returns the channel type registry used by the store.
func (s *Logs) Types() *Registry {
	return s.types
}

// Write stores logs. Credential values of each log's channel are masked in
// its traces before they are written.
func (s *Logs) Write(ctx context.Context, logs ...*Log) (err error) {
	w := kv.NewBatchWriter(ctx, s.table)
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	for _, l := range logs {
		if l.UUID == "" || l.Channel == nil {
			return fmt.Errorf("write log: missing uuid or channel")
		}

		item, err := newLogItem(s.maskCredentials(l))
		if err != nil {
			return err
		}
		if err := w.Put(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Logs) maskCredentials(l *Log) *Log {
	secrets := s.types.Get(l.Channel.Type).CredentialValues(l.Channel)
	if len(secrets) == 0 {
		return l
	}

	masked := *l
	masked.HTTPLogs = make([]*HTTPLog, len(l.HTTPLogs))
	for i, h := range l.HTTPLogs {
		c := *h
		for _, secret := range secrets {
			c.URL = redact.Text(c.URL, secret, Mask)
			c.Request = redact.Text(c.Request, secret, Mask)
			c.Response = redact.Text(c.Response, secret, Mask)
		}
		masked.HTTPLogs[i] = &c
	}
	return &masked
}

// GetByUUID looks up logs of a channel by identifier, sorted by identifier.
// Unknown identifiers and logs belonging to another org are left out.
func (s *Logs) GetByUUID(ctx context.Context, ch *Channel, uuids []ident.UUID) ([]*Log, error) {
	if len(uuids) == 0 {
		return []*Log{}, nil
	}

	keys := make([]kv.Key, len(uuids))
	for i, u := range uuids {
		keys[i] = logKey(ch.UUID, u)
	}

	items, err := kv.BatchGet(ctx, s.table, keys)
	if err != nil {
		return nil, fmt.Errorf("get logs for channel %s: %w", ch.UUID, err)
	}

	logs := make([]*Log, 0, len(items))
	for _, item := range items {
		l, err := decodeLog(ch, item)
		if errors.Is(err, ErrOrgMismatch) {
			slog.Warn("dropping channel log from other org", "channel", ch.UUID, "sk", item.SK, "org", item.OrgID)
			metrics.DroppedItems.WithLabelValues(s.table.Name()).Inc()
			continue
		}
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	slices.SortFunc(logs, func(a, b *Log) int { return strings.Compare(string(a.UUID), string(b.UUID)) })
	return logs, nil
}

// GetByChannel returns a page of the channel's logs across all of its
// shards, newest first, resuming after the given log when after is set.
func (s *Logs) GetByChannel(ctx context.Context, ch *Channel, limit int, after ident.UUID) (*LogPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	var afterSK string
	if after != "" {
		afterSK = logPrefix + string(after)
	}

	page, err := kv.MergedPageQuery(ctx, s.table, channelPKs(ch.UUID), true, limit, afterSK)
	if err != nil {
		return nil, fmt.Errorf("get logs for channel %s: %w", ch.UUID, err)
	}

	logs := make([]*Log, len(page.Items))
	for i, item := range page.Items {
		if logs[i], err = decodeLog(ch, item); err != nil {
			return nil, err
		}
	}

	return &LogPage{Logs: logs, Prev: cursorOf(page.PrevSK), Next: cursorOf(page.NextSK)}, nil
}

func cursorOf(sk string) ident.UUID {
	if sk == "" {
		return ""
	}
	return ident.UUID(sk[strings.LastIndex(sk, "#")+1:])
}
