package backfill

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/eventhistory/internal/archives"
	"github.com/roach88/eventhistory/internal/testutil"
)

const (
	annUUID = "abe1460e-7e97-4db4-9944-3d8d20792a2d"
	bobUUID = "b33599af-2d97-4299-904d-2ea2d50921bb"
	catUUID = "c9f65adb-efa4-4497-8527-7a7ff02df99c"
)

var (
	twilioRef = map[string]any{"uuid": "d0c17405-a902-4a06-8fb8-5b067a582283", "name": "Twilio"}
	tgRef     = map[string]any{"uuid": "ce4959aa-8c85-41a4-b53e-14c3f6852f90", "name": "TG Test"}
	catFacts  = map[string]any{"uuid": "448bb9d0-af76-4657-96b5-aa033805542d", "name": "Cat Facts"}
)

func contact(uuid, name string) map[string]any {
	return map[string]any{"uuid": uuid, "name": name}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

type testEnv struct {
	archives *testutil.Archives
	history  *testutil.CountingTable
	out      *bytes.Buffer
	backfill *Backfill
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		archives: testutil.NewArchives(t),
		history:  testutil.NewCountingTable(testutil.OpenTable(t, "History")),
		out:      &bytes.Buffer{},
	}

	b, err := New(env.archives.Repository, env.history, env.out)
	require.NoError(t, err)
	env.backfill = b
	return env
}

// run runs a step and returns its output.
func (e *testEnv) run(t *testing.T, step Step, opts Options) (string, error) {
	t.Helper()
	e.out.Reset()
	err := e.backfill.Run(context.Background(), step, opts)
	return e.out.String(), err
}

// createArchives sets up two orgs with the message archives used by most
// tests. Returns the 2015 daily archive of the first org.
func (e *testEnv) createArchives(t *testing.T) *archives.Archive {
	t.Helper()
	cat := e.archives.Catalog
	cat.AddOrg(&archives.Org{ID: 1, Name: "Nyaruka", IsActive: true})
	cat.AddOrg(&archives.Org{ID: 2, Name: "Trileet", IsActive: true})

	// run archives are ignored
	e.archives.CreateArchive(t, &archives.Archive{ID: 1, OrgID: 1, Type: archives.TypeFlowRun, Period: archives.PeriodDaily, StartDate: date(2025, 8, 1)}, []map[string]any{
		{"id": 1, "created_on": "2020-07-30T10:00:00Z"},
		{"id": 2, "created_on": "2020-07-30T15:00:00Z"},
	})

	daily := e.archives.CreateArchive(t, &archives.Archive{ID: 2, OrgID: 1, Type: archives.TypeMessage, Period: archives.PeriodDaily, StartDate: date(2015, 1, 1)}, []map[string]any{
		{
			// regular incoming message
			"id": 1, "broadcast": nil, "contact": contact(annUUID, "Ann"), "urn": "tel:+16305550123", "channel": twilioRef,
			"direction": "in", "type": "inbox", "status": "handled", "visibility": "visible", "text": "sawa",
			"attachments": []any{}, "labels": []any{}, "created_on": "2015-01-01T13:50:31+00:00", "sent_on": nil,
		},
		{
			// incoming IVR message
			"id": 2, "broadcast": nil, "contact": contact(bobUUID, "Bob"), "urn": "tel:+1234567890", "channel": twilioRef,
			"direction": "in", "type": "ivr", "status": "handled", "visibility": "visible", "text": "who's there?",
			"attachments": []any{}, "labels": []any{}, "created_on": "2015-01-01T13:51:31+00:00", "sent_on": nil,
		},
		{
			// old style message with no channel and no urn
			"id": 3, "broadcast": nil, "contact": contact(catUUID, "Cat"), "urn": nil, "channel": nil,
			"direction": "in", "type": "flow", "status": "handled", "visibility": "visible", "text": "sawa 2",
			"attachments": []any{}, "labels": []any{}, "created_on": "2015-01-01T13:52:31+00:00", "sent_on": nil,
		},
		{
			// deleted incoming message
			"id": 4, "broadcast": nil, "contact": contact(annUUID, "Ann"), "urn": "tel:+16305550123", "channel": twilioRef,
			"direction": "in", "type": "inbox", "status": "handled", "visibility": "deleted", "text": "bad word",
			"attachments": []any{}, "labels": []any{}, "created_on": "2015-01-03T13:53:31+00:00", "sent_on": nil,
		},
	})

	// other org, same period
	e.archives.CreateArchive(t, &archives.Archive{ID: 3, OrgID: 2, Type: archives.TypeMessage, Period: archives.PeriodDaily, StartDate: date(2015, 1, 1)}, []map[string]any{
		{
			"id": 3456, "broadcast": nil, "contact": contact("427b1f45-40fa-4798-9331-6d002509e582", "Ann"), "urn": "tel:+16305550123",
			"channel": map[string]any{"uuid": "347521d3-65f7-46a7-852d-9cd9be32471d", "name": "Twilio"},
			"direction": "in", "type": "inbox", "status": "handled", "visibility": "visible", "text": "bonjour",
			"attachments": []any{}, "labels": []any{}, "created_on": "2015-01-01T13:50:31+00:00", "sent_on": nil,
		},
	})

	e.archives.CreateArchive(t, &archives.Archive{ID: 4, OrgID: 1, Type: archives.TypeMessage, Period: archives.PeriodMonthly, StartDate: date(2025, 1, 1)}, []map[string]any{
		{
			// unsendable broadcast message
			"id": 5297, "broadcast": 107746936, "contact": contact(annUUID, "Ann"), "urn": nil, "channel": nil, "flow": nil,
			"direction": "out", "type": "text", "status": "failed", "visibility": "visible", "text": "Testing",
			"attachments": []any{}, "labels": []any{}, "created_on": "2025-01-01T12:00:02.931134+00:00", "sent_on": nil,
		},
		{
			"id": 5307, "broadcast": nil, "contact": contact(bobUUID, "Bob"), "urn": "telegram:123456", "channel": tgRef, "flow": catFacts,
			"direction": "out", "type": "text", "status": "wired", "visibility": "visible",
			"text":        "A cat uses its whiskers for measuring distances.",
			"attachments": []any{}, "labels": []any{}, "created_on": "2025-01-01T14:52:49.053541+00:00", "sent_on": "2025-01-01T14:52:53.773715+00:00",
		},
		{
			// long text that gets compressed
			"id": 5400, "broadcast": nil, "contact": contact(catUUID, "Cat"), "urn": "telegram:123456", "channel": tgRef, "flow": catFacts,
			"direction": "out", "type": "text", "status": "wired", "visibility": "visible",
			"text":        strings.Repeat("helloworld", 1000),
			"attachments": []any{}, "labels": []any{}, "created_on": "2025-01-01T14:53:49.053541+00:00", "sent_on": "2025-01-01T14:53:53.773715+00:00",
		},
	})

	return daily
}
