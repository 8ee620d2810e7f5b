package channels

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/testutil"
)

var (
	twilio = &Channel{
		UUID:   "7c1a5e30-2f4b-4a9d-8c6e-0d1f2a3b4c5d",
		OrgID:  1,
		Type:   "T",
		Config: map[string]string{"account_sid": "AC123", "auth_token": "sesame"},
	}
	android = &Channel{UUID: "a0b1c2d3-e4f5-4a6b-8c7d-9e0f1a2b3c4d", OrgID: 1, Type: "A"}
)

func sent() time.Time {
	return time.Date(2025, 8, 11, 20, 36, 41, 0, time.UTC)
}

func newTestLogs(t *testing.T) (*Logs, *testutil.CountingTable) {
	t.Helper()
	tbl := testutil.NewCountingTable(testutil.OpenTable(t, "Main"))
	return NewLogs(tbl, nil), tbl
}

func writeLogs(t *testing.T, s *Logs, logs ...*Log) {
	t.Helper()
	require.NoError(t, s.Write(context.Background(), logs...))
}

func simpleLog(ch *Channel, uuid ident.UUID) *Log {
	return &Log{
		UUID:      uuid,
		Channel:   ch,
		Type:      LogTypeMsgSend,
		HTTPLogs:  []*HTTPLog{{URL: "https://example.com/send", StatusCode: 200, Request: "POST /send HTTP/1.1\r\n\r\n", Response: "HTTP/1.1 200 OK\r\n\r\n", ElapsedMS: 12, CreatedOn: sent()}},
		ElapsedMS: 12,
		CreatedOn: sent(),
	}
}

func logUUIDs(logs []*Log) []ident.UUID {
	uuids := make([]ident.UUID, len(logs))
	for i, l := range logs {
		uuids[i] = l.UUID
	}
	return uuids
}
