package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/testutil"
)

var (
	ann         = Contact{UUID: "40248365-230d-4a29-8dbc-c89e43dd3adf", OrgID: 1}
	bob         = Contact{UUID: "1d48402f-df4c-44d8-b648-e0180f6a0dd2", OrgID: 1}
	testChannel = &ChannelRef{UUID: "3a1e5c6f-8b0c-4d9e-a3f2-1b2c3d4e5f60", Name: "Test Channel"}
	jokes       = OptInRef{UUID: "2b6e3f1a-7c4d-4e8f-9a0b-c1d2e3f4a5b6", Name: "Jokes"}
)

func at(hour, min, sec int) time.Time {
	return time.Date(2025, 8, 11, hour, min, sec, 0, time.UTC)
}

func base(uuid ident.UUID, typ Type, createdOn time.Time) Base {
	return Base{UUID: uuid, Type: typ, CreatedOn: createdOn}
}

// newTestHistory returns a history over a fresh counting table.
func newTestHistory(t *testing.T, users UserDirectory) (*History, *testutil.CountingTable) {
	t.Helper()
	tbl := testutil.NewCountingTable(testutil.OpenTable(t, "History"))
	return NewHistory(tbl, users), tbl
}

func write(t *testing.T, h *History, c Contact, evts ...Event) {
	t.Helper()
	require.NoError(t, h.Write(context.Background(), c, evts...))
}

func writeTags(t *testing.T, h *History, c Contact, tags ...Tag) {
	t.Helper()
	require.NoError(t, h.WriteTag(context.Background(), c, tags...))
}

func uuidsOf(evts []Event) []ident.UUID {
	uuids := make([]ident.UUID, len(evts))
	for i, e := range evts {
		uuids[i] = e.Envelope().UUID
	}
	return uuids
}

// fakeUsers is an in-memory UserDirectory.
type fakeUsers struct {
	users   map[ident.UUID]UserRef
	lookups int
}

func (f *fakeUsers) LookupUsers(ctx context.Context, orgID int64, uuids []ident.UUID) (map[ident.UUID]UserRef, error) {
	f.lookups++
	found := map[ident.UUID]UserRef{}
	for _, u := range uuids {
		if ref, ok := f.users[u]; ok {
			found[u] = ref
		}
	}
	return found, nil
}
