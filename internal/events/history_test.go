package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/jsonx"
	"github.com/roach88/eventhistory/internal/kv"
	"github.com/roach88/eventhistory/internal/testutil"
)

func writeScenario(t *testing.T, h *History) {
	t.Helper()

	write(t, h, ann,
		&ChatStarted{
			Base:    base("01989ad8-db80-7079-b470-3bc9c1a4cf77", TypeChatStarted, at(20, 36, 0)),
			Channel: testChannel,
		},
		&ChatStarted{
			Base:    base("01989ad9-c5e0-7401-b13f-19dc935070c3", TypeChatStarted, at(20, 37, 0)),
			Channel: testChannel,
			Params:  map[string]string{"source": "facebook", "referrer_id": "acme"},
		},
		&CallMissed{
			Base:    base("01989ada-b040-746b-a5c9-aa0833bfe713", TypeCallMissed, at(20, 38, 0)),
			Channel: testChannel,
		},
		&OptInStarted{
			Base:    base("01989adb-9aa0-7667-bb8f-41cd7d36877b", TypeOptInStarted, at(20, 39, 0)),
			OptIn:   jokes,
			Channel: testChannel,
		},
		&OptInStopped{
			Base:    base("01989adc-8500-7685-8bed-fce708c026bf", TypeOptInStopped, at(20, 40, 0)),
			OptIn:   jokes,
			Channel: testChannel,
		},
		// after the window
		&ChatStarted{
			Base:    base("01989ade-59c0-7ab2-9c1e-2f4d6b8a0c13", TypeChatStarted, at(20, 42, 0)),
			Channel: testChannel,
		},
	)

	// another contact's timeline is never read
	write(t, h, bob, &ChatStarted{
		Base:    base("01989ad9-c5e0-7b00-8000-5d1c2e3f4a5b", TypeChatStarted, at(20, 37, 0)),
		Channel: testChannel,
	})
}

func TestGetByContact_Scenario(t *testing.T) {
	h, _ := newTestHistory(t, nil)
	writeScenario(t, h)

	evts, err := h.GetByContact(context.Background(), ann, HistoryQuery{Before: at(20, 41, 0), Limit: 10})
	require.NoError(t, err)
	require.Len(t, evts, 5)

	assert.Equal(t, []ident.UUID{
		"01989adc-8500-7685-8bed-fce708c026bf",
		"01989adb-9aa0-7667-bb8f-41cd7d36877b",
		"01989ada-b040-746b-a5c9-aa0833bfe713",
		"01989ad9-c5e0-7401-b13f-19dc935070c3",
		"01989ad8-db80-7079-b470-3bc9c1a4cf77",
	}, uuidsOf(evts))

	assert.Equal(t, jokes, evts[0].(*OptInStopped).OptIn)
	assert.Equal(t, map[string]string{"source": "facebook", "referrer_id": "acme"}, evts[3].(*ChatStarted).Params)

	out, err := jsonx.Marshal(evts)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "contact_history", out)
}

func TestGetByContact_Directions(t *testing.T) {
	h, _ := newTestHistory(t, nil)
	writeScenario(t, h)
	ctx := context.Background()

	// only after: oldest first
	evts, err := h.GetByContact(ctx, ann, HistoryQuery{After: at(20, 38, 0), Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []ident.UUID{"01989ada-b040-746b-a5c9-aa0833bfe713", "01989adb-9aa0-7667-bb8f-41cd7d36877b"}, uuidsOf(evts))

	// both: newest first
	evts, err = h.GetByContact(ctx, ann, HistoryQuery{After: at(20, 37, 0), Before: at(20, 39, 0)})
	require.NoError(t, err)
	assert.Equal(t, []ident.UUID{"01989ada-b040-746b-a5c9-aa0833bfe713", "01989ad9-c5e0-7401-b13f-19dc935070c3"}, uuidsOf(evts))

	// neither: newest first, everything
	evts, err = h.GetByContact(ctx, ann, HistoryQuery{})
	require.NoError(t, err)
	assert.Len(t, evts, 6)
	assert.EqualValues(t, "01989ade-59c0-7ab2-9c1e-2f4d6b8a0c13", evts[0].Envelope().UUID)
}

func TestGetByContact_InvertedRangeMakesNoCalls(t *testing.T) {
	h, tbl := newTestHistory(t, nil)
	writeScenario(t, h)
	tbl.Reset()

	for _, q := range []HistoryQuery{
		{After: at(20, 40, 0), Before: at(20, 36, 0)},
		{After: at(20, 40, 0), Before: at(20, 40, 0)},
	} {
		evts, err := h.GetByContact(context.Background(), ann, q)
		require.NoError(t, err)
		assert.NotNil(t, evts)
		assert.Empty(t, evts)
	}
	assert.Equal(t, 0, tbl.Total())
}

func TestGetByContact_ExactTimeFilter(t *testing.T) {
	h, _ := newTestHistory(t, nil)
	before := at(20, 41, 0)

	// identifier inside the approximate bound but created_on at the bound
	write(t, h, ann,
		&ContactNameChanged{
			Base: base(ident.FromInstant(before), TypeContactNameChanged, before.Add(500*time.Microsecond)),
			Name: "Ann",
		},
		&ContactNameChanged{
			Base: base("01989add-6f5f-7000-8000-000000000001", TypeContactNameChanged, before.Add(-time.Millisecond)),
			Name: "Annie",
		},
	)

	evts, err := h.GetByContact(context.Background(), ann, HistoryQuery{Before: before})
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, "Annie", evts[0].(*ContactNameChanged).Name)

	evts, err = h.GetByContact(context.Background(), ann, HistoryQuery{After: before})
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, "Ann", evts[0].(*ContactNameChanged).Name)
}

func TestGetByContact_TagMerge(t *testing.T) {
	h, _ := newTestHistory(t, nil)
	ctx := context.Background()

	msgUUID := ident.UUID("01989ad8-db80-7079-b470-3bc9c1a4cf77")
	write(t, h, ann, &MsgReceived{
		Base: base(msgUUID, TypeMsgReceived, at(20, 36, 0)),
		Msg:  Msg{Text: "Bad word", URN: "tel:+16305550123", Channel: testChannel},
	})
	writeTags(t, h, ann,
		&DeleteTag{Event: msgUUID, CreatedOn: at(20, 50, 0), ByContact: true},
		&StatusTag{Event: msgUUID, CreatedOn: at(20, 37, 0), Status: "handled"},
	)

	check := func(evts []Event) {
		require.Len(t, evts, 1)
		b := evts[0].Envelope()
		assert.True(t, at(20, 36, 0).Equal(b.CreatedOn))
		require.NotNil(t, b.Deleted)
		assert.True(t, at(20, 50, 0).Equal(b.Deleted.CreatedOn))
		assert.True(t, b.Deleted.ByContact)
		require.NotNil(t, b.Status)
		assert.Equal(t, "handled", b.Status.Status)
	}

	evts, err := h.GetByContact(ctx, ann, HistoryQuery{Before: at(21, 0, 0)})
	require.NoError(t, err)
	check(evts)

	evts, err = h.GetByContact(ctx, ann, HistoryQuery{After: at(20, 0, 0)})
	require.NoError(t, err)
	check(evts)
}

func TestGetByContact_TagsAcrossPages(t *testing.T) {
	h, tbl := newTestHistory(t, nil)
	ctx := context.Background()

	// 25 events with two tags each, so fetched pages of 20 items split
	// events from their tags in both directions
	start := at(20, 0, 0)
	var evts []Event
	var tags []Tag
	for i := 0; i < 25; i++ {
		created := start.Add(time.Duration(i) * time.Second)
		u := ident.UUID(fmt.Sprintf("%s%012x", string(ident.FromInstant(created))[:24], i+1))
		evts = append(evts, &MsgCreated{Base: base(u, TypeMsgCreated, created), Msg: Msg{Text: fmt.Sprint(i)}})
		tags = append(tags,
			&DeleteTag{Event: u, CreatedOn: created.Add(time.Hour)},
			&StatusTag{Event: u, CreatedOn: created.Add(time.Minute), Status: "delivered"},
		)
	}
	write(t, h, ann, evts...)
	writeTags(t, h, ann, tags...)

	for _, q := range []HistoryQuery{
		{Before: at(21, 0, 0), Limit: 25},
		{After: at(19, 0, 0), Limit: 25},
		{Before: at(21, 0, 0), Limit: 7},
		{After: at(19, 0, 0), Limit: 7},
	} {
		tbl.Reset()
		got, err := h.GetByContact(ctx, ann, q)
		require.NoError(t, err)
		require.Len(t, got, q.Limit)

		for _, e := range got {
			assert.NotNil(t, e.Envelope().Deleted, "event %s missing delete tag", e.Envelope().UUID)
			assert.NotNil(t, e.Envelope().Status, "event %s missing status tag", e.Envelope().UUID)
		}

		for _, query := range tbl.Queries() {
			assert.Equal(t, max(q.Limit, minFetchSize), query.Limit)
		}
	}

	got, err := h.GetByContact(ctx, ann, HistoryQuery{After: at(19, 0, 0), Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, "0", got[0].(*MsgCreated).Msg.Text)
	assert.Equal(t, "2", got[2].(*MsgCreated).Msg.Text)
}

func TestGetByContact_TicketFilter(t *testing.T) {
	h, _ := newTestHistory(t, nil)
	ctx := context.Background()

	ticket1 := ident.UUID("01989ad8-0000-7000-8000-0000000000a1")
	ticket2 := ident.UUID("01989ad8-0000-7000-8000-0000000000a2")

	opened1 := &TicketOpened{Base: base("01989ad8-db80-7000-8000-000000000001", TypeTicketOpened, at(20, 36, 0))}
	opened1.Ticket.UUID = ticket1
	opened2 := &TicketOpened{Base: base("01989ad8-db80-7000-8000-000000000005", TypeTicketOpened, at(20, 36, 0))}
	opened2.Ticket.UUID = ticket2

	write(t, h, ann,
		opened1,
		&TicketNoteAdded{Base: base("01989ad8-db80-7000-8000-000000000002", TypeTicketNoteAdded, at(20, 36, 0)), Ticket: ticket1, Note: "hi"},
		&TicketClosed{Base: base("01989ad8-db80-7000-8000-000000000003", TypeTicketClosed, at(20, 36, 0)), Ticket: ticket1},
		&MsgReceived{Base: base("01989ad8-db80-7000-8000-000000000004", TypeMsgReceived, at(20, 36, 0)), Msg: Msg{Text: "hello"}},
		opened2,
	)

	evts, err := h.GetByContact(ctx, ann, HistoryQuery{After: at(20, 0, 0)})
	require.NoError(t, err)
	assert.Equal(t, []ident.UUID{
		"01989ad8-db80-7000-8000-000000000001",
		"01989ad8-db80-7000-8000-000000000003",
		"01989ad8-db80-7000-8000-000000000004",
		"01989ad8-db80-7000-8000-000000000005",
	}, uuidsOf(evts))

	evts, err = h.GetByContact(ctx, ann, HistoryQuery{After: at(20, 0, 0), Ticket: ticket1})
	require.NoError(t, err)
	assert.Equal(t, []ident.UUID{
		"01989ad8-db80-7000-8000-000000000001",
		"01989ad8-db80-7000-8000-000000000002",
		"01989ad8-db80-7000-8000-000000000003",
		"01989ad8-db80-7000-8000-000000000004",
	}, uuidsOf(evts))
}

func TestGetByContact_OrgMismatch(t *testing.T) {
	h, _ := newTestHistory(t, nil)

	write(t, h, Contact{UUID: ann.UUID, OrgID: 2}, &ContactNameChanged{
		Base: base("01989ad8-db80-7079-b470-3bc9c1a4cf77", TypeContactNameChanged, at(20, 36, 0)),
		Name: "Ann",
	})

	_, err := h.GetByContact(context.Background(), ann, HistoryQuery{})
	assert.ErrorIs(t, err, ErrOrgMismatch)
}

func TestGetByContact_SkipsUnknownItems(t *testing.T) {
	h, tbl := newTestHistory(t, nil)
	ctx := context.Background()

	require.NoError(t, tbl.Put(ctx, &kv.Item{
		PK:    "con#" + string(ann.UUID),
		SK:    "evt#01989ad8-db80-7079-b470-3bc9c1a4cf77",
		OrgID: 1,
		Data:  map[string]any{"type": "contact_teleported", "created_on": "2025-08-11T20:36:00Z"},
	}))
	write(t, h, ann, &ContactNameChanged{
		Base: base("01989ad9-c5e0-7401-b13f-19dc935070c3", TypeContactNameChanged, at(20, 37, 0)),
		Name: "Ann",
	})

	evts, err := h.GetByContact(ctx, ann, HistoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, []ident.UUID{"01989ad9-c5e0-7401-b13f-19dc935070c3"}, uuidsOf(evts))
}

func TestGetByContact_TooManyFetches(t *testing.T) {
	h, _ := newTestHistory(t, nil)

	// ticket notes are hidden from the general timeline, so nothing matches
	// and every fetch comes back full
	clock := testutil.NewDeterministicClock(at(10, 0, 0), time.Second)
	evts := make([]Event, 0, maxFetches*minFetchSize+1)
	for i := 0; i < maxFetches*minFetchSize+1; i++ {
		created := clock.Now()
		evts = append(evts, &TicketNoteAdded{
			Base:   base(ident.FromInstant(created), TypeTicketNoteAdded, created),
			Ticket: "01989ad8-0000-7000-8000-0000000000a1",
		})
	}
	write(t, h, ann, evts...)

	_, err := h.GetByContact(context.Background(), ann, HistoryQuery{Limit: 5})
	assert.ErrorIs(t, err, ErrTooManyFetches)
}

func TestGetByContact_RefreshesUsers(t *testing.T) {
	users := &fakeUsers{users: map[ident.UUID]UserRef{
		"8b3c1f3e-6d0a-4d2b-9a6e-0f1e2d3c4b5a": {UUID: "8b3c1f3e-6d0a-4d2b-9a6e-0f1e2d3c4b5a", Name: "Bob McRenamed"},
	}}
	h, _ := newTestHistory(t, users)

	note := &TicketNoteAdded{Base: base("01989ad8-db80-7079-b470-3bc9c1a4cf77", TypeTicketNoteAdded, at(20, 36, 0)), Ticket: "01989ad8-0000-7000-8000-0000000000a1", Note: "one"}
	note.User = &UserRef{UUID: "8b3c1f3e-6d0a-4d2b-9a6e-0f1e2d3c4b5a", Name: "Bob"}
	msg := &MsgCreated{Base: base("01989ad9-c5e0-7401-b13f-19dc935070c3", TypeMsgCreated, at(20, 37, 0)), Msg: Msg{Text: "hi"}}
	msg.User = &UserRef{UUID: "0c7f7f0e-59a1-4d2e-8f3c-1a2b3c4d5e6f", Name: "Deleted User"}
	name := &ContactNameChanged{Base: base("01989ada-b040-746b-a5c9-aa0833bfe713", TypeContactNameChanged, at(20, 38, 0)), Name: "Ann"}
	write(t, h, ann, note, msg, name)

	evts, err := h.GetByContact(context.Background(), ann, HistoryQuery{Ticket: "01989ad8-0000-7000-8000-0000000000a1"})
	require.NoError(t, err)
	require.Len(t, evts, 3)

	assert.Nil(t, evts[0].Envelope().User)
	assert.Nil(t, evts[1].Envelope().User)
	assert.Equal(t, &UserRef{UUID: "8b3c1f3e-6d0a-4d2b-9a6e-0f1e2d3c4b5a", Name: "Bob McRenamed"}, evts[2].Envelope().User)
	assert.Equal(t, 1, users.lookups)
}
