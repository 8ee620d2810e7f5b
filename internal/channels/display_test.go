package channels

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/jsonx"
)

const contactURN = "tel:+593979123456"

func twilioSendLog() *Log {
	return &Log{
		UUID:    "0198a1e0-5a3b-7c2d-8e4f-a1b2c3d4e5f6",
		Channel: twilio,
		Type:    LogTypeMsgSend,
		HTTPLogs: []*HTTPLog{{
			URL:        "https://api.twilio.com/2010-04-01/Accounts/AC123/Messages.json",
			StatusCode: 201,
			Request:    "POST /2010-04-01/Accounts/AC123/Messages.json HTTP/1.1\r\nHost: api.twilio.com\r\nAuthorization: Basic sesame\r\n\r\nBody=Hello&To=%2B593979123456&FromCity=Quito",
			Response:   "HTTP/1.1 201 Created\r\n\r\n{\"to\": \"+593979123456\", \"status\": \"queued\"}",
			ElapsedMS:  123,
			CreatedOn:  sent(),
		}},
		Errors: []*LogError{
			{Code: "response_status_code", ExtCode: "21211", Message: "Invalid 'To' Phone Number: +593979123456"},
			{Code: "timeout", Message: "request timed out"},
		},
		IsError:   true,
		ElapsedMS: 123,
		CreatedOn: sent(),
	}
}

func TestGetDisplay_Anonymized(t *testing.T) {
	s, _ := newTestLogs(t)
	l := twilioSendLog()
	writeLogs(t, s, l)

	got, err := s.GetByUUID(context.Background(), twilio, []ident.UUID{l.UUID})
	require.NoError(t, err)
	require.Len(t, got, 1)

	d := s.GetDisplay(got[0], true, contactURN)

	out, err := jsonx.Marshal(d)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "593979123456")
	assert.NotContains(t, string(out), "sesame")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "anonymized_log", out)
}

func TestGetDisplay_NotAnonymized(t *testing.T) {
	s, _ := newTestLogs(t)
	l := twilioSendLog()
	l.HTTPLogs[0].Request = "POST /send HTTP/1.1\r\n\r\nTo=%2B593979123456"

	d := s.GetDisplay(l, false, contactURN)
	assert.Equal(t, "https://api.twilio.com/2010-04-01/Accounts/AC123/Messages.json", d.HTTPLogs[0].URL)
	assert.Equal(t, "POST /send HTTP/1.1\r\n\r\nTo=%2B593979123456", d.HTTPLogs[0].Request)
	assert.Equal(t, "Invalid 'To' Phone Number: +593979123456", d.Errors[0].Message)

	require.NotNil(t, d.Errors[0].RefURL)
	assert.Equal(t, "https://www.twilio.com/docs/api/errors/21211", *d.Errors[0].RefURL)
	assert.Nil(t, d.Errors[1].RefURL)

	// display is a copy
	d.HTTPLogs[0].URL = "changed"
	assert.Equal(t, "https://api.twilio.com/2010-04-01/Accounts/AC123/Messages.json", l.HTTPLogs[0].URL)
}

func TestGetDisplay_AnonymizeWithoutURN(t *testing.T) {
	s, _ := newTestLogs(t)
	l := simpleLog(android, ident.New())
	l.HTTPLogs[0].Response = ""
	l.Errors = []*LogError{{Code: "x", Message: "ünïcödé message text"}}

	d := s.GetDisplay(l, true, "")
	assert.Equal(t, "https://ex********", d.HTTPLogs[0].URL)
	assert.Equal(t, "POST /send********", d.HTTPLogs[0].Request)
	assert.Equal(t, "", d.HTTPLogs[0].Response)
	assert.Equal(t, "ünïcödé me********", d.Errors[0].Message)
}

func TestGetDisplay_RedactsBodyKeys(t *testing.T) {
	s, _ := newTestLogs(t)
	wac := &Channel{UUID: "b1c2d3e4-f5a6-4b7c-8d9e-0f1a2b3c4d5e", OrgID: 1, Type: "WAC", Config: map[string]string{"auth_token": "s3cret"}}
	l := simpleLog(wac, ident.New())
	l.HTTPLogs[0].Response = "HTTP/1.1 200 OK\r\n\r\n{\"contacts\":[{\"input\":\"593979123456\",\"wa_id\":\"593979123456\"}]}"

	d := s.GetDisplay(l, true, "whatsapp:593979123456")
	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n{\"contacts\":[{\"input\":\"********\",\"wa_id\":\"********\"}]}", d.HTTPLogs[0].Response)
}

func TestGetDisplay_BlanksBodyWithNothingToRedact(t *testing.T) {
	s, _ := newTestLogs(t)
	wac := &Channel{UUID: "b1c2d3e4-f5a6-4b7c-8d9e-0f1a2b3c4d5e", OrgID: 1, Type: "WAC"}
	l := simpleLog(wac, ident.New())
	l.HTTPLogs[0].Response = "HTTP/1.1 200 OK\r\n\r\n{\"contacts\": [{\"input\": \"593 979 123 456\"}], \"messages\": [{\"id\": \"wamid.123\"}]}"

	d := s.GetDisplay(l, true, "whatsapp:593979123456")
	assert.Equal(t, "HTTP/1.1 2********", d.HTTPLogs[0].Response)
	assert.NotContains(t, d.HTTPLogs[0].Response, "593 979")
}

func TestGetDisplay_PanicsOnSurvivingCredential(t *testing.T) {
	s, _ := newTestLogs(t)
	l := twilioSendLog()

	assert.Panics(t, func() { s.GetDisplay(l, false, contactURN) })

	l.HTTPLogs[0].Request = "POST /send HTTP/1.1\r\n\r\n"
	l.HTTPLogs[0].Response = "HTTP/1.1 401\r\n\r\nbad token sesame for +593979123456"
	assert.Panics(t, func() { s.GetDisplay(l, true, contactURN) })
}

func TestURNPath(t *testing.T) {
	assert.Equal(t, "+593979123456", urnPath("tel:+593979123456"))
	assert.Equal(t, "bob", urnPath("twitter:bob?id=123#frag"))
	assert.Equal(t, "", urnPath(""))
	assert.Equal(t, "", urnPath("nourn"))
}
