package channels

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/jsonx"
	"github.com/roach88/eventhistory/internal/kv"
)

// ErrOrgMismatch is returned when a log read from a channel's timeline
// belongs to a different org than the channel.
var ErrOrgMismatch = errors.New("org mismatch for channel log")

// Channel is the owner of a log timeline.
type Channel struct {
	UUID   ident.UUID
	OrgID  int64
	Type   string
	Config map[string]string
}

// LogType is the kind of interaction a log records.
type LogType string

// Log types.
const (
	LogTypeUnknown         LogType = "unknown"
	LogTypeMsgSend         LogType = "msg_send"
	LogTypeMsgStatus       LogType = "msg_status"
	LogTypeMsgReceive      LogType = "msg_receive"
	LogTypeEventReceive    LogType = "event_receive"
	LogTypeMultiReceive    LogType = "multi_receive"
	LogTypeIVRStart        LogType = "ivr_start"
	LogTypeIVRIncoming     LogType = "ivr_incoming"
	LogTypeIVRCallback     LogType = "ivr_callback"
	LogTypeIVRStatus       LogType = "ivr_status"
	LogTypeIVRHangup       LogType = "ivr_hangup"
	LogTypeAttachmentFetch LogType = "attachment_fetch"
	LogTypeTokenRefresh    LogType = "token_refresh"
	LogTypePageSubscribe   LogType = "page_subscribe"
	LogTypeWebhookVerify   LogType = "webhook_verify"
)

var logTypeDisplay = map[LogType]string{
	LogTypeUnknown:         "Other Event",
	LogTypeMsgSend:         "Message Send",
	LogTypeMsgStatus:       "Message Status",
	LogTypeMsgReceive:      "Message Receive",
	LogTypeEventReceive:    "Event Receive",
	LogTypeMultiReceive:    "Events Receive",
	LogTypeIVRStart:        "IVR Start",
	LogTypeIVRIncoming:     "IVR Incoming",
	LogTypeIVRCallback:     "IVR Callback",
	LogTypeIVRStatus:       "IVR Status",
	LogTypeIVRHangup:       "IVR Hangup",
	LogTypeAttachmentFetch: "Attachment Fetch",
	LogTypeTokenRefresh:    "Token Refresh",
	LogTypePageSubscribe:   "Page Subscribe",
	LogTypeWebhookVerify:   "Webhook Verify",
}

// Display returns the human readable name of the log type.
func (t LogType) Display() string {
	if d, ok := logTypeDisplay[t]; ok {
		return d
	}
	return string(t)
}

// HTTPLog is one HTTP request and response made or received for a log.
type HTTPLog struct {
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code,omitempty"`
	Request    string    `json:"request"`
	Response   string    `json:"response,omitempty"`
	ElapsedMS  int       `json:"elapsed_ms"`
	Retries    int       `json:"retries"`
	CreatedOn  time.Time `json:"created_on"`
}

// LogError is an error recorded for a log. ExtCode is the provider's own code.
type LogError struct {
	Code    string `json:"code"`
	ExtCode string `json:"ext_code,omitempty"`
	Message string `json:"message"`
}

// Log is a channel log.
type Log struct {
	UUID      ident.UUID
	Channel   *Channel
	Type      LogType
	HTTPLogs  []*HTTPLog
	Errors    []*LogError
	IsError   bool
	ElapsedMS int
	CreatedOn time.Time
}

const (
	channelPrefix = "cha#"
	logPrefix     = "log#"
)

var shards = strings.Split("0123456789abcdef", "")

func logKey(channel, log ident.UUID) kv.Key {
	return kv.Key{
		PK: channelPrefix + string(channel) + "#" + log.Shard(),
		SK: logPrefix + string(log),
	}
}

func channelPKs(channel ident.UUID) []string {
	pks := make([]string, len(shards))
	for i, s := range shards {
		pks[i] = channelPrefix + string(channel) + "#" + s
	}
	return pks
}

// logItemData is the inline part of a log item.
type logItemData struct {
	Type      LogType   `json:"type"`
	IsError   bool      `json:"is_error"`
	ElapsedMS int       `json:"elapsed_ms"`
	CreatedOn time.Time `json:"created_on"`
}

// logItemDataGZ is the compressed part of a log item.
type logItemDataGZ struct {
	HTTPLogs []*HTTPLog  `json:"http_logs"`
	Errors   []*LogError `json:"errors"`
}

func newLogItem(l *Log) (*kv.Item, error) {
	data, err := jsonx.ToDocument(logItemData{Type: l.Type, IsError: l.IsError, ElapsedMS: l.ElapsedMS, CreatedOn: l.CreatedOn})
	if err != nil {
		return nil, fmt.Errorf("encode log %s: %w", l.UUID, err)
	}

	httpLogs, errs := l.HTTPLogs, l.Errors
	if httpLogs == nil {
		httpLogs = []*HTTPLog{}
	}
	if errs == nil {
		errs = []*LogError{}
	}
	rest, err := jsonx.ToDocument(logItemDataGZ{HTTPLogs: httpLogs, Errors: errs})
	if err != nil {
		return nil, fmt.Errorf("encode log %s: %w", l.UUID, err)
	}
	gz, err := jsonx.MarshalGZ(rest)
	if err != nil {
		return nil, fmt.Errorf("encode log %s: %w", l.UUID, err)
	}

	key := logKey(l.Channel.UUID, l.UUID)
	return &kv.Item{PK: key.PK, SK: key.SK, OrgID: l.Channel.OrgID, Data: data, DataGZ: gz}, nil
}

func decodeLog(ch *Channel, item *kv.Item) (*Log, error) {
	if item.OrgID != ch.OrgID {
		return nil, fmt.Errorf("log %s has org %d, channel %s has org %d: %w", item.SK, item.OrgID, ch.UUID, ch.OrgID, ErrOrgMismatch)
	}

	doc := item.Data
	if len(item.DataGZ) > 0 {
		extra, err := jsonx.UnmarshalGZ(item.DataGZ)
		if err != nil {
			return nil, fmt.Errorf("decode log %s: %w", item.SK, err)
		}
		doc = jsonx.Merge(doc, extra)
	}

	var data struct {
		logItemData
		logItemDataGZ
	}
	if err := fromDocument(doc, &data); err != nil {
		return nil, fmt.Errorf("decode log %s: %w", item.SK, err)
	}

	return &Log{
		UUID:      ident.UUID(strings.TrimPrefix(item.SK, logPrefix)),
		Channel:   ch,
		Type:      data.Type,
		HTTPLogs:  data.HTTPLogs,
		Errors:    data.Errors,
		IsError:   data.IsError,
		ElapsedMS: data.ElapsedMS,
		CreatedOn: data.CreatedOn,
	}, nil
}
