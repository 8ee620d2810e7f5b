package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/eventhistory/internal/ident"
)

// Type discriminates event variants.
type Type string

// Event types.
const (
	TypeAirtimeTransferred     Type = "airtime_transferred"
	TypeBroadcastCreated       Type = "broadcast_created"
	TypeCallCreated            Type = "call_created"
	TypeCallMissed             Type = "call_missed"
	TypeCallReceived           Type = "call_received"
	TypeChatStarted            Type = "chat_started"
	TypeContactFieldChanged    Type = "contact_field_changed"
	TypeContactGroupsChanged   Type = "contact_groups_changed"
	TypeContactLanguageChanged Type = "contact_language_changed"
	TypeContactNameChanged     Type = "contact_name_changed"
	TypeContactStatusChanged   Type = "contact_status_changed"
	TypeContactURNsChanged     Type = "contact_urns_changed"
	TypeFlowEntered            Type = "flow_entered"
	TypeIVRCreated             Type = "ivr_created"
	TypeMsgCreated             Type = "msg_created"
	TypeMsgReceived            Type = "msg_received"
	TypeOptInRequested         Type = "optin_requested"
	TypeOptInStarted           Type = "optin_started"
	TypeOptInStopped           Type = "optin_stopped"
	TypeRunEnded               Type = "run_ended"
	TypeTicketAssigned         Type = "ticket_assigned"
	TypeTicketClosed           Type = "ticket_closed"
	TypeTicketNoteAdded        Type = "ticket_note_added"
	TypeTicketOpened           Type = "ticket_opened"
	TypeTicketReopened         Type = "ticket_reopened"
	TypeTicketTopicChanged     Type = "ticket_topic_changed"
)

// Event is implemented by every event variant.
type Event interface {
	// Envelope returns the fields shared by all events. Changes made through
	// the returned pointer are visible on the event.
	Envelope() *Base
}

// Base is the envelope shared by all events.
type Base struct {
	UUID      ident.UUID `json:"uuid"`
	Type      Type       `json:"type"`
	CreatedOn time.Time  `json:"created_on"`

	// User is a denormalized reference to the user who caused the event.
	User *UserRef `json:"_user,omitempty"`

	// Deleted and Status are never stored on the event item; they are
	// filled from tags on read.
	Deleted *Deletion     `json:"_deleted,omitempty"`
	Status  *StatusChange `json:"_status,omitempty"`
}

// Envelope implements Event.
func (b *Base) Envelope() *Base { return b }

// Deletion is the read-time result of a delete tag.
type Deletion struct {
	CreatedOn time.Time `json:"created_on"`
	ByContact bool      `json:"by_contact"`
}

// StatusChange is the read-time result of a status tag.
type StatusChange struct {
	CreatedOn time.Time `json:"created_on"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
}

// References to other objects embedded in events.
type (
	UserRef struct {
		UUID ident.UUID `json:"uuid"`
		Name string     `json:"name"`
	}
	ChannelRef struct {
		UUID ident.UUID `json:"uuid"`
		Name string     `json:"name"`
	}
	OptInRef struct {
		UUID ident.UUID `json:"uuid"`
		Name string     `json:"name"`
	}
	FlowRef struct {
		UUID ident.UUID `json:"uuid"`
		Name string     `json:"name"`
	}
	GroupRef struct {
		UUID ident.UUID `json:"uuid"`
		Name string     `json:"name"`
	}
	TopicRef struct {
		UUID ident.UUID `json:"uuid"`
		Name string     `json:"name"`
	}
	FieldRef struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
)

// FieldValue is the new value of a contact field, nil when cleared.
type FieldValue struct {
	Text string `json:"text"`
}

// Msg is the message payload of msg and ivr events.
type Msg struct {
	UUID             ident.UUID  `json:"uuid,omitempty"`
	Text             string      `json:"text"`
	URN              string      `json:"urn,omitempty"`
	Channel          *ChannelRef `json:"channel,omitempty"`
	Attachments      []string    `json:"attachments,omitempty"`
	QuickReplies     []string    `json:"quick_replies,omitempty"`
	ExternalID       string      `json:"external_id,omitempty"`
	BroadcastUUID    ident.UUID  `json:"broadcast_uuid,omitempty"`
	UnsendableReason string      `json:"unsendable_reason,omitempty"`
}

// Call is the call payload of call events.
type Call struct {
	UUID    ident.UUID  `json:"uuid"`
	URN     string      `json:"urn,omitempty"`
	Channel *ChannelRef `json:"channel,omitempty"`
}

// BroadcastTranslation is the content of a broadcast in one language.
type BroadcastTranslation struct {
	Text         string   `json:"text"`
	Attachments  []string `json:"attachments,omitempty"`
	QuickReplies []string `json:"quick_replies,omitempty"`
}

// Variants.
type (
	AirtimeTransferred struct {
		Base
		TransferUUID ident.UUID  `json:"transfer_uuid,omitempty"`
		Sender       string      `json:"sender"`
		Recipient    string      `json:"recipient"`
		Currency     string      `json:"currency"`
		Amount       json.Number `json:"amount"`
	}
	BroadcastCreated struct {
		Base
		Translations map[string]BroadcastTranslation `json:"translations"`
		BaseLanguage string                          `json:"base_language"`
		URNs         []string                        `json:"urns,omitempty"`
	}
	CallCreated struct {
		Base
		Call Call `json:"call"`
	}
	CallMissed struct {
		Base
		Channel *ChannelRef `json:"channel,omitempty"`
		URN     string      `json:"urn,omitempty"`
	}
	CallReceived struct {
		Base
		Call Call `json:"call"`
	}
	ChatStarted struct {
		Base
		Channel *ChannelRef       `json:"channel,omitempty"`
		URN     string            `json:"urn,omitempty"`
		Params  map[string]string `json:"params,omitempty"`
	}
	ContactFieldChanged struct {
		Base
		Field FieldRef `json:"field"`
		Value *FieldValue `json:"value"`
	}
	ContactGroupsChanged struct {
		Base
		GroupsAdded   []GroupRef `json:"groups_added,omitempty"`
		GroupsRemoved []GroupRef `json:"groups_removed,omitempty"`
	}
	ContactLanguageChanged struct {
		Base
		Language string `json:"language"`
	}
	ContactNameChanged struct {
		Base
		Name string `json:"name"`
	}
	ContactStatusChanged struct {
		Base
		Status string `json:"status"`
	}
	ContactURNsChanged struct {
		Base
		URNs []string `json:"urns"`
	}
	FlowEntered struct {
		Base
		Flow    FlowRef    `json:"flow"`
		RunUUID ident.UUID `json:"run_uuid,omitempty"`
	}
	IVRCreated struct {
		Base
		Msg Msg `json:"msg"`
	}
	MsgCreated struct {
		Base
		Msg   Msg       `json:"msg"`
		OptIn *OptInRef `json:"optin,omitempty"`
	}
	MsgReceived struct {
		Base
		Msg Msg `json:"msg"`
	}
	OptInRequested struct {
		Base
		OptIn   OptInRef    `json:"optin"`
		Channel *ChannelRef `json:"channel,omitempty"`
		URN     string      `json:"urn,omitempty"`
	}
	OptInStarted struct {
		Base
		OptIn   OptInRef    `json:"optin"`
		Channel *ChannelRef `json:"channel,omitempty"`
	}
	OptInStopped struct {
		Base
		OptIn   OptInRef    `json:"optin"`
		Channel *ChannelRef `json:"channel,omitempty"`
	}
	RunEnded struct {
		Base
		RunUUID ident.UUID `json:"run_uuid"`
		Flow    FlowRef    `json:"flow"`
		Status  string     `json:"status"`
	}
	TicketAssigned struct {
		Base
		Ticket   ident.UUID `json:"ticket_uuid"`
		Assignee *UserRef   `json:"assignee"`
	}
	TicketClosed struct {
		Base
		Ticket ident.UUID `json:"ticket_uuid"`
	}
	TicketNoteAdded struct {
		Base
		Ticket ident.UUID `json:"ticket_uuid"`
		Note   string     `json:"note"`
	}
	TicketOpened struct {
		Base
		Ticket struct {
			UUID     ident.UUID `json:"uuid"`
			Topic    *TopicRef  `json:"topic,omitempty"`
			Assignee *UserRef   `json:"assignee,omitempty"`
			Note     string     `json:"note,omitempty"`
		} `json:"ticket"`
	}
	TicketReopened struct {
		Base
		Ticket ident.UUID `json:"ticket_uuid"`
	}
	TicketTopicChanged struct {
		Base
		Ticket ident.UUID `json:"ticket_uuid"`
		Topic  TopicRef   `json:"topic"`
	}
)

// constructors maps each type to a function returning an empty variant.
var constructors = map[Type]func() Event{
	TypeAirtimeTransferred:     func() Event { return &AirtimeTransferred{} },
	TypeBroadcastCreated:       func() Event { return &BroadcastCreated{} },
	TypeCallCreated:            func() Event { return &CallCreated{} },
	TypeCallMissed:             func() Event { return &CallMissed{} },
	TypeCallReceived:           func() Event { return &CallReceived{} },
	TypeChatStarted:            func() Event { return &ChatStarted{} },
	TypeContactFieldChanged:    func() Event { return &ContactFieldChanged{} },
	TypeContactGroupsChanged:   func() Event { return &ContactGroupsChanged{} },
	TypeContactLanguageChanged: func() Event { return &ContactLanguageChanged{} },
	TypeContactNameChanged:     func() Event { return &ContactNameChanged{} },
	TypeContactStatusChanged:   func() Event { return &ContactStatusChanged{} },
	TypeContactURNsChanged:     func() Event { return &ContactURNsChanged{} },
	TypeFlowEntered:            func() Event { return &FlowEntered{} },
	TypeIVRCreated:             func() Event { return &IVRCreated{} },
	TypeMsgCreated:             func() Event { return &MsgCreated{} },
	TypeMsgReceived:            func() Event { return &MsgReceived{} },
	TypeOptInRequested:         func() Event { return &OptInRequested{} },
	TypeOptInStarted:           func() Event { return &OptInStarted{} },
	TypeOptInStopped:           func() Event { return &OptInStopped{} },
	TypeRunEnded:               func() Event { return &RunEnded{} },
	TypeTicketAssigned:         func() Event { return &TicketAssigned{} },
	TypeTicketClosed:           func() Event { return &TicketClosed{} },
	TypeTicketNoteAdded:        func() Event { return &TicketNoteAdded{} },
	TypeTicketOpened:           func() Event { return &TicketOpened{} },
	TypeTicketReopened:         func() Event { return &TicketReopened{} },
	TypeTicketTopicChanged:     func() Event { return &TicketTopicChanged{} },
}

// IsValidType returns whether t is a known event type.
func IsValidType(t Type) bool {
	_, ok := constructors[t]
	return ok
}

// newEvent returns an empty variant for t.
func newEvent(t Type) (Event, error) {
	ctor, ok := constructors[t]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, t)
	}
	return ctor(), nil
}
