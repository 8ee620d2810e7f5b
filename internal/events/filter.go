package events

import (
	"github.com/roach88/eventhistory/internal/ident"
)

// TicketEvent is implemented by events that belong to a ticket.
type TicketEvent interface {
	Event
	TicketUUID() ident.UUID
}

func (e *TicketAssigned) TicketUUID() ident.UUID     { return e.Ticket }
func (e *TicketClosed) TicketUUID() ident.UUID       { return e.Ticket }
func (e *TicketNoteAdded) TicketUUID() ident.UUID    { return e.Ticket }
func (e *TicketOpened) TicketUUID() ident.UUID       { return e.Ticket.UUID }
func (e *TicketReopened) TicketUUID() ident.UUID     { return e.Ticket }
func (e *TicketTopicChanged) TicketUUID() ident.UUID { return e.Ticket }

// basicTicketTypes are shown in the general timeline when no ticket is selected.
var basicTicketTypes = map[Type]bool{
	TypeTicketOpened:   true,
	TypeTicketClosed:   true,
	TypeTicketReopened: true,
}

// includeForTicket decides whether e belongs in a timeline scoped to ticket,
// where an empty ticket means the general contact timeline.
func includeForTicket(e Event, ticket ident.UUID) bool {
	te, ok := e.(TicketEvent)
	if !ok {
		return true
	}
	if ticket != "" {
		return te.TicketUUID() == ticket
	}
	return basicTicketTypes[e.Envelope().Type]
}
