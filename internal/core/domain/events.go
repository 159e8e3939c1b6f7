package domain

// EventKind enumerates the notification-worthy lifecycle moments. The set is
// closed: the dispatcher switches over it exhaustively and treats an unknown
// kind as a programming error.
type EventKind string

const (
	EventTicketCreated      EventKind = "TICKET_CREATED"
	EventTicketAccepted     EventKind = "TICKET_ACCEPTED"
	EventCommentAdded       EventKind = "COMMENT_ADDED"
	EventTicketResolved     EventKind = "TICKET_RESOLVED"
	EventTicketCancelled    EventKind = "TICKET_CANCELLED"
	EventTicketReopened     EventKind = "TICKET_REOPENED"
	EventTicketAwaitingInfo EventKind = "TICKET_AWAITING_INFO"
	EventTicketClosed       EventKind = "TICKET_CLOSED"
	EventResolverAssigned   EventKind = "RESOLVER_ASSIGNED"
)

// EventKindForState maps a freshly entered ticket state to its event kind.
// Entering open is an acceptance the first time and a reopen after that, so
// the caller reports whether the ticket had been accepted before the
// transition. The second return is false for states that do not notify on
// their own (a ticket entering new goes through EventTicketCreated instead).
func EventKindForState(state TicketState, previouslyAccepted bool) (EventKind, bool) {
	switch state {
	case StateResolved:
		return EventTicketResolved, true
	case StateCancelled:
		return EventTicketCancelled, true
	case StateOpen:
		if !previouslyAccepted {
			return EventTicketAccepted, true
		}
		return EventTicketReopened, true
	case StateAwaitingInfo:
		return EventTicketAwaitingInfo, true
	case StateClosed:
		return EventTicketClosed, true
	}
	return "", false
}

// TicketEvent is the unit handed to the notification dispatcher. Ticket is
// always set; Message only for comment events, AssigneeID only for resolver
// assignments.
type TicketEvent struct {
	Kind       EventKind
	Ticket     *Ticket
	Message    *ChatMessage
	AssigneeID int64
}

// Socket frame types of the chat protocol, server to client.
const (
	FrameChatHistory = "chatHistory"
	FrameNewMessage  = "newMessage"
	FrameTicketEvent = "ticketEvent"
)

// Event is the frame sent over WebSocket to a ticket room.
type Event struct {
	Type     string      `json:"type"`
	TicketID int64       `json:"ticketId"` // Used for routing to specific ticket "rooms"
	Payload  interface{} `json:"payload"`
	Private  bool        `json:"-"` // Private frames never reach caller-role clients
}
