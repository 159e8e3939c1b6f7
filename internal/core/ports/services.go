package ports

import (
	"context"
	"time"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
)

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// CreateTicketParams defines the required input for creating a new ticket.
type CreateTicketParams struct {
	Title          string
	Description    string
	Impact         int
	Urgency        int
	Type           string
	CallerID       int64
	ParentTicketID *int64
	GroupID        int64
	ContractID     *int64
}

// TransitionParams defines the input for moving a ticket between states.
type TransitionParams struct {
	TicketID   int64
	Target     domain.TicketState
	CloseCode  string
	CloseNotes string
}

// SLAReasonParams defines the input for recording a breach justification.
type SLAReasonParams struct {
	TicketID   int64
	Reason     string
	Acceptance bool
}

// ListTicketsParams defines the input for listing tickets.
type ListTicketsParams struct {
	Limit    int
	Offset   int
	State    *string
	Type     *string
	CallerID *int64
	GroupID  *int64
}

// TicketService defines the core business operations for managing tickets.
type TicketService interface {
	Create(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	Get(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	List(ctx context.Context, params ListTicketsParams) ([]*domain.Ticket, error)
	Transition(ctx context.Context, params TransitionParams) (*domain.Ticket, error)
	RecordSLAReason(ctx context.Context, params SLAReasonParams) (*domain.Ticket, error)
	// AutoCloseStale closes resolved tickets whose resolution is older than
	// maxAge and returns how many were closed.
	AutoCloseStale(ctx context.Context, maxAge time.Duration) (int, error)
	Shutdown()
}

// SetPrimaryParams defines the input for the primary resolver swap.
type SetPrimaryParams struct {
	TicketID    int64
	OldUserID   int64
	NewUserID   int64
	MakePrimary bool
}

// SyncSecondaryParams defines the input for secondary set reconciliation.
type SyncSecondaryParams struct {
	TicketID int64
	UserIDs  []int64
}

// LogTimeParams defines the input for recording time worked on a ticket.
type LogTimeParams struct {
	TicketID    int64
	UserID      int64
	Minutes     int
	Description string
}

// ResolverService defines the port for resolver assignment management.
type ResolverService interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]*domain.ResolverAssignment, error)
	SetPrimary(ctx context.Context, params SetPrimaryParams) error
	SyncSecondary(ctx context.Context, params SyncSecondaryParams) (*domain.ResolverDiff, error)
	LogTime(ctx context.Context, params LogTimeParams) error
}

// AppendMessageParams defines the input for appending a chat message.
type AppendMessageParams struct {
	TicketID   int64
	Body       domain.MessageBody
	Private    bool
	AuthorName string
}

// ChatService defines the port for the ticket chat timeline.
type ChatService interface {
	Append(ctx context.Context, params AppendMessageParams) (*domain.ChatMessage, error)
	// History returns messages oldest first, ready for replay.
	History(ctx context.Context, ticketID int64, includePrivate bool) ([]*domain.ChatMessage, error)
}

// MaintenanceService defines the port for maintenance window management.
type MaintenanceService interface {
	Create(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error)
	Update(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error)
	ListUpcoming(ctx context.Context) ([]*domain.MaintenanceWindow, error)
}

// Dispatcher fans a ticket event out to the socket room and to email
// recipients. It never returns an error; delivery failures are logged.
type Dispatcher interface {
	Dispatch(ctx context.Context, event domain.TicketEvent)
}

// EventBroadcaster pushes an event to every client subscribed to its
// ticket room.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// OutboundEmail is one message handed to the mail sender.
type OutboundEmail struct {
	To      string
	Subject string
	Body    string
}

// MailSender defines the port for outbound email delivery.
type MailSender interface {
	Send(ctx context.Context, email OutboundEmail) error
}

// Mailbox defines the port for reading the shared inbound mailbox.
// FetchSince returns messages received at or after the floor, ordered by
// their monotonically increasing IDs.
type Mailbox interface {
	FetchSince(ctx context.Context, floor time.Time) ([]*domain.InboundEmail, error)
}

// Clock abstracts time for services that reason about deadlines and poll
// windows, so tests can pin it.
type Clock interface {
	Now() time.Time
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
