package ports

import (
	"context"
	"time"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
)

// ListTicketsRepoParams is the storage-level filter for ticket listings.
type ListTicketsRepoParams struct {
	Limit    int32
	Offset   int32
	State    *string
	Type     *string
	CallerID *int64
	GroupID  *int64
}

// TicketRepository persists tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	ListPaginated(ctx context.Context, params ListTicketsRepoParams) ([]*domain.Ticket, error)
	// ListResolvedBefore returns resolved tickets whose resolvedAt is older
	// than the cutoff, for the auto-close sweep.
	ListResolvedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Ticket, error)
}

// ResolverRepository persists resolver assignments and their logged time.
type ResolverRepository interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]*domain.ResolverAssignment, error)
	Get(ctx context.Context, ticketID, userID int64) (*domain.ResolverAssignment, error)
	// SwapPrimary atomically clears the primary flag on the old holder and
	// sets it on the new one, creating the new holder's row if needed.
	SwapPrimary(ctx context.Context, ticketID, oldUserID, newUserID int64, makePrimary bool) error
	// Upsert creates the assignment row or updates its primary flag.
	Upsert(ctx context.Context, assignment *domain.ResolverAssignment) error
	// ClearPrimary sets the primary flag to null, keeping the row and its
	// logged time.
	ClearPrimary(ctx context.Context, ticketID, userID int64) error
	AddTime(ctx context.Context, ticketID, userID int64, minutes int, description string) error
}

// ChatRepository persists chat messages. ListByTicket returns newest first,
// the store's natural order; callers reverse for replay.
type ChatRepository interface {
	Create(ctx context.Context, message *domain.ChatMessage) (*domain.ChatMessage, error)
	ListByTicket(ctx context.Context, ticketID int64, includePrivate bool) ([]*domain.ChatMessage, error)
}

// UserRepository reads users and their notification addresses.
type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailsByIDs(ctx context.Context, userIDs []int64) (map[int64]string, error)
}

// GroupRepository reads resolver groups.
type GroupRepository interface {
	GetByID(ctx context.Context, groupID int64) (*domain.Group, error)
}

// ContractRepository reads and maintains support contracts.
type ContractRepository interface {
	// ActiveForCompany returns the company's current contract, or
	// ErrNotFound when none covers now.
	ActiveForCompany(ctx context.Context, companyID int64, now time.Time) (*domain.Contract, error)
	// RefreshStates reconciles the stored state column against each
	// contract's date range and returns the number of rows changed.
	RefreshStates(ctx context.Context, now time.Time) (int64, error)
}

// MaintenanceRepository persists maintenance windows.
type MaintenanceRepository interface {
	Insert(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error)
	Update(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]*domain.MaintenanceWindow, error)
}
