package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// TicketService implements business logic for the ticket lifecycle.
type TicketService struct {
	ticketRepo ports.TicketRepository
	chatRepo   ports.ChatRepository
	dispatcher ports.Dispatcher
	clock      ports.Clock
	logger     *slog.Logger
	wg         sync.WaitGroup
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service
func NewTicketService(
	ticketRepo ports.TicketRepository,
	chatRepo ports.ChatRepository,
	dispatcher ports.Dispatcher,
	clock ports.Clock,
	logger *slog.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		chatRepo:   chatRepo,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger.With("component", "ticket_service"),
	}
}

// Create handles the use case for submitting a new ticket.
func (s *TicketService) Create(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	now := s.clock.Now()

	ticketParams := domain.TicketParams{
		Title:          params.Title,
		Description:    params.Description,
		Impact:         params.Impact,
		Urgency:        params.Urgency,
		Type:           params.Type,
		CallerID:       params.CallerID,
		ParentTicketID: params.ParentTicketID,
		GroupID:        params.GroupID,
		ContractID:     params.ContractID,
	}

	ticket, err := domain.NewTicket(ticketParams, now)
	if err != nil {
		return nil, err // Validation errors are returned here
	}

	created, err := s.ticketRepo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}

	// The timeline always opens with a system entry. Losing it is not worth
	// failing the creation over.
	opening := domain.SystemMessage(created.ID, fmt.Sprintf("Ticket created: %s", created.Title), now)
	if _, err := s.chatRepo.Create(ctx, opening); err != nil {
		s.logger.ErrorContext(ctx, "failed to write opening chat entry",
			"ticket_id", created.ID, "error", err)
	}

	s.dispatch(domain.TicketEvent{Kind: domain.EventTicketCreated, Ticket: created})

	return created, nil
}

// Get retrieves a specific ticket.
func (s *TicketService) Get(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, ticketID)
}

// List retrieves tickets matching the given filters.
func (s *TicketService) List(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	repoParams := ports.ListTicketsRepoParams{
		Limit:    int32(limit),
		Offset:   int32(params.Offset),
		State:    params.State,
		Type:     params.Type,
		CallerID: params.CallerID,
		GroupID:  params.GroupID,
	}

	return s.ticketRepo.ListPaginated(ctx, repoParams)
}

// Transition moves a ticket between lifecycle states, with the domain
// enforcing the edge set.
func (s *TicketService) Transition(ctx context.Context, params ports.TransitionParams) (*domain.Ticket, error) {
	now := s.clock.Now()

	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	// Read before Transition stamps AcceptedAt on a first acceptance.
	wasAccepted := ticket.AcceptedAt != nil

	if err := ticket.Transition(params.Target, params.CloseCode, params.CloseNotes, now); err != nil {
		return nil, err
	}

	updated, err := s.ticketRepo.Update(ctx, ticket)
	if err != nil {
		return nil, err
	}

	note := domain.SystemMessage(updated.ID, fmt.Sprintf("State changed to %s", updated.State), now)
	if _, err := s.chatRepo.Create(ctx, note); err != nil {
		s.logger.ErrorContext(ctx, "failed to write state-change chat entry",
			"ticket_id", updated.ID, "error", err)
	}

	if kind, ok := domain.EventKindForState(updated.State, wasAccepted); ok {
		s.dispatch(domain.TicketEvent{Kind: kind, Ticket: updated})
	}

	return updated, nil
}

// RecordSLAReason stores a breach justification on the ticket.
func (s *TicketService) RecordSLAReason(ctx context.Context, params ports.SLAReasonParams) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	if err := ticket.RecordSLAReason(params.Reason, params.Acceptance); err != nil {
		return nil, err
	}

	return s.ticketRepo.Update(ctx, ticket)
}

// AutoCloseStale closes resolved tickets whose resolution is older than
// maxAge. Each close is persisted and announced individually so one bad row
// does not stall the sweep.
func (s *TicketService) AutoCloseStale(ctx context.Context, maxAge time.Duration) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-maxAge)

	stale, err := s.ticketRepo.ListResolvedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, ticket := range stale {
		if err := ticket.AutoClose(now); err != nil {
			s.logger.ErrorContext(ctx, "auto-close skipped ticket",
				"ticket_id", ticket.ID, "error", err)
			continue
		}
		updated, err := s.ticketRepo.Update(ctx, ticket)
		if err != nil {
			s.logger.ErrorContext(ctx, "auto-close failed to persist ticket",
				"ticket_id", ticket.ID, "error", err)
			continue
		}
		s.dispatch(domain.TicketEvent{Kind: domain.EventTicketClosed, Ticket: updated})
		closed++
	}

	return closed, nil
}

// dispatch hands an event to the dispatcher on a tracked goroutine. The HTTP
// request that triggered it may finish first; Shutdown waits for the rest.
func (s *TicketService) dispatch(event domain.TicketEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatcher.Dispatch(context.Background(), event)
	}()
}

// Shutdown blocks until in-flight notification work has drained.
func (s *TicketService) Shutdown() {
	s.wg.Wait()
}
