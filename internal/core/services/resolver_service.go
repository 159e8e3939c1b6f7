package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// ResolverService keeps a ticket's resolver assignments in sync with what
// operators select in the UI.
type ResolverService struct {
	resolverRepo ports.ResolverRepository
	ticketRepo   ports.TicketRepository
	dispatcher   ports.Dispatcher
	logger       *slog.Logger
	wg           sync.WaitGroup
}

var _ ports.ResolverService = (*ResolverService)(nil)

// NewResolverService creates a new resolver assignment service.
func NewResolverService(
	resolverRepo ports.ResolverRepository,
	ticketRepo ports.TicketRepository,
	dispatcher ports.Dispatcher,
	logger *slog.Logger,
) *ResolverService {
	return &ResolverService{
		resolverRepo: resolverRepo,
		ticketRepo:   ticketRepo,
		dispatcher:   dispatcher,
		logger:       logger.With("component", "resolver_service"),
	}
}

// ListByTicket returns every assignment row for the ticket, including
// time-only rows.
func (s *ResolverService) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.ResolverAssignment, error) {
	if _, err := s.ticketRepo.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.resolverRepo.ListByTicket(ctx, ticketID)
}

// SetPrimary hands the primary slot from the old holder to the new one. The
// swap runs as one atomic unit in the repository; no interleaving can leave
// the ticket with two primaries.
func (s *ResolverService) SetPrimary(ctx context.Context, params ports.SetPrimaryParams) error {
	if params.NewUserID == 0 {
		return apperrors.ErrResolverRequired
	}
	if params.OldUserID == params.NewUserID {
		return apperrors.ErrPrimaryResolverSelf
	}

	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return err
	}

	if err := s.resolverRepo.SwapPrimary(ctx, params.TicketID, params.OldUserID, params.NewUserID, params.MakePrimary); err != nil {
		return err
	}

	if params.MakePrimary {
		s.dispatch(domain.TicketEvent{
			Kind:       domain.EventResolverAssigned,
			Ticket:     ticket,
			AssigneeID: params.NewUserID,
		})
	}

	return nil
}

// SyncSecondary reconciles the stored secondary resolver set against the
// desired one. Members that drop out keep their row with the flag nulled so
// their logged time survives; new members get an upserted row with zero time.
func (s *ResolverService) SyncSecondary(ctx context.Context, params ports.SyncSecondaryParams) (*domain.ResolverDiff, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.resolverRepo.ListByTicket(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	var current []int64
	for _, a := range assignments {
		if a.IsSecondary() {
			current = append(current, a.UserID)
		}
	}

	diff := domain.DiffResolvers(current, params.UserIDs)

	for _, userID := range diff.Removed {
		if err := s.resolverRepo.ClearPrimary(ctx, params.TicketID, userID); err != nil {
			return nil, err
		}
	}

	secondary := false
	for _, userID := range diff.Added {
		assignment, err := domain.NewAssignment(params.TicketID, userID, &secondary)
		if err != nil {
			return nil, err
		}
		if err := s.resolverRepo.Upsert(ctx, assignment); err != nil {
			return nil, err
		}
		s.dispatch(domain.TicketEvent{
			Kind:       domain.EventResolverAssigned,
			Ticket:     ticket,
			AssigneeID: userID,
		})
	}

	return &diff, nil
}

// LogTime records minutes worked against an assignment row, creating the
// row as a time-only entry when the user was never a resolver on the ticket.
func (s *ResolverService) LogTime(ctx context.Context, params ports.LogTimeParams) error {
	if params.UserID == 0 {
		return apperrors.ErrResolverRequired
	}
	if _, err := s.ticketRepo.GetByID(ctx, params.TicketID); err != nil {
		return err
	}
	return s.resolverRepo.AddTime(ctx, params.TicketID, params.UserID, params.Minutes, params.Description)
}

func (s *ResolverService) dispatch(event domain.TicketEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatcher.Dispatch(context.Background(), event)
	}()
}

// Shutdown blocks until in-flight notification work has drained.
func (s *ResolverService) Shutdown() {
	s.wg.Wait()
}
