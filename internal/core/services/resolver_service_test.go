package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
	"github.com/tikit/helpdesk-backend/internal/core/mocks"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

func newResolverServiceForTest() (*ResolverService, *mocks.MockResolverRepository, *mocks.MockTicketRepository, *mocks.MockDispatcher) {
	resolverRepo := mocks.NewMockResolverRepository()
	ticketRepo := mocks.NewMockTicketRepository()
	dispatcher := mocks.NewMockDispatcher()
	svc := NewResolverService(resolverRepo, ticketRepo, dispatcher, testLogger())
	return svc, resolverRepo, ticketRepo, dispatcher
}

func boolPtr(b bool) *bool { return &b }

func TestResolverService_SetPrimary(t *testing.T) {
	ctx := context.Background()
	ticket := &domain.Ticket{ID: 42, State: domain.StateOpen}

	t.Run("swaps and notifies the new primary", func(t *testing.T) {
		svc, resolverRepo, ticketRepo, dispatcher := newResolverServiceForTest()

		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(ticket, nil)
		resolverRepo.On("SwapPrimary", mock.Anything, int64(42), int64(1), int64(2), true).Return(nil)
		dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(e domain.TicketEvent) bool {
			return e.Kind == domain.EventResolverAssigned && e.AssigneeID == 2
		})).Return()

		err := svc.SetPrimary(ctx, ports.SetPrimaryParams{TicketID: 42, OldUserID: 1, NewUserID: 2, MakePrimary: true})
		require.NoError(t, err)

		svc.Shutdown()
		resolverRepo.AssertExpectations(t)
		dispatcher.AssertExpectations(t)
	})

	t.Run("demotion swaps without notifying", func(t *testing.T) {
		svc, resolverRepo, ticketRepo, dispatcher := newResolverServiceForTest()

		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(ticket, nil)
		resolverRepo.On("SwapPrimary", mock.Anything, int64(42), int64(1), int64(2), false).Return(nil)

		err := svc.SetPrimary(ctx, ports.SetPrimaryParams{TicketID: 42, OldUserID: 1, NewUserID: 2, MakePrimary: false})
		require.NoError(t, err)

		svc.Shutdown()
		dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("rejects a self swap", func(t *testing.T) {
		svc, resolverRepo, _, _ := newResolverServiceForTest()

		err := svc.SetPrimary(ctx, ports.SetPrimaryParams{TicketID: 42, OldUserID: 2, NewUserID: 2, MakePrimary: true})
		assert.ErrorIs(t, err, apperrors.ErrPrimaryResolverSelf)
		resolverRepo.AssertNotCalled(t, "SwapPrimary", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("requires a new resolver", func(t *testing.T) {
		svc, _, _, _ := newResolverServiceForTest()

		err := svc.SetPrimary(ctx, ports.SetPrimaryParams{TicketID: 42, OldUserID: 1, NewUserID: 0, MakePrimary: true})
		assert.ErrorIs(t, err, apperrors.ErrResolverRequired)
	})
}

func TestResolverService_SyncSecondary(t *testing.T) {
	ctx := context.Background()
	ticket := &domain.Ticket{ID: 42, State: domain.StateOpen}

	t.Run("reconciles the secondary set", func(t *testing.T) {
		svc, resolverRepo, ticketRepo, dispatcher := newResolverServiceForTest()

		// Primary and time-only rows are not part of the secondary set and
		// must survive the sync untouched.
		stored := []*domain.ResolverAssignment{
			{TicketID: 42, UserID: 9, Primary: boolPtr(true)},
			{TicketID: 42, UserID: 1, Primary: boolPtr(false)},
			{TicketID: 42, UserID: 2, Primary: boolPtr(false)},
			{TicketID: 42, UserID: 3, Primary: boolPtr(false)},
			{TicketID: 42, UserID: 5, Primary: nil, TimeWorked: 30},
		}

		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(ticket, nil)
		resolverRepo.On("ListByTicket", mock.Anything, int64(42)).Return(stored, nil)
		resolverRepo.On("ClearPrimary", mock.Anything, int64(42), int64(1)).Return(nil)
		resolverRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(a *domain.ResolverAssignment) bool {
			return a.TicketID == 42 && a.UserID == 4 && a.IsSecondary()
		})).Return(nil)
		dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(e domain.TicketEvent) bool {
			return e.Kind == domain.EventResolverAssigned && e.AssigneeID == 4
		})).Return()

		diff, err := svc.SyncSecondary(ctx, ports.SyncSecondaryParams{TicketID: 42, UserIDs: []int64{2, 3, 4}})
		require.NoError(t, err)
		assert.Equal(t, []int64{4}, diff.Added)
		assert.Equal(t, []int64{1}, diff.Removed)

		svc.Shutdown()
		resolverRepo.AssertExpectations(t)
		dispatcher.AssertExpectations(t)
	})

	t.Run("no-op sync touches nothing", func(t *testing.T) {
		svc, resolverRepo, ticketRepo, dispatcher := newResolverServiceForTest()

		stored := []*domain.ResolverAssignment{
			{TicketID: 42, UserID: 1, Primary: boolPtr(false)},
		}
		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(ticket, nil)
		resolverRepo.On("ListByTicket", mock.Anything, int64(42)).Return(stored, nil)

		diff, err := svc.SyncSecondary(ctx, ports.SyncSecondaryParams{TicketID: 42, UserIDs: []int64{1}})
		require.NoError(t, err)
		assert.Empty(t, diff.Added)
		assert.Empty(t, diff.Removed)

		svc.Shutdown()
		resolverRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		resolverRepo.AssertNotCalled(t, "ClearPrimary", mock.Anything, mock.Anything, mock.Anything)
		dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})
}

func TestResolverService_LogTime(t *testing.T) {
	ctx := context.Background()

	t.Run("records minutes against the assignment", func(t *testing.T) {
		svc, resolverRepo, ticketRepo, _ := newResolverServiceForTest()

		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(&domain.Ticket{ID: 42}, nil)
		resolverRepo.On("AddTime", mock.Anything, int64(42), int64(7), 90, "diagnosed the tray").Return(nil)

		err := svc.LogTime(ctx, ports.LogTimeParams{TicketID: 42, UserID: 7, Minutes: 90, Description: "diagnosed the tray"})
		require.NoError(t, err)
		resolverRepo.AssertExpectations(t)
	})

	t.Run("requires a user", func(t *testing.T) {
		svc, _, _, _ := newResolverServiceForTest()

		err := svc.LogTime(ctx, ports.LogTimeParams{TicketID: 42, UserID: 0, Minutes: 90})
		assert.ErrorIs(t, err, apperrors.ErrResolverRequired)
	})
}
