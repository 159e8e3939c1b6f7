package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/mocks"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

type dispatcherMocks struct {
	userRepo     *mocks.MockUserRepository
	groupRepo    *mocks.MockGroupRepository
	resolverRepo *mocks.MockResolverRepository
	sender       *mocks.MockMailSender
	broadcaster  *mocks.MockEventBroadcaster
}

func newDispatcherForTest() (*NotificationService, dispatcherMocks) {
	m := dispatcherMocks{
		userRepo:     mocks.NewMockUserRepository(),
		groupRepo:    mocks.NewMockGroupRepository(),
		resolverRepo: mocks.NewMockResolverRepository(),
		sender:       mocks.NewMockMailSender(),
		broadcaster:  mocks.NewMockEventBroadcaster(),
	}
	svc := NewNotificationService(m.userRepo, m.groupRepo, m.resolverRepo, m.sender, m.broadcaster, "Tikit", testLogger())
	return svc, m
}

func sentTo(addr string) interface{} {
	return mock.MatchedBy(func(email ports.OutboundEmail) bool {
		return email.To == addr
	})
}

func TestNotificationService_Dispatch_Created(t *testing.T) {
	ctx := context.Background()
	svc, m := newDispatcherForTest()

	ticket := &domain.Ticket{ID: 42, Title: "Printer on fire", Description: "smoke", State: domain.StateNew, CallerID: 10, GroupID: 3}

	m.broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
		return e.Type == string(domain.EventTicketCreated) && e.TicketID == 42 && !e.Private
	})).Return(nil)
	m.groupRepo.On("GetByID", mock.Anything, int64(3)).Return(&domain.Group{ID: 3, Email: "helpdesk@example.com"}, nil)
	m.userRepo.On("GetByID", mock.Anything, int64(10)).Return(&domain.User{ID: 10, Email: "caller@example.com"}, nil)
	m.sender.On("Send", mock.Anything, mock.MatchedBy(func(email ports.OutboundEmail) bool {
		return email.Subject == "Tikit ticket ID: [42] - Printer on fire"
	})).Return(nil).Twice()

	svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventTicketCreated, Ticket: ticket})

	m.sender.AssertExpectations(t)
	m.broadcaster.AssertExpectations(t)
}

func TestNotificationService_Dispatch_Comments(t *testing.T) {
	ctx := context.Background()

	t.Run("comment on an unaccepted ticket goes to the group", func(t *testing.T) {
		svc, m := newDispatcherForTest()
		ticket := &domain.Ticket{ID: 42, State: domain.StateNew, CallerID: 10, GroupID: 3}
		message := &domain.ChatMessage{ID: 1, TicketID: 42, AuthorName: "Caller", Body: domain.MessageBody{Kind: domain.MessageText, Content: "still broken"}}

		m.broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.FrameNewMessage && e.TicketID == 42
		})).Return(nil)
		m.groupRepo.On("GetByID", mock.Anything, int64(3)).Return(&domain.Group{ID: 3, Email: "helpdesk@example.com"}, nil)
		m.sender.On("Send", mock.Anything, sentTo("helpdesk@example.com")).Return(nil).Once()

		svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventCommentAdded, Ticket: ticket, Message: message})

		m.sender.AssertExpectations(t)
	})

	t.Run("public comment on a worked ticket reaches resolvers and caller", func(t *testing.T) {
		svc, m := newDispatcherForTest()
		ticket := &domain.Ticket{ID: 42, State: domain.StateOpen, CallerID: 10, GroupID: 3}
		message := &domain.ChatMessage{ID: 1, TicketID: 42, AuthorName: "Alice", Body: domain.MessageBody{Kind: domain.MessageText, Content: "on it"}}

		primary := true
		secondary := false
		m.broadcaster.On("Broadcast", mock.Anything).Return(nil)
		m.resolverRepo.On("ListByTicket", mock.Anything, int64(42)).Return([]*domain.ResolverAssignment{
			{TicketID: 42, UserID: 1, Primary: &primary},
			{TicketID: 42, UserID: 2, Primary: &secondary},
			{TicketID: 42, UserID: 5, Primary: nil}, // time-only, not an audience
		}, nil)
		m.userRepo.On("EmailsByIDs", mock.Anything, []int64{1, 2}).Return(map[int64]string{
			1: "primary@example.com",
			2: "secondary@example.com",
		}, nil)
		m.userRepo.On("GetByID", mock.Anything, int64(10)).Return(&domain.User{ID: 10, Email: "caller@example.com"}, nil)
		m.sender.On("Send", mock.Anything, sentTo("primary@example.com")).Return(nil).Once()
		m.sender.On("Send", mock.Anything, sentTo("secondary@example.com")).Return(nil).Once()
		m.sender.On("Send", mock.Anything, sentTo("caller@example.com")).Return(nil).Once()

		svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventCommentAdded, Ticket: ticket, Message: message})

		m.sender.AssertExpectations(t)
	})

	t.Run("private comment never reaches the caller", func(t *testing.T) {
		svc, m := newDispatcherForTest()
		ticket := &domain.Ticket{ID: 42, State: domain.StateOpen, CallerID: 10, GroupID: 3}
		message := &domain.ChatMessage{ID: 1, TicketID: 42, Private: true, AuthorName: "Alice", Body: domain.MessageBody{Kind: domain.MessageText, Content: "internal note"}}

		primary := true
		m.broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.FrameNewMessage && e.Private
		})).Return(nil)
		m.resolverRepo.On("ListByTicket", mock.Anything, int64(42)).Return([]*domain.ResolverAssignment{
			{TicketID: 42, UserID: 1, Primary: &primary},
		}, nil)
		m.userRepo.On("EmailsByIDs", mock.Anything, []int64{1}).Return(map[int64]string{1: "primary@example.com"}, nil)
		m.sender.On("Send", mock.Anything, sentTo("primary@example.com")).Return(nil).Once()

		svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventCommentAdded, Ticket: ticket, Message: message})

		m.sender.AssertExpectations(t)
		m.userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("comment on a terminal ticket emails nobody", func(t *testing.T) {
		svc, m := newDispatcherForTest()
		ticket := &domain.Ticket{ID: 42, State: domain.StateClosed, CallerID: 10}
		message := &domain.ChatMessage{ID: 1, TicketID: 42, Body: domain.MessageBody{Kind: domain.MessageText, Content: "too late"}}

		m.broadcaster.On("Broadcast", mock.Anything).Return(nil)

		svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventCommentAdded, Ticket: ticket, Message: message})

		m.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestNotificationService_Dispatch_LifecycleNotices(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		kind domain.EventKind
	}{
		{"accepted", domain.EventTicketAccepted},
		{"resolved", domain.EventTicketResolved},
		{"reopened", domain.EventTicketReopened},
		{"awaiting info", domain.EventTicketAwaitingInfo},
		{"cancelled", domain.EventTicketCancelled},
		{"closed", domain.EventTicketClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name+" notifies the caller only", func(t *testing.T) {
			svc, m := newDispatcherForTest()
			ticket := &domain.Ticket{ID: 42, Title: "Printer on fire", CallerID: 10, GroupID: 3}

			m.broadcaster.On("Broadcast", mock.Anything).Return(nil)
			m.userRepo.On("GetByID", mock.Anything, int64(10)).Return(&domain.User{ID: 10, Email: "caller@example.com"}, nil)
			m.sender.On("Send", mock.Anything, sentTo("caller@example.com")).Return(nil).Once()

			svc.Dispatch(ctx, domain.TicketEvent{Kind: tt.kind, Ticket: ticket})

			m.sender.AssertExpectations(t)
			m.groupRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestNotificationService_Dispatch_ResolverAssigned(t *testing.T) {
	ctx := context.Background()
	svc, m := newDispatcherForTest()
	ticket := &domain.Ticket{ID: 42, Title: "Printer on fire", CallerID: 10}

	m.broadcaster.On("Broadcast", mock.Anything).Return(nil)
	m.userRepo.On("EmailsByIDs", mock.Anything, []int64{7}).Return(map[int64]string{7: "assignee@example.com"}, nil)
	m.sender.On("Send", mock.Anything, sentTo("assignee@example.com")).Return(nil).Once()

	svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventResolverAssigned, Ticket: ticket, AssigneeID: 7})

	m.sender.AssertExpectations(t)
}

func TestNotificationService_Dispatch_FailSoft(t *testing.T) {
	ctx := context.Background()

	t.Run("a dead relay does not stop the fan-out", func(t *testing.T) {
		svc, m := newDispatcherForTest()
		ticket := &domain.Ticket{ID: 42, CallerID: 10, GroupID: 3, State: domain.StateNew}

		m.broadcaster.On("Broadcast", mock.Anything).Return(nil)
		m.groupRepo.On("GetByID", mock.Anything, int64(3)).Return(&domain.Group{ID: 3, Email: "helpdesk@example.com"}, nil)
		m.userRepo.On("GetByID", mock.Anything, int64(10)).Return(&domain.User{ID: 10, Email: "caller@example.com"}, nil)
		m.sender.On("Send", mock.Anything, sentTo("helpdesk@example.com")).Return(errors.New("relay down")).Once()
		m.sender.On("Send", mock.Anything, sentTo("caller@example.com")).Return(nil).Once()

		svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventTicketCreated, Ticket: ticket})

		m.sender.AssertExpectations(t)
	})

	t.Run("a failed broadcast does not stop the emails", func(t *testing.T) {
		svc, m := newDispatcherForTest()
		ticket := &domain.Ticket{ID: 42, CallerID: 10}

		m.broadcaster.On("Broadcast", mock.Anything).Return(errors.New("room gone"))
		m.userRepo.On("GetByID", mock.Anything, int64(10)).Return(&domain.User{ID: 10, Email: "caller@example.com"}, nil)
		m.sender.On("Send", mock.Anything, sentTo("caller@example.com")).Return(nil).Once()

		svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventTicketReopened, Ticket: ticket})

		m.sender.AssertExpectations(t)
	})

	t.Run("an event without a ticket is dropped", func(t *testing.T) {
		svc, m := newDispatcherForTest()

		svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventTicketCreated})

		m.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
		m.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("a vanished caller shrinks the audience to nothing", func(t *testing.T) {
		svc, m := newDispatcherForTest()
		ticket := &domain.Ticket{ID: 42, CallerID: 10}

		m.broadcaster.On("Broadcast", mock.Anything).Return(nil)
		m.userRepo.On("GetByID", mock.Anything, int64(10)).Return(nil, errors.New("db down"))

		svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventTicketResolved, Ticket: ticket})

		m.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestNotificationService_Dispatch_GroupWithoutMailbox(t *testing.T) {
	ctx := context.Background()
	svc, m := newDispatcherForTest()
	ticket := &domain.Ticket{ID: 42, State: domain.StateNew, CallerID: 10, GroupID: 3}

	m.broadcaster.On("Broadcast", mock.Anything).Return(nil)
	m.groupRepo.On("GetByID", mock.Anything, int64(3)).Return(&domain.Group{ID: 3, Email: ""}, nil)
	m.userRepo.On("GetByID", mock.Anything, int64(10)).Return(&domain.User{ID: 10, Email: "caller@example.com"}, nil)
	m.sender.On("Send", mock.Anything, sentTo("caller@example.com")).Return(nil).Once()

	svc.Dispatch(ctx, domain.TicketEvent{Kind: domain.EventTicketCreated, Ticket: ticket})

	assert.True(t, m.sender.AssertExpectations(t))
}
