package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
	"github.com/tikit/helpdesk-backend/internal/core/mocks"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

func newChatServiceForTest(now time.Time) (*ChatService, *mocks.MockChatRepository, *mocks.MockTicketRepository, *mocks.MockDispatcher) {
	chatRepo := mocks.NewMockChatRepository()
	ticketRepo := mocks.NewMockTicketRepository()
	dispatcher := mocks.NewMockDispatcher()
	svc := NewChatService(chatRepo, ticketRepo, dispatcher, mocks.FixedClock{Time: now}, testLogger())
	return svc, chatRepo, ticketRepo, dispatcher
}

func TestChatService_Append(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	ticket := &domain.Ticket{ID: 42, State: domain.StateOpen}

	t.Run("stores the message then announces it once", func(t *testing.T) {
		svc, chatRepo, ticketRepo, dispatcher := newChatServiceForTest(now)

		saved := &domain.ChatMessage{ID: 7, TicketID: 42, AuthorName: "Alice Smith"}
		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(ticket, nil)
		chatRepo.On("Create", mock.Anything, mock.MatchedBy(func(msg *domain.ChatMessage) bool {
			return msg.TicketID == 42 && msg.AuthorName == "Alice Smith" && msg.CreatedAt.Equal(now)
		})).Return(saved, nil)
		dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(e domain.TicketEvent) bool {
			return e.Kind == domain.EventCommentAdded && e.Ticket == ticket && e.Message == saved
		})).Return()

		got, err := svc.Append(ctx, ports.AppendMessageParams{
			TicketID:   42,
			Body:       domain.MessageBody{Kind: domain.MessageText, Content: "on my way"},
			AuthorName: "Alice Smith",
		})
		require.NoError(t, err)
		assert.Equal(t, saved, got)

		chatRepo.AssertExpectations(t)
		dispatcher.AssertExpectations(t)
	})

	t.Run("announcements follow persisted order", func(t *testing.T) {
		svc, chatRepo, ticketRepo, dispatcher := newChatServiceForTest(now)

		first := &domain.ChatMessage{ID: 1, TicketID: 42}
		second := &domain.ChatMessage{ID: 2, TicketID: 42}
		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(ticket, nil)
		chatRepo.On("Create", mock.Anything, mock.Anything).Return(first, nil).Once()
		chatRepo.On("Create", mock.Anything, mock.Anything).Return(second, nil).Once()

		var announced []int64
		dispatcher.On("Dispatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			event := args.Get(1).(domain.TicketEvent)
			announced = append(announced, event.Message.ID)
		}).Return()

		for _, content := range []string{"first", "second"} {
			_, err := svc.Append(ctx, ports.AppendMessageParams{
				TicketID: 42,
				Body:     domain.MessageBody{Kind: domain.MessageText, Content: content},
			})
			require.NoError(t, err)
		}

		assert.Equal(t, []int64{1, 2}, announced)
	})

	t.Run("an invalid body never reaches the store", func(t *testing.T) {
		svc, chatRepo, ticketRepo, _ := newChatServiceForTest(now)

		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(ticket, nil)

		_, err := svc.Append(ctx, ports.AppendMessageParams{
			TicketID: 42,
			Body:     domain.MessageBody{Kind: domain.MessageText},
		})
		assert.ErrorIs(t, err, apperrors.ErrMessageBodyRequired)
		chatRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		svc, _, ticketRepo, _ := newChatServiceForTest(now)

		ticketRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, apperrors.ErrTicketNotFound)

		_, err := svc.Append(ctx, ports.AppendMessageParams{
			TicketID: 99,
			Body:     domain.MessageBody{Kind: domain.MessageText, Content: "hello"},
		})
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})
}

func TestChatService_History(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("replays oldest first", func(t *testing.T) {
		svc, chatRepo, ticketRepo, _ := newChatServiceForTest(now)

		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(&domain.Ticket{ID: 42}, nil)
		// The store returns newest first.
		chatRepo.On("ListByTicket", mock.Anything, int64(42), true).Return([]*domain.ChatMessage{
			{ID: 3}, {ID: 2}, {ID: 1},
		}, nil)

		messages, err := svc.History(ctx, 42, true)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, int64(1), messages[0].ID)
		assert.Equal(t, int64(2), messages[1].ID)
		assert.Equal(t, int64(3), messages[2].ID)
	})

	t.Run("passes the private filter through", func(t *testing.T) {
		svc, chatRepo, ticketRepo, _ := newChatServiceForTest(now)

		ticketRepo.On("GetByID", mock.Anything, int64(42)).Return(&domain.Ticket{ID: 42}, nil)
		chatRepo.On("ListByTicket", mock.Anything, int64(42), false).Return([]*domain.ChatMessage{}, nil)

		_, err := svc.History(ctx, 42, false)
		require.NoError(t, err)
		chatRepo.AssertExpectations(t)
	})
}
