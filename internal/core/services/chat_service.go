package services

import (
	"context"
	"log/slog"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// ChatService implements the business logic for the ticket chat timeline.
// Messages are persisted before anything is announced; a broadcast can be
// lost, a message cannot.
type ChatService struct {
	chatRepo   ports.ChatRepository
	ticketRepo ports.TicketRepository
	dispatcher ports.Dispatcher
	clock      ports.Clock
	logger     *slog.Logger
}

var _ ports.ChatService = (*ChatService)(nil)

// NewChatService creates a new service for chat logic.
func NewChatService(
	chatRepo ports.ChatRepository,
	ticketRepo ports.TicketRepository,
	dispatcher ports.Dispatcher,
	clock ports.Clock,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		chatRepo:   chatRepo,
		ticketRepo: ticketRepo,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger.With("component", "chat_service"),
	}
}

// Append validates and stores a message, then hands it to the dispatcher,
// which broadcasts to the ticket room exactly once and emails the comment
// recipients.
func (s *ChatService) Append(ctx context.Context, params ports.AppendMessageParams) (*domain.ChatMessage, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	message, err := domain.NewChatMessage(domain.ChatMessageParams{
		TicketID:   params.TicketID,
		Body:       params.Body,
		Private:    params.Private,
		AuthorName: params.AuthorName,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	saved, err := s.chatRepo.Create(ctx, message)
	if err != nil {
		return nil, err
	}

	// Dispatched inline so room broadcasts leave in the order messages were
	// persisted.
	s.dispatcher.Dispatch(ctx, domain.TicketEvent{
		Kind:    domain.EventCommentAdded,
		Ticket:  ticket,
		Message: saved,
	})

	return saved, nil
}

// History returns the ticket's messages oldest first, ready for replay into
// a client that just joined the room. The store hands them back newest
// first, so the slice is reversed here.
func (s *ChatService) History(ctx context.Context, ticketID int64, includePrivate bool) ([]*domain.ChatMessage, error) {
	if _, err := s.ticketRepo.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}

	messages, err := s.chatRepo.ListByTicket(ctx, ticketID, includePrivate)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
