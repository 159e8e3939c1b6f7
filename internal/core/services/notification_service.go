package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// NotificationService fans ticket events out across both channels: a
// WebSocket broadcast to the ticket room and an email per resolved
// recipient. Delivery is fail-soft on both channels; a dead SMTP relay or an
// empty room never surfaces as an operation error.
type NotificationService struct {
	userRepo     ports.UserRepository
	groupRepo    ports.GroupRepository
	resolverRepo ports.ResolverRepository
	sender       ports.MailSender
	broadcaster  ports.EventBroadcaster
	appName      string
	logger       *slog.Logger
}

var _ ports.Dispatcher = (*NotificationService)(nil)

// NewNotificationService creates the event dispatcher.
func NewNotificationService(
	userRepo ports.UserRepository,
	groupRepo ports.GroupRepository,
	resolverRepo ports.ResolverRepository,
	sender ports.MailSender,
	broadcaster ports.EventBroadcaster,
	appName string,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		userRepo:     userRepo,
		groupRepo:    groupRepo,
		resolverRepo: resolverRepo,
		sender:       sender,
		broadcaster:  broadcaster,
		appName:      appName,
		logger:       logger.With("component", "notifications"),
	}
}

// Dispatch announces one ticket event on both channels.
func (s *NotificationService) Dispatch(ctx context.Context, event domain.TicketEvent) {
	if event.Ticket == nil {
		s.logger.ErrorContext(ctx, "event dropped: no ticket attached", "kind", event.Kind)
		return
	}

	s.broadcast(ctx, event)

	recipients, body := s.resolve(ctx, event)
	if len(recipients) == 0 {
		return
	}

	subject := domain.FormatTicketSubject(s.appName, event.Ticket.ID, event.Ticket.Title)
	for _, addr := range recipients {
		err := s.sender.Send(ctx, ports.OutboundEmail{To: addr, Subject: subject, Body: body})
		if err != nil {
			s.logger.ErrorContext(ctx, "email delivery failed",
				"ticket_id", event.Ticket.ID, "recipient", addr, "error", err)
			continue
		}
	}
}

// broadcast pushes the realtime frame for the event into the ticket room.
func (s *NotificationService) broadcast(ctx context.Context, event domain.TicketEvent) {
	frame := domain.Event{
		Type:     string(event.Kind),
		TicketID: event.Ticket.ID,
		Payload:  event.Ticket,
	}
	if event.Kind == domain.EventCommentAdded && event.Message != nil {
		frame.Type = domain.FrameNewMessage
		frame.Payload = event.Message
		frame.Private = event.Message.Private
	}

	if err := s.broadcaster.Broadcast(frame); err != nil {
		s.logger.ErrorContext(ctx, "room broadcast failed",
			"ticket_id", event.Ticket.ID, "kind", event.Kind, "error", err)
	}
}

// resolve maps an event kind to its email audience and message body. The
// switch is exhaustive over the event kinds; a kind added without a branch
// here is caught by the default log line.
func (s *NotificationService) resolve(ctx context.Context, event domain.TicketEvent) ([]string, string) {
	ticket := event.Ticket

	switch event.Kind {
	case domain.EventTicketCreated:
		recipients := s.appendGroupEmail(ctx, nil, ticket.GroupID)
		recipients = s.appendCallerEmail(ctx, recipients, ticket.CallerID)
		body := fmt.Sprintf("A new ticket has been opened.\n\n%s", ticket.Description)
		return recipients, body

	case domain.EventCommentAdded:
		if event.Message == nil {
			return nil, ""
		}
		body := fmt.Sprintf("New message from %s:\n\n%s", event.Message.AuthorName, event.Message.Body.Content)

		// A comment on a ticket nobody accepted yet goes to the group
		// mailbox; once resolvers work it, they and the caller are the
		// audience. The caller never hears about private messages.
		switch ticket.State {
		case domain.StateNew:
			return s.appendGroupEmail(ctx, nil, ticket.GroupID), body
		case domain.StateOpen, domain.StateAwaitingInfo:
			recipients := s.resolverEmails(ctx, ticket.ID)
			if !event.Message.Private {
				recipients = s.appendCallerEmail(ctx, recipients, ticket.CallerID)
			}
			return recipients, body
		default:
			return nil, ""
		}

	case domain.EventTicketAccepted:
		return s.appendCallerEmail(ctx, nil, ticket.CallerID), "Your ticket has been accepted and is being worked on."

	case domain.EventTicketResolved:
		body := fmt.Sprintf("Your ticket has been resolved.\n\nClose notes: %s", ticket.CloseNotes)
		return s.appendCallerEmail(ctx, nil, ticket.CallerID), body

	case domain.EventTicketReopened:
		return s.appendCallerEmail(ctx, nil, ticket.CallerID), "Your ticket has been reopened."

	case domain.EventTicketAwaitingInfo:
		return s.appendCallerEmail(ctx, nil, ticket.CallerID), "Your ticket is awaiting further information from you."

	case domain.EventTicketCancelled, domain.EventTicketClosed:
		verb := "closed"
		if event.Kind == domain.EventTicketCancelled {
			verb = "cancelled"
		}
		body := fmt.Sprintf("Your ticket has been %s. No further replies will be processed; please open a new ticket if the issue persists.", verb)
		return s.appendCallerEmail(ctx, nil, ticket.CallerID), body

	case domain.EventResolverAssigned:
		if event.AssigneeID == 0 {
			return nil, ""
		}
		emails, err := s.userRepo.EmailsByIDs(ctx, []int64{event.AssigneeID})
		if err != nil {
			s.logger.ErrorContext(ctx, "assignee lookup failed",
				"ticket_id", ticket.ID, "user_id", event.AssigneeID, "error", err)
			return nil, ""
		}
		addr, ok := emails[event.AssigneeID]
		if !ok {
			return nil, ""
		}
		return []string{addr}, "You have been assigned as a resolver on this ticket."
	}

	s.logger.ErrorContext(ctx, "event dropped: unknown kind", "kind", event.Kind)
	return nil, ""
}

func (s *NotificationService) appendCallerEmail(ctx context.Context, recipients []string, callerID int64) []string {
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "caller lookup failed", "user_id", callerID, "error", err)
		return recipients
	}
	return append(recipients, caller.Email)
}

func (s *NotificationService) appendGroupEmail(ctx context.Context, recipients []string, groupID int64) []string {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		s.logger.ErrorContext(ctx, "group lookup failed", "group_id", groupID, "error", err)
		return recipients
	}
	if group.Email == "" {
		return recipients
	}
	return append(recipients, group.Email)
}

// resolverEmails collects the addresses of the ticket's active resolvers,
// primary and secondary alike.
func (s *NotificationService) resolverEmails(ctx context.Context, ticketID int64) []string {
	assignments, err := s.resolverRepo.ListByTicket(ctx, ticketID)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolver lookup failed", "ticket_id", ticketID, "error", err)
		return nil
	}

	var ids []int64
	for _, a := range assignments {
		if a.IsActive() {
			ids = append(ids, a.UserID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	emails, err := s.userRepo.EmailsByIDs(ctx, ids)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolver email lookup failed", "ticket_id", ticketID, "error", err)
		return nil
	}

	recipients := make([]string, 0, len(ids))
	for _, id := range ids {
		if addr, ok := emails[id]; ok {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}
