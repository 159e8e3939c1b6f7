package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tikit/helpdesk-backend/internal/config"
	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// MailCursor remembers the highest mailbox message ID already processed.
// It lives for the process lifetime; after a restart the zero value plus the
// poll window's overlap bound how much gets re-read.
type MailCursor struct {
	mu   sync.Mutex
	last int64
}

// NewMailCursor returns an empty cursor.
func NewMailCursor() *MailCursor {
	return &MailCursor{}
}

// Last returns the highest processed message ID, zero when nothing has been
// processed yet.
func (c *MailCursor) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Advance moves the cursor forward. Moves backward are ignored.
func (c *MailCursor) Advance(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id > c.last {
		c.last = id
	}
}

// Mailroom turns inbound emails on the shared mailbox into ticket activity:
// replies carrying the subject marker append to the referenced ticket's
// chat, anything else opens a new ticket for the sender.
type Mailroom struct {
	mailbox      ports.Mailbox
	sender       ports.MailSender
	userRepo     ports.UserRepository
	contractRepo ports.ContractRepository
	ticketSvc    ports.TicketService
	chatSvc      ports.ChatService
	cursor       *MailCursor
	clock        ports.Clock
	cfg          config.MailConfig
	fallback     GroupResolver
	logger       *slog.Logger
}

// GroupResolver picks the resolver group a mailed-in ticket lands on.
type GroupResolver func(user *domain.User) int64

// NewMailroom wires the correlation engine. Everything that talks to the
// outside world comes in through a port so tests can pin time and transport.
func NewMailroom(
	mailbox ports.Mailbox,
	sender ports.MailSender,
	userRepo ports.UserRepository,
	contractRepo ports.ContractRepository,
	ticketSvc ports.TicketService,
	chatSvc ports.ChatService,
	cursor *MailCursor,
	clock ports.Clock,
	cfg config.MailConfig,
	logger *slog.Logger,
) *Mailroom {
	return &Mailroom{
		mailbox:      mailbox,
		sender:       sender,
		userRepo:     userRepo,
		contractRepo: contractRepo,
		ticketSvc:    ticketSvc,
		chatSvc:      chatSvc,
		cursor:       cursor,
		clock:        clock,
		cfg:          cfg,
		fallback:     func(user *domain.User) int64 { return user.GroupID },
		logger:       logger.With("component", "mailroom"),
	}
}

// Poll fetches one window of mailbox messages and processes them in ID
// order. The window floor reaches back one interval plus the overlap margin,
// so messages arriving during a poll are seen again next time; the cursor
// keeps the overlap from double-processing them.
func (m *Mailroom) Poll(ctx context.Context) error {
	floor := m.clock.Now().Add(-m.cfg.PollInterval - m.cfg.OverlapMargin)

	messages, err := m.mailbox.FetchSince(ctx, floor)
	if err != nil {
		return fmt.Errorf("fetching mailbox window: %w", err)
	}

	for _, msg := range messages {
		if msg.ID <= m.cursor.Last() {
			continue
		}
		if err := m.process(ctx, msg); err != nil {
			// Leave the cursor where it is: the unprocessed tail of this
			// window comes around again on the next poll.
			return fmt.Errorf("processing message %d: %w", msg.ID, err)
		}
		m.cursor.Advance(msg.ID)
	}

	return nil
}

// process routes one message. A nil return means the message is done with,
// even when that outcome was a bounce or a skip; only infrastructure
// failures propagate and halt the batch.
func (m *Mailroom) process(ctx context.Context, msg *domain.InboundEmail) error {
	addr := msg.SenderAddress()
	if addr == "" {
		m.logger.WarnContext(ctx, "message without sender address skipped", "message_id", msg.ID)
		return nil
	}

	user, err := m.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			m.bounce(ctx, msg, addr)
			return nil
		}
		return err
	}

	if ticketID, ok := msg.TicketRef(); ok {
		return m.appendReply(ctx, msg, user, ticketID)
	}
	return m.openTicket(ctx, msg, user)
}

// appendReply adds a mailed reply to the referenced ticket's chat. A
// vanished ticket is logged and dropped rather than failing the batch.
func (m *Mailroom) appendReply(ctx context.Context, msg *domain.InboundEmail, user *domain.User, ticketID int64) error {
	_, err := m.chatSvc.Append(ctx, ports.AppendMessageParams{
		TicketID:   ticketID,
		Body:       domain.MessageBody{Kind: domain.MessageText, Content: msg.Body},
		Private:    false,
		AuthorName: user.FullName(),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrTicketNotFound) {
			m.logger.WarnContext(ctx, "reply referenced a missing ticket",
				"message_id", msg.ID, "ticket_id", ticketID)
			return nil
		}
		return err
	}

	m.logger.InfoContext(ctx, "mailed reply appended",
		"message_id", msg.ID, "ticket_id", ticketID, "user_id", user.ID)
	return nil
}

// openTicket creates a ticket from an unreferenced message. Mailed-in
// tickets default to the lowest impact and urgency; an operator triages them
// up when accepting.
func (m *Mailroom) openTicket(ctx context.Context, msg *domain.InboundEmail, user *domain.User) error {
	var contractID *int64
	contract, err := m.contractRepo.ActiveForCompany(ctx, user.CompanyID, m.clock.Now())
	switch {
	case err == nil:
		contractID = &contract.ID
	case errors.Is(err, apperrors.ErrNotFound):
		// No current contract; the ticket is created without one.
	default:
		return err
	}

	ticket, err := m.ticketSvc.Create(ctx, ports.CreateTicketParams{
		Title:       msg.Subject,
		Description: msg.Body,
		Impact:      3,
		Urgency:     3,
		Type:        "incident",
		CallerID:    user.ID,
		GroupID:     m.fallback(user),
		ContractID:  contractID,
	})
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "ticket opened from email",
		"message_id", msg.ID, "ticket_id", ticket.ID, "user_id", user.ID)
	return nil
}

// bounce tells an unknown sender their message went nowhere. The send is
// fail-soft; either way the message counts as processed.
func (m *Mailroom) bounce(ctx context.Context, msg *domain.InboundEmail, addr string) {
	m.logger.WarnContext(ctx, "message from unknown sender bounced",
		"message_id", msg.ID, "sender", addr)

	err := m.sender.Send(ctx, ports.OutboundEmail{
		To:      addr,
		Subject: fmt.Sprintf("Re: %s", msg.Subject),
		Body:    "Your message was not processed because this address is not registered with the service desk. Please contact your administrator.",
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "bounce notice delivery failed",
			"message_id", msg.ID, "sender", addr, "error", err)
	}
}
