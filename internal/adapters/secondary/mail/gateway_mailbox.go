package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/tikit/helpdesk-backend/internal/config"
	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// GatewayMailbox reads the shared inbound mailbox through the mail
// gateway's JSON API. It implements ports.Mailbox.
type GatewayMailbox struct {
	cfg    config.MailConfig
	client *http.Client
}

var _ ports.Mailbox = (*GatewayMailbox)(nil)

// NewGatewayMailbox creates a new mailbox client.
func NewGatewayMailbox(cfg config.MailConfig) *GatewayMailbox {
	return &GatewayMailbox{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// gatewayMessage is the gateway's wire shape for one message.
type gatewayMessage struct {
	ID         int64     `json:"id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// FetchSince returns messages received at or after the floor, ordered by ID.
func (m *GatewayMailbox) FetchSince(ctx context.Context, floor time.Time) ([]*domain.InboundEmail, error) {
	endpoint, err := url.Parse(m.cfg.GatewayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway url: %w", err)
	}
	endpoint = endpoint.JoinPath("messages")

	query := endpoint.Query()
	query.Set("since", floor.UTC().Format(time.RFC3339))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if m.cfg.GatewayToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.cfg.GatewayToken)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mail gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mail gateway returned status %d", resp.StatusCode)
	}

	var payload struct {
		Messages []gatewayMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding mail gateway response: %w", err)
	}

	emails := make([]*domain.InboundEmail, 0, len(payload.Messages))
	for _, msg := range payload.Messages {
		emails = append(emails, &domain.InboundEmail{
			ID:         msg.ID,
			From:       msg.From,
			Subject:    msg.Subject,
			Body:       msg.Body,
			ReceivedAt: msg.ReceivedAt,
		})
	}

	// The poller depends on ID order; don't trust the gateway to sort.
	sort.Slice(emails, func(i, j int) bool { return emails[i].ID < emails[j].ID })

	return emails, nil
}
