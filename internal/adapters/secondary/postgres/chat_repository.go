package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// ChatRepository is the secondary adapter for chat message persistence.
// The structured message body lives in a JSONB column, so attachment
// metadata travels with the message without schema churn.
type ChatRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ChatRepository = (*ChatRepository)(nil)

// NewChatRepository creates a new chat message repository.
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

func scanChatMessage(row pgx.Row) (*domain.ChatMessage, error) {
	var (
		m    domain.ChatMessage
		body []byte
	)
	if err := row.Scan(&m.ID, &m.TicketID, &body, &m.Private, &m.AuthorName, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &m.Body); err != nil {
		return nil, fmt.Errorf("decoding message body: %w", err)
	}
	return &m, nil
}

// Create persists a new chat message.
func (r *ChatRepository) Create(ctx context.Context, message *domain.ChatMessage) (*domain.ChatMessage, error) {
	q := GetDBTX(ctx, r.pool)

	body, err := json.Marshal(message.Body)
	if err != nil {
		return nil, fmt.Errorf("encoding message body: %w", err)
	}

	row := q.QueryRow(ctx, `
		INSERT INTO chat_messages (ticket_id, message, private, author_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, ticket_id, message, private, author_name, created_at`,
		message.TicketID, body, message.Private, message.AuthorName, message.CreatedAt,
	)

	return scanChatMessage(row)
}

// ListByTicket returns the ticket's messages newest first. Private messages
// are filtered out at the query level unless the viewer may see them.
func (r *ChatRepository) ListByTicket(ctx context.Context, ticketID int64, includePrivate bool) ([]*domain.ChatMessage, error) {
	q := GetDBTX(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT id, ticket_id, message, private, author_name, created_at
		FROM chat_messages
		WHERE ticket_id = $1 AND ($2 OR NOT private)
		ORDER BY created_at DESC, id DESC`,
		ticketID, includePrivate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
