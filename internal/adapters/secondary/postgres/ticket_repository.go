package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
	"github.com/tikit/helpdesk-backend/internal/core/utils"
)

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

const ticketColumns = `id, title, description, impact, urgency, state, type,
	caller_id, parent_ticket_id, group_id, contract_id,
	created_at, updated_at, accepted_at, resolved_at,
	close_code, close_notes, sla_breach_reason, accept_sla_breach_reason`

// scanTicket maps one row onto a domain ticket.
func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t              domain.Ticket
		state          string
		parentTicketID pgtype.Int8
		contractID     pgtype.Int8
		acceptedAt     pgtype.Timestamptz
		resolvedAt     pgtype.Timestamptz
		closeCode      pgtype.Text
		closeNotes     pgtype.Text
		slaReason      pgtype.Text
		acceptReason   pgtype.Text
	)

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Impact, &t.Urgency, &state, &t.Type,
		&t.CallerID, &parentTicketID, &t.GroupID, &contractID,
		&t.CreatedAt, &t.UpdatedAt, &acceptedAt, &resolvedAt,
		&closeCode, &closeNotes, &slaReason, &acceptReason,
	)
	if err != nil {
		return nil, err
	}

	t.State = domain.TicketState(state)
	if parentTicketID.Valid {
		t.ParentTicketID = &parentTicketID.Int64
	}
	if contractID.Valid {
		t.ContractID = &contractID.Int64
	}
	if acceptedAt.Valid {
		t.AcceptedAt = &acceptedAt.Time
	}
	if resolvedAt.Valid {
		t.ResolvedAt = &resolvedAt.Time
	}
	t.CloseCode = utils.FromString(closeCode)
	t.CloseNotes = utils.FromString(closeNotes)
	t.SLABreachReason = utils.FromString(slaReason)
	t.AcceptSLABreachReason = utils.FromString(acceptReason)

	return &t, nil
}

// Create persists a new ticket entity.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	q := GetDBTX(ctx, r.pool)

	row := q.QueryRow(ctx, `
		INSERT INTO tickets (
			title, description, impact, urgency, state, type,
			caller_id, parent_ticket_id, group_id, contract_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+ticketColumns,
		ticket.Title, ticket.Description, ticket.Impact, ticket.Urgency,
		string(ticket.State), ticket.Type,
		ticket.CallerID, toNullInt8(ticket.ParentTicketID), ticket.GroupID,
		toNullInt8(ticket.ContractID),
		ticket.CreatedAt, ticket.UpdatedAt,
	)

	return scanTicket(row)
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	q := GetDBTX(ctx, r.pool)

	row := q.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// Update persists changes to an existing ticket entity.
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	q := GetDBTX(ctx, r.pool)

	row := q.QueryRow(ctx, `
		UPDATE tickets SET
			state = $2,
			updated_at = $3,
			accepted_at = $4,
			resolved_at = $5,
			close_code = $6,
			close_notes = $7,
			sla_breach_reason = $8,
			accept_sla_breach_reason = $9
		WHERE id = $1
		RETURNING `+ticketColumns,
		ticket.ID,
		string(ticket.State),
		ticket.UpdatedAt,
		toNullTime(ticket.AcceptedAt),
		toNullTime(ticket.ResolvedAt),
		utils.ToString(ticket.CloseCode),
		utils.ToString(ticket.CloseNotes),
		utils.ToString(ticket.SLABreachReason),
		utils.ToString(ticket.AcceptSLABreachReason),
	)

	updated, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return updated, nil
}

// ListPaginated retrieves tickets with pagination and optional filters.
func (r *TicketRepository) ListPaginated(ctx context.Context, params ports.ListTicketsRepoParams) ([]*domain.Ticket, error) {
	q := GetDBTX(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE ($3::text IS NULL OR state = $3)
		  AND ($4::text IS NULL OR type = $4)
		  AND ($5::bigint IS NULL OR caller_id = $5)
		  AND ($6::bigint IS NULL OR group_id = $6)
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		params.Limit, params.Offset,
		params.State, params.Type, params.CallerID, params.GroupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// ListResolvedBefore returns resolved tickets whose resolution timestamp is
// older than the cutoff. Feeds the auto-close sweep.
func (r *TicketRepository) ListResolvedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Ticket, error) {
	q := GetDBTX(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE state = 'resolved' AND resolved_at IS NOT NULL AND resolved_at < $1
		ORDER BY resolved_at`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// toNullInt8 converts an optional int64 to its pgtype representation.
func toNullInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

// toNullTime converts an optional timestamp to its pgtype representation.
func toNullTime(v *time.Time) pgtype.Timestamptz {
	if v == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *v, Valid: true}
}
