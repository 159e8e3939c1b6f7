package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// ResolverRepository is the secondary adapter for resolver assignments.
// A partial unique index on (ticket_id) WHERE primary_resolver backs the
// one-primary-per-ticket invariant at the storage level.
type ResolverRepository struct {
	pool *pgxpool.Pool
	tm   *TransactionManager
}

var _ ports.ResolverRepository = (*ResolverRepository)(nil)

// NewResolverRepository creates a new resolver assignment repository.
func NewResolverRepository(pool *pgxpool.Pool) *ResolverRepository {
	return &ResolverRepository{
		pool: pool,
		tm:   NewTransactionManager(pool),
	}
}

const assignmentColumns = `user_id, ticket_id, time_worked, description, primary_resolver`

func scanAssignment(row pgx.Row) (*domain.ResolverAssignment, error) {
	var (
		a       domain.ResolverAssignment
		primary pgtype.Bool
	)
	if err := row.Scan(&a.UserID, &a.TicketID, &a.TimeWorked, &a.Description, &primary); err != nil {
		return nil, err
	}
	if primary.Valid {
		a.Primary = &primary.Bool
	}
	return &a, nil
}

// ListByTicket returns every assignment row for the ticket.
func (r *ResolverRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.ResolverAssignment, error) {
	q := GetDBTX(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM resolver_assignments
		WHERE ticket_id = $1
		ORDER BY user_id`,
		ticketID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*domain.ResolverAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// Get retrieves one assignment row.
func (r *ResolverRepository) Get(ctx context.Context, ticketID, userID int64) (*domain.ResolverAssignment, error) {
	q := GetDBTX(ctx, r.pool)

	row := q.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM resolver_assignments
		WHERE ticket_id = $1 AND user_id = $2`,
		ticketID, userID,
	)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResolverNotFound
		}
		return nil, err
	}
	return a, nil
}

// SwapPrimary moves the primary slot from the old holder to the new one in
// a single transaction. The old holder's row stays behind with the flag
// nulled so its logged time is untouched.
func (r *ResolverRepository) SwapPrimary(ctx context.Context, ticketID, oldUserID, newUserID int64, makePrimary bool) error {
	return r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		q := GetDBTX(ctx, r.pool)

		if oldUserID != 0 {
			_, err := q.Exec(ctx, `
				UPDATE resolver_assignments
				SET primary_resolver = NULL
				WHERE ticket_id = $1 AND user_id = $2 AND primary_resolver`,
				ticketID, oldUserID,
			)
			if err != nil {
				return err
			}
		}

		_, err := q.Exec(ctx, `
			INSERT INTO resolver_assignments (ticket_id, user_id, time_worked, description, primary_resolver)
			VALUES ($1, $2, 0, '', $3)
			ON CONFLICT (ticket_id, user_id)
			DO UPDATE SET primary_resolver = EXCLUDED.primary_resolver`,
			ticketID, newUserID, makePrimary,
		)
		return err
	})
}

// Upsert creates the assignment row or updates its primary flag, keeping
// any existing logged time.
func (r *ResolverRepository) Upsert(ctx context.Context, assignment *domain.ResolverAssignment) error {
	q := GetDBTX(ctx, r.pool)

	var primary pgtype.Bool
	if assignment.Primary != nil {
		primary = pgtype.Bool{Bool: *assignment.Primary, Valid: true}
	}

	_, err := q.Exec(ctx, `
		INSERT INTO resolver_assignments (ticket_id, user_id, time_worked, description, primary_resolver)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticket_id, user_id)
		DO UPDATE SET primary_resolver = EXCLUDED.primary_resolver`,
		assignment.TicketID, assignment.UserID, assignment.TimeWorked,
		assignment.Description, primary,
	)
	return err
}

// ClearPrimary nulls the flag on the row, demoting the user to a
// time-tracking entry without deleting anything.
func (r *ResolverRepository) ClearPrimary(ctx context.Context, ticketID, userID int64) error {
	q := GetDBTX(ctx, r.pool)

	_, err := q.Exec(ctx, `
		UPDATE resolver_assignments
		SET primary_resolver = NULL
		WHERE ticket_id = $1 AND user_id = $2`,
		ticketID, userID,
	)
	return err
}

// AddTime accumulates minutes worked onto the assignment row, creating a
// time-only row when none exists yet.
func (r *ResolverRepository) AddTime(ctx context.Context, ticketID, userID int64, minutes int, description string) error {
	q := GetDBTX(ctx, r.pool)

	_, err := q.Exec(ctx, `
		INSERT INTO resolver_assignments (ticket_id, user_id, time_worked, description, primary_resolver)
		VALUES ($1, $2, $3, $4, NULL)
		ON CONFLICT (ticket_id, user_id)
		DO UPDATE SET
			time_worked = resolver_assignments.time_worked + EXCLUDED.time_worked,
			description = EXCLUDED.description`,
		ticketID, userID, minutes, description,
	)
	return err
}
