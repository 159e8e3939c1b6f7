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

// MaintenanceRepository is the secondary adapter for maintenance windows.
type MaintenanceRepository struct {
	pool *pgxpool.Pool
}

var _ ports.MaintenanceRepository = (*MaintenanceRepository)(nil)

// NewMaintenanceRepository creates a new maintenance window repository.
func NewMaintenanceRepository(pool *pgxpool.Pool) *MaintenanceRepository {
	return &MaintenanceRepository{pool: pool}
}

const maintenanceColumns = `id, title, description, from_at, to_at, note, ticket_id`

func scanMaintenance(row pgx.Row) (*domain.MaintenanceWindow, error) {
	var (
		w        domain.MaintenanceWindow
		note     pgtype.Text
		ticketID pgtype.Int8
	)
	if err := row.Scan(&w.ID, &w.Title, &w.Description, &w.From, &w.To, &note, &ticketID); err != nil {
		return nil, err
	}
	w.Note = utils.FromString(note)
	if ticketID.Valid {
		w.TicketID = &ticketID.Int64
	}
	return &w, nil
}

// Insert persists a new maintenance window.
func (r *MaintenanceRepository) Insert(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error) {
	q := GetDBTX(ctx, r.pool)

	row := q.QueryRow(ctx, `
		INSERT INTO maintenance_windows (title, description, from_at, to_at, note, ticket_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+maintenanceColumns,
		window.Title, window.Description, window.From, window.To,
		utils.ToString(window.Note), toNullInt8(window.TicketID),
	)
	return scanMaintenance(row)
}

// Update rewrites an existing maintenance window.
func (r *MaintenanceRepository) Update(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error) {
	q := GetDBTX(ctx, r.pool)

	row := q.QueryRow(ctx, `
		UPDATE maintenance_windows
		SET title = $2, description = $3, from_at = $4, to_at = $5, note = $6, ticket_id = $7
		WHERE id = $1
		RETURNING `+maintenanceColumns,
		window.ID, window.Title, window.Description, window.From, window.To,
		utils.ToString(window.Note), toNullInt8(window.TicketID),
	)
	updated, err := scanMaintenance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// ListUpcoming returns windows that have not ended yet, soonest first.
func (r *MaintenanceRepository) ListUpcoming(ctx context.Context, now time.Time) ([]*domain.MaintenanceWindow, error) {
	q := GetDBTX(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT `+maintenanceColumns+`
		FROM maintenance_windows
		WHERE to_at >= $1
		ORDER BY from_at`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []*domain.MaintenanceWindow
	for rows.Next() {
		w, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}
