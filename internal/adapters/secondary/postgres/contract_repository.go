package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// ContractRepository is the secondary adapter for support contracts.
type ContractRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ContractRepository = (*ContractRepository)(nil)

// NewContractRepository creates a new contract repository.
func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{pool: pool}
}

// ActiveForCompany returns the company's contract covering now. With
// overlapping contracts the most recently started one wins.
func (r *ContractRepository) ActiveForCompany(ctx context.Context, companyID int64, now time.Time) (*domain.Contract, error) {
	q := GetDBTX(ctx, r.pool)

	var c domain.Contract
	var state string
	err := q.QueryRow(ctx, `
		SELECT id, company_id, short_description, description, start_date, end_date, state
		FROM contracts
		WHERE company_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC
		LIMIT 1`,
		companyID, now,
	).Scan(&c.ID, &c.CompanyID, &c.ShortDescription, &c.Description, &c.StartDate, &c.EndDate, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	c.State = domain.ContractState(state)
	return &c, nil
}

// RefreshStates reconciles the stored state column against each contract's
// date range and reports how many rows changed.
func (r *ContractRepository) RefreshStates(ctx context.Context, now time.Time) (int64, error) {
	q := GetDBTX(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE contracts SET state = CASE
			WHEN start_date > $1 THEN 'pending'
			WHEN end_date < $1 THEN 'expired'
			ELSE 'active'
		END
		WHERE state IS DISTINCT FROM CASE
			WHEN start_date > $1 THEN 'pending'
			WHEN end_date < $1 THEN 'expired'
			ELSE 'active'
		END`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
