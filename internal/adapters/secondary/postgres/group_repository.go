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
	"github.com/tikit/helpdesk-backend/internal/core/utils"
)

// GroupRepository is the secondary adapter for resolver groups.
type GroupRepository struct {
	pool *pgxpool.Pool
}

var _ ports.GroupRepository = (*GroupRepository)(nil)

// NewGroupRepository creates a new group repository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// GetByID retrieves a group by primary key.
func (r *GroupRepository) GetByID(ctx context.Context, groupID int64) (*domain.Group, error) {
	q := GetDBTX(ctx, r.pool)

	var (
		g           domain.Group
		description pgtype.Text
		email       pgtype.Text
	)
	err := q.QueryRow(ctx, `
		SELECT id, group_name, description, email
		FROM groups WHERE id = $1`,
		groupID,
	).Scan(&g.ID, &g.Name, &description, &email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	g.Description = utils.FromString(description)
	g.Email = utils.FromString(email)
	return &g, nil
}
