package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
)

func seedContract(t *testing.T, companyID int64, start, end time.Time, state string) int64 {
	t.Helper()
	var id int64
	err := testPool.QueryRow(context.Background(),
		`INSERT INTO contracts (company_id, start_date, end_date, state)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		companyID, start, end, state,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestContractRepository_ActiveForCompany(t *testing.T) {
	ctx := context.Background()
	repo := NewContractRepository(testPool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("returns the covering contract", func(t *testing.T) {
		companyID := seedCompany(t)
		id := seedContract(t, companyID, now.Add(-30*24*time.Hour), now.Add(30*24*time.Hour), "active")

		contract, err := repo.ActiveForCompany(ctx, companyID, now)
		require.NoError(t, err)
		assert.Equal(t, id, contract.ID)
	})

	t.Run("overlapping contracts pick the most recently started", func(t *testing.T) {
		companyID := seedCompany(t)
		seedContract(t, companyID, now.Add(-60*24*time.Hour), now.Add(30*24*time.Hour), "active")
		renewal := seedContract(t, companyID, now.Add(-10*24*time.Hour), now.Add(355*24*time.Hour), "active")

		contract, err := repo.ActiveForCompany(ctx, companyID, now)
		require.NoError(t, err)
		assert.Equal(t, renewal, contract.ID)
	})

	t.Run("expired coverage is not found", func(t *testing.T) {
		companyID := seedCompany(t)
		seedContract(t, companyID, now.Add(-60*24*time.Hour), now.Add(-30*24*time.Hour), "expired")

		_, err := repo.ActiveForCompany(ctx, companyID, now)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestContractRepository_RefreshStates(t *testing.T) {
	ctx := context.Background()
	repo := NewContractRepository(testPool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	companyID := seedCompany(t)
	// Stored states deliberately drifted from what the dates say.
	expired := seedContract(t, companyID, now.Add(-60*24*time.Hour), now.Add(-30*24*time.Hour), "active")
	active := seedContract(t, companyID, now.Add(-10*24*time.Hour), now.Add(30*24*time.Hour), "pending")
	pending := seedContract(t, companyID, now.Add(30*24*time.Hour), now.Add(60*24*time.Hour), "active")
	correct := seedContract(t, companyID, now.Add(-5*24*time.Hour), now.Add(5*24*time.Hour), "active")

	changed, err := repo.RefreshStates(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, changed, int64(3), "the three drifted rows must be reconciled")

	wantStates := map[int64]domain.ContractState{
		expired: domain.ContractExpired,
		active:  domain.ContractActive,
		pending: domain.ContractPending,
		correct: domain.ContractActive,
	}
	for id, want := range wantStates {
		var state string
		require.NoError(t, testPool.QueryRow(ctx, `SELECT state FROM contracts WHERE id = $1`, id).Scan(&state))
		assert.Equal(t, want, domain.ContractState(state))
	}
}
