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

func TestMaintenanceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMaintenanceRepository(testPool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("insert and list upcoming", func(t *testing.T) {
		upcoming, err := repo.Insert(ctx, &domain.MaintenanceWindow{
			Title: "Core switch firmware",
			From:  now.Add(24 * time.Hour),
			To:    now.Add(26 * time.Hour),
			Note:  "expect short outages",
		})
		require.NoError(t, err)
		require.NotZero(t, upcoming.ID)

		past, err := repo.Insert(ctx, &domain.MaintenanceWindow{
			Title: "Last month's patching",
			From:  now.Add(-48 * time.Hour),
			To:    now.Add(-46 * time.Hour),
		})
		require.NoError(t, err)

		windows, err := repo.ListUpcoming(ctx, now)
		require.NoError(t, err)

		ids := make(map[int64]bool, len(windows))
		for _, w := range windows {
			ids[w.ID] = true
		}
		assert.True(t, ids[upcoming.ID])
		assert.False(t, ids[past.ID], "an ended window is no longer announced")
	})

	t.Run("ties a window to a ticket", func(t *testing.T) {
		companyID := seedCompany(t)
		groupID := seedGroup(t, "")
		caller := seedUser(t, companyID, groupID, domain.RoleUser)
		ticket := seedTicket(t, caller.ID, groupID)

		created, err := repo.Insert(ctx, &domain.MaintenanceWindow{
			Title:    "Change rollout",
			From:     now.Add(24 * time.Hour),
			To:       now.Add(25 * time.Hour),
			TicketID: &ticket.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, created.TicketID)
		assert.Equal(t, ticket.ID, *created.TicketID)
	})

	t.Run("update rewrites the window", func(t *testing.T) {
		created, err := repo.Insert(ctx, &domain.MaintenanceWindow{
			Title: "DB failover drill",
			From:  now.Add(24 * time.Hour),
			To:    now.Add(25 * time.Hour),
		})
		require.NoError(t, err)

		created.Title = "DB failover drill (rescheduled)"
		created.From = now.Add(48 * time.Hour)
		created.To = now.Add(49 * time.Hour)

		updated, err := repo.Update(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, "DB failover drill (rescheduled)", updated.Title)
		assert.True(t, updated.From.Equal(now.Add(48*time.Hour)))
	})

	t.Run("updating a missing window", func(t *testing.T) {
		_, err := repo.Update(ctx, &domain.MaintenanceWindow{
			ID:    999999999,
			Title: "ghost",
			From:  now,
			To:    now.Add(time.Hour),
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
