package postgres

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
)

// seq makes fixture emails unique across tests sharing the container.
var seq atomic.Int64

func nextSeq() int64 {
	return seq.Add(1)
}

func seedCompany(t *testing.T) int64 {
	t.Helper()
	var id int64
	err := testPool.QueryRow(context.Background(),
		`INSERT INTO companies (name) VALUES ($1) RETURNING id`,
		fmt.Sprintf("Company %d", nextSeq()),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedGroup(t *testing.T, email string) int64 {
	t.Helper()
	var id int64
	err := testPool.QueryRow(context.Background(),
		`INSERT INTO groups (group_name, email) VALUES ($1, $2) RETURNING id`,
		fmt.Sprintf("Group %d", nextSeq()), email,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedUser(t *testing.T, companyID, groupID int64, role string) *domain.User {
	t.Helper()
	n := nextSeq()
	user := &domain.User{
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", n),
		Email:     fmt.Sprintf("user%d@example.com", n),
		Role:      role,
		CompanyID: companyID,
		GroupID:   groupID,
	}
	err := testPool.QueryRow(context.Background(),
		`INSERT INTO users (first_name, last_name, email, role, company_id, group_id, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, 'x') RETURNING id`,
		user.FirstName, user.LastName, user.Email, user.Role, user.CompanyID, user.GroupID,
	).Scan(&user.ID)
	require.NoError(t, err)
	return user
}

// seedTicket builds a validated domain ticket and persists it through the
// repository under test, so fixtures and production code stay in lockstep.
func seedTicket(t *testing.T, callerID, groupID int64) *domain.Ticket {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:       fmt.Sprintf("Fixture ticket %d", nextSeq()),
		Description: "created by a test",
		Impact:      2,
		Urgency:     2,
		Type:        "incident",
		CallerID:    callerID,
		GroupID:     groupID,
	}, now)
	require.NoError(t, err)

	created, err := NewTicketRepository(testPool).Create(context.Background(), ticket)
	require.NoError(t, err)
	return created
}
