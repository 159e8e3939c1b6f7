package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
)

func TestChatRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository(testPool)

	companyID := seedCompany(t)
	groupID := seedGroup(t, "")
	caller := seedUser(t, companyID, groupID, domain.RoleUser)
	ticket := seedTicket(t, caller.ID, groupID)

	base := time.Now().UTC().Truncate(time.Microsecond)
	appendMsg := func(content string, private bool, at time.Time) *domain.ChatMessage {
		t.Helper()
		msg, err := domain.NewChatMessage(domain.ChatMessageParams{
			TicketID:   ticket.ID,
			Body:       domain.MessageBody{Kind: domain.MessageText, Content: content},
			Private:    private,
			AuthorName: caller.FullName(),
		}, at)
		require.NoError(t, err)
		saved, err := repo.Create(ctx, msg)
		require.NoError(t, err)
		return saved
	}

	appendMsg("first", false, base)
	appendMsg("internal note", true, base.Add(time.Second))
	appendMsg("second", false, base.Add(2*time.Second))

	t.Run("resolver view includes private messages, newest first", func(t *testing.T) {
		messages, err := repo.ListByTicket(ctx, ticket.ID, true)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "second", messages[0].Body.Content)
		assert.Equal(t, "internal note", messages[1].Body.Content)
		assert.Equal(t, "first", messages[2].Body.Content)
	})

	t.Run("caller view filters private messages at the query", func(t *testing.T) {
		messages, err := repo.ListByTicket(ctx, ticket.ID, false)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		for _, m := range messages {
			assert.False(t, m.Private)
		}
	})
}

func TestChatRepository_AttachmentRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository(testPool)

	companyID := seedCompany(t)
	groupID := seedGroup(t, "")
	caller := seedUser(t, companyID, groupID, domain.RoleUser)
	ticket := seedTicket(t, caller.ID, groupID)

	msg, err := domain.NewChatMessage(domain.ChatMessageParams{
		TicketID:   ticket.ID,
		Body:       domain.MessageBody{Kind: domain.MessageImage, Content: "blob://abc123", Filename: "screenshot.png"},
		AuthorName: caller.FullName(),
	}, time.Now().UTC())
	require.NoError(t, err)

	saved, err := repo.Create(ctx, msg)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	messages, err := repo.ListByTicket(ctx, ticket.ID, false)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, domain.MessageImage, messages[0].Body.Kind)
	assert.Equal(t, "blob://abc123", messages[0].Body.Content)
	assert.Equal(t, "screenshot.png", messages[0].Body.Filename)
}
