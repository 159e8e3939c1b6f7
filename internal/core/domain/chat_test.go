package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
)

func TestNewChatMessage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("text message", func(t *testing.T) {
		msg, err := NewChatMessage(ChatMessageParams{
			TicketID:   42,
			Body:       MessageBody{Kind: MessageText, Content: "hello"},
			AuthorName: "Alice Smith",
		}, now)
		require.NoError(t, err)

		assert.Equal(t, int64(42), msg.TicketID)
		assert.Equal(t, "Alice Smith", msg.AuthorName)
		assert.Equal(t, now, msg.CreatedAt)
		assert.False(t, msg.Private)
	})

	t.Run("defaults the author to system", func(t *testing.T) {
		msg, err := NewChatMessage(ChatMessageParams{
			TicketID: 42,
			Body:     MessageBody{Kind: MessageText, Content: "hello"},
		}, now)
		require.NoError(t, err)
		assert.Equal(t, SystemAuthor, msg.AuthorName)
	})

	t.Run("attachments need a filename", func(t *testing.T) {
		_, err := NewChatMessage(ChatMessageParams{
			TicketID: 42,
			Body:     MessageBody{Kind: MessageImage, Content: "blob://abc"},
		}, now)
		assert.ErrorIs(t, err, apperrors.ErrAttachmentNameNeeded)

		msg, err := NewChatMessage(ChatMessageParams{
			TicketID: 42,
			Body:     MessageBody{Kind: MessageImage, Content: "blob://abc", Filename: "screen.png"},
		}, now)
		require.NoError(t, err)
		assert.Equal(t, "screen.png", msg.Body.Filename)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewChatMessage(ChatMessageParams{Body: MessageBody{Kind: MessageText, Content: "x"}}, now)
		assert.ErrorIs(t, err, apperrors.ErrTicketIDRequired)

		_, err = NewChatMessage(ChatMessageParams{TicketID: 1, Body: MessageBody{Kind: "sticker", Content: "x"}}, now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidMessageKind)

		_, err = NewChatMessage(ChatMessageParams{TicketID: 1, Body: MessageBody{Kind: MessageText}}, now)
		assert.ErrorIs(t, err, apperrors.ErrMessageBodyRequired)
	})
}
