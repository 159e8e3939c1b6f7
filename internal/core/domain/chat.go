package domain

import (
	"time"

	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
)

// MessageKind discriminates what a chat message body carries.
type MessageKind string

const (
	MessageText     MessageKind = "text"
	MessageImage    MessageKind = "image"
	MessageDocument MessageKind = "document"
)

// IsValid reports whether k is a known message kind.
func (k MessageKind) IsValid() bool {
	switch k {
	case MessageText, MessageImage, MessageDocument:
		return true
	}
	return false
}

// MessageBody is the structured payload of a chat message. Content holds the
// text for text messages and the storage reference for attachments.
type MessageBody struct {
	Kind     MessageKind `json:"type"`
	Content  string      `json:"content"`
	Filename string      `json:"filename,omitempty"`
}

// ChatMessage is one entry on a ticket's timeline. Private messages are
// visible to resolvers only, never to the caller.
type ChatMessage struct {
	ID         int64       `json:"id"`
	TicketID   int64       `json:"ticketId"`
	Body       MessageBody `json:"message"`
	Private    bool        `json:"private"`
	AuthorName string      `json:"authorName"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// SystemAuthor names the synthetic author of lifecycle messages.
const SystemAuthor = "system"

// ChatMessageParams carries the caller-supplied fields for NewChatMessage.
type ChatMessageParams struct {
	TicketID   int64
	Body       MessageBody
	Private    bool
	AuthorName string
}

// NewChatMessage validates params and returns an unsaved message.
func NewChatMessage(params ChatMessageParams, now time.Time) (*ChatMessage, error) {
	if params.TicketID == 0 {
		return nil, apperrors.ErrTicketIDRequired
	}
	if !params.Body.Kind.IsValid() {
		return nil, apperrors.ErrInvalidMessageKind
	}
	if params.Body.Content == "" {
		return nil, apperrors.ErrMessageBodyRequired
	}
	if params.Body.Kind != MessageText && params.Body.Filename == "" {
		return nil, apperrors.ErrAttachmentNameNeeded
	}

	author := params.AuthorName
	if author == "" {
		author = SystemAuthor
	}

	return &ChatMessage{
		TicketID:   params.TicketID,
		Body:       params.Body,
		Private:    params.Private,
		AuthorName: author,
		CreatedAt:  now.UTC(),
	}, nil
}

// SystemMessage builds a public text message authored by the system, used
// for lifecycle entries such as ticket creation.
func SystemMessage(ticketID int64, content string, now time.Time) *ChatMessage {
	return &ChatMessage{
		TicketID:   ticketID,
		Body:       MessageBody{Kind: MessageText, Content: content},
		Private:    false,
		AuthorName: SystemAuthor,
		CreatedAt:  now.UTC(),
	}
}
