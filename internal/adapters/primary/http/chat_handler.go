package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	mw "github.com/tikit/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/tikit/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/tikit/helpdesk-backend/internal/auth"
	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// ChatHandler handles HTTP requests for ticket chat timelines. The socket
// relay is the primary chat surface; these endpoints cover clients without
// an open connection.
type ChatHandler struct {
	chatService  ports.ChatService
	userRepo     ports.UserRepository
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(
	chatService ports.ChatService,
	userRepo ports.UserRepository,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{
		chatService:  chatService,
		userRepo:     userRepo,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "chat"),
	}
}

// Router sets up a new chi Router for chat routes.
func (h *ChatHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the chat-specific endpoints.
// These routes are relative to /api/v1/tickets/{ticketID}/chats
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleAppendMessage)
	r.Get("/", h.HandleListMessages)
}

// --- Request DTOs ---

// AppendMessageRequest defines the expected JSON body for appending a message
type AppendMessageRequest struct {
	Message domain.MessageBody `json:"message"`
	Private bool               `json:"isPrivate"`
}

// Validate validates the append message request
func (r *AppendMessageRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("message.content", r.Message.Content)
	v.OneOf("message.type", string(r.Message.Kind), []string{
		string(domain.MessageText),
		string(domain.MessageImage),
		string(domain.MessageDocument),
	})
	v.RequiredIf("message.filename", r.Message.Filename,
		r.Message.Kind != domain.MessageText && r.Message.Kind != "",
		"Required for attachment messages")

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// --- Handlers ---

// HandleAppendMessage handles POST /tickets/{ticketID}/chats
func (h *ChatHandler) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[AppendMessageRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// Callers cannot mark messages private.
	private := req.Private && mw.IsResolver(claims)

	message, err := h.chatService.Append(r.Context(), ports.AppendMessageParams{
		TicketID:   ticketID,
		Body:       req.Message,
		Private:    private,
		AuthorName: user.FullName(),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("chat message appended",
		"ticket_id", ticketID,
		"user_id", claims.UserID,
		"private", private,
	)

	WriteCreated(w, message)
}

// HandleListMessages handles GET /tickets/{ticketID}/chats
func (h *ChatHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	messages, err := h.chatService.History(r.Context(), ticketID, mw.IsResolver(claims))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, messages)
}

// --- Helper methods ---

// getClaims extracts and validates user claims from the request context
func (h *ChatHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}

// parseTicketID extracts and validates the ticket ID from the URL
func (h *ChatHandler) parseTicketID(r *http.Request) (int64, error) {
	ticketIDStr := chi.URLParam(r, "ticketID")
	ticketID, err := strconv.ParseInt(ticketIDStr, 10, 64)
	if err != nil || ticketID <= 0 {
		v := validation.NewValidator()
		v.Custom("ticketID", false, "Invalid ticket ID")
		return 0, v.Errors()
	}
	return ticketID, nil
}
