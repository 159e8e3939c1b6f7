package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	mw "github.com/tikit/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/tikit/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/tikit/helpdesk-backend/internal/auth"
	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

const maxTicketsPerPage = 100

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService   ports.TicketService
	chatHandler     *ChatHandler
	resolverHandler *ResolverHandler
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	chatHandler *ChatHandler,
	resolverHandler *ResolverHandler,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService:   ticketService,
		chatHandler:     chatHandler,
		resolverHandler: resolverHandler,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "ticket"),
	}
}

// Router sets up a new chi Router for all ticket-related routes.
func (h *TicketHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)

	// Routes for a specific ticket
	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Patch("/status", h.HandleUpdateTicketStatus)
		r.Patch("/sla-reason", h.HandleRecordSLAReason)

		if h.chatHandler != nil {
			r.Mount("/chats", h.chatHandler.Router())
		}
		if h.resolverHandler != nil {
			r.Mount("/resolvers", h.resolverHandler.Router())
		}
	})
}

// --- Request/Response DTOs ---

// CreateTicketRequest defines the expected JSON body for creating a ticket
type CreateTicketRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Impact         int    `json:"impact"`
	Urgency        int    `json:"urgency"`
	Type           string `json:"type"`
	CallerID       int64  `json:"callerId"`
	ParentTicketID *int64 `json:"parentTicketId"`
	GroupID        int64  `json:"groupId"`
	ContractID     *int64 `json:"contractId"`
}

// Validate validates the create ticket request
func (r *CreateTicketRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title)
	v.Required("description", r.Description)
	v.Range("impact", r.Impact, 1, 3)
	v.Range("urgency", r.Urgency, 1, 3)
	v.OneOf("type", r.Type, []string{"incident", "request", "change"})
	v.Custom("groupId", r.GroupID > 0, "A resolver group is required")

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateStatusRequest defines the expected JSON body for status updates
type UpdateStatusRequest struct {
	Status     string `json:"status"`
	CloseCode  string `json:"closeCode"`
	CloseNotes string `json:"closeNotes"`
}

// Validate validates the update status request
func (r *UpdateStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status).
		OneOf("status", r.Status, []string{
			string(domain.StateOpen),
			string(domain.StateResolved),
			string(domain.StateCancelled),
			string(domain.StateAwaitingInfo),
		})

	// Close code and notes are mandatory when resolving.
	v.RequiredIf("closeCode", r.CloseCode, r.Status == string(domain.StateResolved), "Required when resolving a ticket")
	v.RequiredIf("closeNotes", r.CloseNotes, r.Status == string(domain.StateResolved), "Required when resolving a ticket")

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// SLAReasonRequest defines the expected JSON body for breach justifications
type SLAReasonRequest struct {
	Reason     string `json:"reason"`
	Acceptance bool   `json:"acceptance"`
}

// Validate validates the SLA reason request
func (r *SLAReasonRequest) Validate() error {
	v := validation.NewValidator()
	v.Required("reason", r.Reason)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// TicketDTO defines the JSON response for tickets.
type TicketDTO struct {
	ID                    int64   `json:"id"`
	Title                 string  `json:"title"`
	Description           string  `json:"description"`
	Impact                int     `json:"impact"`
	Urgency               int     `json:"urgency"`
	Priority              string  `json:"priority"`
	Status                string  `json:"status"`
	Type                  string  `json:"type"`
	CallerID              int64   `json:"callerId"`
	ParentTicketID        *int64  `json:"parentTicketId"`
	GroupID               int64   `json:"groupId"`
	ContractID            *int64  `json:"contractId"`
	CreatedAt             string  `json:"createdAt"`
	UpdatedAt             string  `json:"updatedAt"`
	AcceptedAt            *string `json:"acceptedAt"`
	ResolvedAt            *string `json:"resolvedAt"`
	CloseCode             string  `json:"closeCode,omitempty"`
	CloseNotes            string  `json:"closeNotes,omitempty"`
	SLABreachReason       string  `json:"slaBreachReason,omitempty"`
	AcceptSLABreachReason string  `json:"acceptSlaBreachReason,omitempty"`
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := t.Format(time.RFC3339)
	return &value
}

func toTicketDTO(ticket *domain.Ticket) TicketDTO {
	return TicketDTO{
		ID:                    ticket.ID,
		Title:                 ticket.Title,
		Description:           ticket.Description,
		Impact:                ticket.Impact,
		Urgency:               ticket.Urgency,
		Priority:              string(ticket.Priority()),
		Status:                string(ticket.State),
		Type:                  ticket.Type,
		CallerID:              ticket.CallerID,
		ParentTicketID:        ticket.ParentTicketID,
		GroupID:               ticket.GroupID,
		ContractID:            ticket.ContractID,
		CreatedAt:             ticket.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             ticket.UpdatedAt.Format(time.RFC3339),
		AcceptedAt:            formatOptionalTime(ticket.AcceptedAt),
		ResolvedAt:            formatOptionalTime(ticket.ResolvedAt),
		CloseCode:             ticket.CloseCode,
		CloseNotes:            ticket.CloseNotes,
		SLABreachReason:       ticket.SLABreachReason,
		AcceptSLABreachReason: ticket.AcceptSLABreachReason,
	}
}

func toTicketDTOs(tickets []*domain.Ticket) []TicketDTO {
	response := make([]TicketDTO, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, toTicketDTO(ticket))
	}
	return response
}

// --- Handlers ---

// HandleListTickets handles GET /tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	// Parse pagination
	pagination := validation.ParsePagination(r, maxTicketsPerPage)

	// Parse optional filters
	state := validation.ParseStringQueryParam(r, "status")
	ticketType := validation.ParseStringQueryParam(r, "type")

	v := validation.NewValidator()

	var groupID *int64
	if groupIDStr := r.URL.Query().Get("groupId"); groupIDStr != "" {
		parsed, err := strconv.ParseInt(groupIDStr, 10, 64)
		if err != nil || parsed <= 0 {
			v.Custom("groupId", false, "Must be a positive integer")
		} else {
			groupID = &parsed
		}
	}

	if state != nil && !domain.TicketState(*state).IsValid() {
		v.Custom("status", false, "Unknown ticket status")
	}

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	params := ports.ListTicketsParams{
		Limit:   pagination.Limit + 1,
		Offset:  pagination.Offset,
		State:   state,
		Type:    ticketType,
		GroupID: groupID,
	}

	// Plain callers only ever see their own tickets.
	if !mw.IsResolver(claims) {
		params.CallerID = &claims.UserID
	} else if callerIDStr := r.URL.Query().Get("callerId"); callerIDStr != "" {
		parsed, err := strconv.ParseInt(callerIDStr, 10, 64)
		if err == nil && parsed > 0 {
			params.CallerID = &parsed
		}
	}

	tickets, err := h.ticketService.List(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// Use simple pagination (without total count for performance)
	WritePaginatedSimple(w, toTicketDTOs(tickets), pagination.Limit, pagination.Offset)
}

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	callerID := req.CallerID
	// Only resolvers may open tickets on someone else's behalf.
	if callerID == 0 || !mw.IsResolver(claims) {
		callerID = claims.UserID
	}

	params := ports.CreateTicketParams{
		Title:          req.Title,
		Description:    req.Description,
		Impact:         req.Impact,
		Urgency:        req.Urgency,
		Type:           req.Type,
		CallerID:       callerID,
		ParentTicketID: req.ParentTicketID,
		GroupID:        req.GroupID,
		ContractID:     req.ContractID,
	}

	ticket, err := h.ticketService.Create(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, toTicketDTO(ticket))
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.getClaims(w, r); !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.Get(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleUpdateTicketStatus handles PATCH /tickets/{ticketID}/status
func (h *TicketHandler) HandleUpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.TransitionParams{
		TicketID:   ticketID,
		Target:     domain.TicketState(req.Status),
		CloseCode:  req.CloseCode,
		CloseNotes: req.CloseNotes,
	}

	ticket, err := h.ticketService.Transition(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket status updated",
		"ticket_id", ticketID,
		"new_status", req.Status,
		"user_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleRecordSLAReason handles PATCH /tickets/{ticketID}/sla-reason
func (h *TicketHandler) HandleRecordSLAReason(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[SLAReasonRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.SLAReasonParams{
		TicketID:   ticketID,
		Reason:     req.Reason,
		Acceptance: req.Acceptance,
	}

	ticket, err := h.ticketService.RecordSLAReason(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("sla breach reason recorded",
		"ticket_id", ticketID,
		"acceptance", req.Acceptance,
		"user_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// --- Helper methods ---

// getClaims extracts and validates user claims from the request context
func (h *TicketHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
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
func (h *TicketHandler) parseTicketID(r *http.Request) (int64, error) {
	ticketIDStr := chi.URLParam(r, "ticketID")
	ticketID, err := strconv.ParseInt(ticketIDStr, 10, 64)
	if err != nil || ticketID <= 0 {
		v := validation.NewValidator()
		v.Custom("ticketID", false, "Invalid ticket ID")
		return 0, v.Errors()
	}
	return ticketID, nil
}
