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

// ResolverHandler handles HTTP requests for resolver assignments.
type ResolverHandler struct {
	resolverService ports.ResolverService
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

// NewResolverHandler creates a new ResolverHandler.
func NewResolverHandler(
	resolverService ports.ResolverService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ResolverHandler {
	return &ResolverHandler{
		resolverService: resolverService,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "resolver"),
	}
}

// Router sets up a new chi Router for resolver routes.
func (h *ResolverHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the resolver-specific endpoints.
// These routes are relative to /api/v1/tickets/{ticketID}/resolvers
func (h *ResolverHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListResolvers)

	// Mutations are resolver-only surface.
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireResolver)
		r.Put("/primary", h.HandleSetPrimary)
		r.Put("/secondary", h.HandleSyncSecondary)
		r.Post("/time", h.HandleLogTime)
	})
}

// --- Request/Response DTOs ---

// SetPrimaryRequest defines the expected JSON body for the primary swap
type SetPrimaryRequest struct {
	OldUserID   int64 `json:"oldUserId"`
	NewUserID   int64 `json:"newUserId"`
	MakePrimary bool  `json:"makePrimary"`
}

// Validate validates the set primary request
func (r *SetPrimaryRequest) Validate() error {
	v := validation.NewValidator()

	v.Custom("newUserId", r.NewUserID > 0, "A new primary resolver is required")
	v.Custom("oldUserId", r.OldUserID >= 0, "Must be zero or a valid user ID")

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// SyncSecondaryRequest defines the expected JSON body for the secondary set
type SyncSecondaryRequest struct {
	UserIDs []int64 `json:"userIds"`
}

// Validate validates the sync secondary request
func (r *SyncSecondaryRequest) Validate() error {
	v := validation.NewValidator()

	for _, id := range r.UserIDs {
		if id <= 0 {
			v.Custom("userIds", false, "All user IDs must be positive integers")
			break
		}
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// LogTimeRequest defines the expected JSON body for logging time worked
type LogTimeRequest struct {
	UserID      int64  `json:"userId"`
	Minutes     int    `json:"minutes"`
	Description string `json:"description"`
}

// Validate validates the log time request
func (r *LogTimeRequest) Validate() error {
	v := validation.NewValidator()

	v.Custom("userId", r.UserID > 0, "A resolver user ID is required")
	v.Custom("minutes", r.Minutes > 0, "Minutes must be a positive integer")

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// ResolverDTO defines the JSON response for one resolver assignment.
type ResolverDTO struct {
	UserID      int64  `json:"userId"`
	TicketID    int64  `json:"ticketId"`
	Primary     *bool  `json:"primary"`
	TimeWorked  int    `json:"timeWorked"`
	Description string `json:"description,omitempty"`
}

func toResolverDTO(assignment *domain.ResolverAssignment) ResolverDTO {
	return ResolverDTO{
		UserID:      assignment.UserID,
		TicketID:    assignment.TicketID,
		Primary:     assignment.Primary,
		TimeWorked:  assignment.TimeWorked,
		Description: assignment.Description,
	}
}

func toResolverDTOs(assignments []*domain.ResolverAssignment) []ResolverDTO {
	response := make([]ResolverDTO, 0, len(assignments))
	for _, assignment := range assignments {
		response = append(response, toResolverDTO(assignment))
	}
	return response
}

// SyncSecondaryResponse reports the reconciliation outcome.
type SyncSecondaryResponse struct {
	Added   []int64 `json:"added"`
	Removed []int64 `json:"removed"`
}

// --- Handlers ---

// HandleListResolvers handles GET /tickets/{ticketID}/resolvers
func (h *ResolverHandler) HandleListResolvers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.getClaims(w, r); !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	assignments, err := h.resolverService.ListByTicket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toResolverDTOs(assignments))
}

// HandleSetPrimary handles PUT /tickets/{ticketID}/resolvers/primary
func (h *ResolverHandler) HandleSetPrimary(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[SetPrimaryRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.SetPrimaryParams{
		TicketID:    ticketID,
		OldUserID:   req.OldUserID,
		NewUserID:   req.NewUserID,
		MakePrimary: req.MakePrimary,
	}

	if err := h.resolverService.SetPrimary(r.Context(), params); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("primary resolver updated",
		"ticket_id", ticketID,
		"old_user_id", req.OldUserID,
		"new_user_id", req.NewUserID,
		"make_primary", req.MakePrimary,
		"actor_id", claims.UserID,
	)

	WriteNoContent(w)
}

// HandleSyncSecondary handles PUT /tickets/{ticketID}/resolvers/secondary
func (h *ResolverHandler) HandleSyncSecondary(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[SyncSecondaryRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.SyncSecondaryParams{
		TicketID: ticketID,
		UserIDs:  req.UserIDs,
	}

	diff, err := h.resolverService.SyncSecondary(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("secondary resolvers synchronized",
		"ticket_id", ticketID,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"actor_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, SyncSecondaryResponse{
		Added:   diff.Added,
		Removed: diff.Removed,
	})
}

// HandleLogTime handles POST /tickets/{ticketID}/resolvers/time
func (h *ResolverHandler) HandleLogTime(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[LogTimeRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.LogTimeParams{
		TicketID:    ticketID,
		UserID:      req.UserID,
		Minutes:     req.Minutes,
		Description: req.Description,
	}

	if err := h.resolverService.LogTime(r.Context(), params); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("time worked logged",
		"ticket_id", ticketID,
		"user_id", req.UserID,
		"minutes", req.Minutes,
		"actor_id", claims.UserID,
	)

	WriteNoContent(w)
}

// --- Helper methods ---

// getClaims extracts and validates user claims from the request context
func (h *ResolverHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
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
func (h *ResolverHandler) parseTicketID(r *http.Request) (int64, error) {
	ticketIDStr := chi.URLParam(r, "ticketID")
	ticketID, err := strconv.ParseInt(ticketIDStr, 10, 64)
	if err != nil || ticketID <= 0 {
		v := validation.NewValidator()
		v.Custom("ticketID", false, "Invalid ticket ID")
		return 0, v.Errors()
	}
	return ticketID, nil
}
