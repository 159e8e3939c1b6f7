package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	mw "github.com/tikit/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/tikit/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/tikit/helpdesk-backend/internal/core/domain"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// MaintenanceHandler handles HTTP requests for maintenance windows.
type MaintenanceHandler struct {
	maintenanceService ports.MaintenanceService
	errorHandler       *ErrorHandler
	logger             *slog.Logger
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(
	maintenanceService ports.MaintenanceService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		errorHandler:       errorHandler,
		logger:             logger.With("handler", "maintenance"),
	}
}

// Router sets up a new chi Router for maintenance window routes.
func (h *MaintenanceHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the maintenance window endpoints.
func (h *MaintenanceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListUpcoming)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireResolver)
		r.Post("/", h.HandleCreateWindow)
		r.Put("/{windowID}", h.HandleUpdateWindow)
	})
}

// --- Request/Response DTOs ---

// MaintenanceWindowRequest defines the expected JSON body for windows
type MaintenanceWindowRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Note        string    `json:"note"`
	TicketID    *int64    `json:"ticketId"`
}

// Validate validates the maintenance window request
func (r *MaintenanceWindowRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title)
	v.Custom("from", !r.From.IsZero(), "A start time is required")
	v.Custom("to", !r.To.IsZero(), "An end time is required")
	if !r.From.IsZero() && !r.To.IsZero() {
		v.Custom("to", r.To.After(r.From), "Must be after the start time")
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// MaintenanceWindowDTO defines the JSON response for maintenance windows.
type MaintenanceWindowDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	From        string `json:"from"`
	To          string `json:"to"`
	Note        string `json:"note,omitempty"`
	TicketID    *int64 `json:"ticketId"`
}

func toMaintenanceWindowDTO(window *domain.MaintenanceWindow) MaintenanceWindowDTO {
	return MaintenanceWindowDTO{
		ID:          window.ID,
		Title:       window.Title,
		Description: window.Description,
		From:        window.From.Format(time.RFC3339),
		To:          window.To.Format(time.RFC3339),
		Note:        window.Note,
		TicketID:    window.TicketID,
	}
}

func toMaintenanceWindowDTOs(windows []*domain.MaintenanceWindow) []MaintenanceWindowDTO {
	response := make([]MaintenanceWindowDTO, 0, len(windows))
	for _, window := range windows {
		response = append(response, toMaintenanceWindowDTO(window))
	}
	return response
}

// --- Handlers ---

// HandleListUpcoming handles GET /maintenance-windows
func (h *MaintenanceHandler) HandleListUpcoming(w http.ResponseWriter, r *http.Request) {
	windows, err := h.maintenanceService.ListUpcoming(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toMaintenanceWindowDTOs(windows))
}

// HandleCreateWindow handles POST /maintenance-windows
func (h *MaintenanceHandler) HandleCreateWindow(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[MaintenanceWindowRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	window, err := h.maintenanceService.Create(r.Context(), &domain.MaintenanceWindow{
		Title:       req.Title,
		Description: req.Description,
		From:        req.From,
		To:          req.To,
		Note:        req.Note,
		TicketID:    req.TicketID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("maintenance window created",
		"window_id", window.ID,
		"from", window.From,
		"to", window.To,
	)

	WriteCreated(w, toMaintenanceWindowDTO(window))
}

// HandleUpdateWindow handles PUT /maintenance-windows/{windowID}
func (h *MaintenanceHandler) HandleUpdateWindow(w http.ResponseWriter, r *http.Request) {
	windowIDStr := chi.URLParam(r, "windowID")
	windowID, err := strconv.ParseInt(windowIDStr, 10, 64)
	if err != nil || windowID <= 0 {
		v := validation.NewValidator()
		v.Custom("windowID", false, "Invalid maintenance window ID")
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	req, err := validation.DecodeAndValidate[MaintenanceWindowRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	window, err := h.maintenanceService.Update(r.Context(), &domain.MaintenanceWindow{
		ID:          windowID,
		Title:       req.Title,
		Description: req.Description,
		From:        req.From,
		To:          req.To,
		Note:        req.Note,
		TicketID:    req.TicketID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("maintenance window updated", "window_id", windowID)

	WriteJSON(w, http.StatusOK, toMaintenanceWindowDTO(window))
}
