package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tikit/helpdesk-backend/internal/core/domain"
	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// MaintenanceService manages planned downtime announcements.
type MaintenanceService struct {
	repo   ports.MaintenanceRepository
	clock  ports.Clock
	logger *slog.Logger
}

var _ ports.MaintenanceService = (*MaintenanceService)(nil)

// NewMaintenanceService creates a new maintenance window service.
func NewMaintenanceService(repo ports.MaintenanceRepository, clock ports.Clock, logger *slog.Logger) *MaintenanceService {
	return &MaintenanceService{
		repo:   repo,
		clock:  clock,
		logger: logger.With("service", "maintenance"),
	}
}

// Create persists a new maintenance window.
func (s *MaintenanceService) Create(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("creating maintenance window: %w", err)
	}

	s.logger.InfoContext(ctx, "maintenance window created",
		"window_id", created.ID,
		"from", created.From,
		"to", created.To,
	)
	return created, nil
}

// Update rewrites an existing maintenance window.
func (s *MaintenanceService) Update(ctx context.Context, window *domain.MaintenanceWindow) (*domain.MaintenanceWindow, error) {
	if window.ID <= 0 {
		return nil, apperrors.ErrBadRequest
	}
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("updating maintenance window %d: %w", window.ID, err)
	}
	return updated, nil
}

// ListUpcoming returns windows that have not ended yet, soonest first.
func (s *MaintenanceService) ListUpcoming(ctx context.Context) ([]*domain.MaintenanceWindow, error) {
	windows, err := s.repo.ListUpcoming(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("listing maintenance windows: %w", err)
	}
	return windows, nil
}

func validateWindow(window *domain.MaintenanceWindow) error {
	if window.Title == "" {
		return apperrors.ErrTitleRequired
	}
	if window.From.IsZero() || window.To.IsZero() || !window.To.After(window.From) {
		return apperrors.ErrBadRequest
	}
	return nil
}
