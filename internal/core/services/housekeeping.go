package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/tikit/helpdesk-backend/internal/config"
	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// Housekeeping runs the periodic background jobs: sweeping resolved tickets
// into closed, reconciling contract states and polling the shared mailbox.
// A failing cycle is logged and the next one runs on schedule; no job ever
// takes the process down.
type Housekeeping struct {
	cron         *cron.Cron
	ticketSvc    ports.TicketService
	contractRepo ports.ContractRepository
	mailroom     *Mailroom
	cfg          config.Config
	logger       *slog.Logger
}

// NewHousekeeping creates the scheduler without starting it.
func NewHousekeeping(
	ticketSvc ports.TicketService,
	contractRepo ports.ContractRepository,
	mailroom *Mailroom,
	cfg config.Config,
	logger *slog.Logger,
) *Housekeeping {
	return &Housekeeping{
		cron:         cron.New(),
		ticketSvc:    ticketSvc,
		contractRepo: contractRepo,
		mailroom:     mailroom,
		cfg:          cfg,
		logger:       logger.With("component", "housekeeping"),
	}
}

// Start registers the three jobs and kicks off the scheduler.
func (h *Housekeeping) Start() error {
	jobs := []struct {
		name  string
		every string
		run   func(ctx context.Context) error
	}{
		{"auto_close", fmt.Sprintf("@every %s", h.cfg.Housekeeping.AutoCloseEvery), h.autoClose},
		{"contract_refresh", fmt.Sprintf("@every %s", h.cfg.Housekeeping.ContractRefreshEvery), h.refreshContracts},
		{"mailbox_poll", fmt.Sprintf("@every %s", h.cfg.Mail.PollInterval), h.pollMailbox},
	}

	for _, job := range jobs {
		job := job
		_, err := h.cron.AddFunc(job.every, func() { h.runJob(job.name, job.run) })
		if err != nil {
			return fmt.Errorf("registering %s job: %w", job.name, err)
		}
	}

	h.cron.Start()
	h.logger.Info("housekeeping started",
		"auto_close_every", h.cfg.Housekeeping.AutoCloseEvery.String(),
		"contract_refresh_every", h.cfg.Housekeeping.ContractRefreshEvery.String(),
		"mailbox_poll_every", h.cfg.Mail.PollInterval.String(),
	)
	return nil
}

// Stop halts scheduling and waits for a running cycle to finish.
func (h *Housekeeping) Stop() {
	ctx := h.cron.Stop()
	<-ctx.Done()
	h.logger.Info("housekeeping stopped")
}

// runJob executes one cycle with panic containment and error logging.
func (h *Housekeeping) runJob(name string, run func(ctx context.Context) error) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("job panicked", "job", name, "panic", r)
		}
	}()

	if err := run(ctx); err != nil {
		h.logger.ErrorContext(ctx, "job cycle failed", "job", name, "error", err)
	}
}

func (h *Housekeeping) autoClose(ctx context.Context) error {
	closed, err := h.ticketSvc.AutoCloseStale(ctx, h.cfg.Housekeeping.AutoCloseAfter)
	if err != nil {
		return err
	}
	if closed > 0 {
		h.logger.InfoContext(ctx, "stale resolved tickets closed", "count", closed)
	}
	return nil
}

func (h *Housekeeping) refreshContracts(ctx context.Context) error {
	changed, err := h.contractRepo.RefreshStates(ctx, SystemClock().Now())
	if err != nil {
		return err
	}
	if changed > 0 {
		h.logger.InfoContext(ctx, "contract states refreshed", "changed", changed)
	}
	return nil
}

func (h *Housekeeping) pollMailbox(ctx context.Context) error {
	return h.mailroom.Poll(ctx)
}
