package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
)

func validParams() TicketParams {
	return TicketParams{
		Title:       "Printer on fire",
		Description: "Smoke coming out of the tray",
		Impact:      2,
		Urgency:     2,
		Type:        "incident",
		CallerID:    10,
		GroupID:     3,
	}
}

func TestNewTicket(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("starts in the new state", func(t *testing.T) {
		ticket, err := NewTicket(validParams(), now)
		require.NoError(t, err)

		assert.Equal(t, StateNew, ticket.State)
		assert.Equal(t, now, ticket.CreatedAt)
		assert.Nil(t, ticket.AcceptedAt)
		assert.Nil(t, ticket.ResolvedAt)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*TicketParams)
			wantErr error
		}{
			{"no title", func(p *TicketParams) { p.Title = "" }, apperrors.ErrTitleRequired},
			{"no description", func(p *TicketParams) { p.Description = "" }, apperrors.ErrDescriptionRequired},
			{"no caller", func(p *TicketParams) { p.CallerID = 0 }, apperrors.ErrCallerRequired},
			{"no group", func(p *TicketParams) { p.GroupID = 0 }, apperrors.ErrGroupRequired},
			{"impact too low", func(p *TicketParams) { p.Impact = 0 }, apperrors.ErrInvalidImpact},
			{"impact too high", func(p *TicketParams) { p.Impact = 4 }, apperrors.ErrInvalidImpact},
			{"urgency too low", func(p *TicketParams) { p.Urgency = 0 }, apperrors.ErrInvalidUrgency},
			{"urgency too high", func(p *TicketParams) { p.Urgency = 4 }, apperrors.ErrInvalidUrgency},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				params := validParams()
				tt.mutate(&params)

				_, err := NewTicket(params, now)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})
}

func TestDerivePriority(t *testing.T) {
	tests := []struct {
		impact  int
		urgency int
		want    TicketPriority
	}{
		{1, 1, PriorityCritical},
		{1, 2, PriorityHigh},
		{1, 3, PriorityMedium},
		{2, 1, PriorityHigh},
		{2, 2, PriorityMedium},
		{2, 3, PriorityLow},
		{3, 1, PriorityMedium},
		{3, 2, PriorityLow},
		{3, 3, PriorityLow},
	}

	for _, tt := range tests {
		got, err := DerivePriority(tt.impact, tt.urgency)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "impact %d urgency %d", tt.impact, tt.urgency)
	}
}

func TestTicket_Transition(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("edge set", func(t *testing.T) {
		allowed := map[TicketState][]TicketState{
			StateNew:          {StateOpen},
			StateOpen:         {StateResolved, StateCancelled, StateAwaitingInfo},
			StateResolved:     {StateOpen},
			StateAwaitingInfo: {StateOpen, StateResolved, StateCancelled},
			StateCancelled:    {},
			StateClosed:       {},
		}

		all := []TicketState{StateNew, StateOpen, StateResolved, StateCancelled, StateAwaitingInfo, StateClosed}
		for from, targets := range allowed {
			allowedSet := make(map[TicketState]bool)
			for _, target := range targets {
				allowedSet[target] = true
			}

			for _, to := range all {
				ticket := &Ticket{State: from}
				err := ticket.Transition(to, "fixed", "done", now)
				if allowedSet[to] {
					assert.NoError(t, err, "%s -> %s should be allowed", from, to)
				} else {
					assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition, "%s -> %s should be rejected", from, to)
				}
			}
		}
	})

	t.Run("resolved to closed is not an operator edge", func(t *testing.T) {
		ticket := &Ticket{State: StateResolved}
		err := ticket.Transition(StateClosed, "", "", now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})

	t.Run("resolving requires close code and notes", func(t *testing.T) {
		ticket := &Ticket{State: StateOpen}
		assert.ErrorIs(t, ticket.Transition(StateResolved, "", "done", now), apperrors.ErrCloseCodeRequired)

		ticket = &Ticket{State: StateOpen}
		assert.ErrorIs(t, ticket.Transition(StateResolved, "fixed", "", now), apperrors.ErrCloseNotesRequired)
	})

	t.Run("resolving stamps resolvedAt and the close fields", func(t *testing.T) {
		ticket := &Ticket{State: StateOpen}
		require.NoError(t, ticket.Transition(StateResolved, "fixed", "Replaced the tray", now))

		assert.Equal(t, StateResolved, ticket.State)
		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, now, *ticket.ResolvedAt)
		assert.Equal(t, "fixed", ticket.CloseCode)
		assert.Equal(t, "Replaced the tray", ticket.CloseNotes)
	})

	t.Run("cancelling and awaiting-info also stamp resolvedAt", func(t *testing.T) {
		for _, target := range []TicketState{StateCancelled, StateAwaitingInfo} {
			ticket := &Ticket{State: StateOpen}
			require.NoError(t, ticket.Transition(target, "", "", now))
			require.NotNil(t, ticket.ResolvedAt, "resolvedAt after %s", target)
		}
	})

	t.Run("reopening clears resolvedAt and the close fields", func(t *testing.T) {
		ticket := &Ticket{State: StateOpen}
		accepted := now.Add(-time.Hour)
		ticket.AcceptedAt = &accepted
		require.NoError(t, ticket.Transition(StateResolved, "fixed", "done", now))

		later := now.Add(time.Hour)
		require.NoError(t, ticket.Transition(StateOpen, "", "", later))

		assert.Nil(t, ticket.ResolvedAt)
		assert.Empty(t, ticket.CloseCode)
		assert.Empty(t, ticket.CloseNotes)
		assert.Equal(t, accepted, *ticket.AcceptedAt, "acceptedAt must survive a reopen")
	})

	t.Run("first open stamps acceptedAt exactly once", func(t *testing.T) {
		ticket := &Ticket{State: StateNew}
		require.NoError(t, ticket.Transition(StateOpen, "", "", now))
		require.NotNil(t, ticket.AcceptedAt)
		assert.Equal(t, now, *ticket.AcceptedAt)
	})

	t.Run("rejects unknown target states", func(t *testing.T) {
		ticket := &Ticket{State: StateOpen}
		assert.ErrorIs(t, ticket.Transition(TicketState("bogus"), "", "", now), apperrors.ErrInvalidState)
	})
}

func TestTicket_AutoClose(t *testing.T) {
	now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)

	t.Run("closes a resolved ticket and keeps resolvedAt", func(t *testing.T) {
		resolvedAt := now.Add(-15 * 24 * time.Hour)
		ticket := &Ticket{State: StateResolved, ResolvedAt: &resolvedAt}

		require.NoError(t, ticket.AutoClose(now))
		assert.Equal(t, StateClosed, ticket.State)
		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, resolvedAt, *ticket.ResolvedAt)
	})

	t.Run("refuses anything not resolved", func(t *testing.T) {
		for _, state := range []TicketState{StateNew, StateOpen, StateCancelled, StateAwaitingInfo, StateClosed} {
			ticket := &Ticket{State: state}
			assert.ErrorIs(t, ticket.AutoClose(now), apperrors.ErrInvalidStateTransition, "state %s", state)
		}
	})
}

func TestTicket_RecordSLAReason(t *testing.T) {
	ticket := &Ticket{State: StateOpen}

	require.NoError(t, ticket.RecordSLAReason("engineer off sick", false))
	assert.Equal(t, "engineer off sick", ticket.SLABreachReason)
	assert.Empty(t, ticket.AcceptSLABreachReason)

	require.NoError(t, ticket.RecordSLAReason("queue backlog", true))
	assert.Equal(t, "queue backlog", ticket.AcceptSLABreachReason)

	assert.ErrorIs(t, ticket.RecordSLAReason("", false), apperrors.ErrSLAReasonRequired)
}
