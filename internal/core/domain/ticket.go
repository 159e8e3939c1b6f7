package domain

import (
	"time"

	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
)

// TicketState represents the lifecycle state of a ticket.
type TicketState string

const (
	StateNew          TicketState = "new"
	StateOpen         TicketState = "open"
	StateResolved     TicketState = "resolved"
	StateCancelled    TicketState = "cancelled"
	StateAwaitingInfo TicketState = "awaiting-info"
	StateClosed       TicketState = "closed"
)

// IsValid reports whether s is one of the known lifecycle states.
func (s TicketState) IsValid() bool {
	switch s {
	case StateNew, StateOpen, StateResolved, StateCancelled, StateAwaitingInfo, StateClosed:
		return true
	}
	return false
}

// IsTerminal reports whether no further operator transitions exist from s.
func (s TicketState) IsTerminal() bool {
	return s == StateCancelled || s == StateClosed
}

// TicketPriority is derived from impact and urgency, never stored.
type TicketPriority string

const (
	PriorityCritical TicketPriority = "P1"
	PriorityHigh     TicketPriority = "P2"
	PriorityMedium   TicketPriority = "P3"
	PriorityLow      TicketPriority = "P4"
)

// priorityMatrix maps [impact-1][urgency-1] to a priority band.
var priorityMatrix = [3][3]TicketPriority{
	{PriorityCritical, PriorityHigh, PriorityMedium},
	{PriorityHigh, PriorityMedium, PriorityLow},
	{PriorityMedium, PriorityLow, PriorityLow},
}

// DerivePriority computes the priority band for an impact/urgency pair.
// Both values must be in 1..3.
func DerivePriority(impact, urgency int) (TicketPriority, error) {
	if impact < 1 || impact > 3 {
		return "", apperrors.ErrInvalidImpact
	}
	if urgency < 1 || urgency > 3 {
		return "", apperrors.ErrInvalidUrgency
	}
	return priorityMatrix[impact-1][urgency-1], nil
}

// validTransitions defines the operator-driven edges of the lifecycle.
// The resolved->closed edge is excluded on purpose: it belongs to the
// housekeeping auto-close and goes through AutoClose instead.
var validTransitions = map[TicketState][]TicketState{
	StateNew:          {StateOpen},
	StateOpen:         {StateResolved, StateCancelled, StateAwaitingInfo},
	StateResolved:     {StateOpen},
	StateAwaitingInfo: {StateOpen, StateResolved, StateCancelled},
	StateCancelled:    {},
	StateClosed:       {},
}

// Ticket is the core domain entity.
type Ticket struct {
	ID             int64
	Title          string
	Description    string
	Impact         int
	Urgency        int
	State          TicketState
	Type           string
	CallerID       int64
	ParentTicketID *int64
	GroupID        int64
	ContractID     *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AcceptedAt     *time.Time
	// ResolvedAt records the last entry into resolved, cancelled or
	// awaiting-info and is cleared again on reopen. It is not a pure
	// resolution timestamp; the auto-close cutoff relies on this meaning.
	ResolvedAt            *time.Time
	CloseCode             string
	CloseNotes            string
	SLABreachReason       string
	AcceptSLABreachReason string
}

// TicketParams carries the caller-supplied fields for NewTicket.
type TicketParams struct {
	Title          string
	Description    string
	Impact         int
	Urgency        int
	Type           string
	CallerID       int64
	ParentTicketID *int64
	GroupID        int64
	ContractID     *int64
}

// NewTicket validates params and returns a ticket in the initial state.
func NewTicket(params TicketParams, now time.Time) (*Ticket, error) {
	if params.Title == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if params.Description == "" {
		return nil, apperrors.ErrDescriptionRequired
	}
	if params.CallerID == 0 {
		return nil, apperrors.ErrCallerRequired
	}
	if params.GroupID == 0 {
		return nil, apperrors.ErrGroupRequired
	}
	if _, err := DerivePriority(params.Impact, params.Urgency); err != nil {
		return nil, err
	}

	return &Ticket{
		Title:          params.Title,
		Description:    params.Description,
		Impact:         params.Impact,
		Urgency:        params.Urgency,
		State:          StateNew,
		Type:           params.Type,
		CallerID:       params.CallerID,
		ParentTicketID: params.ParentTicketID,
		GroupID:        params.GroupID,
		ContractID:     params.ContractID,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}, nil
}

// Priority derives the ticket's priority band from impact and urgency.
func (t *Ticket) Priority() TicketPriority {
	p, err := DerivePriority(t.Impact, t.Urgency)
	if err != nil {
		return PriorityLow
	}
	return p
}

// CanTransitionTo reports whether target is a legal operator edge from the
// current state.
func (t *Ticket) CanTransitionTo(target TicketState) bool {
	for _, s := range validTransitions[t.State] {
		if s == target {
			return true
		}
	}
	return false
}

// Transition moves the ticket to target, enforcing the edge set and the
// resolvedAt bookkeeping. Entering resolved requires a close code and close
// notes; reopening clears them along with resolvedAt.
func (t *Ticket) Transition(target TicketState, closeCode, closeNotes string, now time.Time) error {
	if !target.IsValid() {
		return apperrors.ErrInvalidState
	}
	if !t.CanTransitionTo(target) {
		return apperrors.ErrInvalidStateTransition
	}

	switch target {
	case StateResolved:
		if closeCode == "" {
			return apperrors.ErrCloseCodeRequired
		}
		if closeNotes == "" {
			return apperrors.ErrCloseNotesRequired
		}
		t.CloseCode = closeCode
		t.CloseNotes = closeNotes
		ts := now.UTC()
		t.ResolvedAt = &ts
	case StateCancelled, StateAwaitingInfo:
		ts := now.UTC()
		t.ResolvedAt = &ts
	case StateOpen:
		t.ResolvedAt = nil
		t.CloseCode = ""
		t.CloseNotes = ""
		if t.AcceptedAt == nil {
			ts := now.UTC()
			t.AcceptedAt = &ts
		}
	}

	t.State = target
	t.UpdatedAt = now.UTC()
	return nil
}

// AutoClose moves a resolved ticket to closed. Only the housekeeping job
// takes this edge; resolvedAt is kept so the close remains auditable.
func (t *Ticket) AutoClose(now time.Time) error {
	if t.State != StateResolved {
		return apperrors.ErrInvalidStateTransition
	}
	t.State = StateClosed
	t.UpdatedAt = now.UTC()
	return nil
}

// RecordSLAReason attaches a breach justification to the ticket. Acceptance
// reasons cover the new->open deadline, resolution reasons the overall one.
func (t *Ticket) RecordSLAReason(reason string, acceptance bool) error {
	if reason == "" {
		return apperrors.ErrSLAReasonRequired
	}
	if acceptance {
		t.AcceptSLABreachReason = reason
	} else {
		t.SLABreachReason = reason
	}
	return nil
}
