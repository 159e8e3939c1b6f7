package domain

import "time"

// ContractState tracks where a contract sits relative to its date range.
type ContractState string

const (
	ContractPending ContractState = "pending"
	ContractActive  ContractState = "active"
	ContractExpired ContractState = "expired"
)

// Contract is a support agreement between a company and the service desk.
// New tickets pick up the caller company's current contract.
type Contract struct {
	ID               int64
	CompanyID        int64
	ShortDescription string
	Description      string
	StartDate        time.Time
	EndDate          time.Time
	State            ContractState
}

// CurrentState recomputes the state from the date range. The stored state
// column drifts as time passes; the housekeeping refresh reconciles it.
func (c *Contract) CurrentState(now time.Time) ContractState {
	switch {
	case now.Before(c.StartDate):
		return ContractPending
	case now.After(c.EndDate):
		return ContractExpired
	default:
		return ContractActive
	}
}

// MaintenanceWindow announces planned downtime, optionally tied to a ticket.
type MaintenanceWindow struct {
	ID          int64
	Title       string
	Description string
	From        time.Time
	To          time.Time
	Note        string
	TicketID    *int64
}
