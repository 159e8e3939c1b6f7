package domain

import (
	"sort"

	apperrors "github.com/tikit/helpdesk-backend/internal/core/errors"
)

// ResolverAssignment links a user to a ticket they work on. Primary is a
// tri-state flag: true marks the single primary resolver, false a secondary
// resolver, nil a row kept only for its logged time.
type ResolverAssignment struct {
	UserID      int64
	TicketID    int64
	TimeWorked  int // minutes
	Description string
	Primary     *bool
}

// IsPrimary reports whether the assignment holds the primary slot.
func (a *ResolverAssignment) IsPrimary() bool {
	return a.Primary != nil && *a.Primary
}

// IsSecondary reports whether the assignment is an active secondary resolver.
func (a *ResolverAssignment) IsSecondary() bool {
	return a.Primary != nil && !*a.Primary
}

// IsActive reports whether the assignment is a current resolver at all, as
// opposed to a historical time-tracking row.
func (a *ResolverAssignment) IsActive() bool {
	return a.Primary != nil
}

// NewAssignment builds a validated resolver assignment row.
func NewAssignment(ticketID, userID int64, primary *bool) (*ResolverAssignment, error) {
	if ticketID == 0 {
		return nil, apperrors.ErrTicketIDRequired
	}
	if userID == 0 {
		return nil, apperrors.ErrResolverRequired
	}
	return &ResolverAssignment{
		UserID:   userID,
		TicketID: ticketID,
		Primary:  primary,
	}, nil
}

// ResolverDiff is the outcome of reconciling the secondary resolver set.
type ResolverDiff struct {
	Removed []int64
	Added   []int64
}

// DiffResolvers reconciles the current secondary set against the desired one.
// Members only in current are removed, members only in desired are added;
// both slices come back sorted so the reconciliation order is deterministic.
func DiffResolvers(current, desired []int64) ResolverDiff {
	currentSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	desiredSet := make(map[int64]struct{}, len(desired))
	for _, id := range desired {
		desiredSet[id] = struct{}{}
	}

	var diff ResolverDiff
	for id := range currentSet {
		if _, ok := desiredSet[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	for id := range desiredSet {
		if _, ok := currentSet[id]; !ok {
			diff.Added = append(diff.Added, id)
		}
	}

	sort.Slice(diff.Removed, func(i, j int) bool { return diff.Removed[i] < diff.Removed[j] })
	sort.Slice(diff.Added, func(i, j int) bool { return diff.Added[i] < diff.Added[j] })
	return diff
}
