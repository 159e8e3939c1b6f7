package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventKindForState(t *testing.T) {
	tests := []struct {
		name               string
		state              TicketState
		previouslyAccepted bool
		want               EventKind
		notifies           bool
	}{
		{"first acceptance", StateOpen, false, EventTicketAccepted, true},
		{"reopen after acceptance", StateOpen, true, EventTicketReopened, true},
		{"resolved", StateResolved, true, EventTicketResolved, true},
		{"cancelled", StateCancelled, false, EventTicketCancelled, true},
		{"awaiting info", StateAwaitingInfo, true, EventTicketAwaitingInfo, true},
		{"closed", StateClosed, true, EventTicketClosed, true},
		{"new has its own announcement", StateNew, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := EventKindForState(tt.state, tt.previouslyAccepted)
			assert.Equal(t, tt.notifies, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}
