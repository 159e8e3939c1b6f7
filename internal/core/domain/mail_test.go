package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInboundEmail_SenderAddress(t *testing.T) {
	tests := []struct {
		name string
		from string
		want string
	}{
		{"bare address", "alice@example.com", "alice@example.com"},
		{"display name", "Alice Smith <alice@example.com>", "alice@example.com"},
		{"padded brackets", "Bob <  bob@example.com >", "bob@example.com"},
		{"padded bare address", "  carol@example.com  ", "carol@example.com"},
		{"empty header", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := &InboundEmail{From: tt.from}
			assert.Equal(t, tt.want, email.SenderAddress())
		})
	}
}

func TestInboundEmail_TicketRef(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		wantID  int64
		wantOK  bool
	}{
		{"reply with marker", "Re: Tikit ticket ID: [42] - Printer on fire", 42, true},
		{"forward with marker", "Fwd: Re: Tikit ticket ID: [7] - VPN down", 7, true},
		{"no marker", "Please help, everything is broken", 0, false},
		{"marker without digits", "ticket ID: [] - broken", 0, false},
		{"marker elsewhere in subject", "About ID: [910]", 910, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := &InboundEmail{Subject: tt.subject}
			id, ok := email.TicketRef()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestFormatTicketSubject(t *testing.T) {
	subject := FormatTicketSubject("Tikit", 42, "Printer on fire")
	assert.Equal(t, "Tikit ticket ID: [42] - Printer on fire", subject)

	// The round trip matters more than the exact shape: replies quoting this
	// subject must correlate back to the ticket.
	email := &InboundEmail{Subject: "Re: " + subject}
	id, ok := email.TicketRef()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}
