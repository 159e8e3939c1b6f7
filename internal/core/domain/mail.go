package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InboundEmail is a message fetched from the shared mailbox. IDs are assigned
// by the mailbox and grow monotonically, which is what the poll cursor
// relies on.
type InboundEmail struct {
	ID         int64     `json:"id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}

var (
	angleAddrPattern = regexp.MustCompile(`<([^<>]+)>`)
	ticketRefPattern = regexp.MustCompile(`ID: \[(\d+)\]`)
)

// SenderAddress extracts the bare address from the From header. Headers of
// the form `Display Name <user@host>` yield the bracketed part; otherwise
// the trimmed header is returned as-is.
func (e *InboundEmail) SenderAddress() string {
	if m := angleAddrPattern.FindStringSubmatch(e.From); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(e.From)
}

// TicketRef returns the ticket ID embedded in the subject marker, if any.
// The marker has the form `ID: [123]` and survives reply prefixes.
func (e *InboundEmail) TicketRef() (int64, bool) {
	m := ticketRefPattern.FindStringSubmatch(e.Subject)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// FormatTicketSubject renders the outbound subject line whose marker
// TicketRef later recognizes on replies.
func FormatTicketSubject(appName string, ticketID int64, title string) string {
	return fmt.Sprintf("%s ticket ID: [%d] - %s", appName, ticketID, title)
}
