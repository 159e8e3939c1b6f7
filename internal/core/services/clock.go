package services

import (
	"time"

	"github.com/tikit/helpdesk-backend/internal/core/ports"
)

// systemClock is the wall-clock implementation of ports.Clock.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock returns the production clock.
func SystemClock() ports.Clock {
	return systemClock{}
}
