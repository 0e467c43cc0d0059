// Package sink delivers confirmed codes to the outside world: the console,
// a host controller on a UART, an append-only journal.
package sink

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/herlein/rfalarm/pkg/ev1527"
)

// Event is one delivered code
type Event struct {
	ID       uuid.UUID
	Code     ev1527.Code
	Address  uint32
	Key      ev1527.Key
	Device   string // paired device name, empty if unknown
	Received time.Time
}

// NewEvent stamps code with a fresh ID.
func NewEvent(code ev1527.Code, device string, at time.Time) Event {
	return Event{
		ID:       uuid.New(),
		Code:     code,
		Address:  code.Address(),
		Key:      code.Key(),
		Device:   device,
		Received: at,
	}
}

func (e Event) String() string {
	device := e.Device
	if device == "" {
		device = "unknown"
	}
	return fmt.Sprintf("%s %s addr=%05X key=%s device=%s",
		e.Received.Format("2006-01-02 15:04:05.000"), e.Code, e.Address, e.Key, device)
}

// Sink receives events. Deliver is called from one goroutine at a time.
type Sink interface {
	Deliver(ev Event) error
	Close() error
}
