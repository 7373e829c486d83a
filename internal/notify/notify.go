// Package notify tells people about booking changes.
package notify

import (
	"context"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
)

type Kind string

const (
	KindConfirmed Kind = "confirmed"
	KindUpdated   Kind = "updated"
	KindCanceled  Kind = "canceled"
)

// Event describes one committed booking change.
type Event struct {
	Kind      Kind
	BookingID int64
	Window    model.Window
	Creator   string
	Rooms     []string // display codes
	Attendees int
	At        time.Time
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error {
	return nil
}
