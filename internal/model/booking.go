package model

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCanceled  BookingStatus = "canceled" // terminal
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCanceled
}

type Booking struct {
	ID        int64         `json:"id"`
	CreatedBy int64         `json:"created_by"`
	CreatedAt time.Time     `json:"created_at"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Status    BookingStatus `json:"status"`

	// Filled on reads, not a column
	Assignments []RoomAssignment `json:"assignments,omitempty"`
}

// Window returns the booked time window.
func (b *Booking) Window() Window {
	return Window{Start: b.StartTime, End: b.EndTime}
}

// RoomAssignment places one user in one room for one booking.
type RoomAssignment struct {
	BookingID int64 `json:"booking_id"`
	RoomID    int64 `json:"room_id"`
	UserID    int64 `json:"user_id"`
}

// BookedSlot is an assignment joined with its booking window, as returned by
// overlap queries.
type BookedSlot struct {
	BookingID int64
	RoomID    int64
	UserID    int64
	StartTime time.Time
	EndTime   time.Time
}
