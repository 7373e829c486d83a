// Package store describes the storage capability the booking engine runs on.
package store

import (
	"context"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
)

// UserFilter selects users by id or by email. Exactly one list is used.
type UserFilter struct {
	IDs    []int64
	Emails []string
}

// RoomFilter selects rooms. Zero values disable a condition.
type RoomFilter struct {
	IDs        []int64
	CityID     string
	ActiveOnly bool // room and its building both active
	// FreeDuring drops rooms holding a confirmed booking overlapping the window.
	FreeDuring *model.Window
}

// OverlapFilter selects confirmed assignments overlapping Window that touch any
// of the given users or rooms.
type OverlapFilter struct {
	Window           model.Window
	UserIDs          []int64
	RoomIDs          []int64
	ExcludeBookingID *int64
}

// EventFilter selects personal events overlapping Window owned by UserIDs.
type EventFilter struct {
	Window  model.Window
	UserIDs []int64
}

// Reader is the read side shared by the pool and by transactions.
type Reader interface {
	FindUsers(ctx context.Context, filter UserFilter) ([]model.User, error)
	FindRooms(ctx context.Context, filter RoomFilter) ([]model.Room, error)
	FindBuildings(ctx context.Context, cityID string) ([]model.Building, error)
	GetBuilding(ctx context.Context, id int64) (*model.Building, error)
	FindBookingsOverlapping(ctx context.Context, filter OverlapFilter) ([]model.BookedSlot, error)
	FindEventsOverlapping(ctx context.Context, filter EventFilter) ([]model.Event, error)
	// GetBooking returns nil, nil when the booking does not exist.
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	ListBookingsByUser(ctx context.Context, userID int64) ([]model.Booking, error)
	// Distances returns every recorded distance starting at one of from.
	Distances(ctx context.Context, from []int64) (model.DistanceTable, error)
}

// Tx is a unit of work. Writes are visible to reads on the same Tx only.
type Tx interface {
	Reader
	InsertBooking(ctx context.Context, booking *model.Booking) error
	InsertRoomAssignments(ctx context.Context, assignments []model.RoomAssignment) error
	UpdateBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error
	DeleteRoomAssignments(ctx context.Context, bookingID int64) error

	InsertBuilding(ctx context.Context, building *model.Building) error
	UpdateBuilding(ctx context.Context, building *model.Building) error
	UpsertDistances(ctx context.Context, table model.DistanceTable) error
	SetRoomActive(ctx context.Context, roomID int64, active bool) error
	// CancelFutureRoomBookings cancels confirmed bookings using the room that
	// start after now and returns their ids.
	CancelFutureRoomBookings(ctx context.Context, roomID int64, now time.Time) ([]int64, error)
}

// Store opens transactions on top of Reader.
type Store interface {
	Reader
	// WithSerializableTx runs fn in a SERIALIZABLE transaction and commits when
	// fn returns nil. Conflicts surface as ErrSerializationFailure.
	WithSerializableTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithTx runs fn in a default isolation transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
