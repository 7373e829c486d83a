package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/store"
)

type tx struct {
	state *state
}

var _ store.Tx = (*tx)(nil)

func (t *tx) FindUsers(ctx context.Context, filter store.UserFilter) ([]model.User, error) {
	return t.state.findUsers(filter), nil
}

func (t *tx) FindRooms(ctx context.Context, filter store.RoomFilter) ([]model.Room, error) {
	return t.state.findRooms(filter), nil
}

func (t *tx) FindBuildings(ctx context.Context, cityID string) ([]model.Building, error) {
	return t.state.findBuildings(cityID), nil
}

func (t *tx) GetBuilding(ctx context.Context, id int64) (*model.Building, error) {
	return t.state.getBuilding(id), nil
}

func (t *tx) FindBookingsOverlapping(ctx context.Context, filter store.OverlapFilter) ([]model.BookedSlot, error) {
	return t.state.findBookingsOverlapping(filter), nil
}

func (t *tx) FindEventsOverlapping(ctx context.Context, filter store.EventFilter) ([]model.Event, error) {
	return t.state.findEventsOverlapping(filter), nil
}

func (t *tx) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	return t.state.getBooking(id), nil
}

func (t *tx) ListBookingsByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	return t.state.listBookingsByUser(userID), nil
}

func (t *tx) Distances(ctx context.Context, from []int64) (model.DistanceTable, error) {
	return t.state.distancesFrom(from), nil
}

func (t *tx) InsertBooking(ctx context.Context, booking *model.Booking) error {
	if _, ok := t.state.users[booking.CreatedBy]; !ok {
		return foreignKey("user", "bookings_created_by_fkey")
	}
	booking.ID = t.state.id()
	stored := *booking
	stored.Assignments = nil
	t.state.bookings[booking.ID] = stored
	return nil
}

func (t *tx) InsertRoomAssignments(ctx context.Context, assignments []model.RoomAssignment) error {
	for _, a := range assignments {
		if _, ok := t.state.bookings[a.BookingID]; !ok {
			return foreignKey("booking", "users_bookings_booking_id_fkey")
		}
		if _, ok := t.state.users[a.UserID]; !ok {
			return foreignKey("user", "users_bookings_user_id_fkey")
		}
		if _, ok := t.state.rooms[a.RoomID]; !ok {
			return foreignKey("room", "users_bookings_room_id_fkey")
		}
		for _, existing := range t.state.assignments {
			if existing.BookingID == a.BookingID && existing.UserID == a.UserID {
				return &store.ConstraintError{Kind: store.ConstraintUnique, Entity: "assignment", Constraint: "users_bookings_pkey"}
			}
		}
		t.state.assignments = append(t.state.assignments, a)
	}
	return nil
}

func (t *tx) UpdateBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	b, ok := t.state.bookings[id]
	if !ok {
		return fmt.Errorf("update booking status: %w", store.ErrNotFound)
	}
	b.Status = status
	t.state.bookings[id] = b
	return nil
}

func (t *tx) DeleteRoomAssignments(ctx context.Context, bookingID int64) error {
	kept := t.state.assignments[:0]
	for _, a := range t.state.assignments {
		if a.BookingID != bookingID {
			kept = append(kept, a)
		}
	}
	t.state.assignments = kept
	return nil
}

func (t *tx) InsertBuilding(ctx context.Context, building *model.Building) error {
	if err := t.checkBuildingCode(building); err != nil {
		return err
	}
	building.ID = t.state.id()
	t.state.buildings[building.ID] = *building
	return nil
}

func (t *tx) UpdateBuilding(ctx context.Context, building *model.Building) error {
	if _, ok := t.state.buildings[building.ID]; !ok {
		return fmt.Errorf("update building: %w", store.ErrNotFound)
	}
	if err := t.checkBuildingCode(building); err != nil {
		return err
	}
	t.state.buildings[building.ID] = *building
	return nil
}

func (t *tx) checkBuildingCode(building *model.Building) error {
	for _, b := range t.state.buildings {
		if b.ID != building.ID && b.CityID == building.CityID && b.Code == building.Code {
			return &store.ConstraintError{Kind: store.ConstraintUnique, Entity: "building", Constraint: "buildings_city_id_code_key"}
		}
	}
	return nil
}

func (t *tx) UpsertDistances(ctx context.Context, table model.DistanceTable) error {
	for pair := range table {
		if _, ok := t.state.buildings[pair.From]; !ok {
			return foreignKey("building", "distances_building_id_from_fkey")
		}
		if _, ok := t.state.buildings[pair.To]; !ok {
			return foreignKey("building", "distances_building_id_to_fkey")
		}
	}
	t.state.distances.Merge(table)
	return nil
}

func (t *tx) SetRoomActive(ctx context.Context, roomID int64, active bool) error {
	r, ok := t.state.rooms[roomID]
	if !ok {
		return fmt.Errorf("set room active: %w", store.ErrNotFound)
	}
	r.IsActive = active
	t.state.rooms[roomID] = r
	return nil
}

func (t *tx) CancelFutureRoomBookings(ctx context.Context, roomID int64, now time.Time) ([]int64, error) {
	return t.state.cancelFutureRoomBookings(roomID, now), nil
}

func foreignKey(entity, constraint string) error {
	return &store.ConstraintError{Kind: store.ConstraintForeignKey, Entity: entity, Constraint: constraint}
}
