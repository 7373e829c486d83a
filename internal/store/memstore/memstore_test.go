package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/store"
)

func fixture(t *testing.T) (*Store, model.User, model.Room) {
	t.Helper()
	s := New()
	b := s.AddBuilding(model.Building{CityID: "YVR", Code: "32", IsActive: true})
	u := s.AddUser(model.User{Email: "ann@example.com", BuildingID: b.ID, IsActive: true})
	r := s.AddRoom(model.Room{BuildingID: b.ID, Floor: 1, Code: "101", Name: "Maple", Seats: 6, IsActive: true})
	return s, u, r
}

func TestWithSerializableTxRollsBackOnError(t *testing.T) {
	s, u, _ := fixture(t)
	ctx := context.Background()
	start := time.Date(2030, 1, 1, 14, 0, 0, 0, time.UTC)

	err := s.WithSerializableTx(ctx, func(ctx context.Context, tx store.Tx) error {
		b := &model.Booking{CreatedBy: u.ID, StartTime: start, EndTime: start.Add(time.Hour), Status: model.BookingStatusConfirmed}
		require.NoError(t, tx.InsertBooking(ctx, b))
		return tx.InsertRoomAssignments(ctx, []model.RoomAssignment{{BookingID: b.ID, RoomID: 999, UserID: u.ID}})
	})

	var cErr *store.ConstraintError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, store.ConstraintForeignKey, cErr.Kind)
	assert.Equal(t, "room", cErr.Entity)
	assert.Zero(t, s.BookingCount(), "booking row must not survive a failed transaction")
}

func TestFailCommitsDiscardsWrites(t *testing.T) {
	s, u, r := fixture(t)
	ctx := context.Background()
	start := time.Date(2030, 1, 1, 14, 0, 0, 0, time.UTC)
	s.FailCommits(1)

	insert := func(ctx context.Context, tx store.Tx) error {
		b := &model.Booking{CreatedBy: u.ID, StartTime: start, EndTime: start.Add(time.Hour), Status: model.BookingStatusConfirmed}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		return tx.InsertRoomAssignments(ctx, []model.RoomAssignment{{BookingID: b.ID, RoomID: r.ID, UserID: u.ID}})
	}

	err := s.WithSerializableTx(ctx, insert)
	assert.True(t, errors.Is(err, store.ErrSerializationFailure))
	assert.Zero(t, s.BookingCount())

	require.NoError(t, s.WithSerializableTx(ctx, insert))
	assert.Equal(t, 1, s.BookingCount())
	assert.Equal(t, 1, s.FailedCommits())
}

func TestFindRoomsFreeDuring(t *testing.T) {
	s, u, r := fixture(t)
	other := s.AddRoom(model.Room{BuildingID: r.BuildingID, Floor: 2, Code: "201", Name: "Oak", Seats: 4, IsActive: true})
	start := time.Date(2030, 1, 1, 14, 0, 0, 0, time.UTC)
	s.AddBooking(model.Booking{
		CreatedBy:   u.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Status:      model.BookingStatusConfirmed,
		Assignments: []model.RoomAssignment{{RoomID: r.ID, UserID: u.ID}},
	})
	s.AddBooking(model.Booking{
		CreatedBy:   u.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Status:      model.BookingStatusCanceled,
		Assignments: []model.RoomAssignment{{RoomID: other.ID, UserID: u.ID}},
	})

	window := model.Window{Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute)}
	rooms, err := s.FindRooms(context.Background(), store.RoomFilter{CityID: "YVR", ActiveOnly: true, FreeDuring: &window})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, other.ID, rooms[0].ID)
	assert.Equal(t, "32", rooms[0].BuildingCode)
}
