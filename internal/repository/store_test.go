package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/store"
	"github.com/Freeeeeet/room_booking/migrations"
)

// Runs against a scratch database: ROOM_BOOKING_TEST_DSN=postgres://...
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("ROOM_BOOKING_TEST_DSN")
	if dsn == "" {
		t.Skip("ROOM_BOOKING_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, PoolConfig{DSN: dsn, ApplicationName: "room_booking_test"})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = db.Close() })
	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.DownToContext(ctx, db, ".", 0))
	require.NoError(t, goose.UpContext(ctx, db, "."))
	return pool
}

type seeded struct {
	building model.Building
	user     model.User
	room     model.Room
}

func seed(t *testing.T, pool *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `INSERT INTO cities (city_id, name) VALUES ('YVR', 'Vancouver')`)
	require.NoError(t, err)

	s := NewStore(pool)
	var out seeded
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		out.building = model.Building{CityID: "YVR", Code: "32", Lat: 49.28, Lon: -123.12, IsActive: true}
		return tx.InsertBuilding(ctx, &out.building)
	}))

	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, building_id, floor)
		VALUES ('ann@example.com', 'Ann', 'Lee', $1, 4) RETURNING user_id
	`, out.building.ID).Scan(&out.user.ID))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO rooms (building_id, floor, code, name, seats) VALUES ($1, 4, '410', 'Maple', 6) RETURNING room_id
	`, out.building.ID).Scan(&out.room.ID))
	_, err = pool.Exec(ctx, `INSERT INTO rooms_equipments (room_id, equipment_id) VALUES ($1, 'VC')`, out.room.ID)
	require.NoError(t, err)
	return out
}

func TestStoreBookingRoundTrip(t *testing.T) {
	pool := testPool(t)
	fx := seed(t, pool)
	s := NewStore(pool)
	ctx := context.Background()
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)

	var booking model.Booking
	err := s.WithSerializableTx(ctx, func(ctx context.Context, tx store.Tx) error {
		booking = model.Booking{
			CreatedBy: fx.user.ID,
			CreatedAt: time.Now().UTC(),
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Status:    model.BookingStatusConfirmed,
		}
		if err := tx.InsertBooking(ctx, &booking); err != nil {
			return err
		}
		return tx.InsertRoomAssignments(ctx, []model.RoomAssignment{
			{BookingID: booking.ID, RoomID: fx.room.ID, UserID: fx.user.ID},
		})
	})
	require.NoError(t, err)

	got, err := s.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Assignments, 1)

	w := model.Window{Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute)}
	slots, err := s.FindBookingsOverlapping(ctx, store.OverlapFilter{Window: w, RoomIDs: []int64{fx.room.ID}})
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	slots, err = s.FindBookingsOverlapping(ctx, store.OverlapFilter{Window: w, RoomIDs: []int64{fx.room.ID}, ExcludeBookingID: &booking.ID})
	require.NoError(t, err)
	assert.Empty(t, slots)

	free, err := s.FindRooms(ctx, store.RoomFilter{CityID: "YVR", ActiveOnly: true, FreeDuring: &w})
	require.NoError(t, err)
	assert.Empty(t, free)

	rooms, err := s.FindRooms(ctx, store.RoomFilter{IDs: []int64{fx.room.ID}})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, []model.Equipment{model.EquipmentVC}, rooms[0].Equipment)
	assert.Equal(t, "YVR32 4.410 Maple", rooms[0].DisplayCode())

	missing, err := s.GetBooking(ctx, booking.ID+1000)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreForeignKeyBecomesConstraintError(t *testing.T) {
	pool := testPool(t)
	fx := seed(t, pool)
	s := NewStore(pool)
	ctx := context.Background()
	start := time.Now().UTC().Add(48 * time.Hour)

	err := s.WithSerializableTx(ctx, func(ctx context.Context, tx store.Tx) error {
		b := model.Booking{CreatedBy: fx.user.ID, CreatedAt: time.Now(), StartTime: start, EndTime: start.Add(time.Hour), Status: model.BookingStatusConfirmed}
		if err := tx.InsertBooking(ctx, &b); err != nil {
			return err
		}
		return tx.InsertRoomAssignments(ctx, []model.RoomAssignment{{BookingID: b.ID, RoomID: fx.room.ID, UserID: fx.user.ID + 999}})
	})

	var cErr *store.ConstraintError
	require.True(t, errors.As(err, &cErr), "got %v", err)
	assert.Equal(t, store.ConstraintForeignKey, cErr.Kind)
	assert.Equal(t, "user", cErr.Entity)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&count))
	assert.Zero(t, count)
}

func TestStoreDistancesAndCancel(t *testing.T) {
	pool := testPool(t)
	fx := seed(t, pool)
	s := NewStore(pool)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.UpsertDistances(ctx, model.DistanceTable{{From: fx.building.ID, To: fx.building.ID}: 0})
	}))
	table, err := s.Distances(ctx, []int64{fx.building.ID})
	require.NoError(t, err)
	assert.Len(t, table, 1)

	start := time.Now().UTC().Add(24 * time.Hour)
	var bookingID int64
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO bookings (created_by, start_time, end_time) VALUES ($1, $2, $3) RETURNING booking_id
	`, fx.user.ID, start, start.Add(time.Hour)).Scan(&bookingID))
	_, err = pool.Exec(ctx, `INSERT INTO users_bookings (booking_id, room_id, user_id) VALUES ($1, $2, $3)`, bookingID, fx.room.ID, fx.user.ID)
	require.NoError(t, err)

	var canceled []int64
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.SetRoomActive(ctx, fx.room.ID, false); err != nil {
			return err
		}
		canceled, err = tx.CancelFutureRoomBookings(ctx, fx.room.ID, time.Now())
		return err
	}))
	assert.Equal(t, []int64{bookingID}, canceled)

	err = s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.SetRoomActive(ctx, fx.room.ID+999, false)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
