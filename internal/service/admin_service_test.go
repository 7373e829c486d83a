package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/distance"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/notify"
)

var (
	admin  = model.Caller{UserID: userAnn, IsAdmin: true}
	member = model.Caller{UserID: userBob}
)

func TestCreateBuildingRecordsDistances(t *testing.T) {
	e := newEnv(t)
	cache := distance.NewLocalCache(e.store, 16, time.Hour)
	svc := NewBuildingService(e.store, cache, e.metrics, zap.NewNop(), WithClock(clock))

	// warm the cache so the new rows must come from invalidation
	_, err := cache.Distances(context.Background(), []int64{bldDowntown})
	require.NoError(t, err)

	b, err := svc.CreateBuilding(context.Background(), admin, model.Building{
		CityID: "YVR", Code: "55", Address: "555 Hastings St", Lat: 49.2846, Lon: -123.1117, IsActive: true,
	})

	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, now, b.CreatedAt)

	table, err := cache.Distances(context.Background(), []int64{b.ID, bldDowntown})
	require.NoError(t, err)
	toDowntown := table.Between(b.ID, bldDowntown)
	assert.InDelta(t, 700, toDowntown, 100)
	assert.Equal(t, toDowntown, table.Between(bldDowntown, b.ID))
	assert.Greater(t, table.Between(b.ID, bldKits), toDowntown)
	assert.Equal(t, model.UnknownDistance, table.Between(b.ID, bldToronto), "other cities get no rows")
	assert.Equal(t, 3800.0, table.Between(bldDowntown, bldKits), "existing pairs are untouched")
}

func TestCreateBuildingNormalizesCity(t *testing.T) {
	e := newEnv(t)
	svc := NewBuildingService(e.store, nil, e.metrics, zap.NewNop(), WithClock(clock))

	b, err := svc.CreateBuilding(context.Background(), admin, model.Building{
		CityID: " yvr", Code: "55 ", Address: "  555 Hastings St ", Lat: 49.2846, Lon: -123.1117, IsActive: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "YVR", b.CityID)
	assert.Equal(t, "55", b.Code)
	assert.Equal(t, "555 Hastings St", b.Address)

	table, err := e.store.Distances(context.Background(), []int64{b.ID})
	require.NoError(t, err)
	assert.InDelta(t, 700, table.Between(b.ID, bldDowntown), 100, "shares rows with the other YVR buildings")

	// the lower-case id is the same city, not a move
	kits := model.Building{ID: bldKits, CityID: "yvr", Code: "41", Lat: 49.2684, Lon: -123.1683, IsActive: true}
	_, err = svc.UpdateBuilding(context.Background(), admin, kits)
	assert.NoError(t, err)
}

func TestUpdateBuilding(t *testing.T) {
	e := newEnv(t)
	svc := NewBuildingService(e.store, nil, e.metrics, zap.NewNop())

	moved := model.Building{ID: bldKits, CityID: "YVR", Code: "41", Lat: 49.2827, Lon: -123.1207, IsActive: true}
	_, err := svc.UpdateBuilding(context.Background(), admin, moved)
	require.NoError(t, err)

	table, err := e.store.Distances(context.Background(), []int64{bldKits})
	require.NoError(t, err)
	assert.InDelta(t, 0, table.Between(bldKits, bldDowntown), 1, "same coordinates as downtown now")

	moved.CityID = "YYZ"
	_, err = svc.UpdateBuilding(context.Background(), admin, moved)
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))

	_, err = svc.UpdateBuilding(context.Background(), admin, model.Building{ID: 999, CityID: "YVR", Code: "99"})
	assert.Equal(t, "Not Found: building does not exist", err.Error())
}

func TestSaveBuildingFailures(t *testing.T) {
	e := newEnv(t)
	svc := NewBuildingService(e.store, nil, e.metrics, zap.NewNop())

	_, err := svc.CreateBuilding(context.Background(), member, model.Building{CityID: "YVR", Code: "77"})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.CreateBuilding(context.Background(), admin, model.Building{CityID: "YVR", Code: "32"})
	assert.Equal(t, "Conflict: building already exists", err.Error())

	_, err = svc.CreateBuilding(context.Background(), admin, model.Building{CityID: "YVR", Code: "77", Lat: 91})
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))

	_, err = svc.CreateBuilding(context.Background(), admin, model.Building{Code: "77"})
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))
}

func TestDeactivateRoomCancelsFutureBookings(t *testing.T) {
	e := newEnv(t)
	rec := &recorder{}
	svc := NewRoomService(e.store, rec, e.metrics, zap.NewNop(), WithClock(clock))

	past := e.book(model.Window{Start: now.Add(-2 * time.Hour), End: now.Add(-time.Hour)}, roomMaple, userAnn)
	future := e.book(window(14, 15), roomMaple, userAnn, userBob)
	elsewhere := e.book(window(14, 15), roomOak, userDan)

	canceled, err := svc.SetRoomActive(context.Background(), admin, roomMaple, false)

	require.NoError(t, err)
	assert.Equal(t, []int64{future.ID}, canceled)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.CanceledByRoom))

	for id, want := range map[int64]model.BookingStatus{
		past.ID:      model.BookingStatusConfirmed,
		future.ID:    model.BookingStatusCanceled,
		elsewhere.ID: model.BookingStatusConfirmed,
	} {
		b, err := e.bookings.GetBooking(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, b.Status, "booking %d", id)
	}

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.KindCanceled, events[0].Kind)
	assert.Equal(t, future.ID, events[0].BookingID)
	assert.Equal(t, []string{"YVR32 1.101 Maple"}, events[0].Rooms)

	// the room can no longer be booked
	_, err = e.bookings.CreateBooking(context.Background(),
		createInput(userAnn, window(16, 17), []int64{roomMaple}, []int64{userAnn}))
	assert.Equal(t, "Conflict: room YVR32 1.101 Maple has been deactivated", err.Error())

	canceled, err = svc.SetRoomActive(context.Background(), admin, roomMaple, true)
	require.NoError(t, err)
	assert.Empty(t, canceled)
	_, err = e.bookings.CreateBooking(context.Background(),
		createInput(userAnn, window(16, 17), []int64{roomMaple}, []int64{userAnn}))
	assert.NoError(t, err)
}

func TestSetRoomActiveFailures(t *testing.T) {
	e := newEnv(t)
	svc := NewRoomService(e.store, nil, e.metrics, zap.NewNop())

	_, err := svc.SetRoomActive(context.Background(), member, roomMaple, false)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.SetRoomActive(context.Background(), admin, 999, false)
	assert.Equal(t, "Not Found: room does not exist", err.Error())
}
