package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/metrics"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/notify"
	"github.com/Freeeeeet/room_booking/internal/store/memstore"
)

var (
	now = time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC)
	day = time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC)
)

func clock() time.Time { return now }

// at returns hh:mm on the test day.
func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func window(fromHour, toHour int) model.Window {
	return model.Window{Start: at(fromHour, 0), End: at(toHour, 0)}
}

const (
	bldDowntown int64 = 100
	bldKits     int64 = 200
	bldToronto  int64 = 300

	roomMaple int64 = 1
	roomOak   int64 = 2
	roomPine  int64 = 3
	roomLake  int64 = 4

	userAnn int64 = 7
	userBob int64 = 8
	userCat int64 = 9 // inactive
	userDan int64 = 10
	userEve int64 = 11
	userFay int64 = 12
	userGus int64 = 13
	userHal int64 = 14 // Toronto
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(_ context.Context, e notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

type env struct {
	store    *memstore.Store
	metrics  *metrics.Metrics
	notified *recorder
	bookings *BookingService
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	s := memstore.New()

	s.AddBuilding(model.Building{ID: bldDowntown, CityID: "YVR", Code: "32", Lat: 49.2827, Lon: -123.1207, IsActive: true})
	s.AddBuilding(model.Building{ID: bldKits, CityID: "YVR", Code: "41", Lat: 49.2684, Lon: -123.1683, IsActive: true})
	s.AddBuilding(model.Building{ID: bldToronto, CityID: "YYZ", Code: "10", Lat: 43.6532, Lon: -79.3832, IsActive: true})
	s.SetDistance(bldDowntown, bldKits, 3800)

	s.AddRoom(model.Room{ID: roomMaple, BuildingID: bldDowntown, Floor: 1, Code: "101", Name: "Maple", Seats: 6, IsActive: true})
	s.AddRoom(model.Room{ID: roomOak, BuildingID: bldDowntown, Floor: 3, Code: "301", Name: "Oak", Seats: 10, IsActive: true,
		Equipment: []model.Equipment{model.EquipmentAV}})
	s.AddRoom(model.Room{ID: roomPine, BuildingID: bldKits, Floor: 2, Code: "201", Name: "Pine", Seats: 4, IsActive: true,
		Equipment: []model.Equipment{model.EquipmentAV, model.EquipmentVC}})
	s.AddRoom(model.Room{ID: roomLake, BuildingID: bldToronto, Floor: 5, Code: "501", Name: "Lake", Seats: 8, IsActive: true})

	users := []model.User{
		{ID: userAnn, Email: "ann@example.com", FirstName: "Ann", LastName: "Lee", BuildingID: bldDowntown, Floor: 1, IsActive: true},
		{ID: userBob, Email: "bob@example.com", FirstName: "Bob", LastName: "Roe", BuildingID: bldDowntown, Floor: 2, IsActive: true},
		{ID: userCat, Email: "cat@example.com", FirstName: "Cat", LastName: "Poe", BuildingID: bldDowntown, Floor: 1, IsActive: false},
		{ID: userDan, Email: "dan@example.com", FirstName: "Dan", LastName: "Fox", BuildingID: bldDowntown, Floor: 3, IsActive: true},
		{ID: userEve, Email: "eve@example.com", FirstName: "Eve", LastName: "Kim", BuildingID: bldDowntown, Floor: 3, IsActive: true},
		{ID: userFay, Email: "fay@example.com", FirstName: "Fay", LastName: "Ng", BuildingID: bldKits, Floor: 2, IsActive: true},
		{ID: userGus, Email: "gus@example.com", FirstName: "Gus", LastName: "Orr", BuildingID: bldKits, Floor: 1, IsActive: true},
		{ID: userHal, Email: "hal@example.com", FirstName: "Hal", LastName: "Day", BuildingID: bldToronto, Floor: 5, IsActive: true},
	}
	for _, u := range users {
		s.AddUser(u)
	}

	e := &env{
		store:    s,
		metrics:  metrics.New(prometheus.NewRegistry()),
		notified: &recorder{},
	}
	opts = append([]Option{WithClock(clock)}, opts...)
	e.bookings = NewBookingService(s, nil, e.notified, e.metrics, zap.NewNop(), opts...)
	return e
}

// book stores a confirmed booking directly, bypassing every check.
func (e *env) book(w model.Window, roomID int64, users ...int64) model.Booking {
	var assignments []model.RoomAssignment
	for _, u := range users {
		assignments = append(assignments, model.RoomAssignment{RoomID: roomID, UserID: u})
	}
	return e.store.AddBooking(model.Booking{
		CreatedBy:   users[0],
		CreatedAt:   now,
		StartTime:   w.Start,
		EndTime:     w.End,
		Status:      model.BookingStatusConfirmed,
		Assignments: assignments,
	})
}
