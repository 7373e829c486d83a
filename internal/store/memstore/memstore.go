// Package memstore is an in-process store.Store. Transactions run one at a
// time against a private copy of the data, so they are trivially serializable.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/store"
)

type state struct {
	users       map[int64]model.User
	buildings   map[int64]model.Building
	rooms       map[int64]model.Room
	bookings    map[int64]model.Booking
	assignments []model.RoomAssignment
	events      map[int64]model.Event
	distances   model.DistanceTable
	nextID      int64
}

func newState() *state {
	return &state{
		users:     make(map[int64]model.User),
		buildings: make(map[int64]model.Building),
		rooms:     make(map[int64]model.Room),
		bookings:  make(map[int64]model.Booking),
		events:    make(map[int64]model.Event),
		distances: make(model.DistanceTable),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.buildings {
		c.buildings[k] = v
	}
	for k, v := range s.rooms {
		v.Equipment = append([]model.Equipment(nil), v.Equipment...)
		c.rooms[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	c.assignments = append([]model.RoomAssignment(nil), s.assignments...)
	c.distances.Merge(s.distances)
	c.nextID = s.nextID
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store keeps everything in memory.
type Store struct {
	mu           sync.RWMutex
	data         *state
	failCommits  int
	commitErrors int
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newState()}
}

// FailCommits makes the next n transaction commits fail with
// store.ErrSerializationFailure, discarding their writes.
func (s *Store) FailCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommits = n
}

// FailedCommits returns how many commits were rejected by FailCommits.
func (s *Store) FailedCommits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commitErrors
}

func (s *Store) WithSerializableTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.WithTx(ctx, fn)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(ctx, &tx{state: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failCommits > 0 {
		s.failCommits--
		s.commitErrors++
		return store.ErrSerializationFailure
	}
	s.data = work
	return nil
}

func (s *Store) read() *state {
	return s.data
}

func (s *Store) FindUsers(ctx context.Context, filter store.UserFilter) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().findUsers(filter), nil
}

func (s *Store) FindRooms(ctx context.Context, filter store.RoomFilter) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().findRooms(filter), nil
}

func (s *Store) FindBuildings(ctx context.Context, cityID string) ([]model.Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().findBuildings(cityID), nil
}

func (s *Store) GetBuilding(ctx context.Context, id int64) (*model.Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().getBuilding(id), nil
}

func (s *Store) FindBookingsOverlapping(ctx context.Context, filter store.OverlapFilter) ([]model.BookedSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().findBookingsOverlapping(filter), nil
}

func (s *Store) FindEventsOverlapping(ctx context.Context, filter store.EventFilter) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().findEventsOverlapping(filter), nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().getBooking(id), nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().listBookingsByUser(userID), nil
}

func (s *Store) Distances(ctx context.Context, from []int64) (model.DistanceTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().distancesFrom(from), nil
}

func (s *state) findUsers(filter store.UserFilter) []model.User {
	var out []model.User
	if len(filter.IDs) > 0 {
		for _, id := range filter.IDs {
			if u, ok := s.users[id]; ok && !containsUser(out, u.ID) {
				out = append(out, s.withCity(u))
			}
		}
		return out
	}
	for _, email := range filter.Emails {
		for _, u := range s.sortedUsers() {
			if u.Email == email && !containsUser(out, u.ID) {
				out = append(out, s.withCity(u))
			}
		}
	}
	return out
}

func (s *state) withCity(u model.User) model.User {
	if b, ok := s.buildings[u.BuildingID]; ok {
		u.CityID = b.CityID
	}
	return u
}

func (s *state) sortedUsers() []model.User {
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func containsUser(users []model.User, id int64) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func (s *state) findRooms(filter store.RoomFilter) []model.Room {
	var busy map[int64]bool
	if filter.FreeDuring != nil {
		busy = make(map[int64]bool)
		for _, a := range s.assignments {
			b := s.bookings[a.BookingID]
			if b.Status != model.BookingStatusCanceled && b.Window().Overlaps(*filter.FreeDuring) {
				busy[a.RoomID] = true
			}
		}
	}

	var out []model.Room
	for _, r := range s.rooms {
		r = s.withBuilding(r)
		if len(filter.IDs) > 0 && !containsID(filter.IDs, r.ID) {
			continue
		}
		if filter.CityID != "" && r.CityID != filter.CityID {
			continue
		}
		if filter.ActiveOnly && (!r.IsActive || !r.BuildingActive) {
			continue
		}
		if busy[r.ID] {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) withBuilding(r model.Room) model.Room {
	if b, ok := s.buildings[r.BuildingID]; ok {
		r.CityID = b.CityID
		r.BuildingCode = b.Code
		r.BuildingActive = b.IsActive
	}
	r.Equipment = append([]model.Equipment(nil), r.Equipment...)
	return r
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *state) findBuildings(cityID string) []model.Building {
	var out []model.Building
	for _, b := range s.buildings {
		if cityID == "" || b.CityID == cityID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) getBuilding(id int64) *model.Building {
	b, ok := s.buildings[id]
	if !ok {
		return nil
	}
	return &b
}

func (s *state) findBookingsOverlapping(filter store.OverlapFilter) []model.BookedSlot {
	var out []model.BookedSlot
	for _, a := range s.assignments {
		b := s.bookings[a.BookingID]
		if b.Status == model.BookingStatusCanceled || !b.Window().Overlaps(filter.Window) {
			continue
		}
		if filter.ExcludeBookingID != nil && *filter.ExcludeBookingID == b.ID {
			continue
		}
		if !containsID(filter.UserIDs, a.UserID) && !containsID(filter.RoomIDs, a.RoomID) {
			continue
		}
		out = append(out, model.BookedSlot{
			BookingID: b.ID,
			RoomID:    a.RoomID,
			UserID:    a.UserID,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
		})
	}
	return out
}

func (s *state) findEventsOverlapping(filter store.EventFilter) []model.Event {
	var out []model.Event
	for _, e := range s.events {
		if containsID(filter.UserIDs, e.CreatedBy) && e.Window().Overlaps(filter.Window) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) getBooking(id int64) *model.Booking {
	b, ok := s.bookings[id]
	if !ok {
		return nil
	}
	for _, a := range s.assignments {
		if a.BookingID == id {
			b.Assignments = append(b.Assignments, a)
		}
	}
	return &b
}

func (s *state) listBookingsByUser(userID int64) []model.Booking {
	var out []model.Booking
	seen := make(map[int64]bool)
	for _, a := range s.assignments {
		if a.UserID == userID && !seen[a.BookingID] {
			seen[a.BookingID] = true
			out = append(out, *s.getBooking(a.BookingID))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *state) distancesFrom(from []int64) model.DistanceTable {
	out := make(model.DistanceTable)
	for pair, d := range s.distances {
		if containsID(from, pair.From) {
			out[pair] = d
		}
	}
	return out
}

func (s *state) cancelFutureRoomBookings(roomID int64, now time.Time) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, a := range s.assignments {
		if a.RoomID != roomID || seen[a.BookingID] {
			continue
		}
		b := s.bookings[a.BookingID]
		if b.Status == model.BookingStatusConfirmed && b.StartTime.After(now) {
			seen[b.ID] = true
			b.Status = model.BookingStatusCanceled
			s.bookings[b.ID] = b
			ids = append(ids, b.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
