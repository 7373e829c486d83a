package memstore

import "github.com/Freeeeeet/room_booking/internal/model"

// The Add* helpers load fixtures directly, bypassing every check. They
// assign and return ids when the given id is zero.

func (s *Store) AddBuilding(b model.Building) model.Building {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.data.id()
	}
	s.data.bumpID(b.ID)
	s.data.buildings[b.ID] = b
	return b
}

func (s *Store) AddUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.data.id()
	}
	s.data.bumpID(u.ID)
	s.data.users[u.ID] = u
	return s.data.withCity(u)
}

func (s *Store) AddRoom(r model.Room) model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.data.id()
	}
	s.data.bumpID(r.ID)
	s.data.rooms[r.ID] = r
	return s.data.withBuilding(r)
}

func (s *Store) AddEvent(e model.Event) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.data.id()
	}
	s.data.bumpID(e.ID)
	s.data.events[e.ID] = e
	return e
}

// AddBooking stores b together with its Assignments.
func (s *Store) AddBooking(b model.Booking) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.data.id()
	}
	s.data.bumpID(b.ID)
	for i := range b.Assignments {
		b.Assignments[i].BookingID = b.ID
	}
	s.data.assignments = append(s.data.assignments, b.Assignments...)
	stored := b
	stored.Assignments = nil
	s.data.bookings[b.ID] = stored
	return b
}

// SetDistance records d in both directions.
func (s *Store) SetDistance(a, b int64, d float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.distances[model.BuildingPair{From: a, To: b}] = d
	s.data.distances[model.BuildingPair{From: b, To: a}] = d
}

// BookingCount returns the number of stored bookings, canceled included.
func (s *Store) BookingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.bookings)
}

func (s *state) bumpID(id int64) {
	if id > s.nextID {
		s.nextID = id
	}
}
