// Package availability decides whether attendees and rooms are free for a
// time window. Every violation is collected before failing.
package availability

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/store"
)

const deactivatedSuffix = " has been deactivated"

// Report lists the users that cannot attend, in request order.
type Report struct {
	Inactive []model.User
	Busy     []model.User
}

func (r *Report) Empty() bool {
	return len(r.Inactive) == 0 && len(r.Busy) == 0
}

// Err renders the report as an UnavailableAttendees error, or nil when empty.
func (r *Report) Err() error {
	if r.Empty() {
		return nil
	}
	details := make([]string, 0, len(r.Inactive)+len(r.Busy))
	for _, u := range r.Inactive {
		details = append(details, u.DisplayName()+deactivatedSuffix)
	}
	for _, u := range r.Busy {
		details = append(details, u.DisplayName())
	}
	return apperror.UnavailableAttendees(strings.Join(details, ", "), details)
}

// Users collects which of the users selected by filter are inactive or hold a
// confirmed booking or personal event overlapping w. A booking equal to
// excludeBookingID never conflicts.
func Users(ctx context.Context, r store.Reader, filter store.UserFilter, w model.Window, excludeBookingID *int64) (*Report, error) {
	users, err := r.FindUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	users = inRequestOrder(users, filter)

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	busy := make(map[int64]bool)
	if len(ids) > 0 {
		slots, err := r.FindBookingsOverlapping(ctx, store.OverlapFilter{Window: w, UserIDs: ids, ExcludeBookingID: excludeBookingID})
		if err != nil {
			return nil, fmt.Errorf("find overlapping bookings: %w", err)
		}
		for _, s := range slots {
			busy[s.UserID] = true
		}

		events, err := r.FindEventsOverlapping(ctx, store.EventFilter{Window: w, UserIDs: ids})
		if err != nil {
			return nil, fmt.Errorf("find overlapping events: %w", err)
		}
		for _, e := range events {
			busy[e.CreatedBy] = true
		}
	}

	report := &Report{}
	for _, u := range users {
		switch {
		case !u.IsActive:
			report.Inactive = append(report.Inactive, u)
		case busy[u.ID]:
			report.Busy = append(report.Busy, u)
		}
	}
	return report, nil
}

// CheckUsers fails with UnavailableAttendees when any selected user is
// inactive or busy during w.
func CheckUsers(ctx context.Context, r store.Reader, filter store.UserFilter, w model.Window, excludeBookingID *int64) error {
	report, err := Users(ctx, r, filter, w, excludeBookingID)
	if err != nil {
		return err
	}
	return report.Err()
}

// CheckParticipants checks attendees like CheckUsers and additionally requires
// the creator to be active. The creator's own calendar is not checked.
func CheckParticipants(ctx context.Context, r store.Reader, creatorID int64, attendeeIDs []int64, w model.Window, excludeBookingID *int64) error {
	report, err := Users(ctx, r, store.UserFilter{IDs: attendeeIDs}, w, excludeBookingID)
	if err != nil {
		return err
	}

	if !containsID(attendeeIDs, creatorID) {
		creators, err := r.FindUsers(ctx, store.UserFilter{IDs: []int64{creatorID}})
		if err != nil {
			return fmt.Errorf("find creator: %w", err)
		}
		for _, c := range creators {
			if !c.IsActive {
				report.Inactive = append([]model.User{c}, report.Inactive...)
			}
		}
	}
	return report.Err()
}

// CheckRooms fails with Conflict when any room is inactive, sits in an inactive
// building, or holds a confirmed booking overlapping w.
func CheckRooms(ctx context.Context, r store.Reader, roomIDs []int64, w model.Window, excludeBookingID *int64) error {
	if len(roomIDs) == 0 {
		return nil
	}
	rooms, err := r.FindRooms(ctx, store.RoomFilter{IDs: roomIDs})
	if err != nil {
		return fmt.Errorf("find rooms: %w", err)
	}
	slots, err := r.FindBookingsOverlapping(ctx, store.OverlapFilter{Window: w, RoomIDs: roomIDs, ExcludeBookingID: excludeBookingID})
	if err != nil {
		return fmt.Errorf("find overlapping bookings: %w", err)
	}
	busy := make(map[int64]bool)
	for _, s := range slots {
		busy[s.RoomID] = true
	}

	byID := make(map[int64]model.Room, len(rooms))
	for _, room := range rooms {
		byID[room.ID] = room
	}

	var deactivated, taken []string
	seen := make(map[int64]bool)
	for _, id := range roomIDs {
		room, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		switch {
		case !room.IsActive || !room.BuildingActive:
			deactivated = append(deactivated, room.DisplayCode())
		case busy[id]:
			taken = append(taken, room.DisplayCode())
		}
	}
	if len(deactivated) == 0 && len(taken) == 0 {
		return nil
	}

	var parts, details []string
	for _, d := range deactivated {
		parts = append(parts, "room "+d+deactivatedSuffix)
		details = append(details, d+deactivatedSuffix)
	}
	if len(taken) > 0 {
		parts = append(parts, "room "+strings.Join(taken, ", ")+" is no longer available in the timeslot you selected")
		details = append(details, taken...)
	}
	conflict := apperror.Conflict(strings.Join(parts, "; "))
	conflict.Details = details
	return conflict
}

func inRequestOrder(users []model.User, filter store.UserFilter) []model.User {
	ordered := make([]model.User, 0, len(users))
	used := make([]bool, len(users))
	pick := func(match func(model.User) bool) {
		for i, u := range users {
			if !used[i] && match(u) {
				used[i] = true
				ordered = append(ordered, u)
				return
			}
		}
	}
	if len(filter.IDs) > 0 {
		for _, id := range filter.IDs {
			pick(func(u model.User) bool { return u.ID == id })
		}
	} else {
		for _, email := range filter.Emails {
			pick(func(u model.User) bool { return u.Email == email })
		}
	}
	for i, u := range users {
		if !used[i] {
			ordered = append(ordered, u)
		}
	}
	return ordered
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
