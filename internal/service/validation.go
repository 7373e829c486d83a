package service

import (
	"time"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/model"
)

const (
	slotLength      = 30 * time.Minute
	maxMeeting      = 24 * time.Hour
	maxSearchWindow = 30 * 24 * time.Hour
)

// validateMeeting checks the booked window against the meeting length rules
// and requires it to start after now.
func validateMeeting(w model.Window, now time.Time) error {
	if !w.Start.Before(w.End) {
		return apperror.BadRequest("start time must be before end time")
	}
	d := w.Duration()
	if d%slotLength != 0 {
		return apperror.BadRequest("meeting duration must be a multiple of 30 minutes")
	}
	if d < slotLength {
		return apperror.BadRequest("meeting cannot be shorter than 30 minutes")
	}
	if d > maxMeeting {
		return apperror.BadRequest("meeting cannot be longer than 1 day")
	}
	if !w.Start.After(now) {
		return apperror.BadRequest("start time has already passed")
	}
	return nil
}

// validateAssignment checks the shape of a room assignment: one non-empty
// group per room, no user in two groups and no room used twice.
func validateAssignment(roomIDs []int64, groups [][]int64) error {
	if len(roomIDs) == 0 {
		return apperror.BadRequest("at least one room is required")
	}
	if len(roomIDs) != len(groups) {
		return apperror.BadRequest("number of rooms must be equal to number of attendee groups")
	}

	rooms := make(map[int64]bool, len(roomIDs))
	for _, id := range roomIDs {
		if rooms[id] {
			return apperror.BadRequest("a room cannot be assigned to more than one group")
		}
		rooms[id] = true
	}

	users := make(map[int64]bool)
	for _, group := range groups {
		if len(group) == 0 {
			return apperror.BadRequest("attendee groups cannot be empty")
		}
		for _, id := range group {
			if users[id] {
				return apperror.BadRequest("an attendee cannot be in more than one group")
			}
			users[id] = true
		}
	}
	return nil
}

// validateSearchRange checks a flexible start time range for suggested times.
func validateSearchRange(w model.Window, now time.Time) error {
	if w.Start.Before(now) {
		return apperror.BadRequest("start time has already passed")
	}
	if w.Duration() < slotLength {
		return apperror.BadRequest("flexible start time range cannot be shorter than 30 minutes")
	}
	if w.Duration() > maxSearchWindow {
		return apperror.BadRequest("flexible start time range cannot be greater than 30 days")
	}
	return nil
}

func assignments(bookingID int64, roomIDs []int64, groups [][]int64) []model.RoomAssignment {
	var out []model.RoomAssignment
	for i, group := range groups {
		for _, userID := range group {
			out = append(out, model.RoomAssignment{BookingID: bookingID, RoomID: roomIDs[i], UserID: userID})
		}
	}
	return out
}

func flatten[T any](groups [][]T) []T {
	var out []T
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
