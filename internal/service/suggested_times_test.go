package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/model"
)

func TestGetSuggestedTimesSkipsDailyMeeting(t *testing.T) {
	e := newEnv(t)
	for d := 0; d < 2; d++ {
		start := at(14, 0).AddDate(0, 0, d)
		e.book(model.Window{Start: start, End: start.Add(time.Hour)}, roomMaple, userAnn)
	}

	slots, err := e.bookings.GetSuggestedTimes(context.Background(), SuggestedTimesInput{
		Window:    model.Window{Start: day, End: day.AddDate(0, 0, 2)},
		Duration:  30 * time.Minute,
		Step:      30 * time.Minute,
		Attendees: []string{"ann@example.com", "bob@example.com"},
	})

	require.NoError(t, err)
	assert.Len(t, slots, 96-4)
	for _, s := range slots {
		h := s.Start.Hour()
		assert.False(t, h == 14, "slot %s overlaps the daily meeting", s.Start)
		assert.Equal(t, 30*time.Minute, s.Duration())
	}
	assert.Equal(t, at(13, 30), slots[27].Start)
	assert.Equal(t, at(15, 0), slots[28].Start)
}

func TestGetSuggestedTimesRoundsStartAndSeesPastTheRange(t *testing.T) {
	e := newEnv(t)
	e.store.AddEvent(model.Event{CreatedBy: userBob, Title: "Flight", StartTime: at(11, 30), EndTime: at(13, 0)})

	slots, err := e.bookings.GetSuggestedTimes(context.Background(), SuggestedTimesInput{
		Window:    model.Window{Start: at(10, 10), End: at(11, 30)},
		Duration:  time.Hour,
		Step:      15 * time.Minute,
		Attendees: []string{"bob@example.com"},
	})

	require.NoError(t, err)
	var starts []time.Time
	for _, s := range slots {
		starts = append(starts, s.Start)
	}
	// grid 10:30..11:15; anything ending after 11:30 hits the flight
	assert.Equal(t, []time.Time{at(10, 30)}, starts)
}

func TestGetSuggestedTimesValidation(t *testing.T) {
	tests := []struct {
		name  string
		input SuggestedTimesInput
		kind  apperror.Kind
		want  string
	}{
		{"no attendees", SuggestedTimesInput{Window: window(9, 17), Duration: time.Hour, Step: time.Hour},
			apperror.KindBadRequest, "No attendees inputted"},
		{"past start", SuggestedTimesInput{Window: model.Window{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}, Duration: time.Hour, Step: time.Hour, Attendees: []string{"ann@example.com"}},
			apperror.KindBadRequest, "start time has already passed"},
		{"short range", SuggestedTimesInput{Window: model.Window{Start: at(9, 0), End: at(9, 15)}, Duration: time.Hour, Step: time.Hour, Attendees: []string{"ann@example.com"}},
			apperror.KindBadRequest, "flexible start time range cannot be shorter than 30 minutes"},
		{"long range", SuggestedTimesInput{Window: model.Window{Start: day, End: day.AddDate(0, 0, 31)}, Duration: time.Hour, Step: time.Hour, Attendees: []string{"ann@example.com"}},
			apperror.KindBadRequest, "flexible start time range cannot be greater than 30 days"},
		{"zero step", SuggestedTimesInput{Window: window(9, 17), Duration: time.Hour, Attendees: []string{"ann@example.com"}},
			apperror.KindBadRequest, "step size must be positive"},
		{"zero duration", SuggestedTimesInput{Window: window(9, 17), Step: time.Hour, Attendees: []string{"ann@example.com"}},
			apperror.KindBadRequest, "meeting duration must be positive"},
		{"unknown attendee", SuggestedTimesInput{Window: window(9, 17), Duration: time.Hour, Step: time.Hour, Attendees: []string{"zed@example.com"}},
			apperror.KindNotFound, "user zed@example.com does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			_, err := e.bookings.GetSuggestedTimes(context.Background(), tt.input)

			require.Error(t, err)
			assert.True(t, apperror.Is(err, tt.kind))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
