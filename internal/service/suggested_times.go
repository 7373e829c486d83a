package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/freetime"
	"github.com/Freeeeeet/room_booking/internal/metrics"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/store"
)

type SuggestedTimesInput struct {
	// Window is the range meetings may start in.
	Window    model.Window
	Duration  time.Duration
	Step      time.Duration
	Attendees []string // emails
}

// GetSuggestedTimes lists every start time on a Step grid over Window at
// which none of the attendees is busy for Duration. The grid starts at the
// next half hour.
func (s *BookingService) GetSuggestedTimes(ctx context.Context, in SuggestedTimesInput) (slots []model.Window, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.OpSuggestedTimes, outcome(err), started) }()

	if len(in.Attendees) == 0 {
		return nil, apperror.BadRequest("No attendees inputted")
	}
	w := in.Window.UTC()
	if err := validateSearchRange(w, s.now()); err != nil {
		return nil, err
	}
	if in.Duration <= 0 {
		return nil, apperror.BadRequest("meeting duration must be positive")
	}
	if in.Step <= 0 {
		return nil, apperror.BadRequest("step size must be positive")
	}
	w.Start = freetime.RoundUp(w.Start)

	users, err := resolveEmails(ctx, s.store, in.Attendees)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	// Meetings starting near the end of the range reach past it.
	reach := model.Window{Start: w.Start, End: w.End.Add(in.Duration)}
	busy, err := busyWindows(ctx, s.store, ids, reach)
	if err != nil {
		return nil, translate(err)
	}

	slots = freetime.Find(freetime.NewGrid(w, in.Step), in.Duration, busy)
	s.logger.Info("Suggested times computed",
		zap.Int("attendees", len(ids)),
		zap.Int("busy_intervals", len(busy)),
		zap.Int("slots", len(slots)),
	)
	return slots, nil
}

// busyWindows collects the confirmed bookings and personal events of users
// overlapping w.
func busyWindows(ctx context.Context, r store.Reader, userIDs []int64, w model.Window) ([]model.Window, error) {
	booked, err := r.FindBookingsOverlapping(ctx, store.OverlapFilter{Window: w, UserIDs: userIDs})
	if err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	events, err := r.FindEventsOverlapping(ctx, store.EventFilter{Window: w, UserIDs: userIDs})
	if err != nil {
		return nil, fmt.Errorf("find overlapping events: %w", err)
	}

	busy := make([]model.Window, 0, len(booked)+len(events))
	for _, b := range booked {
		busy = append(busy, model.Window{Start: b.StartTime, End: b.EndTime})
	}
	for i := range events {
		busy = append(busy, events[i].Window())
	}
	return busy, nil
}
