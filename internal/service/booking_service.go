package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/availability"
	"github.com/Freeeeeet/room_booking/internal/distance"
	"github.com/Freeeeeet/room_booking/internal/metrics"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/notify"
	"github.com/Freeeeeet/room_booking/internal/store"
)

type BookingService struct {
	store       store.Store
	distances   distance.Provider
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
	maxAttempts int
}

type Option func(*options)

type options struct {
	now         func() time.Time
	maxAttempts int
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMaxAttempts bounds serializable transaction attempts.
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewBookingService(
	st store.Store,
	distances distance.Provider,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *BookingService {
	o := buildOptions(opts)
	if distances == nil {
		distances = distance.Direct{Source: st}
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &BookingService{
		store:       st,
		distances:   distances,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		now:         o.now,
		maxAttempts: o.maxAttempts,
	}
}

type CreateBookingInput struct {
	CreatorID int64
	// CreatedAt defaults to the current time.
	CreatedAt time.Time
	Window    model.Window
	// RoomIDs[i] hosts the users of Groups[i].
	RoomIDs []int64
	Groups  [][]int64
}

// CreateBooking books every room for its attendee group in one serializable
// transaction. Availability is checked again inside the transaction.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (booking *model.Booking, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.OpCreateBooking, outcome(err), started) }()

	now := s.now()
	w := in.Window.UTC()
	if err := validateAssignment(in.RoomIDs, in.Groups); err != nil {
		return nil, err
	}
	if err := validateMeeting(w, now); err != nil {
		return nil, err
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	attemptID := uuid.NewString()
	logger := s.logger.With(zap.String("attempt_id", attemptID))
	attendees := flatten(in.Groups)

	err = serializable(ctx, s.store, s.maxAttempts, metrics.OpCreateBooking, s.metrics, logger,
		func(ctx context.Context, tx store.Tx) error {
			if err := availability.CheckParticipants(ctx, tx, in.CreatorID, attendees, w, nil); err != nil {
				return err
			}
			if err := availability.CheckRooms(ctx, tx, in.RoomIDs, w, nil); err != nil {
				return err
			}

			b := &model.Booking{
				CreatedBy: in.CreatorID,
				CreatedAt: createdAt.UTC(),
				StartTime: w.Start,
				EndTime:   w.End,
				Status:    model.BookingStatusConfirmed,
			}
			if err := tx.InsertBooking(ctx, b); err != nil {
				return fmt.Errorf("insert booking: %w", err)
			}
			b.Assignments = assignments(b.ID, in.RoomIDs, in.Groups)
			if err := tx.InsertRoomAssignments(ctx, b.Assignments); err != nil {
				return fmt.Errorf("insert room assignments: %w", err)
			}
			booking = b
			return nil
		})
	if err != nil {
		return nil, err
	}

	logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("created_by", booking.CreatedBy),
		zap.Time("start_time", booking.StartTime),
		zap.Time("end_time", booking.EndTime),
		zap.Int("rooms", len(in.RoomIDs)),
		zap.Int("attendees", len(attendees)),
	)
	s.notify(ctx, notify.KindConfirmed, booking)
	return booking, nil
}

type UpdateBookingInput struct {
	BookingID int64
	Status    model.BookingStatus
	// Ignored when canceling.
	RoomIDs []int64
	Groups  [][]int64
}

// UpdateBooking cancels a booking or replaces its room assignments. Canceled
// bookings and bookings that already started cannot be changed.
func (s *BookingService) UpdateBooking(ctx context.Context, in UpdateBookingInput) (booking *model.Booking, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.OpUpdateBooking, outcome(err), started) }()

	if !in.Status.Valid() {
		return nil, apperror.BadRequest(fmt.Sprintf("unknown booking status %q", in.Status))
	}
	cancel := in.Status == model.BookingStatusCanceled
	if !cancel {
		if err := validateAssignment(in.RoomIDs, in.Groups); err != nil {
			return nil, err
		}
	}

	now := s.now()
	logger := s.logger.With(zap.String("attempt_id", uuid.NewString()), zap.Int64("booking_id", in.BookingID))

	err = serializable(ctx, s.store, s.maxAttempts, metrics.OpUpdateBooking, s.metrics, logger,
		func(ctx context.Context, tx store.Tx) error {
			b, err := tx.GetBooking(ctx, in.BookingID)
			if err != nil {
				return fmt.Errorf("get booking: %w", err)
			}
			if b == nil || b.Status == model.BookingStatusCanceled {
				return apperror.NotFound("booking does not exist")
			}
			if !b.StartTime.After(now) {
				return apperror.BadRequest("start time has already passed")
			}

			if cancel {
				if err := tx.UpdateBookingStatus(ctx, b.ID, model.BookingStatusCanceled); err != nil {
					return fmt.Errorf("update booking status: %w", err)
				}
				b.Status = model.BookingStatusCanceled
				booking = b
				return nil
			}

			w := b.Window()
			if err := availability.CheckParticipants(ctx, tx, b.CreatedBy, flatten(in.Groups), w, &b.ID); err != nil {
				return err
			}
			if err := availability.CheckRooms(ctx, tx, in.RoomIDs, w, &b.ID); err != nil {
				return err
			}
			if err := tx.DeleteRoomAssignments(ctx, b.ID); err != nil {
				return fmt.Errorf("delete room assignments: %w", err)
			}
			b.Assignments = assignments(b.ID, in.RoomIDs, in.Groups)
			if err := tx.InsertRoomAssignments(ctx, b.Assignments); err != nil {
				return fmt.Errorf("insert room assignments: %w", err)
			}
			booking = b
			return nil
		})
	if err != nil {
		return nil, err
	}

	kind := notify.KindUpdated
	if cancel {
		kind = notify.KindCanceled
	}
	logger.Info("Booking updated",
		zap.String("status", string(booking.Status)),
		zap.Int("assignments", len(booking.Assignments)),
	)
	s.notify(ctx, kind, booking)
	return booking, nil
}

// GetBooking returns a booking with its room assignments.
func (s *BookingService) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, translate(fmt.Errorf("get booking: %w", err))
	}
	if b == nil {
		return nil, apperror.NotFound("booking does not exist")
	}
	return b, nil
}

// ListUserBookings returns the bookings a user is assigned to, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	bookings, err := s.store.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, translate(fmt.Errorf("list bookings: %w", err))
	}
	return bookings, nil
}

// notify reports a committed change.
func (s *BookingService) notify(ctx context.Context, kind notify.Kind, b *model.Booking) {
	announce(ctx, s.store, s.notifier, s.logger, kind, b, s.now())
}

// announce sends a notification for b. Failures are logged and never undo
// the committed change.
func announce(ctx context.Context, r store.Reader, n notify.Notifier, logger *zap.Logger, kind notify.Kind, b *model.Booking, at time.Time) {
	event, err := describe(ctx, r, kind, b, at)
	if err == nil {
		err = n.Notify(ctx, event)
	}
	if err != nil {
		logger.Warn("Failed to send booking notification",
			zap.Int64("booking_id", b.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

// describe resolves the names a notification shows for b.
func describe(ctx context.Context, r store.Reader, kind notify.Kind, b *model.Booking, at time.Time) (notify.Event, error) {
	event := notify.Event{
		Kind:      kind,
		BookingID: b.ID,
		Window:    b.Window(),
		At:        at,
	}

	creators, err := r.FindUsers(ctx, store.UserFilter{IDs: []int64{b.CreatedBy}})
	if err != nil {
		return event, fmt.Errorf("find creator: %w", err)
	}
	if len(creators) > 0 {
		event.Creator = creators[0].DisplayName()
	}

	var roomIDs []int64
	users := make(map[int64]bool)
	for _, a := range b.Assignments {
		if !containsID(roomIDs, a.RoomID) {
			roomIDs = append(roomIDs, a.RoomID)
		}
		users[a.UserID] = true
	}
	event.Attendees = len(users)
	if len(roomIDs) == 0 {
		return event, nil
	}

	rooms, err := r.FindRooms(ctx, store.RoomFilter{IDs: roomIDs})
	if err != nil {
		return event, fmt.Errorf("find rooms: %w", err)
	}
	for _, room := range rooms {
		event.Rooms = append(event.Rooms, room.DisplayCode())
	}
	return event, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
