package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/metrics"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/notify"
	"github.com/Freeeeeet/room_booking/internal/store"
)

// RoomService handles room administration.
type RoomService struct {
	store    store.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewRoomService(st store.Store, notifier notify.Notifier, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *RoomService {
	o := buildOptions(opts)
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &RoomService{
		store:    st,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      o.now,
	}
}

// SetRoomActive toggles a room. Deactivating it cancels every confirmed
// booking that uses the room and has not started yet; their ids are returned.
func (s *RoomService) SetRoomActive(ctx context.Context, caller model.Caller, roomID int64, active bool) (canceled []int64, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.OpSetRoomActive, outcome(err), started) }()

	if !caller.IsAdmin {
		return nil, apperror.Unauthorized("admin role required")
	}

	now := s.now()
	var bookings []*model.Booking
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		bookings = nil
		if err := tx.SetRoomActive(ctx, roomID, active); err != nil {
			return fmt.Errorf("set room active: %w", err)
		}
		if active {
			return nil
		}
		ids, err := tx.CancelFutureRoomBookings(ctx, roomID, now)
		if err != nil {
			return fmt.Errorf("cancel room bookings: %w", err)
		}
		for _, id := range ids {
			b, err := tx.GetBooking(ctx, id)
			if err != nil {
				return fmt.Errorf("get booking: %w", err)
			}
			if b != nil {
				bookings = append(bookings, b)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("room does not exist").Wrap(err)
		}
		return nil, translate(err)
	}

	canceled = make([]int64, len(bookings))
	for i, b := range bookings {
		canceled[i] = b.ID
	}
	s.metrics.AddCanceledByRoom(len(canceled))
	s.logger.Info("Room active flag changed",
		zap.Int64("room_id", roomID),
		zap.Bool("active", active),
		zap.Int64s("canceled_bookings", canceled),
	)

	for _, b := range bookings {
		announce(ctx, s.store, s.notifier, s.logger, notify.KindCanceled, b, now)
	}
	return canceled, nil
}
