package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
	"github.com/Freeeeeet/room_booking/internal/store"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(q base.Querier) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(q)}
}

// Create inserts the booking row and fills in its id.
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (created_by, created_at, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING booking_id
	`

	err := r.QueryRow(
		ctx, query,
		booking.CreatedBy,
		booking.CreatedAt,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("create booking: %w", base.MapError(err))
	}

	return nil
}

// CreateAssignments copies the (booking, room, user) rows in bulk.
func (r *BookingRepository) CreateAssignments(ctx context.Context, assignments []model.RoomAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	_, err := r.Querier().CopyFrom(
		ctx,
		pgx.Identifier{"users_bookings"},
		[]string{"booking_id", "room_id", "user_id"},
		pgx.CopyFromSlice(len(assignments), func(i int) ([]any, error) {
			a := assignments[i]
			return []any{a.BookingID, a.RoomID, a.UserID}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("create room assignments: %w", base.MapError(err))
	}

	return nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	n, err := r.ExecAffected(ctx, `UPDATE bookings SET status = $2 WHERE booking_id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) DeleteAssignments(ctx context.Context, bookingID int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM users_bookings WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("delete room assignments: %w", err)
	}
	return nil
}

const bookingColumns = `booking_id, created_by, created_at, start_time, end_time, status`

func scanBooking(row interface{ Scan(dest ...any) error }, b *model.Booking) error {
	return row.Scan(
		&b.ID,
		&b.CreatedBy,
		&b.CreatedAt,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
	)
}

// GetByID returns the booking with its assignments, or nil, nil when it does
// not exist.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1`

	var booking model.Booking
	if err := scanBooking(r.QueryRow(ctx, query, id), &booking); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", base.MapError(err))
	}

	assignments, err := r.assignments(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	booking.Assignments = assignments[id]

	return &booking, nil
}

// ListByUser returns every booking the user is assigned to, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_id IN (SELECT booking_id FROM users_bookings WHERE user_id = $1)
		ORDER BY created_at DESC, booking_id DESC
	`

	rows, err := r.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by user: %w", base.MapError(err))
	}
	defer rows.Close()

	var bookings []model.Booking
	var ids []int64
	for rows.Next() {
		var booking model.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
		ids = append(ids, booking.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", base.MapError(err))
	}

	assignments, err := r.assignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].Assignments = assignments[bookings[i].ID]
	}

	return bookings, nil
}

func (r *BookingRepository) assignments(ctx context.Context, bookingIDs []int64) (map[int64][]model.RoomAssignment, error) {
	out := make(map[int64][]model.RoomAssignment, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return out, nil
	}

	rows, err := r.Query(ctx, `
		SELECT booking_id, room_id, user_id
		FROM users_bookings
		WHERE booking_id = ANY($1)
		ORDER BY booking_id, room_id, user_id
	`, bookingIDs)
	if err != nil {
		return nil, fmt.Errorf("get room assignments: %w", base.MapError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var a model.RoomAssignment
		if err := rows.Scan(&a.BookingID, &a.RoomID, &a.UserID); err != nil {
			return nil, fmt.Errorf("scan room assignment: %w", err)
		}
		out[a.BookingID] = append(out[a.BookingID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room assignments: %w", base.MapError(err))
	}

	return out, nil
}

// FindOverlapping returns the non-canceled assignments overlapping the window
// that involve one of the users or rooms.
func (r *BookingRepository) FindOverlapping(ctx context.Context, filter store.OverlapFilter) ([]model.BookedSlot, error) {
	query := `
		SELECT ub.booking_id, ub.room_id, ub.user_id, bk.start_time, bk.end_time
		FROM users_bookings ub
		JOIN bookings bk ON bk.booking_id = ub.booking_id
		WHERE bk.status <> 'canceled'
		  AND bk.start_time < $2
		  AND bk.end_time > $1
		  AND ($3::bigint IS NULL OR bk.booking_id <> $3)
		  AND (ub.user_id = ANY($4) OR ub.room_id = ANY($5))
		ORDER BY ub.booking_id, ub.user_id
	`

	rows, err := r.Query(ctx, query,
		filter.Window.Start, filter.Window.End, filter.ExcludeBookingID, filter.UserIDs, filter.RoomIDs)
	if err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", base.MapError(err))
	}
	defer rows.Close()

	var slots []model.BookedSlot
	for rows.Next() {
		var s model.BookedSlot
		if err := rows.Scan(&s.BookingID, &s.RoomID, &s.UserID, &s.StartTime, &s.EndTime); err != nil {
			return nil, fmt.Errorf("scan booked slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booked slots: %w", base.MapError(err))
	}

	return slots, nil
}

// CancelFutureForRoom cancels confirmed bookings that use the room and start
// after now.
func (r *BookingRepository) CancelFutureForRoom(ctx context.Context, roomID int64, now time.Time) ([]int64, error) {
	query := `
		UPDATE bookings
		SET status = 'canceled'
		WHERE status = 'confirmed'
		  AND start_time > $2
		  AND booking_id IN (SELECT booking_id FROM users_bookings WHERE room_id = $1)
		RETURNING booking_id
	`

	rows, err := r.Query(ctx, query, roomID, now)
	if err != nil {
		return nil, fmt.Errorf("cancel room bookings: %w", base.MapError(err))
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect canceled bookings: %w", base.MapError(err))
	}

	return ids, nil
}
