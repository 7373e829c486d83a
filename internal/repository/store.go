package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
	"github.com/Freeeeeet/room_booking/internal/store"
)

// Repos bundles the table repositories over one querier. Over a pool it is the
// read side of Store; inside a transaction it is the store.Tx.
type Repos struct {
	Users     *UserRepository
	Rooms     *RoomRepository
	Buildings *BuildingRepository
	Bookings  *BookingRepository
	Events    *EventRepository
}

var _ store.Tx = (*Repos)(nil)

func NewRepos(q base.Querier) *Repos {
	return &Repos{
		Users:     NewUserRepository(q),
		Rooms:     NewRoomRepository(q),
		Buildings: NewBuildingRepository(q),
		Bookings:  NewBookingRepository(q),
		Events:    NewEventRepository(q),
	}
}

func (r *Repos) FindUsers(ctx context.Context, filter store.UserFilter) ([]model.User, error) {
	return r.Users.Find(ctx, filter)
}

func (r *Repos) FindRooms(ctx context.Context, filter store.RoomFilter) ([]model.Room, error) {
	return r.Rooms.Find(ctx, filter)
}

func (r *Repos) FindBuildings(ctx context.Context, cityID string) ([]model.Building, error) {
	return r.Buildings.FindByCity(ctx, cityID)
}

func (r *Repos) GetBuilding(ctx context.Context, id int64) (*model.Building, error) {
	return r.Buildings.GetByID(ctx, id)
}

func (r *Repos) FindBookingsOverlapping(ctx context.Context, filter store.OverlapFilter) ([]model.BookedSlot, error) {
	return r.Bookings.FindOverlapping(ctx, filter)
}

func (r *Repos) FindEventsOverlapping(ctx context.Context, filter store.EventFilter) ([]model.Event, error) {
	return r.Events.FindOverlapping(ctx, filter)
}

func (r *Repos) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	return r.Bookings.GetByID(ctx, id)
}

func (r *Repos) ListBookingsByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	return r.Bookings.ListByUser(ctx, userID)
}

func (r *Repos) Distances(ctx context.Context, from []int64) (model.DistanceTable, error) {
	return r.Buildings.Distances(ctx, from)
}

func (r *Repos) InsertBooking(ctx context.Context, booking *model.Booking) error {
	return r.Bookings.Create(ctx, booking)
}

func (r *Repos) InsertRoomAssignments(ctx context.Context, assignments []model.RoomAssignment) error {
	return r.Bookings.CreateAssignments(ctx, assignments)
}

func (r *Repos) UpdateBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	return r.Bookings.UpdateStatus(ctx, id, status)
}

func (r *Repos) DeleteRoomAssignments(ctx context.Context, bookingID int64) error {
	return r.Bookings.DeleteAssignments(ctx, bookingID)
}

func (r *Repos) InsertBuilding(ctx context.Context, building *model.Building) error {
	return r.Buildings.Create(ctx, building)
}

func (r *Repos) UpdateBuilding(ctx context.Context, building *model.Building) error {
	return r.Buildings.Update(ctx, building)
}

func (r *Repos) UpsertDistances(ctx context.Context, table model.DistanceTable) error {
	return r.Buildings.UpsertDistances(ctx, table)
}

func (r *Repos) SetRoomActive(ctx context.Context, roomID int64, active bool) error {
	return r.Rooms.SetActive(ctx, roomID, active)
}

func (r *Repos) CancelFutureRoomBookings(ctx context.Context, roomID int64, now time.Time) ([]int64, error) {
	return r.Bookings.CancelFutureForRoom(ctx, roomID, now)
}

// Store is the PostgreSQL store.Store.
type Store struct {
	*Repos
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Repos: NewRepos(pool), pool: pool}
}

func (s *Store) WithSerializableTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.withTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.withTx(ctx, pgx.TxOptions{}, fn)
}

func (s *Store) withTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx store.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", base.MapError(err))
	}
	// no-op once committed
	defer tx.Rollback(ctx)

	if err := fn(ctx, NewRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", base.MapError(err))
	}
	return nil
}
