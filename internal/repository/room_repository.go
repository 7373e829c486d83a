package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
	"github.com/Freeeeeet/room_booking/internal/store"
)

type RoomRepository struct {
	*base.Repository
}

func NewRoomRepository(q base.Querier) *RoomRepository {
	return &RoomRepository{Repository: base.NewRepository(q)}
}

// Find returns rooms joined with their building and equipment, ordered by id.
func (r *RoomRepository) Find(ctx context.Context, filter store.RoomFilter) ([]model.Room, error) {
	query := `
		SELECT r.room_id, r.building_id, r.floor, r.code, r.name, r.seats, r.is_active,
		       b.city_id, b.code, b.is_active,
		       COALESCE(array_agg(re.equipment_id ORDER BY re.equipment_id)
		                FILTER (WHERE re.equipment_id IS NOT NULL), '{}')
		FROM rooms r
		JOIN buildings b ON b.building_id = r.building_id
		LEFT JOIN rooms_equipments re ON re.room_id = r.room_id
		WHERE ($1::bigint[] IS NULL OR r.room_id = ANY($1))
		  AND ($2::text = '' OR b.city_id = $2)
		  AND (NOT $3::boolean OR (r.is_active AND b.is_active))
		  AND ($4::timestamptz IS NULL OR NOT EXISTS (
		        SELECT 1
		        FROM users_bookings ub
		        JOIN bookings bk ON bk.booking_id = ub.booking_id
		        WHERE ub.room_id = r.room_id
		          AND bk.status <> 'canceled'
		          AND bk.start_time < $5
		          AND bk.end_time > $4))
		GROUP BY r.room_id, b.building_id
		ORDER BY r.room_id
	`

	var ids []int64
	if len(filter.IDs) > 0 {
		ids = filter.IDs
	}
	var freeFrom, freeTo *time.Time
	if filter.FreeDuring != nil {
		freeFrom, freeTo = &filter.FreeDuring.Start, &filter.FreeDuring.End
	}

	rows, err := r.Query(ctx, query, ids, filter.CityID, filter.ActiveOnly, freeFrom, freeTo)
	if err != nil {
		return nil, fmt.Errorf("find rooms: %w", base.MapError(err))
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var (
			room      model.Room
			equipment []string
		)
		err := rows.Scan(
			&room.ID,
			&room.BuildingID,
			&room.Floor,
			&room.Code,
			&room.Name,
			&room.Seats,
			&room.IsActive,
			&room.CityID,
			&room.BuildingCode,
			&room.BuildingActive,
			&equipment,
		)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		for _, e := range equipment {
			room.Equipment = append(room.Equipment, model.Equipment(e))
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", base.MapError(err))
	}

	return rooms, nil
}

// SetActive flips the room's active flag.
func (r *RoomRepository) SetActive(ctx context.Context, roomID int64, active bool) error {
	n, err := r.ExecAffected(ctx, `UPDATE rooms SET is_active = $2 WHERE room_id = $1`, roomID, active)
	if err != nil {
		return fmt.Errorf("set room active: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
