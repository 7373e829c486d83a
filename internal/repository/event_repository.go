package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
	"github.com/Freeeeeet/room_booking/internal/store"
)

// EventRepository reads personal calendar entries. Events are managed
// elsewhere; the engine only needs to know when they block someone.
type EventRepository struct {
	*base.Repository
}

func NewEventRepository(q base.Querier) *EventRepository {
	return &EventRepository{Repository: base.NewRepository(q)}
}

func (r *EventRepository) FindOverlapping(ctx context.Context, filter store.EventFilter) ([]model.Event, error) {
	query := `
		SELECT event_id, created_by, title, start_time, end_time
		FROM events
		WHERE created_by = ANY($1)
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY event_id
	`

	rows, err := r.Query(ctx, query, filter.UserIDs, filter.Window.Start, filter.Window.End)
	if err != nil {
		return nil, fmt.Errorf("find overlapping events: %w", base.MapError(err))
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.CreatedBy, &e.Title, &e.StartTime, &e.EndTime); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", base.MapError(err))
	}

	return events, nil
}
