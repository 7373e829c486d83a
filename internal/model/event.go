package model

import "time"

// Event is a personal calendar entry. It only ever blocks its owner.
type Event struct {
	ID        int64     `json:"id"`
	CreatedBy int64     `json:"created_by"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (e *Event) Window() Window {
	return Window{Start: e.StartTime, End: e.EndTime}
}
