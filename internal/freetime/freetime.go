// Package freetime proposes meeting start times that avoid everyone's busy
// intervals.
package freetime

import (
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
)

// Grid yields equally spaced start times in [start, end). It is consumed once:
// after the last value Next keeps returning false.
type Grid struct {
	next time.Time
	end  time.Time
	step time.Duration
	done bool
}

// NewGrid returns a grid over w with the given step. A non-positive step or an
// empty window yields nothing.
func NewGrid(w model.Window, step time.Duration) *Grid {
	return &Grid{
		next: w.Start,
		end:  w.End,
		step: step,
		done: step <= 0 || !w.Start.Before(w.End),
	}
}

// Next returns the following start time, or false once the grid is exhausted.
func (g *Grid) Next() (time.Time, bool) {
	if g.done || !g.next.Before(g.end) {
		g.done = true
		return time.Time{}, false
	}
	t := g.next
	g.next = g.next.Add(g.step)
	return t, true
}

// Find drains grid and keeps every candidate [t, t+duration) that overlaps
// none of busy.
func Find(grid *Grid, duration time.Duration, busy []model.Window) []model.Window {
	var out []model.Window
	for {
		t, ok := grid.Next()
		if !ok {
			return out
		}
		candidate := model.Window{Start: t, End: t.Add(duration)}
		if !overlapsAny(candidate, busy) {
			out = append(out, candidate)
		}
	}
}

func overlapsAny(w model.Window, busy []model.Window) bool {
	for _, b := range busy {
		if w.Overlaps(b) {
			return true
		}
	}
	return false
}

// RoundUp moves t forward to the next half hour boundary, dropping seconds.
// Times already on a boundary are kept.
func RoundUp(t time.Time) time.Time {
	rounded := t.Truncate(30 * time.Minute)
	if rounded.Before(t) {
		rounded = rounded.Add(30 * time.Minute)
	}
	return rounded
}
