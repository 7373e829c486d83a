package model

import "time"

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Overlaps reports whether w and o share any instant. Windows that only touch
// at an endpoint do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// UTC returns w with both ends converted to UTC.
func (w Window) UTC() Window {
	return Window{Start: w.Start.UTC(), End: w.End.UTC()}
}
