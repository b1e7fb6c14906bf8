package booking

import (
	"errors"
	"time"
)

var ErrInvalidWindow = errors.New("window start must be before window end")

// Window is a half-open [start, end) time interval.
type Window struct {
	start time.Time
	end   time.Time
}

func NewWindow(start, end time.Time) (Window, error) {
	if !start.Before(end) {
		return Window{}, ErrInvalidWindow
	}
	return Window{start: start, end: end}, nil
}

func (w Window) Start() time.Time        { return w.start }
func (w Window) End() time.Time          { return w.end }
func (w Window) Duration() time.Duration { return w.end.Sub(w.start) }

// Overlaps uses half-open interval intersection: two windows overlap when
// each starts before the other ends.
func (w Window) Overlaps(other Window) bool {
	return w.start.Before(other.end) && other.start.Before(w.end)
}

const (
	// WarningShortNotice flags bookings created closer to their start than
	// the advisory lead time. It never blocks creation.
	WarningShortNotice = "short_notice"

	// ShortNoticeLead is the advisory minimum lead before the window start.
	ShortNoticeLead = 48 * time.Hour
)

// Warnings is the advisory annotation map attached to a booking at creation
// and frozen thereafter.
type Warnings map[string]string

// ComputeWarnings derives the creation-time warnings for a window.
func ComputeWarnings(now time.Time, w Window) Warnings {
	warnings := Warnings{}
	if w.start.Sub(now) < ShortNoticeLead {
		warnings[WarningShortNotice] = "booking starts less than 2 days from now"
	}
	return warnings
}

func (w Warnings) Clone() Warnings {
	out := make(Warnings, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
