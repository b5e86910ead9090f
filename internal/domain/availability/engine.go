// Package availability decides how many units of an equipment item are free
// over a time window, given the bookings already committed against it.
//
// Windows are half-open [Start, End): a booking ending at 10:00 and another
// starting at 10:00 never compete for the same unit.
package availability

import (
	"errors"
	"sort"
	"time"
)

// Aggregation modes.
const (
	// ModePeak counts the highest number of units in use at any single instant
	// of the query window. Two bookings that overlap the window but not each
	// other can reuse the same units.
	ModePeak = "peak"
	// ModeSum adds up every booking that overlaps the query window, whether or
	// not they overlap each other.
	ModeSum = "sum"
)

// Domain errors
var (
	ErrInvalidWindow = errors.New("window end must be after start")
	ErrInvalidMode   = errors.New("availability mode must be 'peak' or 'sum'")
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate checks that the window is non-empty.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() || !w.End.After(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// Overlaps reports whether two half-open windows share at least one instant.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Clip returns the intersection of w and o. ok is false when they do not overlap.
func (w Window) Clip(o Window) (Window, bool) {
	if !w.Overlaps(o) {
		return Window{}, false
	}
	c := w
	if o.Start.After(c.Start) {
		c.Start = o.Start
	}
	if o.End.Before(c.End) {
		c.End = o.End
	}
	return c, true
}

// Booking is a committed quantity of one item held by a decided request.
type Booking struct {
	RequestID string
	Window    Window
	Quantity  int
}

// Result is the availability of one item over a query window.
type Result struct {
	Total     int
	Committed int // units in use according to the engine mode
	Available int // Total - Committed, never below zero
	Conflicts []Booking
}

// Segment is a stretch of time with a constant committed quantity.
type Segment struct {
	Window    Window
	Committed int
}

// Engine evaluates availability with one aggregation mode.
type Engine struct {
	Mode string
}

// NewEngine returns an engine for the given mode. An empty mode selects ModePeak.
func NewEngine(mode string) (Engine, error) {
	switch mode {
	case "":
		return Engine{Mode: ModePeak}, nil
	case ModePeak, ModeSum:
		return Engine{Mode: mode}, nil
	default:
		return Engine{}, ErrInvalidMode
	}
}

// Evaluate computes the free units of an item with the given stock.
// PRE: w is valid
// POST: Available = max(0, total - committed); Conflicts lists every overlapping
// booking (excluding excludeRequestID) in start order
func (e Engine) Evaluate(total int, bookings []Booking, w Window, excludeRequestID string) Result {
	relevant := overlapping(bookings, w, excludeRequestID)

	var committed int
	if e.Mode == ModeSum {
		for _, b := range relevant {
			committed += b.Quantity
		}
	} else {
		committed = peak(relevant, w)
	}

	available := total - committed
	if available < 0 {
		available = 0
	}
	return Result{
		Total:     total,
		Committed: committed,
		Available: available,
		Conflicts: relevant,
	}
}

// PeakUsage returns the highest concurrent committed quantity inside w.
func PeakUsage(bookings []Booking, w Window) int {
	return peak(overlapping(bookings, w, ""), w)
}

// Timeline splits w into segments of constant committed quantity. Segments with
// zero usage are included so the result covers the whole window.
// PRE: w is valid
// POST: segments are contiguous, ordered and cover exactly w
func Timeline(bookings []Booking, w Window) []Segment {
	points := boundaries(overlapping(bookings, w, ""), w)

	var segments []Segment
	cursor := w.Start
	level := 0
	for i := 0; i < len(points); {
		at := points[i].at
		if at.After(cursor) {
			segments = appendSegment(segments, Window{Start: cursor, End: at}, level)
			cursor = at
		}
		for i < len(points) && points[i].at.Equal(at) {
			level += points[i].delta
			i++
		}
	}
	if w.End.After(cursor) {
		segments = appendSegment(segments, Window{Start: cursor, End: w.End}, level)
	}
	return segments
}

func appendSegment(segments []Segment, w Window, level int) []Segment {
	if n := len(segments); n > 0 && segments[n-1].Committed == level {
		segments[n-1].Window.End = w.End
		return segments
	}
	return append(segments, Segment{Window: w, Committed: level})
}

func overlapping(bookings []Booking, w Window, excludeRequestID string) []Booking {
	var out []Booking
	for _, b := range bookings {
		if b.Quantity <= 0 {
			continue
		}
		if excludeRequestID != "" && b.RequestID == excludeRequestID {
			continue
		}
		if b.Window.Overlaps(w) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Window.Start.Before(out[j].Window.Start)
	})
	return out
}

type boundary struct {
	at    time.Time
	delta int
}

// boundaries returns the clipped start/end points of the bookings. At equal
// instants releases sort before acquisitions so back-to-back bookings do not stack.
func boundaries(bookings []Booking, w Window) []boundary {
	points := make([]boundary, 0, 2*len(bookings))
	for _, b := range bookings {
		c, ok := b.Window.Clip(w)
		if !ok {
			continue
		}
		points = append(points,
			boundary{at: c.Start, delta: b.Quantity},
			boundary{at: c.End, delta: -b.Quantity},
		)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].at.Equal(points[j].at) {
			return points[i].delta < points[j].delta
		}
		return points[i].at.Before(points[j].at)
	})
	return points
}

func peak(bookings []Booking, w Window) int {
	level, highest := 0, 0
	for _, p := range boundaries(bookings, w) {
		level += p.delta
		if level > highest {
			highest = level
		}
	}
	return highest
}
