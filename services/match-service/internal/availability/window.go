package availability

import (
	"fmt"

	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/matching"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/slottime"
)

// Window is a waking window [Start, End) on the minute-of-day axis.
// When Start is after End the window wraps past midnight:
// [Start, 1440) ∪ [0, End). Start equal to End is empty.
type Window struct {
	Start slottime.Clock
	End   slottime.Clock
}

// NewWindow builds a window with the lenient parser; unrecognized bounds
// become midnight.
func NewWindow(start, end any) Window {
	return Window{Start: slottime.Parse(start), End: slottime.Parse(end)}
}

// ParseWindow is the strict form for input coming from clients.
func ParseWindow(start, end string) (Window, error) {
	s, err := slottime.ParseStrict(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := slottime.ParseStrict(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) Wraps() bool {
	return w.Start.MinuteOfDay() > w.End.MinuteOfDay()
}

// Contains reports whether minute-of-day m falls inside the window.
func (w Window) Contains(m int) bool {
	start, end := w.Start.MinuteOfDay(), w.End.MinuteOfDay()
	if start <= end {
		return m >= start && m < end
	}
	return (m >= start && m < slottime.MinutesPerDay) || (m >= 0 && m < end)
}

// FilterDay keeps the slots of day whose start falls inside the window,
// preserving their order.
func FilterDay(day schedule.Day, w Window) schedule.Day {
	out := make(schedule.Day, 0, len(day))
	for _, s := range day {
		if s.Hour < 0 || s.Hour >= schedule.SlotsPerDay {
			continue
		}
		if w.Contains(slottime.Parse(s.Hour).MinuteOfDay()) {
			out = append(out, s)
		}
	}
	return out
}

// Hours returns the hour slots whose start falls inside the window.
func (w Window) Hours() matching.HourSet {
	var set matching.HourSet
	for h := 0; h < schedule.SlotsPerDay; h++ {
		if w.Contains(h * 60) {
			set = set.Add(h)
		}
	}
	return set
}
