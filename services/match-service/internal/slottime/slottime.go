// Package slottime converts between the time-of-day representations clients
// send (24h strings, 12h strings, bare hours) and the canonical Clock value,
// and renders the one-hour range labels shown next to a matched slot.
package slottime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	HoursPerDay   = 24
	MinutesPerDay = 1440
)

// ErrUnparsable is returned by ParseStrict for input no layout recognizes.
var ErrUnparsable = errors.New("unrecognized time of day")

// Clock is a time of day with Hour in 0..23 and Minute in 0..59.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) MinuteOfDay() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return Format24Hour(c.Hour, c.Minute)
}

var layouts24 = []string{"15:04"}

var layouts12 = []string{"3:04 PM", "3:04PM", "3 PM", "3PM"}

// Parse resolves raw to a Clock. Input nothing recognizes becomes midnight
// ({0,0}); use ParseStrict where the caller can reject input instead.
func Parse(raw any) Clock {
	c, err := ParseStrict(raw)
	if err != nil {
		return Clock{}
	}
	return c
}

// ParseStrict accepts "HH:MM", 12-hour forms such as "9:30 PM", "9pm" and
// "9:00 p.m.", numeric strings, and any Go number. Numbers are floored and
// wrapped into 0..23 with minute 0.
func ParseStrict(raw any) (Clock, error) {
	switch v := raw.(type) {
	case Clock:
		if v.Hour < 0 || v.Hour >= HoursPerDay || v.Minute < 0 || v.Minute >= 60 {
			return Clock{}, fmt.Errorf("%w: %d:%d", ErrUnparsable, v.Hour, v.Minute)
		}
		return v, nil
	case string:
		return parseString(v)
	case int:
		return fromNumber(float64(v))
	case int8:
		return fromNumber(float64(v))
	case int16:
		return fromNumber(float64(v))
	case int32:
		return fromNumber(float64(v))
	case int64:
		return fromNumber(float64(v))
	case uint:
		return fromNumber(float64(v))
	case uint8:
		return fromNumber(float64(v))
	case uint16:
		return fromNumber(float64(v))
	case uint32:
		return fromNumber(float64(v))
	case uint64:
		return fromNumber(float64(v))
	case float32:
		return fromNumber(float64(v))
	case float64:
		return fromNumber(v)
	default:
		return Clock{}, fmt.Errorf("%w: unsupported type %T", ErrUnparsable, raw)
	}
}

func fromNumber(f float64) (Clock, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Clock{}, fmt.Errorf("%w: %v", ErrUnparsable, f)
	}
	h := math.Mod(math.Floor(f), HoursPerDay)
	if h < 0 {
		h += HoursPerDay
	}
	return Clock{Hour: int(h)}, nil
}

func parseString(raw string) (Clock, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Clock{}, fmt.Errorf("%w: empty", ErrUnparsable)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromNumber(f)
	}

	for _, layout := range layouts24 {
		if t, err := time.Parse(layout, s); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}

	norm := normalizeMeridiem(s)
	for _, layout := range layouts12 {
		if t, err := time.Parse(layout, norm); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return Clock{}, fmt.Errorf("%w: %q", ErrUnparsable, raw)
}

// normalizeMeridiem rewrites "9:00 a.m." and "9:00 am." into "9:00 AM".
func normalizeMeridiem(s string) string {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	s = strings.TrimSuffix(s, ".")
	s = strings.ReplaceAll(s, "A.M", "AM")
	s = strings.ReplaceAll(s, "P.M", "PM")
	return s
}

func Format24Hour(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// FormatOneHourRange renders "HH:MM - HH:MM". The end wraps past midnight,
// so 23 renders "23:00 - 00:00".
func FormatOneHourRange(raw any) string {
	c := Parse(raw)
	return Format24Hour(c.Hour, c.Minute) + " - " + Format24Hour((c.Hour+1)%HoursPerDay, c.Minute)
}

type period string

const (
	am period = "am"
	pm period = "pm"
)

func (p period) flip() period {
	if p == am {
		return pm
	}
	return am
}

func periodOf(hour int) period {
	if hour < 12 {
		return am
	}
	return pm
}

func hour12(hour int) int {
	if h := hour % 12; h != 0 {
		return h
	}
	return 12
}

func label12(hour, minute int, p period) string {
	return fmt.Sprintf("%d:%02d %s.", hour12(hour), minute, p)
}

// FormatOneHourRange12 renders "9:00 am. - 10:00 am.". The end period is the
// start period, flipped only when the hour after start reaches noon or midnight.
func FormatOneHourRange12(raw any) string {
	c := Parse(raw)
	startPeriod := periodOf(c.Hour)
	next := c.Hour + 1
	endPeriod := startPeriod
	if next == 12 || next == HoursPerDay {
		endPeriod = startPeriod.flip()
	}
	return label12(c.Hour, c.Minute, startPeriod) + " - " + label12(next%HoursPerDay, c.Minute, endPeriod)
}
