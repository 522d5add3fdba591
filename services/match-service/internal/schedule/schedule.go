// Package schedule holds the weekly availability model and the read-only
// stores the match engine consumes.
package schedule

import (
	"context"
	"strings"
)

const (
	DaysPerWeek = 7
	SlotsPerDay = 24
	Sunday      = 0
	Saturday    = 6
)

// Status is the availability of one hourly slot. The zero value is
// StatusUnknown, which every consumer must treat as unavailable.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusUnavailable
	StatusFree
	StatusTentative
)

func (s Status) String() string {
	switch s {
	case StatusUnavailable:
		return "unavailable"
	case StatusFree:
		return "free"
	case StatusTentative:
		return "tentative"
	default:
		return "unknown"
	}
}

// Known reports whether s carries a recorded status.
func (s Status) Known() bool {
	return s >= StatusUnavailable && s <= StatusTentative
}

// ParseStatus maps stored or client values onto a Status. Anything it does not
// recognize is StatusUnknown rather than an error.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "unavailable", "busy":
		return StatusUnavailable
	case "free", "available":
		return StatusFree
	case "tentative", "maybe":
		return StatusTentative
	default:
		return StatusUnknown
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

type Slot struct {
	Hour   int    `json:"hour"`
	Status Status `json:"status"`
}

// Day is the slots recorded for one day of the week, in any order.
// Hours with no slot are unknown.
type Day []Slot

// Status returns the status recorded for hour, the last one winning when an
// hour was recorded twice.
func (d Day) Status(hour int) Status {
	st := StatusUnknown
	for _, s := range d {
		if s.Hour == hour {
			st = s.Status
		}
	}
	return st
}

// Week is indexed by day of week, 0 = Sunday.
type Week [DaysPerWeek]Day

// Set records status for (day, hour), replacing an earlier entry.
// Out of range positions are ignored.
func (w *Week) Set(day, hour int, status Status) {
	if !ValidDay(day) || hour < 0 || hour >= SlotsPerDay {
		return
	}
	for i := range w[day] {
		if w[day][i].Hour == hour {
			w[day][i].Status = status
			return
		}
	}
	w[day] = append(w[day], Slot{Hour: hour, Status: status})
}

// Day returns the slots of day, or nil when day is out of range.
func (w Week) Day(day int) Day {
	if !ValidDay(day) {
		return nil
	}
	return w[day]
}

func (w Week) clone() Week {
	var out Week
	for i, d := range w {
		if d != nil {
			out[i] = append(Day(nil), d...)
		}
	}
	return out
}

type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Schedule Week   `json:"schedule"`
}

// Clone returns a deep copy so callers can never mutate a store's snapshot.
func (p Participant) Clone() Participant {
	p.Schedule = p.Schedule.clone()
	return p
}

func ValidDay(day int) bool {
	return day >= Sunday && day <= Saturday
}

// Store is a read-only view over participant schedules.
type Store interface {
	Participants(ctx context.Context) ([]Participant, error)
}

func cloneAll(ps []Participant) []Participant {
	out := make([]Participant, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}
