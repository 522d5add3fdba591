// Package matching computes the hours of a day at which every selected
// participant is free.
package matching

import (
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/slottime"
)

// Policy decides which statuses count as free. Unknown and unavailable
// never do.
type Policy struct {
	TentativeCountsAsFree bool
}

func (p Policy) IsFree(st schedule.Status) bool {
	switch st {
	case schedule.StatusFree:
		return true
	case schedule.StatusTentative:
		return p.TentativeCountsAsFree
	case schedule.StatusUnknown, schedule.StatusUnavailable:
		return false
	default:
		return false
	}
}

// Match is one matched hour with its display labels.
type Match struct {
	HourIndex int    `json:"hourIndex"`
	Label24h  string `json:"label24h"`
	Label12h  string `json:"label12h"`
}

type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// AvailableHours returns the hours of day at which p is free.
// When an hour is recorded twice the later slot wins.
func (e *Engine) AvailableHours(p schedule.Participant, day int) HourSet {
	var set HourSet
	for _, s := range p.Schedule.Day(day) {
		if s.Hour < 0 || s.Hour >= schedule.SlotsPerDay {
			continue
		}
		if e.policy.IsFree(s.Status) {
			set = set.Add(s.Hour)
		} else {
			set &^= 1 << uint(s.Hour)
		}
	}
	return set
}

// FindMatchingHours returns, ascending, the hours of day at which every
// participant named in selectedIDs is free. Ids with no participant are
// ignored; an empty selection yields no hours.
func (e *Engine) FindMatchingHours(participants []schedule.Participant, selectedIDs []string, day int) []int {
	return e.FindMatchingHoursWithin(participants, selectedIDs, day, AllHours)
}

// FindMatchingHoursWithin is FindMatchingHours restricted to the hours in mask.
func (e *Engine) FindMatchingHoursWithin(participants []schedule.Participant, selectedIDs []string, day int, mask HourSet) []int {
	set, ok := e.intersect(participants, selectedIDs, day)
	if !ok {
		return []int{}
	}
	return set.Intersect(mask).Hours()
}

// intersect runs in O(P×H): one pass to index the selection, one pass over
// each selected participant's slots. ok is false when nobody is selected.
func (e *Engine) intersect(participants []schedule.Participant, selectedIDs []string, day int) (HourSet, bool) {
	if len(selectedIDs) == 0 || !schedule.ValidDay(day) {
		return 0, false
	}
	selected := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = struct{}{}
	}

	running := AllHours
	seen := false
	for _, p := range participants {
		if _, ok := selected[p.ID]; !ok {
			continue
		}
		seen = true
		running = running.Intersect(e.AvailableHours(p, day))
		if running.Empty() {
			return 0, true
		}
	}
	return running, seen
}

// BuildMatches decorates the matching hours with their labels.
func (e *Engine) BuildMatches(participants []schedule.Participant, selectedIDs []string, day int) []Match {
	return Decorate(e.FindMatchingHours(participants, selectedIDs, day))
}

func (e *Engine) BuildMatchesWithin(participants []schedule.Participant, selectedIDs []string, day int, mask HourSet) []Match {
	return Decorate(e.FindMatchingHoursWithin(participants, selectedIDs, day, mask))
}

func Decorate(hours []int) []Match {
	out := make([]Match, 0, len(hours))
	for _, h := range hours {
		out = append(out, Match{
			HourIndex: h,
			Label24h:  slottime.FormatOneHourRange(h),
			Label12h:  slottime.FormatOneHourRange12(h),
		})
	}
	return out
}

// Contains reports whether hour is one of matches.
func Contains(matches []Match, hour int) (Match, bool) {
	for _, m := range matches {
		if m.HourIndex == hour {
			return m, true
		}
	}
	return Match{}, false
}
