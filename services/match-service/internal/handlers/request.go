package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/availability"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/matching"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"
)

var (
	errSelectedIDs = errors.New("selectedIds must be an array of strings")
	errDayIndex    = errors.New("dayIndex must be an integer between 0 and 6")
	errHourIndex   = errors.New("hourIndex must be an integer between 0 and 23")
	errWindow      = errors.New("wakingWindow must have parseable start and end times")
)

// Fields are kept raw so a wrong JSON type is a validation error, not a
// decode error with a library message.
type matchRequest struct {
	SelectedIDs  json.RawMessage `json:"selectedIds"`
	DayIndex     json.RawMessage `json:"dayIndex"`
	HourIndex    json.RawMessage `json:"hourIndex"`
	WakingWindow *windowRequest  `json:"wakingWindow"`
}

type windowRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func parseSelectedIDs(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errSelectedIDs
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, errSelectedIDs
	}
	return ids, nil
}

// parseIndex accepts a JSON number holding an integer in [lo, hi].
func parseIndex(raw json.RawMessage, lo, hi int, fail error) (int, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fail
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || f < float64(lo) || f > float64(hi) {
		return 0, fail
	}
	return int(f), nil
}

func parseDayIndex(raw json.RawMessage) (int, error) {
	return parseIndex(raw, schedule.Sunday, schedule.Saturday, errDayIndex)
}

func parseHourIndex(raw json.RawMessage) (int, error) {
	return parseIndex(raw, 0, schedule.SlotsPerDay-1, errHourIndex)
}

// mask is every hour when no window was sent.
func (r matchRequest) mask() (matching.HourSet, error) {
	if r.WakingWindow == nil {
		return matching.AllHours, nil
	}
	w, err := availability.ParseWindow(r.WakingWindow.Start, r.WakingWindow.End)
	if err != nil {
		return 0, errWindow
	}
	return w.Hours(), nil
}
