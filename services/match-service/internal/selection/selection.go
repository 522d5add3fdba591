// Package selection owns which participants are being compared and which
// matched hour, if any, has been confirmed. Every operation returns a new
// value; nothing here is mutated in place.
package selection

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMax is the selection cap when none is configured.
const DefaultMax = 5

var (
	ErrEmptySelection   = errors.New("selection must contain at least one participant")
	ErrSelectionOverCap = errors.New("selection exceeds the participant cap")
)

// Outcome tells the caller what a Toggle did. Only Added and Removed change
// the selection; the others are guarded no-ops the UI can surface.
type Outcome int

const (
	Ignored Outcome = iota
	Added
	Removed
	CapReached
	LastMember
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case CapReached:
		return "cap_reached"
	case LastMember:
		return "last_member"
	default:
		return "ignored"
	}
}

func (o Outcome) Changed() bool {
	return o == Added || o == Removed
}

// Selection is an ordered set of 1..Max participant ids.
type Selection struct {
	ids []string
	max int
}

// New starts a selection holding only selfID.
func New(selfID string, max int) Selection {
	if max < 1 {
		max = 1
	}
	return Selection{ids: []string{selfID}, max: max}
}

// NormalizeIDs trims ids and drops blanks and duplicates, keeping
// first-seen order.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// FromIDs rebuilds a selection from client supplied ids after NormalizeIDs.
func FromIDs(ids []string, max int) (Selection, error) {
	if max < 1 {
		max = 1
	}
	out := NormalizeIDs(ids)
	if len(out) == 0 {
		return Selection{}, ErrEmptySelection
	}
	if len(out) > max {
		return Selection{}, fmt.Errorf("%w: %d > %d", ErrSelectionOverCap, len(out), max)
	}
	return Selection{ids: out, max: max}, nil
}

func (s Selection) IDs() []string {
	return append([]string(nil), s.ids...)
}

func (s Selection) Len() int   { return len(s.ids) }
func (s Selection) Max() int   { return s.max }
func (s Selection) Full() bool { return len(s.ids) >= s.max }

func (s Selection) Contains(id string) bool {
	return s.index(id) >= 0
}

func (s Selection) index(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Toggle removes id when selected and adds it otherwise. Removing the last
// member and adding past the cap leave the selection unchanged.
func (s Selection) Toggle(id string) (Selection, Outcome) {
	id = strings.TrimSpace(id)
	if id == "" {
		return s, Ignored
	}
	if i := s.index(id); i >= 0 {
		if len(s.ids) == 1 {
			return s, LastMember
		}
		ids := make([]string, 0, len(s.ids)-1)
		ids = append(ids, s.ids[:i]...)
		ids = append(ids, s.ids[i+1:]...)
		return Selection{ids: ids, max: s.max}, Removed
	}
	if s.Full() {
		return s, CapReached
	}
	ids := make([]string, 0, len(s.ids)+1)
	ids = append(ids, s.ids...)
	ids = append(ids, id)
	return Selection{ids: ids, max: s.max}, Added
}
