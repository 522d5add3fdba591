package selection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/matching"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"
)

// Confirmation is the matched hour a user chose to act on.
type Confirmation struct {
	ID          string    `json:"id"`
	SelectedIDs []string  `json:"selectedIds"`
	DayIndex    int       `json:"dayIndex"`
	HourIndex   int       `json:"hourIndex"`
	Label24h    string    `json:"label24h"`
	Label12h    string    `json:"label12h"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

// ShareText is the message a sharing collaborator prefills.
func (c Confirmation) ShareText() string {
	return fmt.Sprintf("%s, %s", time.Weekday(c.DayIndex), c.Label12h)
}

// Sharer hands a confirmation to whatever delivers it downstream.
type Sharer interface {
	Share(ctx context.Context, c Confirmation) error
}

// State is one immutable step of a comparison session. Matches is always
// derived from the other fields; Confirmed is only ever an hour in Matches.
type State struct {
	participants []schedule.Participant
	selection    Selection
	day          int
	window       matching.HourSet
	matches      []matching.Match
	confirmed    *Confirmation
}

func (s State) Selection() Selection     { return s.selection }
func (s State) Day() int                 { return s.day }
func (s State) Window() matching.HourSet { return s.window }

func (s State) Matches() []matching.Match {
	return append([]matching.Match(nil), s.matches...)
}

func (s State) Confirmed() (Confirmation, bool) {
	if s.confirmed == nil {
		return Confirmation{}, false
	}
	c := *s.confirmed
	c.SelectedIDs = append([]string(nil), c.SelectedIDs...)
	return c, true
}

type Controller struct {
	engine *matching.Engine
	sharer Sharer
	now    func() time.Time
}

func NewController(engine *matching.Engine, sharer Sharer) *Controller {
	return &Controller{engine: engine, sharer: sharer, now: time.Now}
}

// Start opens a session with only selfID selected.
func (c *Controller) Start(participants []schedule.Participant, selfID string, day, max int) State {
	return c.derive(State{
		participants: participants,
		selection:    New(selfID, max),
		day:          day,
		window:       matching.AllHours,
	})
}

// Resume rebuilds a session from an explicit selection, e.g. one sent by a client.
func (c *Controller) Resume(participants []schedule.Participant, ids []string, day, max int, window matching.HourSet) (State, error) {
	sel, err := FromIDs(ids, max)
	if err != nil {
		return State{}, err
	}
	return c.derive(State{
		participants: participants,
		selection:    sel,
		day:          day,
		window:       window,
	}), nil
}

// Toggle applies Selection.Toggle. A change recomputes matches and drops the
// confirmation; a guarded no-op returns st untouched.
func (c *Controller) Toggle(st State, id string) (State, Outcome) {
	sel, outcome := st.selection.Toggle(id)
	if !outcome.Changed() {
		return st, outcome
	}
	st.selection = sel
	st.confirmed = nil
	return c.derive(st), outcome
}

// SetDay moves the session to another day, dropping the confirmation.
func (c *Controller) SetDay(st State, day int) State {
	if day == st.day {
		return st
	}
	st.day = day
	st.confirmed = nil
	return c.derive(st)
}

// SetWindow restricts matches to a waking window. The confirmation survives
// only if its hour still matches.
func (c *Controller) SetWindow(st State, window matching.HourSet) State {
	st.window = window
	return c.keepConfirmedIfMatching(c.derive(st))
}

// Refresh swaps in a newer participant snapshot, with the same rule as SetWindow.
func (c *Controller) Refresh(st State, participants []schedule.Participant) State {
	st.participants = participants
	return c.keepConfirmedIfMatching(c.derive(st))
}

// Confirm records hour as the confirmed match and shares it. An hour that is
// not in the current matches is a no-op (ok false, nil error). When sharing
// fails the state is returned unconfirmed along with the error.
func (c *Controller) Confirm(ctx context.Context, st State, hour int) (State, bool, error) {
	m, ok := matching.Contains(st.matches, hour)
	if !ok {
		return st, false, nil
	}
	if st.confirmed != nil && st.confirmed.HourIndex == hour {
		return st, true, nil
	}

	conf := Confirmation{
		ID:          uuid.NewString(),
		SelectedIDs: st.selection.IDs(),
		DayIndex:    st.day,
		HourIndex:   m.HourIndex,
		Label24h:    m.Label24h,
		Label12h:    m.Label12h,
		ConfirmedAt: c.now().UTC(),
	}
	if c.sharer != nil {
		if err := c.sharer.Share(ctx, conf); err != nil {
			return st, false, fmt.Errorf("share confirmation: %w", err)
		}
	}
	st.confirmed = &conf
	return st, true, nil
}

func (c *Controller) derive(st State) State {
	st.matches = c.engine.BuildMatchesWithin(st.participants, st.selection.ids, st.day, st.window)
	return st
}

func (c *Controller) keepConfirmedIfMatching(st State) State {
	if st.confirmed == nil {
		return st
	}
	if _, ok := matching.Contains(st.matches, st.confirmed.HourIndex); !ok {
		st.confirmed = nil
	}
	return st
}
