package selection

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/fixtures"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/matching"
)

type recordingSharer struct {
	shared []Confirmation
	err    error
}

func (r *recordingSharer) Share(_ context.Context, c Confirmation) error {
	if r.err != nil {
		return r.err
	}
	r.shared = append(r.shared, c)
	return nil
}

func hours(ms []matching.Match) []int {
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.HourIndex)
	}
	return out
}

func TestControllerFlow(t *testing.T) {
	sharer := &recordingSharer{}
	c := NewController(matching.NewEngine(matching.Policy{}), sharer)
	ps := fixtures.Participants()

	st := c.Start(ps, fixtures.SelfID, fixtures.Monday, DefaultMax)
	if len(st.Matches()) != 12 {
		t.Fatalf("expected 12 matches for self alone, got %v", hours(st.Matches()))
	}

	st, _ = c.Toggle(st, fixtures.AlexID)
	if got := hours(st.Matches()); !reflect.DeepEqual(got, []int{9, 10, 14, 15}) {
		t.Fatalf("expected [9 10 14 15], got %v", got)
	}
	st, _ = c.Toggle(st, fixtures.BlairID)
	if got := hours(st.Matches()); !reflect.DeepEqual(got, []int{10, 15}) {
		t.Fatalf("expected [10 15], got %v", got)
	}

	st, ok, err := c.Confirm(context.Background(), st, 15)
	if err != nil || !ok {
		t.Fatalf("expected confirmation, got ok=%v err=%v", ok, err)
	}
	conf, ok := st.Confirmed()
	if !ok || conf.HourIndex != 15 || conf.Label24h != "15:00 - 16:00" || conf.ID == "" {
		t.Fatalf("unexpected confirmation: %+v", conf)
	}
	if !reflect.DeepEqual(conf.SelectedIDs, []string{fixtures.SelfID, fixtures.AlexID, fixtures.BlairID}) {
		t.Fatalf("unexpected selected ids: %v", conf.SelectedIDs)
	}
	if len(sharer.shared) != 1 {
		t.Fatalf("expected one share, got %d", len(sharer.shared))
	}

	// Confirming the same hour again does not share twice.
	st, ok, _ = c.Confirm(context.Background(), st, 15)
	if !ok || len(sharer.shared) != 1 {
		t.Fatalf("expected idempotent confirm, got ok=%v shares=%d", ok, len(sharer.shared))
	}

	st, _ = c.Toggle(st, fixtures.CaseyID)
	if _, ok := st.Confirmed(); ok {
		t.Fatal("expected selection change to clear confirmation")
	}
}

func TestConfirmRejectsUnmatchedHour(t *testing.T) {
	sharer := &recordingSharer{}
	c := NewController(matching.NewEngine(matching.Policy{}), sharer)
	st := c.Start(fixtures.Participants(), fixtures.AlexID, fixtures.Monday, DefaultMax)

	st, ok, err := c.Confirm(context.Background(), st, 11)
	if err != nil || ok {
		t.Fatalf("expected silent no-op, got ok=%v err=%v", ok, err)
	}
	if _, confirmed := st.Confirmed(); confirmed || len(sharer.shared) != 0 {
		t.Fatal("expected nothing confirmed or shared")
	}
}

func TestSetDayClearsConfirmation(t *testing.T) {
	c := NewController(matching.NewEngine(matching.Policy{}), nil)
	st, err := c.Resume(fixtures.Participants(), []string{fixtures.AlexID, fixtures.BlairID}, fixtures.Monday, DefaultMax, matching.AllHours)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, ok, _ := c.Confirm(context.Background(), st, 10)
	if !ok {
		t.Fatal("expected confirmation")
	}

	unchanged := c.SetDay(st, fixtures.Monday)
	if _, ok := unchanged.Confirmed(); !ok {
		t.Fatal("expected same day to keep confirmation")
	}

	st = c.SetDay(st, fixtures.Friday)
	if _, ok := st.Confirmed(); ok {
		t.Fatal("expected day change to clear confirmation")
	}
	if got := hours(st.Matches()); !reflect.DeepEqual(got, []int{10}) {
		t.Fatalf("expected [10], got %v", got)
	}
}

func TestSetWindowKeepsConfirmationOnlyWhileMatching(t *testing.T) {
	c := NewController(matching.NewEngine(matching.Policy{}), nil)
	st, _ := c.Resume(fixtures.Participants(), []string{fixtures.AlexID, fixtures.BlairID}, fixtures.Monday, DefaultMax, matching.AllHours)
	st, _, _ = c.Confirm(context.Background(), st, 10)

	st = c.SetWindow(st, matching.HoursOf(9, 10, 11))
	if _, ok := st.Confirmed(); !ok {
		t.Fatal("expected confirmation inside window to survive")
	}
	st = c.SetWindow(st, matching.HoursOf(15))
	if _, ok := st.Confirmed(); ok {
		t.Fatal("expected confirmation outside window to be cleared")
	}
	if got := hours(st.Matches()); !reflect.DeepEqual(got, []int{15}) {
		t.Fatalf("expected [15], got %v", got)
	}
}

func TestConfirmShareFailure(t *testing.T) {
	c := NewController(matching.NewEngine(matching.Policy{}), &recordingSharer{err: errors.New("broker down")})
	st := c.Start(fixtures.Participants(), fixtures.AlexID, fixtures.Monday, DefaultMax)

	st, ok, err := c.Confirm(context.Background(), st, 9)
	if err == nil || ok {
		t.Fatalf("expected share error, got ok=%v err=%v", ok, err)
	}
	if _, confirmed := st.Confirmed(); confirmed {
		t.Fatal("expected state to stay unconfirmed")
	}
}

func TestResumeErrors(t *testing.T) {
	c := NewController(matching.NewEngine(matching.Policy{}), nil)
	if _, err := c.Resume(fixtures.Participants(), nil, fixtures.Monday, DefaultMax, matching.AllHours); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	ids := []string{"a", "b", "c", "d", "e", "f"}
	if _, err := c.Resume(fixtures.Participants(), ids, fixtures.Monday, DefaultMax, matching.AllHours); !errors.Is(err, ErrSelectionOverCap) {
		t.Fatalf("expected ErrSelectionOverCap, got %v", err)
	}
}

func TestShareText(t *testing.T) {
	c := Confirmation{DayIndex: fixtures.Monday, Label12h: "10:00 a.m. - 11:00 a.m."}
	if got := c.ShareText(); got != "Monday, 10:00 a.m. - 11:00 a.m." {
		t.Fatalf("unexpected share text %q", got)
	}
}
