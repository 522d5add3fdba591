package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/cache"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/fixtures"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/matching"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/selection"
)

type failingStore struct{}

func (failingStore) Participants(context.Context) ([]schedule.Participant, error) {
	return nil, errors.New("connection refused")
}

type failingSharer struct{}

func (failingSharer) Share(context.Context, selection.Confirmation) error {
	return errors.New("outbox unavailable")
}

func newHandler(store schedule.Store, sharer selection.Sharer) *MatchHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := matching.NewEngine(matching.Policy{})
	return NewMatchHandler(store, cache.New(nil, engine, logger, 0, ""), selection.NewController(engine, sharer), 3, logger)
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matches", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func hoursOf(t *testing.T, rr *httptest.ResponseRecorder) []int {
	t.Helper()
	var resp matchesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body %q: %v", rr.Body.String(), err)
	}
	out := []int{}
	for _, m := range resp.Matches {
		out = append(out, m.HourIndex)
	}
	return out
}

func TestMatches(t *testing.T) {
	h := newHandler(schedule.NewMemoryStore(fixtures.Participants()), nil)

	cases := []struct {
		name string
		body string
		want []int
	}{
		{"monday", `{"selectedIds":["alex","blair"],"dayIndex":1}`, []int{10, 15}},
		{"friday", `{"selectedIds":["alex","blair"],"dayIndex":5}`, []int{10}},
		{"empty selection", `{"selectedIds":[],"dayIndex":1}`, []int{}},
		{"unknown only", `{"selectedIds":["ghost"],"dayIndex":1}`, []int{}},
		{"padded and blank ids", `{"selectedIds":[" alex ","","blair\t"],"dayIndex":1}`, []int{10, 15}},
		{"only blank ids", `{"selectedIds":["  ",""],"dayIndex":1}`, []int{}},
		{"integral float day", `{"selectedIds":["alex"],"dayIndex":1.0}`, []int{9, 10, 14, 15}},
		{"waking window", `{"selectedIds":["alex"],"dayIndex":1,"wakingWindow":{"start":"09:00","end":"11:00"}}`, []int{9, 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := post(h.Matches, tc.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if got := hoursOf(t, rr); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMatchesLabels(t *testing.T) {
	h := newHandler(schedule.NewMemoryStore(fixtures.Participants()), nil)
	rr := post(h.Matches, `{"selectedIds":["alex","blair"],"dayIndex":5}`)

	var resp matchesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	want := matching.Match{HourIndex: 10, Label24h: "10:00 - 11:00", Label12h: "10:00 am. - 11:00 am."}
	if len(resp.Matches) != 1 || resp.Matches[0] != want {
		t.Fatalf("expected %+v, got %+v", want, resp.Matches)
	}
}

func TestMatchesValidation(t *testing.T) {
	h := newHandler(schedule.NewMemoryStore(fixtures.Participants()), nil)

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing ids", `{"dayIndex":1}`},
		{"ids not array", `{"selectedIds":"alex","dayIndex":1}`},
		{"ids of numbers", `{"selectedIds":[1,2],"dayIndex":1}`},
		{"missing day", `{"selectedIds":["alex"]}`},
		{"day as string", `{"selectedIds":["alex"],"dayIndex":"1"}`},
		{"day fractional", `{"selectedIds":["alex"],"dayIndex":1.5}`},
		{"day out of range", `{"selectedIds":["alex"],"dayIndex":7}`},
		{"negative day", `{"selectedIds":["alex"],"dayIndex":-1}`},
		{"bad window", `{"selectedIds":["alex"],"dayIndex":1,"wakingWindow":{"start":"soon","end":"later"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := post(h.Matches, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("expected error body, got %q", rr.Body.String())
			}
		})
	}
}

func TestMatchesStoreFailure(t *testing.T) {
	h := newHandler(failingStore{}, nil)
	rr := post(h.Matches, `{"selectedIds":["alex"],"dayIndex":1}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "connection refused") {
		t.Fatal("expected internal error detail to stay out of the response")
	}
}

func TestMatchesMethodNotAllowed(t *testing.T) {
	h := newHandler(schedule.NewMemoryStore(fixtures.Participants()), nil)
	rr := httptest.NewRecorder()
	h.Matches(rr, httptest.NewRequest(http.MethodGet, "/api/v1/matches", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestConfirm(t *testing.T) {
	h := newHandler(schedule.NewMemoryStore(fixtures.Participants()), nil)

	rr := post(h.Confirm, `{"selectedIds":["alex","blair"],"dayIndex":1,"hourIndex":15}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp confirmResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if !resp.Confirmed || resp.Confirmation == nil || resp.Confirmation.Label24h != "15:00 - 16:00" {
		t.Fatalf("unexpected response: %s", rr.Body.String())
	}

	rr = post(h.Confirm, `{"selectedIds":["alex","blair"],"dayIndex":1,"hourIndex":11}`)
	resp = confirmResponse{}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if rr.Code != http.StatusOK || resp.Confirmed || resp.Confirmation != nil {
		t.Fatalf("expected unconfirmed 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestConfirmValidation(t *testing.T) {
	h := newHandler(schedule.NewMemoryStore(fixtures.Participants()), nil)

	cases := []struct {
		name string
		body string
	}{
		{"missing hour", `{"selectedIds":["alex"],"dayIndex":1}`},
		{"hour out of range", `{"selectedIds":["alex"],"dayIndex":1,"hourIndex":24}`},
		{"empty selection", `{"selectedIds":[],"dayIndex":1,"hourIndex":10}`},
		{"over cap", `{"selectedIds":["me","alex","blair","casey"],"dayIndex":1,"hourIndex":10}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := post(h.Confirm, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestConfirmShareFailure(t *testing.T) {
	h := newHandler(schedule.NewMemoryStore(fixtures.Participants()), failingSharer{})
	rr := post(h.Confirm, `{"selectedIds":["alex"],"dayIndex":1,"hourIndex":9}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestParticipants(t *testing.T) {
	h := newHandler(schedule.NewMemoryStore(fixtures.Participants()), nil)
	rr := httptest.NewRecorder()
	h.Participants(rr, httptest.NewRequest(http.MethodGet, "/api/v1/participants", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp participantsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(resp.Participants) != 5 || resp.Participants[0].ID != fixtures.SelfID {
		t.Fatalf("unexpected participants: %+v", resp.Participants)
	}
}

func TestMatchesAndConfirmAgreeOnPaddedIDs(t *testing.T) {
	h := newHandler(schedule.NewMemoryStore(fixtures.Participants()), nil)

	rr := post(h.Matches, `{"selectedIds":[" alex"],"dayIndex":1}`)
	if got := hoursOf(t, rr); !reflect.DeepEqual(got, []int{9, 10, 14, 15}) {
		t.Fatalf("expected [9 10 14 15], got %v", got)
	}

	rr = post(h.Confirm, `{"selectedIds":[" alex"],"dayIndex":1,"hourIndex":9}`)
	var resp confirmResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || !resp.Confirmed {
		t.Fatalf("expected confirmation of a listed hour, got %d: %s", rr.Code, rr.Body.String())
	}
}
