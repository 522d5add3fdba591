package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/meetmatch/libs/httpx"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/matching"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/selection"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("match-service/handlers")

// Matcher computes matching hours, possibly from a cache.
type Matcher interface {
	FindMatchingHours(ctx context.Context, participants []schedule.Participant, selectedIDs []string, day int, mask matching.HourSet) []int
}

type MatchHandler struct {
	store        schedule.Store
	matcher      Matcher
	controller   *selection.Controller
	maxSelection int
	logger       *slog.Logger
}

func NewMatchHandler(store schedule.Store, matcher Matcher, controller *selection.Controller, maxSelection int, logger *slog.Logger) *MatchHandler {
	if maxSelection < 1 {
		maxSelection = selection.DefaultMax
	}
	return &MatchHandler{
		store:        store,
		matcher:      matcher,
		controller:   controller,
		maxSelection: maxSelection,
		logger:       logger,
	}
}

type matchesResponse struct {
	Matches []matching.Match `json:"matches"`
}

type confirmResponse struct {
	Confirmed    bool                    `json:"confirmed"`
	Confirmation *selection.Confirmation `json:"confirmation,omitempty"`
}

type participantItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type participantsResponse struct {
	Participants []participantItem `json:"participants"`
}

// Matches answers POST /api/v1/matches.
func (h *MatchHandler) Matches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, ok := decode(w, r)
	if !ok {
		return
	}
	ids, err := parseSelectedIDs(req.SelectedIDs)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Same normalization as confirm, so both endpoints agree on who is selected.
	ids = selection.NormalizeIDs(ids)
	day, err := parseDayIndex(req.DayIndex)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	mask, err := req.mask()
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := tracer.Start(r.Context(), "matches.compute", trace.WithAttributes(
		attribute.Int("match.selected", len(ids)),
		attribute.Int("match.day_index", day),
	))
	defer span.End()

	participants, err := h.store.Participants(ctx)
	if err != nil {
		h.fail(ctx, w, span, "load participants failed", err)
		return
	}

	hours := h.matcher.FindMatchingHours(ctx, participants, ids, day, mask)
	span.SetAttributes(attribute.Int("match.count", len(hours)))
	httpx.WriteJSON(w, http.StatusOK, matchesResponse{Matches: matching.Decorate(hours)})
}

// Confirm answers POST /api/v1/matches/confirm. An hour that is not currently
// a match yields confirmed=false rather than an error.
func (h *MatchHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, ok := decode(w, r)
	if !ok {
		return
	}
	ids, err := parseSelectedIDs(req.SelectedIDs)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := parseDayIndex(req.DayIndex)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	hour, err := parseHourIndex(req.HourIndex)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	mask, err := req.mask()
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := tracer.Start(r.Context(), "matches.confirm", trace.WithAttributes(
		attribute.Int("match.selected", len(ids)),
		attribute.Int("match.day_index", day),
		attribute.Int("match.hour_index", hour),
	))
	defer span.End()

	participants, err := h.store.Participants(ctx)
	if err != nil {
		h.fail(ctx, w, span, "load participants failed", err)
		return
	}

	st, err := h.controller.Resume(participants, ids, day, h.maxSelection, mask)
	if errors.Is(err, selection.ErrEmptySelection) || errors.Is(err, selection.ErrSelectionOverCap) {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.fail(ctx, w, span, "resume selection failed", err)
		return
	}

	st, confirmed, err := h.controller.Confirm(ctx, st, hour)
	if err != nil {
		h.fail(ctx, w, span, "confirm match failed", err)
		return
	}
	resp := confirmResponse{Confirmed: confirmed}
	if c, ok := st.Confirmed(); ok {
		resp.Confirmation = &c
		h.logger.InfoContext(ctx, "match confirmed", "confirmation_id", c.ID, "day_index", day, "hour_index", hour)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Participants answers GET /api/v1/participants with the directory only.
func (h *MatchHandler) Participants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ps, err := h.store.Participants(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "load participants failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]participantItem, 0, len(ps))
	for _, p := range ps {
		items = append(items, participantItem{ID: p.ID, Name: p.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, participantsResponse{Participants: items})
}

func decode(w http.ResponseWriter, r *http.Request) (matchRequest, bool) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return req, false
	}
	return req, true
}

func (h *MatchHandler) fail(ctx context.Context, w http.ResponseWriter, span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	h.logger.ErrorContext(ctx, msg, "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "internal error")
}
