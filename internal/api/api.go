/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dubpixel/coachella-set-schedule/internal/auth"
	"github.com/dubpixel/coachella-set-schedule/internal/events"
	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
	"github.com/dubpixel/coachella-set-schedule/internal/telemetry"
)

// API exposes HTTP handlers for one show session.
type API struct {
	session   *showtime.Session
	bus       *events.Bus
	jwtSecret []byte
	logger    zerolog.Logger

	// now is swappable for tests; handlers stamp events with it when the
	// caller does not supply an explicit time.
	now func() time.Time
}

// New creates the API wrapper.
func New(session *showtime.Session, bus *events.Bus, jwtSecret []byte, logger zerolog.Logger) *API {
	return &API{
		session:   session,
		bus:       bus,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "api").Logger(),
		now:       time.Now,
	}
}

// Routes mounts all endpoints on the router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		// Public viewer surface.
		r.Get("/schedule", a.handleSchedule)
		r.Get("/schedule/slip", a.handleSlip)
		r.Get("/ws", a.handleViewerWS)

		// Operator surface.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(a.jwtSecret))
			r.Post("/items/{id}/start", a.handleStart)
			r.Post("/items/{id}/end", a.handleEnd)
			r.Post("/items/{id}/reset", a.handleReset)
			r.Post("/items/{id}/override", a.handleOverride)
			r.Post("/schedule/reload", a.handleReload)
			r.Post("/brightness", a.handleBrightness)
		})
	})
}

// handleSchedule returns the current snapshot.
func (a *API) handleSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.session.Snapshot(a.now()))
}

// handleSlip returns just the slip value for lightweight pollers.
func (a *API) handleSlip(w http.ResponseWriter, r *http.Request) {
	snap := a.session.Snapshot(a.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"slip_seconds": snap.SlipSeconds,
		"slip_display": snap.SlipDisplay,
		"generated_at": snap.GeneratedAt,
	})
}

type eventRequest struct {
	// At is RFC3339 or unix whole seconds; empty means "now".
	At string `json:"at"`
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request) {
	a.handleLifecycle(w, r, "start", a.session.Start)
}

func (a *API) handleEnd(w http.ResponseWriter, r *http.Request) {
	a.handleLifecycle(w, r, "end", a.session.Finish)
}

func (a *API) handleLifecycle(w http.ResponseWriter, r *http.Request, op string, fn func(string, time.Time) (showtime.Snapshot, error)) {
	itemID := chi.URLParam(r, "id")

	at := a.now()
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.At != "" {
		parsed, err := parseTimestamp(req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be RFC3339 or unix seconds")
			return
		}
		at = parsed
	}

	snap, err := fn(itemID, at)
	if err != nil {
		telemetry.EventsRejected.WithLabelValues(op, reason(err)).Inc()
		writeDomainError(w, err)
		return
	}

	telemetry.EventsApplied.WithLabelValues(op).Inc()
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	snap, err := a.session.Reset(itemID, a.now())
	if err != nil {
		telemetry.EventsRejected.WithLabelValues("reset", reason(err)).Inc()
		writeDomainError(w, err)
		return
	}

	telemetry.EventsApplied.WithLabelValues("reset").Inc()
	writeJSON(w, http.StatusOK, snap)
}

type overrideRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (a *API) handleOverride(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	var req overrideRequest
	if err := decodeBody(r, &req); err != nil || req.Start == "" || req.End == "" {
		writeError(w, http.StatusBadRequest, "start and end required")
		return
	}
	start, err := parseTimestamp(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be RFC3339 or unix seconds")
		return
	}
	end, err := parseTimestamp(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be RFC3339 or unix seconds")
		return
	}

	snap, err := a.session.OverrideProjection(itemID, showtime.Window{Start: start, End: end}, a.now())
	if err != nil {
		telemetry.EventsRejected.WithLabelValues("override", reason(err)).Inc()
		writeDomainError(w, err)
		return
	}

	telemetry.EventsApplied.WithLabelValues("override").Inc()
	writeJSON(w, http.StatusOK, snap)
}

type reloadRequest struct {
	Items []reloadItem `json:"items"`
}

type reloadItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Position        int    `json:"position"`
	DurationSeconds int64  `json:"duration_seconds"`
	IsBreak         bool   `json:"is_break"`
}

func (a *API) handleReload(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if err := decodeBody(r, &req); err != nil || len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items required")
		return
	}

	rows := make([]showtime.SeedRow, 0, len(req.Items))
	for _, item := range req.Items {
		rows = append(rows, showtime.SeedRow{
			ID:       item.ID,
			Name:     item.Name,
			Position: item.Position,
			Duration: time.Duration(item.DurationSeconds) * time.Second,
			IsBreak:  item.IsBreak,
		})
	}

	snap, err := a.session.Reload(rows, a.now())
	if err != nil {
		telemetry.EventsRejected.WithLabelValues("reload", reason(err)).Inc()
		writeDomainError(w, err)
		return
	}

	telemetry.EventsApplied.WithLabelValues("reload").Inc()
	writeJSON(w, http.StatusOK, snap)
}

type brightnessRequest struct {
	Value int `json:"value"`
}

func (a *API) handleBrightness(w http.ResponseWriter, r *http.Request) {
	var req brightnessRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Value < 0 || req.Value > 100 {
		writeError(w, http.StatusBadRequest, "value must be 0-100")
		return
	}

	a.session.SetBrightness(req.Value)
	writeJSON(w, http.StatusOK, map[string]int{"value": req.Value})
}

// writeDomainError maps core sentinel errors to HTTP status codes. The
// rejected action and reason go back to the submitter; viewers never see a
// snapshot for a failed event.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, showtime.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, showtime.ErrInvalidSchedule),
		errors.Is(err, showtime.ErrBeforeStart):
		status = http.StatusBadRequest
	case errors.Is(err, showtime.ErrOutOfOrder),
		errors.Is(err, showtime.ErrAlreadyStarted),
		errors.Is(err, showtime.ErrNotStarted),
		errors.Is(err, showtime.ErrConflict),
		errors.Is(err, showtime.ErrImmutableHistory):
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}

func reason(err error) string {
	switch {
	case errors.Is(err, showtime.ErrItemNotFound):
		return "not_found"
	case errors.Is(err, showtime.ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, showtime.ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, showtime.ErrNotStarted):
		return "not_started"
	case errors.Is(err, showtime.ErrBeforeStart):
		return "before_start"
	case errors.Is(err, showtime.ErrConflict):
		return "conflict"
	case errors.Is(err, showtime.ErrImmutableHistory):
		return "immutable_history"
	case errors.Is(err, showtime.ErrInvalidSchedule):
		return "invalid_schedule"
	default:
		return "internal"
	}
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// parseTimestamp accepts RFC3339 or unix whole seconds.
func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
