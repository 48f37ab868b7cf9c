package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dubpixel/coachella-set-schedule/internal/events"
	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
)

var showStart = time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T) (*API, *chi.Mux) {
	t.Helper()
	order, err := showtime.LoadSchedule(showStart, []showtime.SeedRow{
		{ID: "a", Name: "Act A", Position: 1, Duration: 10 * time.Minute},
		{ID: "brk", Name: "Changeover", Position: 2, Duration: 5 * time.Minute, IsBreak: true},
		{ID: "b", Name: "Act B", Position: 3, Duration: 15 * time.Minute},
	})
	if err != nil {
		t.Fatalf("LoadSchedule() error = %v", err)
	}

	bus := events.NewBus()
	session := showtime.NewSession("main", order, 2*time.Minute, bus, zerolog.Nop())

	a := New(session, bus, nil, zerolog.Nop())
	a.now = func() time.Time { return showStart }

	r := chi.NewRouter()
	a.Routes(r)
	return a, r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetSchedule(t *testing.T) {
	_, r := newTestAPI(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/schedule", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var snap showtime.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Items) != 3 {
		t.Errorf("items = %d, want 3", len(snap.Items))
	}
	if snap.SlipSeconds != 0 {
		t.Errorf("slip = %d, want 0", snap.SlipSeconds)
	}
}

func TestStartAndEndFlow(t *testing.T) {
	_, r := newTestAPI(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/items/a/start", eventRequest{At: showStart.Format(time.RFC3339)})
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}

	endAt := showStart.Add(14 * time.Minute)
	rec = doJSON(t, r, http.MethodPost, "/api/v1/items/a/end", eventRequest{At: endAt.Format(time.RFC3339)})
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d: %s", rec.Code, rec.Body.String())
	}

	var snap showtime.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.SlipSeconds != 240 {
		t.Errorf("slip = %d, want 240", snap.SlipSeconds)
	}
	brk := snap.Items[1]
	if brk.ProjectedSecs == nil || *brk.ProjectedSecs != 120 {
		t.Errorf("break projected seconds = %v, want 120 (floor)", brk.ProjectedSecs)
	}
}

func TestStartAcceptsUnixSeconds(t *testing.T) {
	_, r := newTestAPI(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/items/a/start", eventRequest{At: fmt.Sprintf("%d", showStart.Unix())})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, r http.Handler)
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{
			name:       "unknown item is 404",
			setup:      func(t *testing.T, r http.Handler) {},
			method:     http.MethodPost,
			path:       "/api/v1/items/ghost/start",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "out of order is 409",
			setup:      func(t *testing.T, r http.Handler) {},
			method:     http.MethodPost,
			path:       "/api/v1/items/b/start",
			wantStatus: http.StatusConflict,
		},
		{
			name: "conflicting end is 409",
			setup: func(t *testing.T, r http.Handler) {
				doJSON(t, r, http.MethodPost, "/api/v1/items/a/start", eventRequest{At: showStart.Format(time.RFC3339)})
				doJSON(t, r, http.MethodPost, "/api/v1/items/a/end", eventRequest{At: showStart.Add(10 * time.Minute).Format(time.RFC3339)})
			},
			method:     http.MethodPost,
			path:       "/api/v1/items/a/end",
			body:       eventRequest{At: showStart.Add(11 * time.Minute).Format(time.RFC3339)},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "garbage timestamp is 400",
			setup:      func(t *testing.T, r http.Handler) {},
			method:     http.MethodPost,
			path:       "/api/v1/items/a/start",
			body:       eventRequest{At: "half past eight"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "override on nothing is 404",
			setup:      func(t *testing.T, r http.Handler) {},
			method:     http.MethodPost,
			path:       "/api/v1/items/ghost/override",
			body:       overrideRequest{Start: showStart.Format(time.RFC3339), End: showStart.Add(time.Minute).Format(time.RFC3339)},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, r := newTestAPI(t)
			tt.setup(t, r)
			rec := doJSON(t, r, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestIdempotentRetrySucceeds(t *testing.T) {
	_, r := newTestAPI(t)

	body := eventRequest{At: showStart.Format(time.RFC3339)}
	if rec := doJSON(t, r, http.MethodPost, "/api/v1/items/a/start", body); rec.Code != http.StatusOK {
		t.Fatalf("first start status = %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, "/api/v1/items/a/start", body); rec.Code != http.StatusOK {
		t.Errorf("retry status = %d, want 200", rec.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	_, r := newTestAPI(t)

	body := reloadRequest{Items: []reloadItem{
		{ID: "b", Name: "Act B", Position: 3, DurationSeconds: 1200},
	}}
	rec := doJSON(t, r, http.MethodPost, "/api/v1/schedule/reload", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var snap showtime.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Items[2].PlannedSeconds != 1200 {
		t.Errorf("Act B planned = %d, want 1200", snap.Items[2].PlannedSeconds)
	}
}

func TestBrightnessValidation(t *testing.T) {
	a, r := newTestAPI(t)

	if rec := doJSON(t, r, http.MethodPost, "/api/v1/brightness", brightnessRequest{Value: 130}); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, "/api/v1/brightness", brightnessRequest{Value: 60}); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if a.session.Brightness() != 60 {
		t.Errorf("brightness = %d, want 60", a.session.Brightness())
	}
}

func TestOverrideEndpoint(t *testing.T) {
	_, r := newTestAPI(t)

	doJSON(t, r, http.MethodPost, "/api/v1/items/a/start", eventRequest{At: showStart.Format(time.RFC3339)})
	doJSON(t, r, http.MethodPost, "/api/v1/items/a/end", eventRequest{At: showStart.Add(6 * time.Minute).Format(time.RFC3339)})

	pinStart := showStart.Add(10 * time.Minute)
	pinEnd := showStart.Add(15 * time.Minute)
	rec := doJSON(t, r, http.MethodPost, "/api/v1/items/brk/override", overrideRequest{
		Start: pinStart.Format(time.RFC3339),
		End:   pinEnd.Format(time.RFC3339),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var snap showtime.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	brk := snap.Items[1]
	if !brk.Overridden || brk.ProjectedStart == nil || !brk.ProjectedStart.Equal(pinStart) {
		t.Errorf("break = %+v, want overridden at %v", brk, pinStart)
	}
}
