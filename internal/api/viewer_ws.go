/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	ws "nhooyr.io/websocket"

	"github.com/dubpixel/coachella-set-schedule/internal/events"
	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
	"github.com/dubpixel/coachella-set-schedule/internal/telemetry"
)

// WebSocket message envelope sent to viewers.
type wsMessage struct {
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Snapshot  *showtime.Snapshot `json:"snapshot,omitempty"`
	Value     *int               `json:"value,omitempty"`
}

// handleViewerWS pushes every snapshot and brightness change to a connected
// viewer. Viewers are read-only; anything they send is discarded.
func (a *API) handleViewerWS(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(ws.StatusInternalError, "server error")

	telemetry.ViewerConnections.Inc()
	defer telemetry.ViewerConnections.Dec()

	snapCh := a.bus.Subscribe(events.EventSnapshot)
	defer a.bus.Unsubscribe(events.EventSnapshot, snapCh)
	brightCh := a.bus.Subscribe(events.EventBrightness)
	defer a.bus.Unsubscribe(events.EventBrightness, brightCh)

	ctx := r.Context()

	// Initial state so a fresh viewer renders immediately.
	initial := a.session.Snapshot(a.now())
	if err := a.sendSnapshot(ctx, conn, "initial_state", initial); err != nil {
		a.logger.Debug().Err(err).Msg("initial snapshot send failed")
		return
	}

	// Drain reads so pings are answered and closure is noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(15 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "context cancelled")
			return

		case <-done:
			conn.Close(ws.StatusNormalClosure, "client disconnected")
			return

		case <-pingTicker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				conn.Close(ws.StatusInternalError, "ping failed")
				return
			}

		case payload := <-snapCh:
			snap, ok := payload["snapshot"].(showtime.Snapshot)
			if !ok {
				continue
			}
			if err := a.sendSnapshot(ctx, conn, "snapshot", snap); err != nil {
				a.logger.Debug().Err(err).Msg("snapshot send failed")
				return
			}

		case payload := <-brightCh:
			value, ok := payload["value"].(int)
			if !ok {
				continue
			}
			if err := a.sendBrightness(ctx, conn, value); err != nil {
				a.logger.Debug().Err(err).Msg("brightness send failed")
				return
			}
		}
	}
}

func (a *API) sendSnapshot(ctx context.Context, conn *ws.Conn, msgType string, snap showtime.Snapshot) error {
	msg := wsMessage{
		Type:      msgType,
		Timestamp: snap.GeneratedAt,
		Snapshot:  &snap,
	}
	return a.sendMessage(ctx, conn, msg)
}

func (a *API) sendBrightness(ctx context.Context, conn *ws.Conn, value int) error {
	msg := wsMessage{
		Type:      "brightness",
		Timestamp: a.now(),
		Value:     &value,
	}
	return a.sendMessage(ctx, conn, msg)
}

func (a *API) sendMessage(ctx context.Context, conn *ws.Conn, msg wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(writeCtx, ws.MessageText, data)
}
