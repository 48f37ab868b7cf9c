/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package trigger accepts act transition signals from the lighting desk over
// a plain TCP line protocol and translates them into the same start/finish
// calls operators make. The listener owns the trigger-to-item mapping; the
// session stays agnostic to where an event came from.
//
// Protocol, one command per line:
//
//	GO <trigger-id>    record act start
//	OFF <trigger-id>   record act end
//	PING               liveness check, answered with PONG
package trigger

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
	"github.com/dubpixel/coachella-set-schedule/internal/telemetry"
)

// Mapping resolves lighting trigger ids to running-order item ids.
type Mapping struct {
	Triggers map[string]string `yaml:"triggers"` // trigger id -> item id
}

// LoadMapping reads the trigger map from a YAML file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trigger map: %w", err)
	}

	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse trigger map: %w", err)
	}
	if len(m.Triggers) == 0 {
		return nil, fmt.Errorf("trigger map %s has no triggers", path)
	}
	return &m, nil
}

// Config holds listener configuration.
type Config struct {
	Bind string
	Port int
}

// Listener is the lighting desk TCP endpoint.
type Listener struct {
	cfg     Config
	mapping *Mapping
	session *showtime.Session
	logger  zerolog.Logger

	mu       sync.Mutex
	ln       net.Listener
	conns    map[net.Conn]struct{}
	shutdown bool
}

// NewListener creates a listener bound to one session.
func NewListener(cfg Config, mapping *Mapping, session *showtime.Session, logger zerolog.Logger) *Listener {
	return &Listener{
		cfg:     cfg,
		mapping: mapping,
		session: session,
		logger:  logger.With().Str("component", "trigger").Logger(),
		conns:   make(map[net.Conn]struct{}),
	}
}

// ListenAndServe accepts lighting desk connections until Shutdown.
func (l *Listener) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", l.cfg.Bind, l.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("trigger listen: %w", err)
	}

	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	l.logger.Info().Str("addr", addr).Msg("trigger listener starting")

	for {
		conn, err := ln.Accept()
		if err != nil {
			l.mu.Lock()
			closed := l.shutdown
			l.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("trigger accept: %w", err)
		}

		l.mu.Lock()
		l.conns[conn] = struct{}{}
		l.mu.Unlock()

		go l.handleConn(conn)
	}
}

// Shutdown stops accepting and drops open connections.
func (l *Listener) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	l.shutdown = true
	ln := l.ln
	for conn := range l.conns {
		_ = conn.Close()
	}
	l.mu.Unlock()

	if ln != nil {
		return ln.Close()
	}
	return nil
}

func (l *Listener) handleConn(conn net.Conn) {
	defer func() {
		l.mu.Lock()
		delete(l.conns, conn)
		l.mu.Unlock()
		_ = conn.Close()
	}()

	remote := conn.RemoteAddr().String()
	l.logger.Debug().Str("remote", remote).Msg("lighting desk connected")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		reply := l.HandleLine(scanner.Text(), time.Now())
		if reply != "" {
			if _, err := fmt.Fprintln(conn, reply); err != nil {
				return
			}
		}
	}

	l.logger.Debug().Str("remote", remote).Msg("lighting desk disconnected")
}

// HandleLine processes one protocol line and returns the reply to send.
// Split out from the connection loop so the protocol is testable without
// sockets; at is passed in so the core stays clock-free.
func (l *Listener) HandleLine(line string, at time.Time) string {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return ""
	}

	cmd := strings.ToUpper(fields[0])
	if cmd == "PING" {
		return "PONG"
	}

	if len(fields) != 2 || (cmd != "GO" && cmd != "OFF") {
		telemetry.TriggerEvents.WithLabelValues("malformed").Inc()
		return "ERR malformed"
	}

	itemID, ok := l.mapping.Triggers[fields[1]]
	if !ok {
		telemetry.TriggerEvents.WithLabelValues("unmapped").Inc()
		l.logger.Warn().Str("trigger", fields[1]).Msg("unmapped trigger")
		return "ERR unknown trigger"
	}

	var err error
	if cmd == "GO" {
		_, err = l.session.Start(itemID, at)
	} else {
		_, err = l.session.Finish(itemID, at)
	}
	if err != nil {
		telemetry.TriggerEvents.WithLabelValues("rejected").Inc()
		l.logger.Warn().Err(err).Str("trigger", fields[1]).Str("cmd", cmd).Msg("trigger rejected")
		return "ERR " + err.Error()
	}

	telemetry.TriggerEvents.WithLabelValues("applied").Inc()
	return "OK"
}
