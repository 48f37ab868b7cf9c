/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/dubpixel/coachella-set-schedule/internal/api"
	"github.com/dubpixel/coachella-set-schedule/internal/config"
	"github.com/dubpixel/coachella-set-schedule/internal/db"
	"github.com/dubpixel/coachella-set-schedule/internal/eventbus"
	"github.com/dubpixel/coachella-set-schedule/internal/events"
	"github.com/dubpixel/coachella-set-schedule/internal/sheetsync"
	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
	"github.com/dubpixel/coachella-set-schedule/internal/store"
	"github.com/dubpixel/coachella-set-schedule/internal/telemetry"
	"github.com/dubpixel/coachella-set-schedule/internal/trigger"
)

// Server bundles HTTP and supporting services for one stage.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db       *gorm.DB
	store    *store.Store
	session  *showtime.Session
	bus      *events.Bus
	api      *api.API
	syncSvc  *sheetsync.Service
	triggers *trigger.Listener

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	s.db = gormDB
	s.closers = append(s.closers, func() error { return db.Close(gormDB) })

	if err := store.Migrate(gormDB); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	s.store = store.New(gormDB, cfg.StageName, logger)

	if err := s.buildSession(); err != nil {
		return nil, err
	}

	s.syncSvc = sheetsync.New(s.store, s.session, s.bus, cfg.SyncInterval, logger)
	s.api = api.New(s.session, s.bus, []byte(cfg.JWTSigningKey), logger)

	if cfg.TriggerEnabled {
		mapping, err := trigger.LoadMapping(cfg.TriggerMapPath)
		if err != nil {
			return nil, fmt.Errorf("load trigger map: %w", err)
		}
		s.triggers = trigger.NewListener(trigger.Config{Bind: cfg.TriggerBind, Port: cfg.TriggerPort}, mapping, s.session, logger)
	}

	s.buildRouter()
	s.startBackground()

	return s, nil
}

// buildSession loads the schedule from the store and replays any persisted
// actual times so a restart mid-show resumes where it left off.
func (s *Server) buildSession() error {
	rows, err := s.store.SeedRows()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no schedule for stage %q; run `setschedule seed` first", s.cfg.StageName)
	}

	showStart := s.cfg.ShowStart
	if showStart.IsZero() {
		showStart = time.Now().Truncate(time.Minute)
		s.logger.Warn().Time("show_start", showStart).Msg("SETSCHED_SHOW_START not set, using current time")
	}

	order, err := showtime.LoadSchedule(showStart, rows)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	if err := s.replayActuals(order); err != nil {
		return fmt.Errorf("replay actual times: %w", err)
	}

	s.bus = events.NewBus()
	s.session = showtime.NewSession(s.cfg.StageName, order, s.cfg.BreakFloor, s.bus, s.logger)

	if err := s.store.RecordSession(s.session.ID(), showStart, time.Now()); err != nil {
		s.logger.Warn().Err(err).Msg("record session row failed")
	}

	return nil
}

// replayActuals feeds persisted start/end times through the ledger in
// running order. The ledger's own rules apply, so a corrupted store cannot
// smuggle in a state the live engine would never have produced.
func (s *Server) replayActuals(order *showtime.RunningOrder) error {
	actuals, err := s.store.ActualTimes()
	if err != nil {
		return err
	}

	items := append([]*showtime.Item(nil), order.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	for _, item := range items {
		times, ok := actuals[item.ID]
		if !ok || times[0] == nil {
			continue
		}
		if err := order.RecordStart(item.ID, *times[0]); err != nil {
			return fmt.Errorf("replay start of %q: %w", item.Name, err)
		}
		if times[1] == nil {
			continue
		}
		if err := order.RecordEnd(item.ID, *times[1]); err != nil {
			return fmt.Errorf("replay end of %q: %w", item.Name, err)
		}
	}
	return nil
}

func (s *Server) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.MetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", telemetry.Handler())

	s.api.Routes(r)
	s.router = r

	addr := fmt.Sprintf("%s:%d", s.cfg.HTTPBind, s.cfg.HTTPPort)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(r, "setschedule.http"),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// startBackground launches the sync poller, broker publishers, the slip
// gauge updater, and the trigger listener.
func (s *Server) startBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.syncSvc.Run(ctx)
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.updateSlipGauge(ctx)
	}()

	if s.cfg.NATSURL != "" {
		pub, err := eventbus.NewNATSPublisher(s.cfg.NATSURL, s.bus, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("nats unavailable, external fanout disabled")
		} else {
			s.closers = append(s.closers, pub.Close)
			s.bgWG.Add(1)
			go func() {
				defer s.bgWG.Done()
				pub.Run(ctx)
			}()
		}
	}

	if s.cfg.RedisAddr != "" {
		pub, err := eventbus.NewRedisPublisher(ctx, eventbus.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		}, s.bus, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("redis unavailable, external fanout disabled")
		} else {
			s.closers = append(s.closers, pub.Close)
			s.bgWG.Add(1)
			go func() {
				defer s.bgWG.Done()
				pub.Run(ctx)
			}()
		}
	}

	if s.triggers != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			if err := s.triggers.ListenAndServe(); err != nil {
				s.logger.Error().Err(err).Msg("trigger listener failed")
			}
		}()
	}
}

func (s *Server) updateSlipGauge(ctx context.Context) {
	sub := s.bus.Subscribe(events.EventSnapshot)
	defer s.bus.Unsubscribe(events.EventSnapshot, sub)

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-sub:
			if snap, ok := payload["snapshot"].(showtime.Snapshot); ok {
				telemetry.CurrentSlipSeconds.Set(float64(snap.SlipSeconds))
			}
		}
	}
}

// HTTPServer exposes the configured http.Server for the caller to run.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Router exposes the chi router, used by tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Close stops background work and releases resources.
func (s *Server) Close() error {
	if s.bgCancel != nil {
		s.bgCancel()
	}

	if s.triggers != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.triggers.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("trigger shutdown failed")
		}
		cancel()
	}

	s.bgWG.Wait()

	var firstErr error
	for _, closer := range s.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
