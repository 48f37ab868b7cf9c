// Package eventbus forwards in-process snapshot events to external brokers
// so additional viewer-facing instances can fan out without holding the
// session. Publishing is best effort: a broker outage never blocks or fails
// the event that produced the snapshot.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/dubpixel/coachella-set-schedule/internal/events"
	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
)

// SubjectPrefix is the NATS subject root for snapshot messages.
const SubjectPrefix = "setschedule.snapshot"

// NATSPublisher relays snapshots to a NATS subject per session.
type NATSPublisher struct {
	conn   *nats.Conn
	bus    *events.Bus
	logger zerolog.Logger
}

// NewNATSPublisher connects to NATS. Reconnects are unlimited; snapshots
// published while disconnected are dropped, the next one heals the stream.
func NewNATSPublisher(url string, bus *events.Bus, logger zerolog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &NATSPublisher{
		conn:   conn,
		bus:    bus,
		logger: logger.With().Str("component", "nats_publisher").Logger(),
	}, nil
}

// Run forwards snapshot events until ctx is cancelled.
func (p *NATSPublisher) Run(ctx context.Context) {
	sub := p.bus.Subscribe(events.EventSnapshot)
	defer p.bus.Unsubscribe(events.EventSnapshot, sub)

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-sub:
			snap, ok := payload["snapshot"].(showtime.Snapshot)
			if !ok {
				continue
			}
			data, err := json.Marshal(snap)
			if err != nil {
				p.logger.Error().Err(err).Msg("marshal snapshot")
				continue
			}
			subject := fmt.Sprintf("%s.%s", SubjectPrefix, snap.SessionID)
			if err := p.conn.Publish(subject, data); err != nil {
				p.logger.Warn().Err(err).Str("subject", subject).Msg("nats publish failed")
			}
		}
	}
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
