package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dubpixel/coachella-set-schedule/internal/events"
	"github.com/dubpixel/coachella-set-schedule/internal/showtime"
)

const (
	// ChannelPrefix is the Redis pub/sub channel root for snapshots.
	ChannelPrefix = "setschedule:snapshot:"
	// LatestKeyPrefix stores the most recent snapshot JSON per session so a
	// fresh instance can serve viewers before the next event arrives.
	LatestKeyPrefix = "setschedule:latest:"
	// latestTTL bounds staleness after a show ends.
	latestTTL = 12 * time.Hour
)

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisPublisher relays snapshots to Redis pub/sub and keeps the latest
// snapshot cached per session.
type RedisPublisher struct {
	client *redis.Client
	bus    *events.Bus
	logger zerolog.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig, bus *events.Bus, logger zerolog.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisPublisher{
		client: client,
		bus:    bus,
		logger: logger.With().Str("component", "redis_publisher").Logger(),
	}, nil
}

// Run forwards snapshot events until ctx is cancelled.
func (p *RedisPublisher) Run(ctx context.Context) {
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

			if err := p.client.Publish(ctx, ChannelPrefix+snap.SessionID, data).Err(); err != nil {
				p.logger.Warn().Err(err).Msg("redis publish failed")
			}
			if err := p.client.Set(ctx, LatestKeyPrefix+snap.SessionID, data, latestTTL).Err(); err != nil {
				p.logger.Warn().Err(err).Msg("redis set latest failed")
			}
		}
	}
}

// Latest returns the cached snapshot JSON for a session, if any.
func (p *RedisPublisher) Latest(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := p.client.Get(ctx, LatestKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
