package samplelog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"unibus/internal/domain"
)

// RedisLog stores one capped list per vehicle plus a set of known
// vehicle IDs for replay. Lists are trimmed to historyCap entries so
// retention is bounded per vehicle, not fleet-wide.
type RedisLog struct {
	client *redis.Client
	prefix string
	cap    int64
	logger zerolog.Logger
}

func NewRedisLog(addr, password string, db, historyCap int, logger zerolog.Logger) (*RedisLog, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisLog{
		client: client,
		prefix: "unibus:",
		cap:    int64(historyCap),
		logger: logger.With().Str("component", "sample_log").Logger(),
	}, nil
}

func (l *RedisLog) key(k string) string {
	return l.prefix + k
}

func (l *RedisLog) Append(ctx context.Context, s domain.PositionSample) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	start := time.Now()
	pipe := l.client.TxPipeline()
	track := l.key(keyTrack(s.VehicleID))
	pipe.RPush(ctx, track, data)
	if l.cap > 0 {
		pipe.LTrim(ctx, track, -l.cap, -1)
	}
	pipe.SAdd(ctx, l.key(keyVehicles), string(s.VehicleID))
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Error().Err(err).Str("vehicle_id", string(s.VehicleID)).Msg("append failed")
		return fmt.Errorf("redis append: %w", err)
	}

	l.logger.Debug().
		Str("vehicle_id", string(s.VehicleID)).
		Int("size_bytes", len(data)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("sample appended")
	return nil
}

func (l *RedisLog) Replay(ctx context.Context, fn func(domain.PositionSample) error) error {
	ids, err := l.client.SMembers(ctx, l.key(keyVehicles)).Result()
	if err != nil {
		return fmt.Errorf("redis smembers: %w", err)
	}

	for _, id := range ids {
		entries, err := l.client.LRange(ctx, l.key(keyTrack(domain.VehicleID(id))), 0, -1).Result()
		if err != nil {
			return fmt.Errorf("redis lrange %s: %w", id, err)
		}
		for _, raw := range entries {
			var s domain.PositionSample
			if err := json.Unmarshal([]byte(raw), &s); err != nil {
				// tolerate junk entries, a partial warm start beats none
				l.logger.Warn().Err(err).Str("vehicle_id", id).Msg("skipping unreadable sample")
				continue
			}
			if err := fn(s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *RedisLog) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLog) Close() error {
	return l.client.Close()
}
