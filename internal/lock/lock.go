package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/paytraq_sync/internal/config"
)

// ErrHeld means another sync run currently holds the lock for the target
// spreadsheet.
var ErrHeld = errors.New("sync lock already held")

// SyncLock is a Redis-backed advisory lock keyed by spreadsheet ID. It
// guards against two concurrent sync runs racing on the same spreadsheet
// (lost row updates, duplicate log entries). The TTL bounds how long a
// crashed run can keep the target locked.
type SyncLock struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and returns a SyncLock.
func New(cfg *config.RedisConfig, ttl time.Duration) (*SyncLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &SyncLock{client: client, ttl: ttl}, nil
}

// Acquire takes the lock for a spreadsheet and returns a release func.
// Returns ErrHeld when another run owns the lock.
func (l *SyncLock) Acquire(ctx context.Context, spreadsheetID string) (func(), error) {
	key := "paytraq:sync:lock:" + spreadsheetID

	ok, err := l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("sync lock acquire failed: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}

	release := func() {
		// Best effort; the TTL cleans up if the delete is lost.
		if err := l.client.Del(context.Background(), key).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("sync lock release failed")
		}
	}
	return release, nil
}

// Close closes the Redis connection.
func (l *SyncLock) Close() error {
	return l.client.Close()
}
