package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/story-sim/pkg/world"
)

const saveKeyPrefix = "savestate:"

// RedisStore keeps save states in Redis under savestate:<slot>, with no
// expiry.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ SaveStore = (*RedisStore)(nil)

// NewRedisStore accepts a redis:// URL or a bare host:port.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opt := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		var err error
		opt, err = redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
	}
	return &RedisStore{client: redis.NewClient(opt), logger: logger}, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStore) Save(ctx context.Context, slot string, s *world.SaveState) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("save %s: nil save state", slot)
	}
	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Error("Failed to marshal save state", "slot", slot, "error", err)
		return fmt.Errorf("failed to marshal save state: %w", err)
	}
	if err := r.client.Set(ctx, saveKeyPrefix+slot, data, 0).Err(); err != nil {
		r.logger.Error("Failed to save state", "slot", slot, "error", err)
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, slot string) (*world.SaveState, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, saveKeyPrefix+slot).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Save slot empty", "slot", slot)
			return nil, nil
		}
		r.logger.Error("Failed to load save state", "slot", slot, "error", err)
		return nil, fmt.Errorf("failed to load save state: %w", err)
	}
	var s world.SaveState
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Error("Failed to unmarshal save state", "slot", slot, "error", err)
		return nil, fmt.Errorf("failed to unmarshal save state: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if err := r.client.Del(ctx, saveKeyPrefix+slot).Err(); err != nil {
		r.logger.Error("Failed to delete save state", "slot", slot, "error", err)
		return fmt.Errorf("failed to delete save state: %w", err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	slots := []string{}
	iter := r.client.Scan(ctx, 0, saveKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		slots = append(slots, strings.TrimPrefix(iter.Val(), saveKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list save slots: %w", err)
	}
	slices.Sort(slots)
	return slices.Compact(slots), nil
}
