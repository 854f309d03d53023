package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"es1090/internal/aircraft"
	"es1090/internal/tracker"
)

// KeyPrefix prefixes the key of every stored snapshot.
const KeyPrefix = "es1090:aircraft:"

// RedisClient is the part of the go-redis client used by RedisStore.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisStore keeps the latest snapshot of every visible aircraft, each
// expiring after a TTL.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
	logger *logrus.Logger
}

// ConnectRedis connects to addr and checks the connection.
func ConnectRedis(ctx context.Context, addr string, ttl time.Duration, logger *logrus.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.WithField("addr", addr).Info("Connected to Redis")
	return NewRedisStore(client, ttl, logger), nil
}

// NewRedisStore returns a store over client.
func NewRedisStore(client RedisClient, ttl time.Duration, logger *logrus.Logger) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

func key(icao string) string { return KeyPrefix + icao }

// Store writes snap, replacing any previous snapshot of the aircraft.
func (s *RedisStore) Store(ctx context.Context, snap tracker.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, key(snap.ICAO), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot of %s: %w", snap.ICAO, err)
	}
	return nil
}

// Delete removes the snapshots of the given aircraft.
func (s *RedisStore) Delete(ctx context.Context, icaos ...aircraft.ICAOAddress) error {
	if len(icaos) == 0 {
		return nil
	}
	keys := make([]string, len(icaos))
	for i, icao := range icaos {
		keys[i] = key(icao.String())
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete %d snapshots: %w", len(keys), err)
	}
	s.logger.WithField("count", len(keys)).Debug("Deleted aircraft snapshots")
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
