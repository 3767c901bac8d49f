package cache

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/verdantiq/analytics/internal/domain"
)

const snapshotKey = "verdant:analytics:snapshot"

type redisStore struct {
	client  *redis.Client
	local   Store
	logger  *slog.Logger
	timeout time.Duration
}

// NewRedis returns a replicated snapshot store backed by Redis, layered over
// a local store. Every backend failure degrades to the local copy; a request
// never fails because the replicated store is unreachable.
func NewRedis(addr, password string, db int, logger *slog.Logger) (Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	if logger != nil {
		logger = logger.With("component", "snapshot_cache")
	}
	return &redisStore{
		client:  client,
		local:   NewMemory(),
		logger:  logger,
		timeout: 250 * time.Millisecond,
	}, nil
}

func (s *redisStore) Get(ctx context.Context) (domain.LiveAnalyticsSnapshot, bool) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := s.client.Get(opCtx, snapshotKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logRedisError("get", err)
		}
		return s.local.Get(ctx)
	}
	var snapshot domain.LiveAnalyticsSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		s.logRedisError("decode", err)
		return s.local.Get(ctx)
	}
	return snapshot, true
}

func (s *redisStore) Set(ctx context.Context, snapshot domain.LiveAnalyticsSnapshot, ttl time.Duration) {
	s.local.Set(ctx, snapshot, ttl)
	if ttl <= 0 {
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		s.logRedisError("encode", err)
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(opCtx, snapshotKey, payload, ttl).Err(); err != nil {
		s.logRedisError("set", err)
	}
}

func (s *redisStore) Close() {
	s.local.Close()
	if s.client != nil {
		_ = s.client.Close()
	}
}

func (s *redisStore) logRedisError(op string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn("snapshot cache backend error", "op", op, "error", err)
}
