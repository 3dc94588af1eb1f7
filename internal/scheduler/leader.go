package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LeaderElector answers whether this process may run scheduled work right
// now. The pipeline itself is idempotent behind the run-status guard; the
// elector keeps redundant replicas from all hammering the store each tick.
type LeaderElector interface {
	IsLeader(ctx context.Context) bool
}

// StaticLeaderElector is the single-instance deployment answer: leadership
// is decided by configuration, not coordination.
type StaticLeaderElector struct {
	leader bool
}

// NewStaticLeaderElector returns an elector with a fixed answer.
func NewStaticLeaderElector(leader bool) *StaticLeaderElector {
	return &StaticLeaderElector{leader: leader}
}

// IsLeader reports the configured value.
func (e *StaticLeaderElector) IsLeader(context.Context) bool {
	return e.leader
}

// RedisLeaderElector holds a TTL lock in redis. The first instance to set
// the key owns the schedule; the owner extends the TTL on every tick, so a
// crashed owner is replaced after at most one TTL.
type RedisLeaderElector struct {
	client     *redis.Client
	key        string
	ttl        time.Duration
	instanceID string
	logger     *zap.Logger
}

// NewRedisLeaderElector constructs an elector with a fresh instance identity.
func NewRedisLeaderElector(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisLeaderElector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 90 * time.Second
	}
	return &RedisLeaderElector{
		client:     client,
		key:        key,
		ttl:        ttl,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// IsLeader attempts to acquire or renew the lock. Any redis failure yields
// false: losing one tick is cheaper than risking a duplicate schedule.
func (e *RedisLeaderElector) IsLeader(ctx context.Context) bool {
	acquired, err := e.client.SetNX(ctx, e.key, e.instanceID, e.ttl).Result()
	if err != nil {
		e.logger.Warn("leader lock unavailable", zap.Error(err))
		return false
	}
	if acquired {
		e.logger.Info("acquired scheduler leadership", zap.String("instance_id", e.instanceID))
		return true
	}

	holder, err := e.client.Get(ctx, e.key).Result()
	if err != nil {
		e.logger.Warn("leader lock unreadable", zap.Error(err))
		return false
	}
	if holder != e.instanceID {
		return false
	}
	if err := e.client.Expire(ctx, e.key, e.ttl).Err(); err != nil {
		e.logger.Warn("leader lock renewal failed", zap.Error(err))
		return false
	}
	return true
}
