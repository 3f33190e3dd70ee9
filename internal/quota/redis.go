package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bloomhaus/mailflow/internal/database"
)

const redisKeyPrefix = "mailflow:quota:"

// RedisQuota is a Quota backed by a day-keyed Redis counter, so the cap is
// shared across replicas and survives restarts. Keys expire after 48h; the
// day boundary itself makes stale keys irrelevant before then.
type RedisQuota struct {
	rdb   *database.Redis
	limit int
}

// NewRedisQuota creates a RedisQuota with the given daily limit.
func NewRedisQuota(rdb *database.Redis, limit int) *RedisQuota {
	return &RedisQuota{rdb: rdb, limit: limit}
}

func (q *RedisQuota) TryConsume(ctx context.Context, now time.Time) (bool, error) {
	key := redisKeyPrefix + now.Format(dayLayout)

	count, err := q.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment quota counter: %w", err)
	}
	if count == 1 {
		if err := q.rdb.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			return false, fmt.Errorf("failed to set quota key expiry: %w", err)
		}
	}
	if count > int64(q.limit) {
		// Over the cap; give the reservation back.
		if err := q.rdb.Decr(ctx, key).Err(); err != nil {
			return false, fmt.Errorf("failed to release quota reservation: %w", err)
		}
		return false, nil
	}
	return true, nil
}

func (q *RedisQuota) Usage(ctx context.Context, now time.Time) (int, error) {
	key := redisKeyPrefix + now.Format(dayLayout)
	count, err := q.rdb.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}
	return count, nil
}
