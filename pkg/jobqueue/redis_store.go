package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements OrderedStore on Redis sorted sets and hashes. Each
// state collection is a sorted set of job ids, the record collection is a
// hash from job id to serialized job.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an established go-redis client.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreNil
	}
	return &RedisStore{client: client}, nil
}

// Add implements OrderedStore.
func (rs *RedisStore) Add(ctx context.Context, key, member string, score float64) error {
	if err := rs.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("zadd %s: %w", key, err)
	}
	return nil
}

// Remove implements OrderedStore.
func (rs *RedisStore) Remove(ctx context.Context, key, member string) (bool, error) {
	n, err := rs.client.ZRem(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("zrem %s: %w", key, err)
	}
	return n > 0, nil
}

// PeekHighest implements OrderedStore.
func (rs *RedisStore) PeekHighest(ctx context.Context, key string) (string, bool, error) {
	members, err := rs.client.ZRevRange(ctx, key, 0, 0).Result()
	if err != nil {
		return "", false, fmt.Errorf("zrevrange %s: %w", key, err)
	}
	if len(members) == 0 {
		return "", false, nil
	}
	return members[0], true, nil
}

// RangeByScore implements OrderedStore.
func (rs *RedisStore) RangeByScore(ctx context.Context, key string, min, max float64) ([]string, error) {
	members, err := rs.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: formatScore(min),
		Max: formatScore(max),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrangebyscore %s: %w", key, err)
	}
	return members, nil
}

// RangeByRank implements OrderedStore.
func (rs *RedisStore) RangeByRank(ctx context.Context, key string, start, stop int64) ([]string, error) {
	members, err := rs.client.ZRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange %s: %w", key, err)
	}
	return members, nil
}

// Card implements OrderedStore.
func (rs *RedisStore) Card(ctx context.Context, key string) (int64, error) {
	n, err := rs.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard %s: %w", key, err)
	}
	return n, nil
}

// TrimLowest implements OrderedStore.
func (rs *RedisStore) TrimLowest(ctx context.Context, key string, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	members, err := rs.client.ZRange(ctx, key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange %s: %w", key, err)
	}
	if len(members) == 0 {
		return nil, nil
	}
	if err := rs.client.ZRemRangeByRank(ctx, key, 0, int64(len(members))-1).Err(); err != nil {
		return nil, fmt.Errorf("zremrangebyrank %s: %w", key, err)
	}
	return members, nil
}

// SetRecord implements OrderedStore.
func (rs *RedisStore) SetRecord(ctx context.Context, key, id string, data []byte) error {
	if err := rs.client.HSet(ctx, key, id, data).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// GetRecord implements OrderedStore.
func (rs *RedisStore) GetRecord(ctx context.Context, key, id string) ([]byte, bool, error) {
	data, err := rs.client.HGet(ctx, key, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("hget %s: %w", key, err)
	}
	return data, true, nil
}

// DeleteRecord implements OrderedStore.
func (rs *RedisStore) DeleteRecord(ctx context.Context, key, id string) error {
	if err := rs.client.HDel(ctx, key, id).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", key, err)
	}
	return nil
}

// Clear implements OrderedStore.
func (rs *RedisStore) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := rs.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// formatScore renders a score bound for ZRANGEBYSCORE, mapping infinities to
// the redis notation.
func formatScore(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "+inf"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
