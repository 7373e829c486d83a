package distance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/model"
)

const keyPrefix = "room_booking:distance:"

// RedisCache shares distance rows between instances through a Redis hash per
// building. Redis failures fall back to the Source.
type RedisCache struct {
	client redis.UniversalClient
	next   Source
	ttl    time.Duration
	logger *zap.Logger
}

var _ Provider = (*RedisCache)(nil)

func NewRedisCache(client redis.UniversalClient, next Source, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, next: next, ttl: ttl, logger: logger}
}

func key(buildingID int64) string {
	return keyPrefix + strconv.FormatInt(buildingID, 10)
}

func (c *RedisCache) Distances(ctx context.Context, from []int64) (model.DistanceTable, error) {
	ids := dedupe(from)
	table := make(model.DistanceTable)

	misses, err := c.read(ctx, ids, table)
	if err != nil {
		c.logger.Warn("distance cache read failed", zap.Error(err))
		misses = ids
		table = make(model.DistanceTable)
	}
	if len(misses) == 0 {
		return table, nil
	}

	fetched, err := c.next.Distances(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("load distances: %w", err)
	}
	if err := c.write(ctx, misses, fetched); err != nil {
		c.logger.Warn("distance cache write failed", zap.Error(err))
	}
	table.Merge(fetched)
	return table, nil
}

func (c *RedisCache) read(ctx context.Context, ids []int64, into model.DistanceTable) ([]int64, error) {
	pipe := c.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("exec pipeline: %w", err)
	}

	var misses []int64
	for i, id := range ids {
		fields, err := cmds[i].Result()
		if err != nil || len(fields) == 0 {
			misses = append(misses, id)
			continue
		}
		for field, value := range fields {
			to, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse building id %q: %w", field, err)
			}
			d, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("parse distance %q: %w", value, err)
			}
			into[model.BuildingPair{From: id, To: to}] = d
		}
	}
	return misses, nil
}

func (c *RedisCache) write(ctx context.Context, ids []int64, fetched model.DistanceTable) error {
	byFrom := rows(fetched)
	pipe := c.client.Pipeline()
	for _, id := range ids {
		// the self row keeps the hash non-empty so a hit is distinguishable
		fields := map[string]interface{}{strconv.FormatInt(id, 10): "0"}
		for to, d := range byFrom[id] {
			fields[strconv.FormatInt(to, 10)] = strconv.FormatFloat(d, 'f', -1, 64)
		}
		pipe.HSet(ctx, key(id), fields)
		if c.ttl > 0 {
			pipe.Expire(ctx, key(id), c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("exec pipeline: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, buildingIDs ...int64) error {
	if len(buildingIDs) == 0 {
		return nil
	}
	keys := make([]string, len(buildingIDs))
	for i, id := range buildingIDs {
		keys[i] = key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete distance rows: %w", err)
	}
	return nil
}
