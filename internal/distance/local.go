package distance

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Freeeeeet/room_booking/internal/model"
)

// LocalCache keeps recently used distance rows in process memory.
type LocalCache struct {
	next Source
	rows *expirable.LRU[int64, map[int64]float64]
}

var _ Provider = (*LocalCache)(nil)

// NewLocalCache caches up to size rows for ttl in front of next.
func NewLocalCache(next Source, size int, ttl time.Duration) *LocalCache {
	return &LocalCache{
		next: next,
		rows: expirable.NewLRU[int64, map[int64]float64](size, nil, ttl),
	}
}

func (c *LocalCache) Distances(ctx context.Context, from []int64) (model.DistanceTable, error) {
	table := make(model.DistanceTable)
	var misses []int64
	for _, id := range dedupe(from) {
		row, ok := c.rows.Get(id)
		if !ok {
			misses = append(misses, id)
			continue
		}
		for to, d := range row {
			table[model.BuildingPair{From: id, To: to}] = d
		}
	}
	if len(misses) == 0 {
		return table, nil
	}

	fetched, err := c.next.Distances(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("load distances: %w", err)
	}
	byFrom := rows(fetched)
	for _, id := range misses {
		row := byFrom[id]
		if row == nil {
			row = map[int64]float64{id: 0}
		}
		c.rows.Add(id, row)
	}
	table.Merge(fetched)
	return table, nil
}

func (c *LocalCache) Invalidate(ctx context.Context, buildingIDs ...int64) error {
	for _, id := range buildingIDs {
		c.rows.Remove(id)
	}
	if p, ok := c.next.(Provider); ok {
		return p.Invalidate(ctx, buildingIDs...)
	}
	return nil
}

// Len reports how many rows are cached.
func (c *LocalCache) Len() int {
	return c.rows.Len()
}
