package distance

import (
	"context"

	"github.com/Freeeeeet/room_booking/internal/model"
)

// Source reads recorded distances, usually straight from storage.
type Source interface {
	Distances(ctx context.Context, from []int64) (model.DistanceTable, error)
}

// Provider is a Source whose answers may be cached.
type Provider interface {
	Source
	// Invalidate drops cached rows starting at any of the buildings.
	Invalidate(ctx context.Context, buildingIDs ...int64) error
}

// Direct serves every lookup from its Source.
type Direct struct {
	Source Source
}

func (d Direct) Distances(ctx context.Context, from []int64) (model.DistanceTable, error) {
	return d.Source.Distances(ctx, from)
}

func (Direct) Invalidate(context.Context, ...int64) error {
	return nil
}

// Warm loads rows for the given buildings so the first searches hit the cache.
func Warm(ctx context.Context, p Provider, buildingIDs []int64) (int, error) {
	if len(buildingIDs) == 0 {
		return 0, nil
	}
	table, err := p.Distances(ctx, buildingIDs)
	if err != nil {
		return 0, err
	}
	return len(table), nil
}

// rows splits a table by its From building.
func rows(table model.DistanceTable) map[int64]map[int64]float64 {
	out := make(map[int64]map[int64]float64)
	for pair, d := range table {
		row, ok := out[pair.From]
		if !ok {
			row = make(map[int64]float64)
			out[pair.From] = row
		}
		row[pair.To] = d
	}
	return out
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
