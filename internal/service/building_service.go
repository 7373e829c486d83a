package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/distance"
	"github.com/Freeeeeet/room_booking/internal/metrics"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/store"
)

// BuildingService maintains buildings and the distance table between them.
type BuildingService struct {
	store     store.Store
	distances distance.Provider
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewBuildingService(
	st store.Store,
	distances distance.Provider,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *BuildingService {
	o := buildOptions(opts)
	if distances == nil {
		distances = distance.Direct{Source: st}
	}
	return &BuildingService{
		store:     st,
		distances: distances,
		metrics:   m,
		logger:    logger,
		now:       o.now,
	}
}

// CreateBuilding adds a building and records its distance to every other
// building of the city.
func (s *BuildingService) CreateBuilding(ctx context.Context, caller model.Caller, b model.Building) (*model.Building, error) {
	return s.save(ctx, caller, &b, true)
}

// UpdateBuilding replaces a building's attributes and recomputes its
// distances. A building cannot move to another city.
func (s *BuildingService) UpdateBuilding(ctx context.Context, caller model.Caller, b model.Building) (*model.Building, error) {
	return s.save(ctx, caller, &b, false)
}

func (s *BuildingService) save(ctx context.Context, caller model.Caller, b *model.Building, create bool) (_ *model.Building, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.OpSaveBuilding, outcome(err), started) }()

	if !caller.IsAdmin {
		return nil, apperror.Unauthorized("admin role required")
	}
	normalizeBuilding(b)
	if err := validateBuilding(b); err != nil {
		return nil, err
	}

	var touched []int64
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if create {
			if b.CreatedAt.IsZero() {
				b.CreatedAt = s.now().UTC()
			}
			if err := tx.InsertBuilding(ctx, b); err != nil {
				return fmt.Errorf("insert building: %w", err)
			}
		} else {
			current, err := tx.GetBuilding(ctx, b.ID)
			if err != nil {
				return fmt.Errorf("get building: %w", err)
			}
			if current == nil {
				return apperror.NotFound("building does not exist")
			}
			if current.CityID != b.CityID {
				return apperror.BadRequest("building cannot be moved to another city")
			}
			b.CreatedAt = current.CreatedAt
			if err := tx.UpdateBuilding(ctx, b); err != nil {
				return fmt.Errorf("update building: %w", err)
			}
		}

		city, err := tx.FindBuildings(ctx, b.CityID)
		if err != nil {
			return fmt.Errorf("find buildings: %w", err)
		}
		rows := distance.Rows(*b, city)
		if err := tx.UpsertDistances(ctx, rows); err != nil {
			return fmt.Errorf("upsert distances: %w", err)
		}
		for pair := range rows {
			if !containsID(touched, pair.From) {
				touched = append(touched, pair.From)
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	if err := s.distances.Invalidate(ctx, touched...); err != nil {
		s.logger.Warn("Failed to invalidate cached distances",
			zap.Int64("building_id", b.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Building saved",
		zap.Int64("building_id", b.ID),
		zap.String("city_id", b.CityID),
		zap.String("code", b.Code),
		zap.Bool("created", create),
		zap.Int("distance_rows", len(touched)),
	)
	return b, nil
}

// normalizeBuilding makes city ids case-insensitive.
func normalizeBuilding(b *model.Building) {
	b.CityID = strings.ToUpper(strings.TrimSpace(b.CityID))
	b.Code = strings.TrimSpace(b.Code)
	b.Address = strings.TrimSpace(b.Address)
}

func validateBuilding(b *model.Building) error {
	switch {
	case b.CityID == "":
		return apperror.BadRequest("city is required")
	case b.Code == "":
		return apperror.BadRequest("building code is required")
	case b.Lat < -90 || b.Lat > 90:
		return apperror.BadRequest("latitude must be between -90 and 90")
	case b.Lon < -180 || b.Lon > 180:
		return apperror.BadRequest("longitude must be between -180 and 180")
	}
	return nil
}
