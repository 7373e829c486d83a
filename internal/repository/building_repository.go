package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
	"github.com/Freeeeeet/room_booking/internal/store"
)

type BuildingRepository struct {
	*base.Repository
}

func NewBuildingRepository(q base.Querier) *BuildingRepository {
	return &BuildingRepository{Repository: base.NewRepository(q)}
}

const buildingColumns = `building_id, city_id, code, address, lat, lon, is_active, created_at`

func scanBuilding(row interface{ Scan(dest ...any) error }, b *model.Building) error {
	return row.Scan(
		&b.ID,
		&b.CityID,
		&b.Code,
		&b.Address,
		&b.Lat,
		&b.Lon,
		&b.IsActive,
		&b.CreatedAt,
	)
}

// FindByCity lists the buildings of cityID, or every building when it is empty.
func (r *BuildingRepository) FindByCity(ctx context.Context, cityID string) ([]model.Building, error) {
	query := `
		SELECT ` + buildingColumns + `
		FROM buildings
		WHERE $1::text = '' OR city_id = $1
		ORDER BY building_id
	`

	rows, err := r.Query(ctx, query, cityID)
	if err != nil {
		return nil, fmt.Errorf("find buildings: %w", base.MapError(err))
	}
	defer rows.Close()

	var buildings []model.Building
	for rows.Next() {
		var b model.Building
		if err := scanBuilding(rows, &b); err != nil {
			return nil, fmt.Errorf("scan building: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buildings: %w", base.MapError(err))
	}

	return buildings, nil
}

// GetByID returns nil, nil when the building does not exist.
func (r *BuildingRepository) GetByID(ctx context.Context, id int64) (*model.Building, error) {
	query := `SELECT ` + buildingColumns + ` FROM buildings WHERE building_id = $1`

	var b model.Building
	if err := scanBuilding(r.QueryRow(ctx, query, id), &b); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get building by id: %w", base.MapError(err))
	}

	return &b, nil
}

func (r *BuildingRepository) Create(ctx context.Context, b *model.Building) error {
	query := `
		INSERT INTO buildings (city_id, code, address, lat, lon, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING building_id, created_at
	`

	err := r.QueryRow(ctx, query, b.CityID, b.Code, b.Address, b.Lat, b.Lon, b.IsActive).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create building: %w", base.MapError(err))
	}

	return nil
}

func (r *BuildingRepository) Update(ctx context.Context, b *model.Building) error {
	query := `
		UPDATE buildings
		SET code = $2, address = $3, lat = $4, lon = $5, is_active = $6
		WHERE building_id = $1
	`

	n, err := r.ExecAffected(ctx, query, b.ID, b.Code, b.Address, b.Lat, b.Lon, b.IsActive)
	if err != nil {
		return fmt.Errorf("update building: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	return nil
}

// Distances returns every row of the distance table starting at one of from.
func (r *BuildingRepository) Distances(ctx context.Context, from []int64) (model.DistanceTable, error) {
	query := `
		SELECT building_id_from, building_id_to, distance
		FROM distances
		WHERE building_id_from = ANY($1)
	`

	rows, err := r.Query(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("get distances: %w", base.MapError(err))
	}
	defer rows.Close()

	table := make(model.DistanceTable)
	for rows.Next() {
		var (
			pair model.BuildingPair
			d    float64
		)
		if err := rows.Scan(&pair.From, &pair.To, &d); err != nil {
			return nil, fmt.Errorf("scan distance: %w", err)
		}
		table[pair] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distances: %w", base.MapError(err))
	}

	return table, nil
}

// UpsertDistances writes every row of table in one statement.
func (r *BuildingRepository) UpsertDistances(ctx context.Context, table model.DistanceTable) error {
	if len(table) == 0 {
		return nil
	}
	from := make([]int64, 0, len(table))
	to := make([]int64, 0, len(table))
	dist := make([]float64, 0, len(table))
	for pair, d := range table {
		from = append(from, pair.From)
		to = append(to, pair.To)
		dist = append(dist, d)
	}

	query := `
		INSERT INTO distances (building_id_from, building_id_to, distance)
		SELECT * FROM unnest($1::bigint[], $2::bigint[], $3::double precision[])
		ON CONFLICT (building_id_from, building_id_to) DO UPDATE SET distance = EXCLUDED.distance
	`
	if _, err := r.ExecAffected(ctx, query, from, to, dist); err != nil {
		return fmt.Errorf("upsert distances: %w", err)
	}

	return nil
}
