package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
	"github.com/Freeeeeet/room_booking/internal/store"
)

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(q base.Querier) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(q)}
}

const userColumns = `
	u.user_id, u.email, u.first_name, u.last_name, u.building_id, b.city_id,
	u.floor, u.is_active, u.is_admin, u.created_at`

// Find returns users matching filter.IDs, or filter.Emails when no ids are
// given, ordered by id.
func (r *UserRepository) Find(ctx context.Context, filter store.UserFilter) ([]model.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		JOIN buildings b ON b.building_id = u.building_id
		WHERE u.user_id = ANY($1)
		ORDER BY u.user_id
	`
	var arg any = filter.IDs
	if len(filter.IDs) == 0 {
		query = `SELECT ` + userColumns + `
			FROM users u
			JOIN buildings b ON b.building_id = u.building_id
			WHERE u.email = ANY($1)
			ORDER BY u.user_id
		`
		arg = filter.Emails
	}

	rows, err := r.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", base.MapError(err))
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.FirstName,
			&u.LastName,
			&u.BuildingID,
			&u.CityID,
			&u.Floor,
			&u.IsActive,
			&u.IsAdmin,
			&u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", base.MapError(err))
	}

	return users, nil
}

// GetByID returns nil, nil when the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	users, err := r.Find(ctx, store.UserFilter{IDs: []int64{id}})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}
