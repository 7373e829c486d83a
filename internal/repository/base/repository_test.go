package base

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/room_booking/internal/store"
)

func TestMapError(t *testing.T) {
	t.Run("serialization failure", func(t *testing.T) {
		for _, code := range []string{"40001", "40P01"} {
			err := MapError(&pgconn.PgError{Code: code})
			assert.True(t, errors.Is(err, store.ErrSerializationFailure), code)
		}
	})

	t.Run("foreign key", func(t *testing.T) {
		err := MapError(&pgconn.PgError{Code: "23503", ConstraintName: "users_bookings_user_id_fkey"})

		var cErr *store.ConstraintError
		require.ErrorAs(t, err, &cErr)
		assert.Equal(t, store.ConstraintForeignKey, cErr.Kind)
		assert.Equal(t, "user", cErr.Entity)
	})

	t.Run("unique", func(t *testing.T) {
		err := MapError(&pgconn.PgError{Code: "23505", ConstraintName: "buildings_city_id_code_key"})

		var cErr *store.ConstraintError
		require.ErrorAs(t, err, &cErr)
		assert.Equal(t, store.ConstraintUnique, cErr.Kind)
		assert.Equal(t, "building", cErr.Entity)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Same(t, plain, MapError(plain))

		check := &pgconn.PgError{Code: "23514"}
		assert.Same(t, error(check), MapError(check))
	})
}

func TestConstraintEntities(t *testing.T) {
	foreign := map[string]string{
		"users_bookings_room_id_fkey":        "room",
		"users_bookings_booking_id_fkey":     "booking",
		"users_bookings_user_id_fkey":        "user",
		"bookings_created_by_fkey":           "user",
		"users_building_id_fkey":             "building",
		"distances_building_id_from_fkey":    "building",
		"buildings_city_id_fkey":             "city",
		"rooms_equipments_equipment_id_fkey": "equipment",
		"something_else":                     "",
	}
	for constraint, want := range foreign {
		assert.Equal(t, want, referencedBy(constraint), constraint)
	}

	unique := map[string]string{
		"users_bookings_pkey":              "assignment",
		"users_email_key":                  "user",
		"buildings_city_id_code_key":       "building",
		"rooms_building_id_floor_code_key": "room",
		"bookings_pkey":                    "",
	}
	for constraint, want := range unique {
		assert.Equal(t, want, tableOf(constraint), constraint)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.False(t, IsNotFound(errors.New("nope")))
}
