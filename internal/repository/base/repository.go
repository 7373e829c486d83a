package base

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Freeeeeet/room_booking/internal/store"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories run
// the same SQL inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Repository holds the querier shared by the table repositories.
type Repository struct {
	q Querier
}

func NewRepository(q Querier) *Repository {
	return &Repository{q: q}
}

func (r *Repository) Querier() Querier {
	return r.q
}

func (r *Repository) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return r.q.QueryRow(ctx, query, args...)
}

func (r *Repository) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return r.q.Query(ctx, query, args...)
}

// ExecAffected runs a command and returns the number of affected rows.
func (r *Repository) ExecAffected(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, MapError(err)
	}
	return tag.RowsAffected(), nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// PostgreSQL SQLSTATE codes the engine reacts to.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
)

// MapError translates PostgreSQL errors into the store sentinels. Other errors
// are returned unchanged.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return errors.Join(store.ErrSerializationFailure, err)
	case codeUniqueViolation:
		return &store.ConstraintError{
			Kind:       store.ConstraintUnique,
			Entity:     tableOf(pgErr.ConstraintName),
			Constraint: pgErr.ConstraintName,
			Err:        err,
		}
	case codeForeignKeyViolation:
		return &store.ConstraintError{
			Kind:       store.ConstraintForeignKey,
			Entity:     referencedBy(pgErr.ConstraintName),
			Constraint: pgErr.ConstraintName,
			Err:        err,
		}
	}
	return err
}

// referencedBy names the entity a foreign key such as
// "users_bookings_room_id_fkey" points at.
func referencedBy(constraint string) string {
	column := strings.TrimSuffix(constraint, "_fkey")
	switch {
	case strings.HasSuffix(column, "room_id"):
		return "room"
	case strings.HasSuffix(column, "user_id"), strings.HasSuffix(column, "created_by"):
		return "user"
	case strings.HasSuffix(column, "booking_id"):
		return "booking"
	case strings.Contains(column, "building_id"):
		return "building"
	case strings.HasSuffix(column, "city_id"):
		return "city"
	case strings.HasSuffix(column, "equipment_id"):
		return "equipment"
	}
	return ""
}

// tableOf names the entity owning a unique constraint such as
// "buildings_city_id_code_key".
func tableOf(constraint string) string {
	for _, t := range []struct{ prefix, entity string }{
		{"users_bookings_", "assignment"},
		{"users_", "user"},
		{"buildings_", "building"},
		{"rooms_", "room"},
		{"distances_", "distance"},
	} {
		if strings.HasPrefix(constraint, t.prefix) {
			return t.entity
		}
	}
	return ""
}
