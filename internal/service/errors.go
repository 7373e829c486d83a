package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/room_booking/internal/apperror"
	"github.com/Freeeeeet/room_booking/internal/store"
)

const tooManyBookers = "too many users are trying to book the same rooms, please try again later"

// translate maps storage failures onto the error taxonomy. Errors that are
// already classified pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}

	var cErr *store.ConstraintError
	switch {
	case errors.As(err, &cErr):
		entity := cErr.Entity
		if entity == "" {
			entity = "record"
		}
		if cErr.Kind == store.ConstraintForeignKey {
			return apperror.NotFound(entity + " does not exist").Wrap(err)
		}
		return apperror.Conflict(entity + " already exists").Wrap(err)
	case errors.Is(err, store.ErrNotFound):
		return apperror.NotFound("record does not exist").Wrap(err)
	case errors.Is(err, store.ErrSerializationFailure):
		return apperror.Conflict(tooManyBookers).Wrap(err)
	}
	return apperror.Internal(err)
}

// outcome is the metrics label for err.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperror.KindOf(err).String()
}

func notFoundf(format string, args ...any) *apperror.Error {
	return apperror.NotFound(fmt.Sprintf(format, args...))
}
