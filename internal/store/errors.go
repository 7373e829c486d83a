package store

import (
	"errors"
	"fmt"
)

var (
	// ErrSerializationFailure means the transaction lost a concurrent conflict
	// and may succeed if retried.
	ErrSerializationFailure = errors.New("store: serialization failure")
	// ErrNotFound means the row to change does not exist.
	ErrNotFound = errors.New("store: not found")
)

type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintError reports a violated integrity constraint. Entity names the
// table the constraint points at when it is known, e.g. "user" or "room".
type ConstraintError struct {
	Kind       ConstraintKind
	Entity     string
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("store: %s constraint %q violated", e.Kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}
