package repository

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrTaskNotFound is returned when an id matches no task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrConstraint is matched by every ConstraintError.
	ErrConstraint = errors.New("constraint violation")
)

// ConstraintKind classifies a rejected write.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintNotNull    ConstraintKind = "not null"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintForeignKey ConstraintKind = "foreign key"
	ConstraintOther      ConstraintKind = "other"
)

// ConstraintError wraps a SQLite constraint failure.
type ConstraintError struct {
	Kind ConstraintKind
	Err  error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint violated: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraint }

// translate turns SQLite constraint failures into *ConstraintError and leaves
// every other error untouched.
func translate(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}

	kind := ConstraintOther
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		kind = ConstraintUnique
	case sqlite3.ErrConstraintNotNull:
		kind = ConstraintNotNull
	case sqlite3.ErrConstraintCheck:
		kind = ConstraintCheck
	case sqlite3.ErrConstraintForeignKey:
		kind = ConstraintForeignKey
	}
	return &ConstraintError{Kind: kind, Err: err}
}
