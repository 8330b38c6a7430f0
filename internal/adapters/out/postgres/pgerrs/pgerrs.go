// Package pgerrs translates persistence failures into application errors.
package pgerrs

import (
	"context"
	"errors"

	"freight/internal/pkg/errs"

	"gorm.io/gorm"
)

// Wrap classifies err for callers of a repository. Domain and application
// errors pass through, a duplicate key becomes a CONFLICT and anything else
// the database returned becomes a DB error. Context errors are kept as is.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errs.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, errs.ErrObjectNotFound),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		conflict := errs.NewConflictError(errs.CodeConflict, op+": record already exists")
		conflict.Err = err
		return conflict
	}
	return errs.NewStoreError(op+" failed", err)
}
