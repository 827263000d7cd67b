package storage

import (
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
)

const uniqueViolation = "23505"

// translate maps driver and gorm errors to apperr codes. what names the
// entity for the user-facing message.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return apperr.New(apperr.CodeConflict, what+" already exists", err)
	default:
		return apperr.Internal("database error", err)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
