package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateCheckViolation      = "23514"
)

func sqlState(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is provided, the helper also requires it to appear in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	if sqlState(err) == sqlStateUniqueViolation {
		return true
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if sqlState(err) == sqlStateForeignKeyViolation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "violates foreign key constraint") || strings.Contains(msg, "FOREIGN KEY constraint failed")
}

// IsCheckViolation reports whether err is a CHECK constraint violation.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if sqlState(err) == sqlStateCheckViolation {
		return true
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// IsNotFound reports whether err is GORM's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Op describes the statement that produced a driver error; it decides how foreign key
// violations are reported.
type Op int

const (
	OpWrite Op = iota
	OpDelete
)

// Classify maps driver errors into typed errors. entity names the resource in messages.
// Unique violations become 409. Foreign key violations become 400 on writes (a referenced
// row is missing) and 409 on deletes (the row is still referenced).
func Classify(err error, op Op, entity string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case IsNotFound(err):
		return pkgerrors.NotFound(entity)
	case IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" already exists")
	case IsForeignKeyViolation(err):
		if op == OpDelete {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" is still referenced")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "referenced record does not exist")
	case IsCheckViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, entity+" violates a constraint")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "database error")
	}
}
