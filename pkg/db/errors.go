package db

import (
	"context"
	stdErrors "errors"
	"strings"

	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
	pgAdminShutdown        = "57P01"
	pgNumericOverflow      = "22003"
	pgForeignKeyViolation  = "23503"
)

// IsUniqueViolation reports whether the provided error is a unique violation.
// When constraintName is provided, the violation must reference it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	code, constraint := pgErrorDetail(err)
	if code != "" {
		if code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || constraint == constraintName || strings.Contains(err.Error(), constraintName)
	}

	if !stdErrors.Is(err, gorm.ErrDuplicatedKey) {
		msg := err.Error()
		if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
			return false
		}
	}
	if constraintName != "" {
		return strings.Contains(err.Error(), constraintName)
	}
	return true
}

// IsTransient reports whether the store aborted the unit of work for reasons
// unrelated to the request itself: timeouts, lock waits, deadlocks, or a
// serialization failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if stdErrors.Is(err, context.DeadlineExceeded) || stdErrors.Is(err, context.Canceled) {
		return true
	}
	switch code, _ := pgErrorDetail(err); code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgQueryCanceled, pgAdminShutdown:
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// IsForeignKeyViolation reports whether a write broke a foreign key, such as
// deleting a row other rows still reference.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, _ := pgErrorDetail(err); code != "" {
		return code == pgForeignKeyViolation
	}
	if stdErrors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsNumericOverflow reports whether a value exceeded its column's numeric
// range.
func IsNumericOverflow(err error) bool {
	if err == nil {
		return false
	}
	code, _ := pgErrorDetail(err)
	return code == pgNumericOverflow
}

// TranslateError maps a raw store error onto the typed error taxonomy. Typed
// errors pass through untouched.
func TranslateError(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	case IsUniqueViolation(err, ""), IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	case IsNumericOverflow(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, message+": amount out of range")
	case IsTransient(err):
		return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
	}
}

func pgErrorDetail(err error) (string, string) {
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) {
		return pgxErr.Code, pgxErr.ConstraintName
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}
