package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_orders_key"}
	assert.True(t, IsUniqueViolation(pgErr, ""))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", pgErr), "uq_orders_key"))
	assert.False(t, IsUniqueViolation(pgErr, "uq_other"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "40001"}, ""))

	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey, ""))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: orders.retailer_id"), ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&testModel{Name: "dup"}).Error)
	err := db.Create(&testModel{Name: "dup"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err, ""))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "57014"}))
	assert.True(t, IsTransient(errors.New("database is locked")))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(gorm.ErrForeignKeyViolated))
	assert.True(t, IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsForeignKeyViolation(nil))
}

func TestIsNumericOverflow(t *testing.T) {
	assert.True(t, IsNumericOverflow(fmt.Errorf("update: %w", &pgconn.PgError{Code: "22003"})))
	assert.False(t, IsNumericOverflow(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsNumericOverflow(errors.New("numeric field overflow")))
	assert.False(t, IsNumericOverflow(nil))
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, TranslateError(nil, "noop"))

	typed := pkgerrors.New(pkgerrors.CodeInsufficientAdvance, "short")
	assert.Same(t, typed, TranslateError(typed, "ignored"))

	cases := []struct {
		err  error
		code pkgerrors.Code
	}{
		{err: gorm.ErrRecordNotFound, code: pkgerrors.CodeNotFound},
		{err: &pgconn.PgError{Code: "23505"}, code: pkgerrors.CodeConflict},
		{err: &pgconn.PgError{Code: "40001"}, code: pkgerrors.CodeUnavailable},
		{err: &pgconn.PgError{Code: "22003"}, code: pkgerrors.CodeValidation},
		{err: &pgconn.PgError{Code: "23503"}, code: pkgerrors.CodeConflict},
		{err: errors.New("syntax error"), code: pkgerrors.CodeInternal},
	}
	for _, tc := range cases {
		got := TranslateError(tc.err, "store op")
		assert.Equal(t, tc.code, pkgerrors.CodeOf(got), tc.err.Error())
		assert.ErrorIs(t, got, tc.err)
	}
}
