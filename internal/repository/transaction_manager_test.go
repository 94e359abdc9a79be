package repository

import (
	"context"
	"errors"
	"testing"

	"quiz-assessment/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionManager_CommitAndNesting(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	txm := NewTransactionManagerAdapter(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := txm.WithTransaction(context.Background(), func(ctx context.Context) error {
		ex := GetExecutor(ctx, db)
		_, isTx := ex.(*sqlx.Tx)
		assert.True(t, isTx)

		// A nested call joins the outer transaction instead of beginning another.
		return txm.WithTransaction(ctx, func(inner context.Context) error {
			assert.Same(t, ex, GetExecutor(inner, db))
			return nil
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollbackOnError(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	txm := NewTransactionManagerAdapter(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := txm.WithTransaction(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_BeginFailure(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	txm := NewTransactionManagerAdapter(db)

	mock.ExpectBegin().WillReturnError(errors.New("ORA-12541: no listener"))

	err := txm.WithTransaction(context.Background(), func(ctx context.Context) error { return nil })
	assert.Equal(t, domain.ErrPersistence, domain.CodeOf(err))
}

func TestGetExecutor_WithoutTransaction(t *testing.T) {
	db, _ := setupSessionTestDB(t)
	assert.Same(t, db, GetExecutor(context.Background(), db))
}
