package database

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestCreateCustomIndexes(t *testing.T) {
	t.Run("creates partial indexes", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_subscriptions_active`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_payment_intents_open`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, createCustomIndexes(db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_subscriptions_active`).
			WillReturnError(errors.New("permission denied"))

		err := createCustomIndexes(db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idx_subscriptions_active")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClose(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()

	require.NoError(t, Close(db, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
