package repository

import (
	"testing"

	"folio/internal/cache"
	"folio/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.SQLiteDB(t)
}

func setupCache(t *testing.T) (*miniredis.Miniredis, *cache.Cache) {
	t.Helper()
	mr, rdb := testutil.Redis(t)
	return mr, cache.New(rdb)
}
