package repository

import (
	"testing"

	"showcase/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB returns a Postgres-dialect gorm handle backed by sqlmock, for
// asserting the SQL a repository emits.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupDB(t *testing.T) (*gorm.DB, *testutil.Fixtures) {
	db := testutil.NewDB(t)
	return db, testutil.NewFixtures(t, db)
}
