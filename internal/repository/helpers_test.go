package repository

import (
	"context"
	"testing"
	"time"

	"linkboard/internal/config"
	"linkboard/internal/database"
	"linkboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a migrated in-memory database on a single connection.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DBMaxOpenConns: 1, DBConnectMaxAttempts: 1, DBConnectRetryInterval: time.Millisecond}
	db, err := database.ConnectWithDialector(context.Background(), cfg, sqlite.Open("file::memory:"))
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "hash"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedPost(t *testing.T, db *gorm.DB, ownerID uint, title string, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Content: "content of " + title, Published: true, OwnerID: ownerID, CreatedAt: createdAt}
	require.NoError(t, db.Omit("Owner").Create(p).Error)
	return p
}
