package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"linkboard/internal/config"
	"linkboard/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DBMaxOpenConns: 1, DBConnectMaxAttempts: 1, DBConnectRetryInterval: time.Millisecond}
	db, err := ConnectWithDialector(context.Background(), cfg, sqlite.Open("file::memory:"))
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConnectWithDialector_GivesUpAfterMaxAttempts(t *testing.T) {
	cfg := &config.Config{DBConnectMaxAttempts: 2, DBConnectRetryInterval: 5 * time.Millisecond}

	_, err := ConnectWithDialector(context.Background(), cfg, sqlite.Open("/nonexistent-dir/linkboard/test.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	db := newSQLiteDB(t)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "posts", "upvotes"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	// The composite key rejects a second vote for the same pair.
	user := models.User{Email: "a@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	post := models.Post{Title: "t", Content: "c", Published: true, OwnerID: user.ID}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, db.Create(&models.Vote{UserID: user.ID, PostID: post.ID}).Error)
	assert.Error(t, db.Create(&models.Vote{UserID: user.ID, PostID: post.ID}).Error)

	// Deleting the post cascades to its votes.
	require.NoError(t, db.Delete(&models.Post{}, post.ID).Error)
	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMigrations_Embedded(t *testing.T) {
	registered, err := Migrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(registered), 2)

	for i, m := range registered {
		assert.NotEmpty(t, m.Up, m.ID())
		assert.NotEmpty(t, m.Down, m.ID())
		if i > 0 {
			assert.Greater(t, m.Version, registered[i-1].Version)
		}
	}
	assert.Equal(t, "000001_init_schema", registered[0].ID())
	assert.Equal(t, "000002_posts_title_search", registered[1].ID())

	_, ok := findMigration(registered, 1)
	assert.True(t, ok)
	_, ok = findMigration(registered, 999)
	assert.False(t, ok)
}

func TestParseMigrations(t *testing.T) {
	file := func(body string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(body)} }

	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{"stray file", fstest.MapFS{"m/README.md": file("x")}, "is not named"},
		{"zero version", fstest.MapFS{
			"m/000000_zero.up.sql":   file("SELECT 1"),
			"m/000000_zero.down.sql": file("SELECT 1"),
		}, "start at 000001"},
		{"missing down", fstest.MapFS{"m/000001_only_up.up.sql": file("SELECT 1")}, "needs non-empty up and down"},
		{"conflicting names", fstest.MapFS{
			"m/000001_first.up.sql":    file("SELECT 1"),
			"m/000001_second.down.sql": file("SELECT 1"),
		}, "named both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMigrations(tt.files, "m")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	ms, err := parseMigrations(fstest.MapFS{
		"m/000002_b.up.sql":   file("UP B"),
		"m/000002_b.down.sql": file("DOWN B"),
		"m/000001_a.up.sql":   file("UP A"),
		"m/000001_a.down.sql": file("DOWN A"),
	}, "m")
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: 1, Name: "a", Up: "UP A", Down: "DOWN A"},
		{Version: 2, Name: "b", Up: "UP B", Down: "DOWN B"},
	}, ms)
}

var testMigrations = []Migration{
	{Version: 1, Name: "widgets", Up: "CREATE TABLE widgets (id INTEGER PRIMARY KEY)", Down: "DROP TABLE widgets"},
	{Version: 2, Name: "gadgets", Up: "CREATE TABLE gadgets (id INTEGER PRIMARY KEY)", Down: "DROP TABLE gadgets"},
}

func TestApplyMigrations_AppliesOnceAndRollsBack(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	states, err := migrationStates(ctx, db, testMigrations)
	require.NoError(t, err)
	assert.False(t, states[0].Applied)

	require.NoError(t, applyMigrations(ctx, db, testMigrations))
	require.NoError(t, applyMigrations(ctx, db, testMigrations), "second run must be a no-op")

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasTable("gadgets"))

	require.NoError(t, rollbackMigration(ctx, db, testMigrations, 2))
	assert.False(t, db.Migrator().HasTable("gadgets"))

	states, err = migrationStates(ctx, db, testMigrations)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.True(t, states[0].Applied)
	assert.False(t, states[1].Applied)
	assert.Equal(t, "000002_gadgets", states[1].ID())

	assert.Error(t, rollbackMigration(ctx, db, testMigrations, 2), "already rolled back")
	assert.Error(t, rollbackMigration(ctx, db, testMigrations, 42), "unknown version")

	_, err = migrationStates(ctx, db, testMigrations[1:])
	assert.ErrorContains(t, err, "000001", "applied version missing from code")
}

func TestRunMigrations_FailedMigrationNotRecorded(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	require.Error(t, applyMigrations(ctx, db, []Migration{
		{Version: 1, Name: "broken", Up: "CREATE TABLE (", Down: "SELECT 1"},
	}))

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}

	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7, 3}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003, 000007")
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		env      string
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid dev", "", "development", true, true, false},
		{"hybrid prod", "hybrid", "production", true, false, false},
		{"sql", "sql", "development", true, false, false},
		{"auto dev", "auto", "test", false, true, false},
		{"auto prod refused", "auto", "prod", false, false, true},
		{"unknown", "magic", "development", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSchema(&config.Config{DBSchemaMode: tt.mode, Env: tt.env})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, plan.Migrations)
			assert.Equal(t, tt.wantAuto, plan.AutoMigrate)
		})
	}
}

func TestApplySchema_AutoMode(t *testing.T) {
	db := newSQLiteDB(t)
	cfg := &config.Config{DBSchemaMode: SchemaModeAuto, Env: "test"}

	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	assert.True(t, db.Migrator().HasTable("upvotes"))
	assert.False(t, db.Migrator().HasTable(&MigrationLog{}), "auto mode skips the sql migrations")
}

// columnDefinition returns the line declaring column in table in the CREATE TABLE statement of sql.
func columnDefinition(t *testing.T, sql, table, column string) string {
	t.Helper()
	block := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\n\);`).FindStringSubmatch(sql)
	require.NotNil(t, block, "table %s", table)
	line := regexp.MustCompile(`(?m)^\s*` + column + ` (.*)$`).FindStringSubmatch(block[1])
	require.NotNil(t, line, "column %s.%s", table, column)
	return line[1]
}

// AutoMigrate runs after the sql migrations in hybrid mode; a column the models
// describe differently would be altered on every development start.
func TestModelsMatchInitialMigration(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	initial := ms[0].Up

	for _, model := range PersistentModels() {
		s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)

		for _, name := range s.DBNames {
			field := s.FieldsByDBName[name]
			if field.IgnoreMigration || field.PrimaryKey {
				continue
			}
			def := columnDefinition(t, initial, s.Table, name)

			assert.Contains(t, def, "NOT NULL", "%s.%s", s.Table, name)
			if field.DataType == schema.String && field.Size > 0 {
				assert.Contains(t, def, fmt.Sprintf("VARCHAR(%d)", field.Size), "%s.%s", s.Table, name)
			}
			if field.HasDefaultValue {
				assert.Contains(t, def, "DEFAULT "+field.DefaultValue, "%s.%s", s.Table, name)
			} else {
				assert.NotContains(t, def, "DEFAULT", "%s.%s", s.Table, name)
			}
		}
	}
}

func TestCustomGormLogger_IgnoresRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	fc := func() (string, int64) { return "SELECT 1", 0 }

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), fc, errors.New("syntax error"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("syntax error"))
	assert.Empty(t, buf.String())
}

func TestCustomGormLogger_ConstraintViolationsAreDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	fc := func() (string, int64) { return "INSERT INTO upvotes", 0 }

	for _, err := range []error{
		gorm.ErrDuplicatedKey,
		gorm.ErrForeignKeyViolated,
		&pgconn.PgError{Code: "23505"},
		&pgconn.PgError{Code: "23503"},
	} {
		buf.Reset()
		l.Trace(context.Background(), time.Now(), fc, err)
		assert.Contains(t, buf.String(), "level=DEBUG", err.Error())
		assert.Contains(t, buf.String(), "GORM constraint violation")
		assert.NotContains(t, buf.String(), "level=ERROR")
	}
}
