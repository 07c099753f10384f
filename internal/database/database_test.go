package database

import (
	"context"
	"testing"
	"testing/fstest"

	"chirper/internal/config"
	"chirper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(&config.Config{DBDriver: DriverSQLite, DBSQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestConnect_SQLiteAutoMigrates(t *testing.T) {
	cfg := &config.Config{DBDriver: DriverSQLite, DBSQLitePath: ":memory:", Env: "test"}
	db, err := Connect(context.Background(), cfg)
	require.NoError(t, err)

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestFollowUniqueIndex(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))

	a := models.User{Username: "alice", Email: "alice@example.com"}
	b := models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	require.NoError(t, db.Create(&models.Follow{FollowerID: a.ID, FollowingID: b.ID}).Error)
	assert.Error(t, db.Create(&models.Follow{FollowerID: a.ID, FollowingID: b.ID}).Error)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=postgres sslmode=disable", PostgresDSN(cfg, "postgres"))

	cfg.DBSSLMode = "require"
	assert.Contains(t, PostgresDSN(cfg, "chirper"), "dbname=chirper sslmode=require")
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		runSQL  bool
		runAuto bool
		wantErr bool
	}{
		{name: "sqlite always automigrates", cfg: config.Config{DBDriver: DriverSQLite, DBSchemaMode: SchemaModeSQL}, runAuto: true},
		{name: "hybrid development", cfg: config.Config{Env: "development"}, runSQL: true, runAuto: true},
		{name: "hybrid production", cfg: config.Config{Env: "production", DBSchemaMode: SchemaModeHybrid}, runSQL: true},
		{name: "sql only", cfg: config.Config{DBSchemaMode: SchemaModeSQL}, runSQL: true},
		{name: "auto development", cfg: config.Config{Env: "development", DBSchemaMode: SchemaModeAuto}, runAuto: true},
		{name: "auto production refused", cfg: config.Config{Env: "production", DBSchemaMode: SchemaModeAuto}, wantErr: true},
		{name: "unknown mode", cfg: config.Config{DBSchemaMode: "yolo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.runSQL, runSQL)
			assert.Equal(t, tt.runAuto, runAuto)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := GetMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "000001_social_core", migrations[0].String())
	assert.Contains(t, migrations[0].UpScript, "idx_follower_following")
	assert.Contains(t, migrations[0].DownScript, "DROP TABLE IF EXISTS follows")
}

func TestLoadMigrations_Errors(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{
		"migrations/000001_a.up.sql": {Data: []byte("SELECT 1;")},
	})
	assert.Error(t, err, "missing down script")

	_, err = LoadMigrations(fstest.MapFS{
		"migrations/abc_a.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/abc_a.down.sql": {Data: []byte("SELECT 1;")},
	})
	assert.Error(t, err, "bad version")
}

func TestMigrator_UpDown(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	migrations, err := LoadMigrations(fstest.MapFS{
		"migrations/000001_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"migrations/000001_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"migrations/000002_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY);")},
		"migrations/000002_gadgets.down.sql": {Data: []byte("DROP TABLE gadgets;")},
	})
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	m := NewMigrator(db, migrations)

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, m.Up(ctx))
	assert.True(t, db.Migrator().HasTable("widgets"))
	assert.True(t, db.Migrator().HasTable("gadgets"))

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)

	// Re-running is a no-op.
	require.NoError(t, m.Up(ctx))

	require.NoError(t, m.Down(ctx, 2))
	assert.False(t, db.Migrator().HasTable("gadgets"))
	applied, err = m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, applied)

	assert.Error(t, m.Down(ctx, 2), "not applied")
	assert.Error(t, m.Down(ctx, 99), "unknown version")

	// A database that has seen a migration the binary does not know is refused.
	_, err = NewMigrator(db, migrations[1:]).Pending(ctx)
	assert.ErrorContains(t, err, "000001")
}
