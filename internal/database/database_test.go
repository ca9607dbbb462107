package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"govchat-server/internal/config"
	"govchat-server/internal/model"
)

func TestNewInMemoryMigratesAndIsolates(t *testing.T) {
	a, err := NewInMemory("db_test_a", zap.NewNop())
	require.NoError(t, err)
	b, err := NewInMemory("db_test_b", zap.NewNop())
	require.NoError(t, err)

	for _, table := range []interface{}{&model.User{}, &model.ChatSession{}, &model.Message{}} {
		assert.True(t, a.Migrator().HasTable(table))
	}

	require.NoError(t, a.Create(&model.User{Name: "A", Email: "a@example.com", PasswordHash: "h"}).Error)

	var count int64
	require.NoError(t, b.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDialectorFor(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		dialect string
		wantErr bool
	}{
		{"mysql", config.DatabaseConfig{Driver: config.DriverMySQL, Host: "db", Port: 3306, Charset: "utf8mb4"}, "mysql", false},
		{"mysql bad dsn", config.DatabaseConfig{Driver: config.DriverMySQL, DSN: "not a dsn"}, "", true},
		{"postgres", config.DatabaseConfig{Driver: config.DriverPostgres, DSN: "postgres://u:p@db/chat"}, "postgres", false},
		{"sqlite memory", config.DatabaseConfig{Driver: config.DriverSQLite, DSN: MemoryDSN}, "sqlite", false},
		{"unknown", config.DatabaseConfig{Driver: "oracle"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := dialectorFor(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, d.Name())
		})
	}
}

func TestMySQLDSNCountsMatchedRows(t *testing.T) {
	built, err := mysqlDSN(config.DatabaseConfig{
		Username: "chat",
		Password: "pw",
		Host:     "db",
		Port:     3306,
		Database: "govchat",
		Charset:  "utf8mb4",
	})
	require.NoError(t, err)
	assert.Contains(t, built, "clientFoundRows=true")
	assert.Contains(t, built, "parseTime=true")
	assert.Contains(t, built, "tcp(db:3306)/govchat")

	supplied, err := mysqlDSN(config.DatabaseConfig{DSN: "u:p@tcp(10.0.0.1:3307)/chat?parseTime=true"})
	require.NoError(t, err)
	assert.Contains(t, supplied, "clientFoundRows=true")
	assert.Contains(t, supplied, "tcp(10.0.0.1:3307)/chat")
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", memoryDSN("govchat")},
		{MemoryDSN, memoryDSN("govchat")},
		{"chat.db", "chat.db?_foreign_keys=on"},
		{"file:chat.db?cache=shared", "file:chat.db?cache=shared&_foreign_keys=on"},
		{"file:chat.db?_foreign_keys=off", "file:chat.db?_foreign_keys=off"},
		{"chat.db?_fk=1", "chat.db?_fk=1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.in), tt.in)
	}
}

func TestOnDiskSQLiteEnforcesForeignKeys(t *testing.T) {
	db, err := Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "chat.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, AutoMigrate(db))

	err = db.Create(&model.ChatSession{UserID: 424242, Title: "orphan"}).Error
	assert.Error(t, err)
}
