package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"govchat-server/internal/config"
	"govchat-server/internal/database"
	"govchat-server/internal/model"
)

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "chat.db")
	yaml := fmt.Sprintf(`
database:
  driver: sqlite
  dsn: "file:%s?_foreign_keys=on"
jwt:
  secret: cmd-test-secret-0123456789abcdef
log:
  level: warn
`, dbFile)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "")

	rootCmd.SetArgs([]string{"migrate", "--config", dir})
	require.NoError(t, rootCmd.Execute())

	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + dbFile + "?_foreign_keys=on",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	for _, table := range []interface{}{&model.User{}, &model.ChatSession{}, &model.Message{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
}

func TestMigrateCommandRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("database:\n  driver: oracle\n"), 0o644))
	t.Setenv("JWT_SECRET", "cmd-test-secret-0123456789abcdef")
	t.Setenv("DB_DRIVER", "")

	rootCmd.SetArgs([]string{"migrate", "--config", dir})
	assert.Error(t, rootCmd.Execute())
}
