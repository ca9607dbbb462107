package cmd

import (
	"github.com/spf13/cobra"

	"govchat-server/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移后退出",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	log.Info("running database migrations")
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	log.Info("database migrations completed")
	return nil
}
