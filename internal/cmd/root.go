// Package cmd 实现服务端命令行
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"govchat-server/internal/config"
	"govchat-server/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "govchat-server",
	Short: "GovChat 聊天服务端",
	Long: `GovChat 聊天服务端

提供注册登录、会话管理和机器人回复的 HTTP 接口。
不带子命令运行时等同于 serve。`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringP("config", "c", "./configs", "配置文件目录（包含 config.yaml）")
}

// loadEnvironment 加载配置并创建日志
func loadEnvironment(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	dir, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
