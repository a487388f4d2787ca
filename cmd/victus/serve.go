package main

import (
	"fmt"

	"github.com/johncarlocaintic/VictusGlobal/internal/app"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"

	"github.com/spf13/cobra"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, path, cleanup, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("读取配置失败: %w", err)
	}
	defer cleanup()
	logger.Infof("✓ 配置加载成功（环境=%s，配置=%s）", cfg.App.Env, path)

	ctx, stop := signalContext()
	defer stop()

	a, err := app.NewApp(ctx, cfg, app.WithConfigWatch(path))
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	return a.Run(ctx)
}
