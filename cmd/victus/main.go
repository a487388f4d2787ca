package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/johncarlocaintic/VictusGlobal/internal/config"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "victus",
		Short:        "CoinMarketCap listing → investment proposal bot",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path (default $"+config.EnvConfigPath+" or "+config.DefaultPath+")")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram webhook server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	root.AddCommand(serveCmd)

	decideCmd := &cobra.Command{
		Use:   "decide <listing-url|slug>",
		Short: "Evaluate one token and print the decision as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecide,
	}
	decideCmd.Flags().Bool("snapshot", false, "include the market snapshot in the output")
	root.AddCommand(decideCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); strings.TrimSpace(p) != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(config.EnvConfigPath)); p != "" {
		return p
	}
	return config.DefaultPath
}

// loadConfig 读取配置并初始化日志输出；返回的 cleanup 关闭日志文件。
func loadConfig(cmd *cobra.Command) (*config.Config, string, func(), error) {
	path := configPath(cmd)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", nil, err
	}
	var closers []io.Closer
	if f, err := setupLogOutput(cfg.App.LogPath); err != nil {
		return nil, "", nil, err
	} else if f != nil {
		closers = append(closers, f)
	}
	if f, err := setupTraceOutput(cfg.App.TraceLogPath); err != nil {
		return nil, "", nil, err
	} else if f != nil {
		closers = append(closers, f)
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.EnableSnapshotDump(cfg.App.TraceDump)
	cleanup := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	return cfg, path, cleanup, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func setupLogOutput(path string) (*os.File, error) {
	f, err := openAppend(path)
	if err != nil || f == nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, f)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return f, nil
}

func setupTraceOutput(path string) (*os.File, error) {
	f, err := openAppend(path)
	if err != nil || f == nil {
		return nil, err
	}
	logger.SetTraceWriter(f)
	return f, nil
}

func openAppend(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if dir := filepath.Dir(trimmed); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
