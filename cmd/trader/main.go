package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gold-digger/internal/app"
	"gold-digger/internal/config"
	"gold-digger/internal/log"
	"gold-digger/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "黄金SMC信号管道配置文件路径，默认使用 configs/config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	logger.Info("黄金SMC信号管道启动",
		zap.String("environment", cfg.App.Environment),
		zap.String("instrument", cfg.App.Instrument),
		zap.String("symbol", cfg.Market.Symbol),
		zap.String("timeframe", cfg.SMC.Timeframe),
	)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	sqliteStore, err := store.NewSQLite(cfg.Database)
	if err != nil {
		logger.Error("初始化数据库失败", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if closeErr := sqliteStore.Close(); closeErr != nil {
			logger.Warn("关闭数据库失败", zap.Error(closeErr))
		}
	}()

	pipeline := app.New(cfg, logger, sqliteStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pipeline.Run(ctx); err != nil {
		logger.Error("信号管道运行异常", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("信号管道已安全退出")
}
