package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gold-digger/internal/config"
	"gold-digger/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 驱动主业务循环直至收到退出信号。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("信号系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("instrument", a.cfg.App.Instrument),
		zap.String("symbol", a.cfg.Market.Symbol),
		zap.String("timeframe", a.cfg.SMC.Timeframe),
	)

	orch, err := newOrchestrator(a.cfg, a.logger, a.store)
	if err != nil {
		return err
	}

	if a.cfg.App.MonitorPort > 0 {
		if err := startMonitorServer(ctx, orch.Monitor(), a.cfg.App.MonitorPort, a.logger); err != nil {
			return err
		}
	}

	loopInterval := a.cfg.Scheduler.LoopInterval
	if loopInterval <= 0 {
		loopInterval = 5 * time.Minute
	}

	if err = orch.Tick(ctx); err != nil {
		a.logger.Error("首次执行失败", zap.Error(err))
	}

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-ticker.C:
			if err = orch.Tick(ctx); err != nil {
				a.logger.Error("执行调度失败", zap.Error(err))
			}
		}
	}
}
