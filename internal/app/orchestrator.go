package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gold-digger/internal/ai"
	"gold-digger/internal/config"
	"gold-digger/internal/execution"
	"gold-digger/internal/feature"
	"gold-digger/internal/indicator"
	"gold-digger/internal/market"
	"gold-digger/internal/monitor"
	"gold-digger/internal/smc"
	"gold-digger/internal/store"
)

// orchestrator 串联行情、SMC检测、AI决策、设置验证与执行交接。
type orchestrator struct {
	instrument string
	timeframe  string

	market    *market.Service
	analyzer  *smc.Analyzer
	validator *smc.Validator
	builder   *feature.Builder
	ai        ai.DecisionProvider
	executor  execution.Provider
	monitor   *monitor.Service
	logger    *zap.Logger

	decisionInterval time.Duration
	lastDecision     time.Time
}

func (o *orchestrator) Monitor() *monitor.Service {
	return o.monitor
}

func newOrchestrator(cfg *config.Config, logger *zap.Logger, store *store.Store) (*orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	marketClient, err := market.NewClient(market.ClientConfig{
		Symbol:     cfg.Market.Symbol,
		APIKey:     cfg.Market.APIKey,
		APISecret:  cfg.Market.APISecret,
		UseSandbox: cfg.Market.UseSandbox,
		Retry: market.RetryPolicy{
			MaxAttempts: cfg.Market.Retry.MaxAttempts,
			MinDelay:    cfg.Market.Retry.MinDelay,
			MaxDelay:    cfg.Market.Retry.MaxDelay,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化行情客户端失败: %w", err)
	}

	sessions, err := cfg.SessionWindows()
	if err != nil {
		return nil, fmt.Errorf("解析交易时段失败: %w", err)
	}

	analyzer := smc.NewAnalyzer(smc.AnalyzerConfig{
		Sessions:        sessions,
		LookaheadWindow: cfg.SMC.LookaheadWindow,
		MinDisplacement: cfg.SMC.MinDisplacement,
		SwingLookback:   cfg.SMC.SwingLookback,
		ATRPeriod:       cfg.SMC.ATRPeriod,
		MaxBlockAge:     cfg.SMC.MaxBlockAge,
		Timeframe:       cfg.SMC.Timeframe,
	}, logger)

	validator := smc.NewValidator(smc.SetupConfig{
		MinRiskReward: cfg.SMC.MinRiskReward,
		StopBuffer:    cfg.SMC.StopBuffer,
	}, logger)

	aiClient, err := ai.NewClient(cfg.OpenAI, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化AI客户端失败: %w", err)
	}

	monitorSvc, err := monitor.NewService(store, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化监控服务失败: %w", err)
	}

	var executor execution.Provider
	if cfg.Execution.Simulation {
		logger.Info("执行器处于模拟模式", zap.String("instrument", cfg.App.Instrument))
		executor = execution.NewSimulatedExecutor(logger)
	} else {
		return nil, errors.New("实盘执行尚未接入，请开启 execution.simulation")
	}

	interval := cfg.Scheduler.DecisionInterval
	if interval <= 0 {
		interval = time.Hour
	}

	return &orchestrator{
		instrument:       cfg.App.Instrument,
		timeframe:        cfg.SMC.Timeframe,
		market:           market.NewService(marketClient, logger),
		analyzer:         analyzer,
		validator:        validator,
		builder:          feature.NewBuilder(indicator.NewCalculator(), logger),
		ai:               aiClient,
		executor:         executor,
		monitor:          monitorSvc,
		logger:           logger,
		decisionInterval: interval,
	}, nil
}

// Tick 执行一轮完整的 检测-决策-交接 流程。
func (o *orchestrator) Tick(ctx context.Context) error {
	now := time.Now().UTC()
	if !o.lastDecision.IsZero() && now.Sub(o.lastDecision) < o.decisionInterval {
		return nil
	}

	snapshot, err := o.market.GetSnapshot(ctx, market.DefaultSnapshotRequest())
	if err != nil {
		o.monitor.RecordError(ctx, "拉取市场数据失败", err, map[string]interface{}{"instrument": o.instrument})
		return err
	}

	analysis, err := o.analyzer.Analyze(snapshot.Candles1H, snapshot.RetrievedAt)
	if err != nil {
		if errors.Is(err, smc.ErrInsufficientData) {
			o.logger.Warn("K线数据不足，跳过本轮分析", zap.Error(err))
			return nil
		}
		o.monitor.RecordError(ctx, "SMC分析失败", err, map[string]interface{}{"instrument": o.instrument})
		return err
	}
	o.monitor.RecordSMCSignal(ctx, analysis)

	pending := o.validator.Active(o.instrument, o.timeframe)
	marketCtx, err := o.builder.Build(ctx, snapshot, analysis, pending)
	if err != nil {
		o.monitor.RecordError(ctx, "构建市场上下文失败", err, map[string]interface{}{"instrument": o.instrument})
		return err
	}
	o.monitor.RecordMarketSnapshot(ctx, marketCtx)

	decision, err := o.ai.Decide(ctx, marketCtx)
	if err != nil {
		o.monitor.RecordError(ctx, "AI 决策失败", err, nil)
		return err
	}
	o.monitor.RecordDecision(ctx, marketCtx, decision)
	o.lastDecision = now

	if decision.Hold() {
		o.logger.Info("AI 建议观望", zap.String("rationale", decision.Rationale))
		return nil
	}

	setup := o.validator.Validate(smc.ValidateInput{
		Instrument:  o.instrument,
		Timeframe:   o.timeframe,
		Grabs:       analysis.Grabs,
		Blocks:      analysis.ActiveBlocks,
		Breaks:      analysis.Breaks,
		Levels:      analysis.Levels,
		VWAP:        marketCtx.Indicators.VWAP,
		RetestPrice: marketCtx.CurrentPrice,
		Now:         snapshot.RetrievedAt,
	})
	if setup == nil {
		o.logger.Info("决策方向缺少合格的SMC设置，保持观望",
			zap.String("action", decision.Action),
		)
		return nil
	}
	o.monitor.RecordSetup(ctx, *setup)

	if !directionMatches(decision.Action, setup.Direction) {
		o.logger.Warn("AI 方向与结构设置不一致，放弃交接",
			zap.String("action", decision.Action),
			zap.String("setup_direction", string(setup.Direction)),
		)
		o.validator.Clear(o.instrument, o.timeframe)
		return nil
	}

	handoff := execution.Handoff{
		Setup:       *setup,
		Decision:    decision,
		GeneratedAt: now,
	}

	result, err := o.executor.Submit(ctx, handoff)
	if err != nil {
		o.monitor.RecordError(ctx, "执行交接失败", err, map[string]interface{}{"instrument": o.instrument})
		o.validator.Clear(o.instrument, o.timeframe)
		return err
	}
	o.monitor.RecordHandoff(ctx, handoff, result)

	if !result.Accepted() {
		o.logger.Warn("交接被执行方拒绝", zap.String("reason", result.Reason))
		o.validator.Clear(o.instrument, o.timeframe)
	}

	return nil
}

func directionMatches(action string, dir smc.Direction) bool {
	switch action {
	case ai.ActionBuy:
		return dir == smc.DirectionBullish
	case ai.ActionSell:
		return dir == smc.DirectionBearish
	default:
		return false
	}
}
