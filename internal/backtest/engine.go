package backtest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gold-digger/internal/ai"
	"gold-digger/internal/feature"
	"gold-digger/internal/smc"
)

// Result 汇总回测结果。
type Result struct {
	Metrics      Metrics
	EquityCurve  []float64
	ReturnSeries []float64
	Trades       []TradeRecord
	FinalEquity  float64
}

// Engine 串联数据源、SMC管道、AI决策与模拟执行。
type Engine struct {
	cfg       Config
	provider  SnapshotProvider
	analyzer  *smc.Analyzer
	validator *smc.Validator
	builder   *feature.Builder
	decision  ai.DecisionProvider
	simulator *Simulator
	logger    *zap.Logger
}

// NewEngine 构建回测引擎。
func NewEngine(cfg Config, provider SnapshotProvider, analyzer *smc.Analyzer, validator *smc.Validator, builder *feature.Builder, decision ai.DecisionProvider, logger *zap.Logger) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("backtest: provider 不能为空")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("backtest: analyzer 不能为空")
	}
	if validator == nil {
		return nil, fmt.Errorf("backtest: validator 不能为空")
	}
	if builder == nil {
		return nil, fmt.Errorf("backtest: feature builder 不能为空")
	}
	if decision == nil {
		return nil, fmt.Errorf("backtest: decision provider 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg = cfg.normalize()
	simulator := NewSimulator(cfg.InitialEquity)

	return &Engine{
		cfg:       cfg,
		provider:  provider,
		analyzer:  analyzer,
		validator: validator,
		builder:   builder,
		decision:  decision,
		simulator: simulator,
		logger:    logger,
	}, nil
}

// Run 执行完整回测流程。
func (e *Engine) Run(ctx context.Context) (Result, error) {
	for {
		snapshot, ok, err := e.provider.Next(ctx)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}
		if len(snapshot.Candles1H) == 0 {
			continue
		}

		last := snapshot.Candles1H[len(snapshot.Candles1H)-1]
		if e.simulator.Advance(last) {
			e.validator.Clear(e.cfg.Instrument, e.cfg.Timeframe)
		}

		analysis, err := e.analyzer.Analyze(snapshot.Candles1H, snapshot.RetrievedAt)
		if err != nil {
			if errors.Is(err, smc.ErrInsufficientData) {
				continue
			}
			e.logger.Warn("SMC分析失败", zap.Error(err))
			continue
		}

		pending := e.validator.Active(e.cfg.Instrument, e.cfg.Timeframe)
		marketCtx, err := e.builder.Build(ctx, snapshot, analysis, pending)
		if err != nil {
			e.logger.Warn("构建市场上下文失败", zap.Error(err))
			continue
		}

		decision, err := e.decision.Decide(ctx, marketCtx)
		if err != nil {
			e.logger.Warn("获取决策失败", zap.Error(err))
			continue
		}
		if decision.Hold() || e.simulator.HasOpen() {
			continue
		}

		setup := e.validator.Validate(smc.ValidateInput{
			Instrument:  e.cfg.Instrument,
			Timeframe:   e.cfg.Timeframe,
			Grabs:       analysis.Grabs,
			Blocks:      analysis.ActiveBlocks,
			Breaks:      analysis.Breaks,
			Levels:      analysis.Levels,
			VWAP:        marketCtx.Indicators.VWAP,
			RetestPrice: last.Close,
			Now:         snapshot.RetrievedAt,
		})
		if setup == nil {
			continue
		}

		riskAmount := e.simulator.Equity() * e.cfg.RiskPerTrade
		if !e.simulator.Open(*setup, riskAmount, snapshot.RetrievedAt) {
			e.validator.Clear(e.cfg.Instrument, e.cfg.Timeframe)
		}
	}

	metrics := calculateMetrics(
		e.simulator.EquityHistory(),
		e.simulator.ReturnHistory(),
		e.simulator.Wins(),
		e.simulator.TradeCount(),
	)
	return Result{
		Metrics:      metrics,
		EquityCurve:  e.simulator.EquityHistory(),
		ReturnSeries: e.simulator.ReturnHistory(),
		Trades:       e.simulator.Trades(),
		FinalEquity:  e.simulator.Equity(),
	}, nil
}
