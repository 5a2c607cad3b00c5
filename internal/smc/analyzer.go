package smc

import (
	"time"

	"go.uber.org/zap"

	"gold-digger/internal/market"
)

// AnalyzerConfig 汇总SMC管道的全部可调参数。
type AnalyzerConfig struct {
	Sessions        []SessionWindow
	LookaheadWindow int
	MinDisplacement float64
	SwingLookback   int
	ATRPeriod       int
	MaxBlockAge     time.Duration
	Timeframe       string
}

// Analysis 为一次完整SMC分析的产出。各检测器拥有自己创建的对象，
// 下游只读组合，不做修改。
type Analysis struct {
	Timeframe    string
	AsOf         time.Time
	Levels       []SessionLevel
	Grabs        []LiquidityGrabEvent
	Blocks       []OrderBlock
	ActiveBlocks []OrderBlock
	Breaks       []StructureBreak
}

// LatestBreak 返回最近一次结构突破，不存在时为 nil。
func (a Analysis) LatestBreak() *StructureBreak {
	if len(a.Breaks) == 0 {
		return nil
	}
	brk := a.Breaks[len(a.Breaks)-1]
	return &brk
}

// Analyzer 将时段级别、流动性抓取、订单块与结构突破串成单一分析管道。
// 每次调用都是对只读K线窗口的纯函数计算，可针对同一快照并发运行多个实例。
type Analyzer struct {
	cfg       AnalyzerConfig
	tracker   *SessionTracker
	liquidity *LiquidityDetector
	blocks    *OrderBlockDetector
	structure *StructureDetector
	logger    *zap.Logger
}

// NewAnalyzer 创建分析器。
func NewAnalyzer(cfg AnalyzerConfig, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBlockAge <= 0 {
		cfg.MaxBlockAge = DefaultMaxBlockAge
	}
	return &Analyzer{
		cfg:       cfg,
		tracker:   NewSessionTracker(cfg.Sessions, logger),
		liquidity: NewLiquidityDetector(cfg.LookaheadWindow, logger),
		blocks:    NewOrderBlockDetector(cfg.MinDisplacement, cfg.ATRPeriod, cfg.Timeframe, logger),
		structure: NewStructureDetector(cfg.SwingLookback, cfg.ATRPeriod, logger),
		logger:    logger,
	}
}

// Analyze 在给定K线窗口上运行完整管道。
// 时段数据不足返回 ErrInsufficientData；检测器自身的数据不足表现为空结果。
func (a *Analyzer) Analyze(candles []market.Candle, asOf time.Time) (Analysis, error) {
	levels, err := a.tracker.ComputeLevels(candles, asOf)
	if err != nil {
		return Analysis{}, err
	}

	grabs := a.liquidity.Detect(candles, levels)
	blocks := a.blocks.Detect(candles)
	breaks := a.structure.Detect(candles)

	analysis := Analysis{
		Timeframe:    a.cfg.Timeframe,
		AsOf:         asOf,
		Levels:       levels,
		Grabs:        grabs,
		Blocks:       blocks,
		ActiveBlocks: ActiveBlocks(blocks, asOf, a.cfg.MaxBlockAge),
		Breaks:       breaks,
	}

	a.logger.Debug("SMC分析完成",
		zap.String("timeframe", a.cfg.Timeframe),
		zap.Int("level_count", len(levels)),
		zap.Int("grab_count", len(grabs)),
		zap.Int("block_count", len(blocks)),
		zap.Int("break_count", len(breaks)),
	)

	return analysis, nil
}
