package feature

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"gold-digger/internal/indicator"
	"gold-digger/internal/market"
	"gold-digger/internal/smc"
)

const (
	minCandles1H = 60
	minCandles4H = 30
)

// 趋势分类取值。
const (
	TrendBullish = "BULLISH"
	TrendBearish = "BEARISH"
	TrendNeutral = "NEUTRAL"
)

// SessionLevelSummary 为单个时段级别的摘要。
type SessionLevelSummary struct {
	Session     string  `json:"session"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Provisional bool    `json:"provisional"`
}

// OrderBlockSummary 为活跃订单块的摘要。
type OrderBlockSummary struct {
	Direction string  `json:"direction"`
	Top       float64 `json:"top"`
	Bottom    float64 `json:"bottom"`
	Strength  int     `json:"strength"`
	Status    string  `json:"status"`
	AgeHours  float64 `json:"age_hours"`
}

// StructureBreakSummary 为最近一次结构突破的摘要。
type StructureBreakSummary struct {
	Direction         string  `json:"direction"`
	BreakPrice        float64 `json:"break_price"`
	Strength          int     `json:"strength"`
	ChangeOfCharacter bool    `json:"change_of_character"`
	AgeHours          float64 `json:"age_hours"`
}

// GrabSummary 为已确认流动性抓取的摘要。
type GrabSummary struct {
	Session     string  `json:"session"`
	Side        string  `json:"side"`
	LevelPrice  float64 `json:"level_price"`
	BreachPrice float64 `json:"breach_price"`
	AgeHours    float64 `json:"age_hours"`
}

// PendingSetupSummary 为等待确认的交易机会摘要。
type PendingSetupSummary struct {
	Direction  string  `json:"direction"`
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	RiskReward float64 `json:"risk_reward"`
}

// IndicatorSummary 为基础指标摘要。
type IndicatorSummary struct {
	VWAP   float64 `json:"vwap"`
	EMA21  float64 `json:"ema_21"`
	EMA50  float64 `json:"ema_50"`
	EMA200 float64 `json:"ema_200"`
	RSI    float64 `json:"rsi"`
	ATR    float64 `json:"atr"`
}

// Context 汇总提供给AI决策方的全部市场上下文。
type Context struct {
	Symbol               string                 `json:"symbol"`
	GeneratedAt          time.Time              `json:"generated_at"`
	CurrentPrice         float64                `json:"current_price"`
	Trend                string                 `json:"trend"`
	HigherTimeframeTrend string                 `json:"higher_timeframe_trend"`
	SetupQuality         int                    `json:"setup_quality"`
	Indicators           IndicatorSummary       `json:"indicators"`
	SessionLevels        []SessionLevelSummary  `json:"session_levels"`
	ActiveOrderBlocks    []OrderBlockSummary    `json:"active_order_blocks"`
	LatestBreak          *StructureBreakSummary `json:"latest_structure_break,omitempty"`
	RecentGrabs          []GrabSummary          `json:"recent_liquidity_grabs,omitempty"`
	PendingSetup         *PendingSetupSummary   `json:"pending_setup,omitempty"`
}

// Builder 根据市场快照与SMC分析构建AI上下文。
type Builder struct {
	indicators *indicator.Calculator
	logger     *zap.Logger
}

// NewBuilder 创建上下文构建器。
func NewBuilder(calc *indicator.Calculator, logger *zap.Logger) *Builder {
	if calc == nil {
		calc = indicator.NewCalculator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		indicators: calc,
		logger:     logger,
	}
}

// Build 组装市场上下文。
func (b *Builder) Build(ctx context.Context, snapshot market.Snapshot, analysis smc.Analysis, pending *smc.TradeSetup) (Context, error) {
	if len(snapshot.Candles1H) < minCandles1H {
		return Context{}, fmt.Errorf("1小时K线数量不足，至少需要 %d 根，当前 %d", minCandles1H, len(snapshot.Candles1H))
	}
	if len(snapshot.Candles4H) < minCandles4H {
		return Context{}, fmt.Errorf("4小时K线数量不足，至少需要 %d 根，当前 %d", minCandles4H, len(snapshot.Candles4H))
	}

	select {
	case <-ctx.Done():
		return Context{}, ctx.Err()
	default:
	}

	res1h, err := b.indicators.Compute(market.Timeframe1h, snapshot.Candles1H)
	if err != nil {
		return Context{}, fmt.Errorf("计算1小时指标失败: %w", err)
	}
	res4h, err := b.indicators.Compute(market.Timeframe4h, snapshot.Candles4H)
	if err != nil {
		return Context{}, fmt.Errorf("计算4小时指标失败: %w", err)
	}

	out := Context{
		Symbol:               snapshot.Symbol,
		GeneratedAt:          snapshot.RetrievedAt.UTC(),
		CurrentPrice:         clean(res1h.Close),
		Trend:                classifyTrend(res1h.Close, res1h.EMA50, res1h.EMA200),
		HigherTimeframeTrend: classifyTrend(res4h.Close, res4h.EMA50, res4h.EMA200),
		Indicators: IndicatorSummary{
			VWAP:   clean(res1h.VWAP),
			EMA21:  clean(res1h.EMA21),
			EMA50:  clean(res1h.EMA50),
			EMA200: clean(res1h.EMA200),
			RSI:    clean(res1h.RSI),
			ATR:    clean(res1h.ATR.Absolute),
		},
		SessionLevels:     summarizeLevels(analysis.Levels),
		ActiveOrderBlocks: summarizeBlocks(analysis.ActiveBlocks, analysis.AsOf),
		LatestBreak:       summarizeBreak(analysis.LatestBreak(), analysis.AsOf),
		RecentGrabs:       summarizeGrabs(analysis.Grabs, analysis.AsOf),
		PendingSetup:      summarizeSetup(pending),
	}
	out.SetupQuality = setupQuality(out, analysis)

	b.logger.Debug("市场上下文构建完成",
		zap.String("symbol", out.Symbol),
		zap.String("trend", out.Trend),
		zap.Int("setup_quality", out.SetupQuality),
	)

	return out, nil
}

// classifyTrend 按 价格/EMA50/EMA200 的排列关系判断趋势。
func classifyTrend(price, ema50, ema200 float64) string {
	price = clean(price)
	ema50 = clean(ema50)
	ema200 = clean(ema200)

	switch {
	case price > ema50 && ema50 > ema200:
		return TrendBullish
	case price < ema50 && ema50 < ema200:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

// setupQuality 以5分为基准累加各要素得分，限制在 [1,10]。
func setupQuality(c Context, analysis smc.Analysis) int {
	score := 5

	if c.Trend == TrendBullish || c.Trend == TrendBearish {
		score += 2
	}
	if len(c.ActiveOrderBlocks) > 0 {
		score++
	}
	if c.LatestBreak != nil {
		score += 2
	}
	if len(analysis.Grabs) > 0 {
		score++
	}

	rsi := c.Indicators.RSI
	if rsi >= 30 && rsi <= 70 {
		score++
	} else if rsi < 20 || rsi > 80 {
		score--
	}

	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

func summarizeLevels(levels []smc.SessionLevel) []SessionLevelSummary {
	out := make([]SessionLevelSummary, 0, len(levels))
	for _, l := range levels {
		out = append(out, SessionLevelSummary{
			Session:     string(l.Session),
			High:        l.High,
			Low:         l.Low,
			Provisional: l.Provisional,
		})
	}
	return out
}

func summarizeBlocks(blocks []smc.OrderBlock, asOf time.Time) []OrderBlockSummary {
	out := make([]OrderBlockSummary, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, OrderBlockSummary{
			Direction: string(b.Direction),
			Top:       b.Top,
			Bottom:    b.Bottom,
			Strength:  b.Strength,
			Status:    b.Status.String(),
			AgeHours:  ageHours(b.OriginTime, asOf),
		})
	}
	return out
}

func summarizeBreak(brk *smc.StructureBreak, asOf time.Time) *StructureBreakSummary {
	if brk == nil {
		return nil
	}
	return &StructureBreakSummary{
		Direction:         string(brk.Direction),
		BreakPrice:        brk.BreakPrice,
		Strength:          brk.Strength,
		ChangeOfCharacter: brk.ChangeOfCharacter,
		AgeHours:          ageHours(brk.BreakTime, asOf),
	}
}

func summarizeGrabs(grabs []smc.LiquidityGrabEvent, asOf time.Time) []GrabSummary {
	out := make([]GrabSummary, 0, len(grabs))
	for _, g := range grabs {
		if !g.RejectionConfirmed {
			continue
		}
		out = append(out, GrabSummary{
			Session:     string(g.Session),
			Side:        string(g.Side),
			LevelPrice:  g.LevelPrice,
			BreachPrice: g.BreachPrice,
			AgeHours:    ageHours(g.BreachTime, asOf),
		})
	}
	return out
}

func summarizeSetup(setup *smc.TradeSetup) *PendingSetupSummary {
	if setup == nil {
		return nil
	}
	return &PendingSetupSummary{
		Direction:  string(setup.Direction),
		Entry:      setup.Entry,
		StopLoss:   setup.StopLoss,
		TakeProfit: setup.TakeProfit,
		RiskReward: setup.RiskReward,
	}
}

func ageHours(from, to time.Time) float64 {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	return to.Sub(from).Hours()
}

func clean(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}
