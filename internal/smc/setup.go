package smc

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMinRiskReward 为最低风险回报比。
	DefaultMinRiskReward = 2.0
	// DefaultStopBuffer 为止损缓冲（价格单位），允许范围 [3,7]。
	DefaultStopBuffer = 5.0

	minStopBuffer = 3.0
	maxStopBuffer = 7.0
)

// SetupConfig 控制交易机会的验证参数。
type SetupConfig struct {
	MinRiskReward float64
	StopBuffer    float64
}

func (c SetupConfig) normalize() SetupConfig {
	if c.MinRiskReward <= 0 {
		c.MinRiskReward = DefaultMinRiskReward
	}
	if c.StopBuffer <= 0 {
		c.StopBuffer = DefaultStopBuffer
	}
	if c.StopBuffer < minStopBuffer {
		c.StopBuffer = minStopBuffer
	}
	if c.StopBuffer > maxStopBuffer {
		c.StopBuffer = maxStopBuffer
	}
	return c
}

// ValidateInput 汇总一次验证所需的全部上游信号。验证器只读不改。
type ValidateInput struct {
	Instrument  string
	Timeframe   string
	Grabs       []LiquidityGrabEvent
	Blocks      []OrderBlock
	Breaks      []StructureBreak
	Levels      []SessionLevel
	VWAP        float64
	RetestPrice float64
	Now         time.Time
}

// Validator 按策略步骤1-4组合上游信号，并持有单槽位的活跃交易机会。
// 同一 instrument/timeframe 任意时刻至多存在一个活跃机会，提交由单写者串行化。
type Validator struct {
	cfg    SetupConfig
	logger *zap.Logger

	mu     sync.Mutex
	active map[string]*TradeSetup
}

// NewValidator 创建验证器。
func NewValidator(cfg SetupConfig, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		cfg:    cfg.normalize(),
		logger: logger,
		active: make(map[string]*TradeSetup),
	}
}

// Validate 返回至多一个合格的交易机会，无合格组合时返回 nil（不是错误）。
// 当该 instrument/timeframe 已存在活跃机会时不再产生新机会。
// 返回值是槽位内容的副本，槽位本身只由验证器改写。
func (v *Validator) Validate(input ValidateInput) *TradeSetup {
	key := slotKey(input.Instrument, input.Timeframe)

	v.mu.Lock()
	defer v.mu.Unlock()

	if existing := v.active[key]; existing != nil {
		v.logger.Debug("已存在活跃交易机会，跳过验证",
			zap.String("instrument", input.Instrument),
			zap.String("timeframe", input.Timeframe),
		)
		return nil
	}

	best := v.selectBest(input)
	if best == nil {
		return nil
	}

	v.active[key] = best
	v.logger.Info("交易机会验证通过",
		zap.String("instrument", input.Instrument),
		zap.String("direction", string(best.Direction)),
		zap.Float64("entry", best.Entry),
		zap.Float64("stop_loss", best.StopLoss),
		zap.Float64("take_profit", best.TakeProfit),
		zap.Float64("risk_reward", best.RiskReward),
		zap.Int("combined_score", best.CombinedScore),
	)

	out := *best
	return &out
}

// Active 返回当前活跃交易机会的副本，不存在时为 nil。
func (v *Validator) Active(instrument, timeframe string) *TradeSetup {
	v.mu.Lock()
	defer v.mu.Unlock()

	stored := v.active[slotKey(instrument, timeframe)]
	if stored == nil {
		return nil
	}
	out := *stored
	return &out
}

// Clear 释放槽位（交易完成或机会作废后由调用方触发）。
func (v *Validator) Clear(instrument, timeframe string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.active, slotKey(instrument, timeframe))
}

func (v *Validator) selectBest(input ValidateInput) *TradeSetup {
	var best *TradeSetup

	for _, brk := range input.Breaks {
		if !brk.BreakTime.Before(input.Now) {
			continue
		}

		grab, ok := matchGrab(input.Grabs, brk)
		if !ok {
			continue
		}

		block, ok := nearestBlock(input.Blocks, brk.Direction, input.RetestPrice)
		if !ok || !block.Contains(input.RetestPrice) {
			continue
		}

		setup := v.buildSetup(input, grab, block, brk)
		if setup == nil {
			continue
		}

		if best == nil ||
			setup.CombinedScore > best.CombinedScore ||
			(setup.CombinedScore == best.CombinedScore && setup.Break.BreakTime.After(best.Break.BreakTime)) {
			best = setup
		}
	}

	return best
}

func (v *Validator) buildSetup(input ValidateInput, grab LiquidityGrabEvent, block OrderBlock, brk StructureBreak) *TradeSetup {
	entry := input.RetestPrice

	var stop float64
	if brk.Direction == DirectionBullish {
		stop = block.Bottom - v.cfg.StopBuffer
	} else {
		stop = block.Top + v.cfg.StopBuffer
	}

	risk := abs(entry - stop)
	if risk <= 0 {
		return nil
	}

	target := v.resolveTarget(input, brk.Direction, entry, risk)
	reward := abs(target - entry)

	rr := reward / risk
	if rr < v.cfg.MinRiskReward {
		return nil
	}

	return &TradeSetup{
		Instrument:     input.Instrument,
		Timeframe:      input.Timeframe,
		Direction:      brk.Direction,
		Grab:           grab,
		Block:          block,
		Break:          brk,
		Entry:          entry,
		StopLoss:       stop,
		TakeProfit:     target,
		RiskReward:     rr,
		Zone:           EntryZone{Top: block.Top, Bottom: block.Bottom},
		CombinedScore:  block.Strength + brk.Strength,
		IdentifiedTime: input.Now,
	}
}

// resolveTarget 以 1:2 为基准目标，若顺方向最近的时段级别或VWAP更远则顺延至该参考价。
func (v *Validator) resolveTarget(input ValidateInput, dir Direction, entry, risk float64) float64 {
	baseline := entry + 2*risk
	if dir == DirectionBearish {
		baseline = entry - 2*risk
	}

	refs := make([]float64, 0, len(input.Levels)*2+1)
	for _, level := range input.Levels {
		refs = append(refs, level.High, level.Low)
	}
	if input.VWAP > 0 {
		refs = append(refs, input.VWAP)
	}

	nearest := 0.0
	found := false
	for _, ref := range refs {
		if dir == DirectionBullish {
			if ref <= entry {
				continue
			}
			if !found || ref < nearest {
				nearest = ref
				found = true
			}
		} else {
			if ref >= entry {
				continue
			}
			if !found || ref > nearest {
				nearest = ref
				found = true
			}
		}
	}

	if found {
		if dir == DirectionBullish && nearest > baseline {
			return nearest
		}
		if dir == DirectionBearish && nearest < baseline {
			return nearest
		}
	}

	return baseline
}

// matchGrab 寻找突破之前最近一次方向一致的已确认抓取。
// 多头结构突破对应下方流动性被抓取，空头对称。
func matchGrab(grabs []LiquidityGrabEvent, brk StructureBreak) (LiquidityGrabEvent, bool) {
	wantSide := SideBelow
	if brk.Direction == DirectionBearish {
		wantSide = SideAbove
	}

	var (
		best  LiquidityGrabEvent
		found bool
	)
	for _, g := range grabs {
		if !g.RejectionConfirmed || g.Side != wantSide {
			continue
		}
		if !g.BreachTime.Before(brk.BreakTime) {
			continue
		}
		if !found || g.BreachTime.After(best.BreachTime) {
			best = g
			found = true
		}
	}
	return best, found
}

// nearestBlock 返回方向一致且未失效、距回踩价最近的订单块。
func nearestBlock(blocks []OrderBlock, dir Direction, price float64) (OrderBlock, bool) {
	var (
		best     OrderBlock
		bestDist float64
		found    bool
	)
	for _, b := range blocks {
		if b.Direction != dir || b.Status == StatusMitigated {
			continue
		}
		dist := blockDistance(b, price)
		if !found || dist < bestDist {
			best = b
			bestDist = dist
			found = true
		}
	}
	return best, found
}

func blockDistance(b OrderBlock, price float64) float64 {
	switch {
	case price > b.Top:
		return price - b.Top
	case price < b.Bottom:
		return b.Bottom - price
	default:
		return 0
	}
}

func slotKey(instrument, timeframe string) string {
	return instrument + "|" + timeframe
}
