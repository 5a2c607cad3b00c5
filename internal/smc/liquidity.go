package smc

import (
	"sort"

	"go.uber.org/zap"

	"gold-digger/internal/market"
)

// DefaultLookaheadWindow 为默认的回收确认窗口（K线数量）。
const DefaultLookaheadWindow = 5

// LiquidityDetector 识别流动性抓取事件（假突破后的快速回收）。
type LiquidityDetector struct {
	lookahead int
	logger    *zap.Logger
}

// NewLiquidityDetector 创建检测器。
func NewLiquidityDetector(lookahead int, logger *zap.Logger) *LiquidityDetector {
	if lookahead <= 0 {
		lookahead = DefaultLookaheadWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiquidityDetector{
		lookahead: lookahead,
		logger:    logger,
	}
}

// Detect 对每个已收盘级别扫描首次击穿，并在回收窗口内确认抓取。
// 窗口内未回收视为真实突破，丢弃；序列截断导致窗口不完整时不做判定，
// 等待下次携带新K线的调用重新评估。同一根K线击穿多个级别时，
// 按显著性降序评估并为每个确认的抓取独立产生事件。
func (d *LiquidityDetector) Detect(candles []market.Candle, levels []SessionLevel) []LiquidityGrabEvent {
	if len(candles) == 0 || len(levels) == 0 {
		return nil
	}

	ordered := make([]SessionLevel, len(levels))
	copy(ordered, levels)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Session.Significance() > ordered[j].Session.Significance()
	})

	events := make([]LiquidityGrabEvent, 0, 4)
	for _, level := range ordered {
		// 仍在形成中的级别被突破只是区间扩张，不构成抓取。
		if level.Provisional {
			continue
		}
		if ev, ok := d.scanLevel(candles, level, SideAbove); ok {
			events = append(events, ev)
		}
		if ev, ok := d.scanLevel(candles, level, SideBelow); ok {
			events = append(events, ev)
		}
	}

	if len(events) > 0 {
		d.logger.Debug("流动性抓取确认", zap.Int("event_count", len(events)))
	}

	return events
}

func (d *LiquidityDetector) scanLevel(candles []market.Candle, level SessionLevel, side LevelSide) (LiquidityGrabEvent, bool) {
	levelPrice := level.High
	if side == SideBelow {
		levelPrice = level.Low
	}

	breachIdx := -1
	for i, c := range candles {
		if c.OpenTime.Before(level.EndTime) {
			continue
		}
		breached := c.High > levelPrice
		if side == SideBelow {
			breached = c.Low < levelPrice
		}
		if breached {
			breachIdx = i
			break
		}
	}
	if breachIdx == -1 {
		return LiquidityGrabEvent{}, false
	}

	breach := candles[breachIdx]
	event := LiquidityGrabEvent{
		Session:     level.Session,
		Side:        side,
		LevelPrice:  levelPrice,
		BreachPrice: breach.High,
		BreachTime:  breach.OpenTime,
	}
	if side == SideBelow {
		event.BreachPrice = breach.Low
	}

	windowEnd := breachIdx + d.lookahead
	last := windowEnd
	if last > len(candles)-1 {
		last = len(candles) - 1
	}

	for j := breachIdx; j <= last; j++ {
		rejected := candles[j].Close < levelPrice
		if side == SideBelow {
			rejected = candles[j].Close > levelPrice
		}
		if rejected {
			event.RejectionConfirmed = true
			event.RejectionTime = candles[j].OpenTime
			return event, true
		}
	}

	// 完整窗口内未回收：真实突破，丢弃；窗口被序列末尾截断：悬而未决。
	return LiquidityGrabEvent{}, false
}
