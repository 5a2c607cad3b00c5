package smc

import (
	"math"

	"go.uber.org/zap"

	"gold-digger/internal/market"
)

// DefaultSwingLookback 为默认的摆动点确认窗口（两侧各N根）。
const DefaultSwingLookback = 3

// StructureDetector 基于摆动点序列识别结构突破与性质转变。
type StructureDetector struct {
	swingLookback int
	atrPeriod     int
	logger        *zap.Logger
}

// NewStructureDetector 创建检测器。
func NewStructureDetector(swingLookback, atrPeriod int, logger *zap.Logger) *StructureDetector {
	if swingLookback <= 0 {
		swingLookback = DefaultSwingLookback
	}
	if atrPeriod <= 0 {
		atrPeriod = defaultATRPeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StructureDetector{
		swingLookback: swingLookback,
		atrPeriod:     atrPeriod,
		logger:        logger,
	}
}

// Detect 识别结构突破。K线不足 2*lookback+1 根时返回空结果而非错误。
// 收盘价突破最近已确认摆动高点（此前结构为空头或中性）产生多头突破，
// 空头方向对称。方向与上一个突破相反时标记为性质转变（CHoCH）。
func (d *StructureDetector) Detect(candles []market.Candle) []StructureBreak {
	n := len(candles)
	if n < 2*d.swingLookback+1 {
		return nil
	}

	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}

	swingHighs := swingIndexes(highs, d.swingLookback, true)
	swingLows := swingIndexes(lows, d.swingLookback, false)
	atr := rollingATR(candles, d.atrPeriod)

	var (
		breaks       []StructureBreak
		prevailing   Direction
		hasDirection bool

		refHigh    = -1
		refLow     = -1
		nextHighPt = 0
		nextLowPt  = 0
	)

	for k := 0; k < n; k++ {
		// 摆动点需要右侧 lookback 根K线走完才算确认。
		for nextHighPt < len(swingHighs) && swingHighs[nextHighPt]+d.swingLookback <= k {
			refHigh = swingHighs[nextHighPt]
			nextHighPt++
		}
		for nextLowPt < len(swingLows) && swingLows[nextLowPt]+d.swingLookback <= k {
			refLow = swingLows[nextLowPt]
			nextLowPt++
		}

		c := candles[k]

		if refHigh >= 0 && c.Close > highs[refHigh] && (!hasDirection || prevailing != DirectionBullish) {
			brk := StructureBreak{
				Direction:         DirectionBullish,
				BreakPrice:        c.Close,
				BreakTime:         c.OpenTime,
				Strength:          breakStrength(c.Close-highs[refHigh], atr[k]),
				PriorSwingHigh:    highs[refHigh],
				ChangeOfCharacter: hasDirection && prevailing == DirectionBearish,
			}
			if refLow >= 0 {
				brk.PriorSwingLow = lows[refLow]
			}
			breaks = append(breaks, brk)
			prevailing = DirectionBullish
			hasDirection = true
			refHigh = -1
			continue
		}

		if refLow >= 0 && c.Close < lows[refLow] && (!hasDirection || prevailing != DirectionBearish) {
			brk := StructureBreak{
				Direction:         DirectionBearish,
				BreakPrice:        c.Close,
				BreakTime:         c.OpenTime,
				Strength:          breakStrength(lows[refLow]-c.Close, atr[k]),
				PriorSwingLow:     lows[refLow],
				ChangeOfCharacter: hasDirection && prevailing == DirectionBullish,
			}
			if refHigh >= 0 {
				brk.PriorSwingHigh = highs[refHigh]
			}
			breaks = append(breaks, brk)
			prevailing = DirectionBearish
			hasDirection = true
			refLow = -1
		}
	}

	d.logger.Debug("结构突破检测完成",
		zap.Int("break_count", len(breaks)),
		zap.Int("swing_high_count", len(swingHighs)),
		zap.Int("swing_low_count", len(swingLows)),
	)

	return breaks
}

// swingIndexes 返回所有摆动点下标。高点与低点使用镜像比较逻辑：
// 左侧严格占优，右侧允许打平（平值时较早的K线保留摆动点身份）。
func swingIndexes(values []float64, lookback int, high bool) []int {
	var idxs []int

	for i := lookback; i < len(values)-lookback; i++ {
		ok := true
		for j := i - lookback; j < i && ok; j++ {
			if high {
				ok = values[i] > values[j]
			} else {
				ok = values[i] < values[j]
			}
		}
		for j := i + 1; j <= i+lookback && ok; j++ {
			if high {
				ok = values[i] >= values[j]
			} else {
				ok = values[i] <= values[j]
			}
		}
		if ok {
			idxs = append(idxs, i)
		}
	}

	return idxs
}

// breakStrength 按突破幅度相对ATR归一化映射到 [1,10]。
func breakStrength(overshoot, atr float64) int {
	if atr <= 0 {
		return 1
	}
	ratio := overshoot / (2 * atr)
	if ratio > 1 {
		ratio = 1
	}
	score := int(math.Round(1 + 9*ratio))
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
