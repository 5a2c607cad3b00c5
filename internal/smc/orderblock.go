package smc

import (
	"math"
	"time"

	"go.uber.org/zap"

	"gold-digger/internal/market"
)

const (
	// DefaultMinDisplacement 为默认的位移阈值（相对ATR的倍数）。
	DefaultMinDisplacement = 1.5
	// DefaultMaxBlockAge 为订单块进入活跃集合的最大年龄。
	DefaultMaxBlockAge = 72 * time.Hour

	minOrderBlockCandles = 10
)

// OrderBlockDetector 识别机构订单区域。每个时间框架使用独立实例，互不合并。
type OrderBlockDetector struct {
	minDisplacement float64
	atrPeriod       int
	timeframe       string
	logger          *zap.Logger
}

// NewOrderBlockDetector 创建检测器。
func NewOrderBlockDetector(minDisplacement float64, atrPeriod int, timeframe string, logger *zap.Logger) *OrderBlockDetector {
	if minDisplacement <= 0 {
		minDisplacement = DefaultMinDisplacement
	}
	if atrPeriod <= 0 {
		atrPeriod = defaultATRPeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderBlockDetector{
		minDisplacement: minDisplacement,
		atrPeriod:       atrPeriod,
		timeframe:       timeframe,
		logger:          logger,
	}
}

// Detect 在给定K线窗口内识别订单块。相同输入必然产出相同结果，
// 状态随窗口增长只会单向推进（Fresh→Tested→Mitigated）。
// 已失效的订单块仍保留在返回集合中供回测审计，活跃集合通过 ActiveBlocks 过滤。
func (d *OrderBlockDetector) Detect(candles []market.Candle) []OrderBlock {
	if len(candles) < minOrderBlockCandles {
		return nil
	}

	atr := rollingATR(candles, d.atrPeriod)
	blocks := make([]OrderBlock, 0, 8)

	i := 1
	for i < len(candles) {
		runEnd, cumMove, dir, ok := displacementRun(candles, i)
		if !ok {
			i++
			continue
		}
		if cumMove <= d.minDisplacement*atr[i] {
			i = runEnd + 1
			continue
		}

		originIdx := lastOpposingIndex(candles, i, dir)
		if originIdx == -1 {
			i = runEnd + 1
			continue
		}

		origin := candles[originIdx]
		bottom, top := origin.Body()
		if top <= bottom {
			i = runEnd + 1
			continue
		}

		block := OrderBlock{
			Direction:  dir,
			Top:        top,
			Bottom:     bottom,
			OriginTime: origin.OpenTime,
			Timeframe:  d.timeframe,
			Strength:   blockStrength(cumMove/atr[i], (top-bottom)/atr[originIdx], d.minDisplacement),
			Status:     StatusFresh,
		}
		block.Status = trackStatus(block, candles, runEnd+1)

		blocks = append(blocks, block)
		i = runEnd + 1
	}

	d.logger.Debug("订单块检测完成",
		zap.String("timeframe", d.timeframe),
		zap.Int("block_count", len(blocks)),
	)

	return blocks
}

// ActiveBlocks 过滤出仍然有效的订单块：未失效且未超过年龄阈值。
func ActiveBlocks(blocks []OrderBlock, asOf time.Time, maxAge time.Duration) []OrderBlock {
	if maxAge <= 0 {
		maxAge = DefaultMaxBlockAge
	}

	active := make([]OrderBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Status == StatusMitigated {
			continue
		}
		if asOf.Sub(b.OriginTime) > maxAge {
			continue
		}
		active = append(active, b)
	}
	return active
}

// displacementRun 从 start 开始识别同向K线连续段，返回段尾下标与累计实体位移。
func displacementRun(candles []market.Candle, start int) (end int, cumMove float64, dir Direction, ok bool) {
	first := candles[start]
	switch {
	case first.Bullish():
		dir = DirectionBullish
	case first.Bearish():
		dir = DirectionBearish
	default:
		return 0, 0, "", false
	}

	end = start
	for j := start; j < len(candles); j++ {
		c := candles[j]
		sameDir := (dir == DirectionBullish && c.Bullish()) || (dir == DirectionBearish && c.Bearish())
		if !sameDir {
			break
		}
		cumMove += abs(c.Close - c.Open)
		end = j
	}

	return end, cumMove, dir, true
}

// lastOpposingIndex 返回位移段之前最近一根反向K线的下标。
func lastOpposingIndex(candles []market.Candle, runStart int, dir Direction) int {
	for j := runStart - 1; j >= 0; j-- {
		c := candles[j]
		if dir == DirectionBullish && c.Bearish() {
			return j
		}
		if dir == DirectionBearish && c.Bullish() {
			return j
		}
	}
	return -1
}

// blockStrength 将位移强度与区域大小映射到 [1,10]，对两个输入均严格单调递增。
func blockStrength(displacementRatio, sizeRatio, minDisplacement float64) int {
	raw := 1 + 2.5*(displacementRatio-minDisplacement) + 3*sizeRatio
	score := int(math.Round(raw))
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

// trackStatus 自位移段结束后按时间顺序推进状态。
// 回踩区域（区间重叠）记为 Tested；收盘穿越对侧边界记为 Mitigated，且不可逆。
func trackStatus(block OrderBlock, candles []market.Candle, from int) BlockStatus {
	status := StatusFresh
	for j := from; j < len(candles); j++ {
		c := candles[j]

		mitigated := (block.Direction == DirectionBullish && c.Close < block.Bottom) ||
			(block.Direction == DirectionBearish && c.Close > block.Top)
		if mitigated {
			return StatusMitigated
		}

		if status == StatusFresh && c.Low <= block.Top && c.High >= block.Bottom {
			status = StatusTested
		}
	}
	return status
}
