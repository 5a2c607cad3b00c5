package indicator

import (
	"fmt"
	"sync"

	talib "github.com/markcheno/go-talib"

	"gold-digger/internal/market"
)

// ATRResult 保存 ATR 指标。
type ATRResult struct {
	Absolute     float64
	Relative     float64
	PrevAbsolute float64
}

// Result 为一次指标计算的汇总。
type Result struct {
	Timeframe     string
	Series        Series
	VWAP          float64
	EMA21         float64
	EMA50         float64
	EMA200        float64
	RSI           float64
	ATR           ATRResult
	Close         float64
	PreviousClose float64
}

type cacheEntry struct {
	key    string
	result Result
}

// Calculator 提供技术指标计算并带有简单缓存。
type Calculator struct {
	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewCalculator 创建 Calculator。
func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[string]cacheEntry),
	}
}

// Compute 依据给定K线计算策略所需的基础指标。
func (c *Calculator) Compute(timeframe string, candles []market.Candle) (Result, error) {
	if len(candles) == 0 {
		return Result{}, fmt.Errorf("计算指标失败: 输入K线为空")
	}

	series := NewSeries(candles)
	cacheKey := fmt.Sprintf("%s:%d:%d", timeframe, series.Len(), series.Timestamps[len(series.Timestamps)-1].Unix())

	c.mu.Lock()
	if entry, ok := c.cache[timeframe]; ok && entry.key == cacheKey {
		c.mu.Unlock()
		return entry.result, nil
	}
	c.mu.Unlock()

	result := c.calculate(timeframe, series)

	c.mu.Lock()
	c.cache[timeframe] = cacheEntry{key: cacheKey, result: result}
	c.mu.Unlock()

	return result, nil
}

func (c *Calculator) calculate(timeframe string, series Series) Result {
	closePrices := series.Close
	highs := series.High
	lows := series.Low

	// EMA 周期不足时直接以收盘价代替，避免 talib 返回全零序列。
	ema21 := emaOrClose(closePrices, 21)
	ema50 := emaOrClose(closePrices, 50)
	ema200 := emaOrClose(closePrices, 200)

	rsi := 50.0
	if len(closePrices) > 14 {
		rsi = Last(talib.Rsi(closePrices, 14))
	}

	var atrAbs, prevAtr float64
	if len(closePrices) > 14 {
		atrSeries := talib.Atr(highs, lows, closePrices, 14)
		atrAbs = Last(atrSeries)
		prevAtr = Prev(atrSeries)
	}

	lastClose := Last(closePrices)

	return Result{
		Timeframe:     timeframe,
		Series:        series,
		VWAP:          computeVWAP(series),
		EMA21:         ema21,
		EMA50:         ema50,
		EMA200:        ema200,
		RSI:           rsi,
		ATR:           ATRResult{Absolute: atrAbs, Relative: SafeDivide(atrAbs, lastClose), PrevAbsolute: prevAtr},
		Close:         lastClose,
		PreviousClose: Prev(closePrices),
	}
}

func emaOrClose(closePrices []float64, period int) float64 {
	if len(closePrices) < period {
		return Last(closePrices)
	}
	return Last(talib.Ema(closePrices, period))
}

// computeVWAP 计算成交量加权均价；成交量缺失时退化为典型价均值。
func computeVWAP(series Series) float64 {
	var cumPV, cumVol float64
	for i := 0; i < series.Len(); i++ {
		typical := (series.High[i] + series.Low[i] + series.Close[i]) / 3
		vol := series.Volume[i]
		if vol <= 0 {
			vol = 1
		}
		cumPV += typical * vol
		cumVol += vol
	}
	return SafeDivide(cumPV, cumVol)
}
