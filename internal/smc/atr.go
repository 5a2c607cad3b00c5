package smc

import "gold-digger/internal/market"

const defaultATRPeriod = 14

// trueRange 计算单根K线的真实波幅。
func trueRange(curr, prev market.Candle) float64 {
	tr := curr.High - curr.Low
	if hc := abs(curr.High - prev.Close); hc > tr {
		tr = hc
	}
	if lc := abs(curr.Low - prev.Close); lc > tr {
		tr = lc
	}
	return tr
}

// rollingATR 返回滚动平均真实波幅序列，长度与输入一致。
// 前 period 根K线使用已有波幅的均值，避免出现零值阈值。
func rollingATR(candles []market.Candle, period int) []float64 {
	if period <= 0 {
		period = defaultATRPeriod
	}

	n := len(candles)
	atr := make([]float64, n)
	if n == 0 {
		return atr
	}

	trs := make([]float64, n)
	trs[0] = candles[0].Range()
	for i := 1; i < n; i++ {
		trs[i] = trueRange(candles[i], candles[i-1])
	}

	var windowSum float64
	for i := 0; i < n; i++ {
		windowSum += trs[i]
		windowLen := i + 1
		if windowLen > period {
			windowSum -= trs[i-period]
			windowLen = period
		}
		atr[i] = windowSum / float64(windowLen)
	}

	return atr
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
