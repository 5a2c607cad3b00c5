package market

import "time"

const (
	// Timeframe15m 为入场确认周期。
	Timeframe15m = "15m"
	// Timeframe1h 为主分析周期。
	Timeframe1h = "1h"
	// Timeframe4h 为趋势过滤周期。
	Timeframe4h = "4h"
	// Timeframe1d 为日级别参考周期。
	Timeframe1d = "1d"
)

// Candle 代表单根K线，入库后不可变。
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Body 返回实体区间 [min(open,close), max(open,close)]。
func (c Candle) Body() (bottom, top float64) {
	if c.Open <= c.Close {
		return c.Open, c.Close
	}
	return c.Close, c.Open
}

// Bullish 判断是否为阳线。
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Bearish 判断是否为阴线。
func (c Candle) Bearish() bool {
	return c.Close < c.Open
}

// Range 返回K线的完整波动区间。
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Snapshot 聚合多个时间框架的K线数据。
type Snapshot struct {
	Symbol      string
	Candles15M  []Candle
	Candles1H   []Candle
	Candles4H   []Candle
	Candles1D   []Candle
	RetrievedAt time.Time
}

// SnapshotRequest 控制一次快照采集的参数。
type SnapshotRequest struct {
	Limit15M int
	Limit1H  int
	Limit4H  int
	Limit1D  int
}

// DefaultSnapshotRequest 返回默认快照参数。
func DefaultSnapshotRequest() SnapshotRequest {
	return SnapshotRequest{
		Limit15M: 200,
		Limit1H:  200,
		Limit4H:  120,
		Limit1D:  30,
	}
}

// LatestClose 返回最细周期的最新收盘价，无数据时返回0。
func (s Snapshot) LatestClose() float64 {
	if n := len(s.Candles15M); n > 0 {
		return s.Candles15M[n-1].Close
	}
	if n := len(s.Candles1H); n > 0 {
		return s.Candles1H[n-1].Close
	}
	if n := len(s.Candles4H); n > 0 {
		return s.Candles4H[n-1].Close
	}
	return 0
}
