package backtest

import (
	"context"
	"time"

	"gold-digger/internal/market"
)

// SliceSnapshotProvider 以固定序列提供快照。
type SliceSnapshotProvider struct {
	snapshots []market.Snapshot
	index     int
}

func NewSliceSnapshotProvider(snaps []market.Snapshot) *SliceSnapshotProvider {
	return &SliceSnapshotProvider{snapshots: snaps}
}

func (p *SliceSnapshotProvider) Next(ctx context.Context) (market.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return market.Snapshot{}, false, err
	}
	if p.index >= len(p.snapshots) {
		return market.Snapshot{}, false, nil
	}
	snap := p.snapshots[p.index]
	p.index++
	return snap, true, nil
}

// CandleWindowProvider 在单条1小时K线序列上逐根推进，
// 每步产出一个截止到当前K线的快照，4小时序列由1小时聚合得到。
type CandleWindowProvider struct {
	symbol    string
	candles   []market.Candle
	minWindow int
	cursor    int
}

// NewCandleWindowProvider 创建滚动窗口数据源。minWindow 为首个快照
// 所需的最少1小时K线数量。
func NewCandleWindowProvider(symbol string, candles []market.Candle, minWindow int) *CandleWindowProvider {
	if minWindow <= 0 {
		minWindow = 120
	}
	return &CandleWindowProvider{
		symbol:    symbol,
		candles:   candles,
		minWindow: minWindow,
		cursor:    minWindow,
	}
}

func (p *CandleWindowProvider) Next(ctx context.Context) (market.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return market.Snapshot{}, false, err
	}
	if p.cursor > len(p.candles) {
		return market.Snapshot{}, false, nil
	}

	window := p.candles[:p.cursor]
	last := window[len(window)-1]
	p.cursor++

	return market.Snapshot{
		Symbol:      p.symbol,
		Candles1H:   window,
		Candles4H:   aggregate4H(window),
		RetrievedAt: last.OpenTime.Add(time.Hour),
	}, true, nil
}

// aggregate4H 将1小时K线按4根一组聚合为4小时K线，不足一组的尾部丢弃。
func aggregate4H(candles []market.Candle) []market.Candle {
	out := make([]market.Candle, 0, len(candles)/4)
	for i := 0; i+4 <= len(candles); i += 4 {
		group := candles[i : i+4]
		agg := market.Candle{
			OpenTime: group[0].OpenTime,
			Open:     group[0].Open,
			High:     group[0].High,
			Low:      group[0].Low,
			Close:    group[3].Close,
		}
		for _, c := range group {
			if c.High > agg.High {
				agg.High = c.High
			}
			if c.Low < agg.Low {
				agg.Low = c.Low
			}
			agg.Volume += c.Volume
		}
		out = append(out, agg)
	}
	return out
}
