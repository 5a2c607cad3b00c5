package smc

import (
	"reflect"
	"testing"
	"time"

	"gold-digger/internal/market"
)

// displacementSeries 构造一段窄幅震荡后出现多头位移的序列：
// 第8根为反向阴线（订单块来源），第9-10根为强势位移段。
func displacementSeries() []market.Candle {
	candles := make([]market.Candle, 0, 12)
	for i := 0; i < 8; i++ {
		candles = append(candles, hourlyCandle(monday.Add(time.Duration(i)*time.Hour), 2000, 2001, 1999, 2000.2))
	}
	candles = append(candles,
		hourlyCandle(monday.Add(8*time.Hour), 2000, 2000.5, 1997.5, 1998),
		hourlyCandle(monday.Add(9*time.Hour), 1998, 2006.5, 1997.8, 2006),
		hourlyCandle(monday.Add(10*time.Hour), 2006, 2010.5, 2005.5, 2010),
	)
	return candles
}

func TestDetect_BullishBlockFromDisplacement(t *testing.T) {
	detector := NewOrderBlockDetector(1.5, 14, "1h", nil)
	blocks := detector.Detect(displacementSeries())

	if len(blocks) != 1 {
		t.Fatalf("expected 1 order block, got %d", len(blocks))
	}

	block := blocks[0]
	if block.Direction != DirectionBullish {
		t.Errorf("direction = %s, want bullish", block.Direction)
	}
	if block.Top != 2000 || block.Bottom != 1998 {
		t.Errorf("block zone = [%f, %f], want [1998, 2000]", block.Bottom, block.Top)
	}
	if !block.OriginTime.Equal(monday.Add(8 * time.Hour)) {
		t.Errorf("origin time = %v, want 08:00", block.OriginTime)
	}
	if block.Timeframe != "1h" {
		t.Errorf("timeframe = %s, want 1h", block.Timeframe)
	}
	if block.Status != StatusFresh {
		t.Errorf("status = %s, want fresh", block.Status)
	}
	if block.Strength < 1 || block.Strength > 10 {
		t.Errorf("strength %d outside [1,10]", block.Strength)
	}
}

func TestDetect_StatusAdvancesToTested(t *testing.T) {
	candles := append(displacementSeries(),
		// 小实体回踩K线，触及区域顶部但未收破底部。
		hourlyCandle(monday.Add(11*time.Hour), 2001, 2001.5, 1999.8, 2000.5),
	)

	detector := NewOrderBlockDetector(1.5, 14, "1h", nil)
	blocks := detector.Detect(candles)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 order block, got %d", len(blocks))
	}
	if blocks[0].Status != StatusTested {
		t.Errorf("status = %s, want tested", blocks[0].Status)
	}
}

func TestDetect_MitigatedBlockExcludedFromActive(t *testing.T) {
	candles := make([]market.Candle, 0, 12)
	for i := 0; i < 8; i++ {
		candles = append(candles, hourlyCandle(monday.Add(time.Duration(i)*time.Hour), 2000, 2001, 1999, 2000.2))
	}
	candles = append(candles,
		hourlyCandle(monday.Add(8*time.Hour), 2000, 2000.5, 1994.5, 1995),
		hourlyCandle(monday.Add(9*time.Hour), 1995, 2004.5, 1994.8, 2004),
		hourlyCandle(monday.Add(10*time.Hour), 2004, 2009.5, 2003.5, 2009),
		// 收盘 1993 跌破区域底部 1995：订单块失效。
		hourlyCandle(monday.Add(11*time.Hour), 2002, 2002.5, 1992.5, 1993),
	)

	detector := NewOrderBlockDetector(1.5, 14, "1h", nil)
	blocks := detector.Detect(candles)

	var target *OrderBlock
	for i := range blocks {
		if blocks[i].Direction == DirectionBullish && blocks[i].Top == 2000 && blocks[i].Bottom == 1995 {
			target = &blocks[i]
			break
		}
	}
	if target == nil {
		t.Fatalf("missing bullish block [1995, 2000] in %v", blocks)
	}
	if target.Status != StatusMitigated {
		t.Errorf("status = %s, want mitigated", target.Status)
	}

	active := ActiveBlocks(blocks, monday.Add(12*time.Hour), DefaultMaxBlockAge)
	for _, b := range active {
		if b.Top == 2000 && b.Bottom == 1995 && b.Direction == DirectionBullish {
			t.Errorf("mitigated block must not appear in active set")
		}
	}
}

func TestDetect_StatusMonotonic(t *testing.T) {
	full := append(displacementSeries(),
		hourlyCandle(monday.Add(11*time.Hour), 2001, 2001.5, 1999.8, 2000.5),
	)

	detector := NewOrderBlockDetector(1.5, 14, "1h", nil)

	before := detector.Detect(full[:11])
	after := detector.Detect(full)

	if len(before) != 1 || len(after) != 1 {
		t.Fatalf("expected 1 block in both windows, got %d and %d", len(before), len(after))
	}
	if after[0].Status < before[0].Status {
		t.Errorf("status moved backwards: %s -> %s", before[0].Status, after[0].Status)
	}
}

func TestActiveBlocks_AgeFilter(t *testing.T) {
	blocks := []OrderBlock{
		{Direction: DirectionBullish, Top: 2000, Bottom: 1998, OriginTime: monday, Status: StatusFresh},
	}

	active := ActiveBlocks(blocks, monday.Add(80*time.Hour), 72*time.Hour)
	if len(active) != 0 {
		t.Errorf("block older than max age must be excluded, got %d", len(active))
	}

	active = ActiveBlocks(blocks, monday.Add(10*time.Hour), 72*time.Hour)
	if len(active) != 1 {
		t.Errorf("recent block must stay active, got %d", len(active))
	}
}

func TestDetect_InsufficientCandles(t *testing.T) {
	candles := displacementSeries()[:9]

	detector := NewOrderBlockDetector(1.5, 14, "1h", nil)
	if blocks := detector.Detect(candles); blocks != nil {
		t.Fatalf("expected nil for short series, got %v", blocks)
	}
}

func TestDetect_Deterministic(t *testing.T) {
	candles := displacementSeries()
	detector := NewOrderBlockDetector(1.5, 14, "1h", nil)

	if !reflect.DeepEqual(detector.Detect(candles), detector.Detect(candles)) {
		t.Errorf("same window must produce identical blocks")
	}
}
