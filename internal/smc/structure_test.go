package smc

import (
	"reflect"
	"testing"
	"time"

	"gold-digger/internal/market"
)

// structureSeries 构造先多头突破、后性质转变的序列（lookback=2）：
// 第2根K线同时形成摆动高点(14)与摆动低点(2)，第5根收盘上破摆动高点，
// 第6根收盘下破摆动低点。
func structureSeries() []market.Candle {
	specs := [][4]float64{
		{8, 10, 5, 9},
		{9, 11, 4, 10},
		{7, 14, 2, 8},
		{8, 13, 3, 9},
		{9, 12, 4, 10},
		{10, 15.5, 9, 15},
		{14, 14.5, 1, 1.5},
	}
	candles := make([]market.Candle, 0, len(specs))
	for i, s := range specs {
		candles = append(candles, hourlyCandle(monday.Add(time.Duration(i)*time.Hour), s[0], s[1], s[2], s[3]))
	}
	return candles
}

func TestStructureDetect_BullishBreakThenChoch(t *testing.T) {
	detector := NewStructureDetector(2, 14, nil)
	breaks := detector.Detect(structureSeries())

	if len(breaks) != 2 {
		t.Fatalf("expected 2 structure breaks, got %d", len(breaks))
	}

	bull := breaks[0]
	if bull.Direction != DirectionBullish {
		t.Errorf("first break direction = %s, want bullish", bull.Direction)
	}
	if bull.BreakPrice != 15 {
		t.Errorf("break price = %f, want 15", bull.BreakPrice)
	}
	if !bull.BreakTime.Equal(monday.Add(5 * time.Hour)) {
		t.Errorf("break time = %v, want 05:00", bull.BreakTime)
	}
	if bull.PriorSwingHigh != 14 || bull.PriorSwingLow != 2 {
		t.Errorf("prior swings = (%f, %f), want (14, 2)", bull.PriorSwingHigh, bull.PriorSwingLow)
	}
	if bull.ChangeOfCharacter {
		t.Errorf("first break cannot be a change of character")
	}
	if bull.Strength < 1 || bull.Strength > 10 {
		t.Errorf("strength %d outside [1,10]", bull.Strength)
	}

	choch := breaks[1]
	if choch.Direction != DirectionBearish {
		t.Errorf("second break direction = %s, want bearish", choch.Direction)
	}
	if !choch.ChangeOfCharacter {
		t.Errorf("opposite-direction break must be flagged as change of character")
	}
	if choch.PriorSwingLow != 2 {
		t.Errorf("prior swing low = %f, want 2", choch.PriorSwingLow)
	}
}

func TestStructureDetect_NoRepeatedBreakSameDirection(t *testing.T) {
	candles := structureSeries()[:6]
	extra := [][4]float64{
		{14, 16, 13, 15},
		{14, 15, 12, 14},
		{13, 14, 11, 13},
		{13, 17.5, 12, 17},
	}
	for i, s := range extra {
		candles = append(candles, hourlyCandle(monday.Add(time.Duration(6+i)*time.Hour), s[0], s[1], s[2], s[3]))
	}

	detector := NewStructureDetector(2, 14, nil)
	breaks := detector.Detect(candles)

	if len(breaks) != 1 {
		t.Fatalf("prevailing bullish structure must not re-break bullish, got %d breaks", len(breaks))
	}
	if breaks[0].Direction != DirectionBullish {
		t.Errorf("direction = %s, want bullish", breaks[0].Direction)
	}
}

func TestStructureDetect_InsufficientCandles(t *testing.T) {
	detector := NewStructureDetector(2, 14, nil)
	if breaks := detector.Detect(structureSeries()[:4]); breaks != nil {
		t.Fatalf("expected nil below minimum window, got %v", breaks)
	}
}

func TestSwingIndexes_TieKeepsEarlierCandle(t *testing.T) {
	highs := []float64{10, 11, 14, 13, 14, 13, 12}

	got := swingIndexes(highs, 2, true)
	if !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("swing highs = %v, want [2]; equal value must keep the earlier candle", got)
	}

	// 低点使用镜像逻辑。
	lows := make([]float64, len(highs))
	for i, v := range highs {
		lows[i] = -v
	}
	got = swingIndexes(lows, 2, false)
	if !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("swing lows = %v, want [2]", got)
	}
}
