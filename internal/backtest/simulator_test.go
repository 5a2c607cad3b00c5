package backtest

import (
	"testing"
	"time"

	"gold-digger/internal/market"
	"gold-digger/internal/smc"
)

var testStart = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func bullishSetup() smc.TradeSetup {
	return smc.TradeSetup{
		Instrument: "XAU/USD",
		Timeframe:  "1h",
		Direction:  smc.DirectionBullish,
		Entry:      1984,
		StopLoss:   1975,
		TakeProfit: 2002,
		RiskReward: 2,
	}
}

func TestSimulator_StopLossClosesWithLoss(t *testing.T) {
	sim := NewSimulator(10000)
	if !sim.Open(bullishSetup(), 100, testStart) {
		t.Fatalf("expected open to succeed")
	}

	closed := sim.Advance(market.Candle{
		OpenTime: testStart.Add(time.Hour),
		Open:     1983, High: 1986, Low: 1974, Close: 1976,
	})
	if !closed {
		t.Fatalf("stop loss must close the trade")
	}
	if sim.Equity() != 9900 {
		t.Errorf("equity = %f, want 9900", sim.Equity())
	}
	if sim.Wins() != 0 || sim.TradeCount() != 1 {
		t.Errorf("expected 1 losing trade, wins=%d trades=%d", sim.Wins(), sim.TradeCount())
	}
}

func TestSimulator_TargetClosesWithReward(t *testing.T) {
	sim := NewSimulator(10000)
	sim.Open(bullishSetup(), 100, testStart)

	closed := sim.Advance(market.Candle{
		OpenTime: testStart.Add(time.Hour),
		Open:     1990, High: 2003, Low: 1985, Close: 2001,
	})
	if !closed {
		t.Fatalf("target must close the trade")
	}
	// 盈利 = 风险金额 × 风险回报比。
	if sim.Equity() != 10200 {
		t.Errorf("equity = %f, want 10200", sim.Equity())
	}
	if sim.Wins() != 1 {
		t.Errorf("wins = %d, want 1", sim.Wins())
	}
}

func TestSimulator_StopFirstWhenBothHit(t *testing.T) {
	sim := NewSimulator(10000)
	sim.Open(bullishSetup(), 100, testStart)

	sim.Advance(market.Candle{
		OpenTime: testStart.Add(time.Hour),
		Open:     1984, High: 2003, Low: 1974, Close: 1990,
	})
	if sim.Equity() != 9900 {
		t.Errorf("both-hit candle must resolve as stop, equity = %f", sim.Equity())
	}
}

func TestSimulator_SingleOpenTrade(t *testing.T) {
	sim := NewSimulator(10000)
	if !sim.Open(bullishSetup(), 100, testStart) {
		t.Fatalf("first open must succeed")
	}
	if sim.Open(bullishSetup(), 100, testStart) {
		t.Fatalf("second open with trade in flight must fail")
	}
	if !sim.HasOpen() {
		t.Errorf("trade must remain open")
	}
}

func TestSimulator_BearishTrade(t *testing.T) {
	setup := smc.TradeSetup{
		Direction:  smc.DirectionBearish,
		Entry:      2016,
		StopLoss:   2024,
		TakeProfit: 2000,
		RiskReward: 2,
	}

	sim := NewSimulator(10000)
	sim.Open(setup, 50, testStart)

	closed := sim.Advance(market.Candle{
		OpenTime: testStart.Add(time.Hour),
		Open:     2010, High: 2012, Low: 1999, Close: 2001,
	})
	if !closed {
		t.Fatalf("bearish target must close the trade")
	}
	if sim.Equity() != 10100 {
		t.Errorf("equity = %f, want 10100", sim.Equity())
	}
}

func TestAggregate4H(t *testing.T) {
	candles := make([]market.Candle, 0, 9)
	for i := 0; i < 9; i++ {
		candles = append(candles, market.Candle{
			OpenTime: testStart.Add(time.Duration(i) * time.Hour),
			Open:     2000 + float64(i),
			High:     2002 + float64(i),
			Low:      1998 + float64(i),
			Close:    2001 + float64(i),
			Volume:   10,
		})
	}

	agg := aggregate4H(candles)
	if len(agg) != 2 {
		t.Fatalf("expected 2 aggregated candles, got %d", len(agg))
	}

	first := agg[0]
	if !first.OpenTime.Equal(testStart) {
		t.Errorf("open time = %v, want series start", first.OpenTime)
	}
	if first.Open != 2000 || first.Close != 2004 {
		t.Errorf("open/close = %f/%f, want 2000/2004", first.Open, first.Close)
	}
	if first.High != 2005 || first.Low != 1998 {
		t.Errorf("high/low = %f/%f, want 2005/1998", first.High, first.Low)
	}
	if first.Volume != 40 {
		t.Errorf("volume = %f, want 40", first.Volume)
	}
}
