package smc

import (
	"testing"
	"time"

	"gold-digger/internal/market"
)

func londonLowLevel(low, high float64) SessionLevel {
	return SessionLevel{
		Session:   SessionLondon,
		High:      high,
		Low:       low,
		StartTime: monday.Add(8 * time.Hour),
		EndTime:   monday.Add(16 * time.Hour),
	}
}

func TestDetect_GrabBelowLondonLow(t *testing.T) {
	level := londonLowLevel(1985, 2015)

	candles := []market.Candle{
		// 窗口结束前的K线不参与击穿判定。
		hourlyCandle(monday.Add(15*time.Hour), 1990, 1995, 1988, 1992),
		// 假突破：下破伦敦低点后收回。
		hourlyCandle(monday.Add(16*time.Hour), 1990, 1991, 1983, 1984),
		hourlyCandle(monday.Add(17*time.Hour), 1984, 1989, 1984, 1987),
	}

	detector := NewLiquidityDetector(5, nil)
	events := detector.Detect(candles, []SessionLevel{level})

	if len(events) != 1 {
		t.Fatalf("expected 1 grab event, got %d", len(events))
	}

	ev := events[0]
	if ev.Session != SessionLondon || ev.Side != SideBelow {
		t.Errorf("unexpected event identity: session=%s side=%s", ev.Session, ev.Side)
	}
	if ev.LevelPrice != 1985 {
		t.Errorf("level price = %f, want 1985", ev.LevelPrice)
	}
	if ev.BreachPrice != 1983 {
		t.Errorf("breach price = %f, want 1983", ev.BreachPrice)
	}
	if !ev.BreachTime.Equal(monday.Add(16 * time.Hour)) {
		t.Errorf("breach time = %v, want 16:00", ev.BreachTime)
	}
	if !ev.RejectionConfirmed {
		t.Fatalf("rejection must be confirmed")
	}
	if !ev.RejectionTime.Equal(monday.Add(17 * time.Hour)) {
		t.Errorf("rejection time = %v, want 17:00", ev.RejectionTime)
	}
}

func TestDetect_GenuineBreakoutDiscarded(t *testing.T) {
	level := londonLowLevel(1985, 2015)

	// 击穿后整个回收窗口内收盘都停留在级别之下：真实突破。
	candles := []market.Candle{
		hourlyCandle(monday.Add(16*time.Hour), 1990, 1991, 1983, 1984),
		hourlyCandle(monday.Add(17*time.Hour), 1984, 1984.5, 1980, 1981),
		hourlyCandle(monday.Add(18*time.Hour), 1981, 1982, 1978, 1979),
	}

	detector := NewLiquidityDetector(2, nil)
	events := detector.Detect(candles, []SessionLevel{level})

	if len(events) != 0 {
		t.Fatalf("expected no events for genuine breakout, got %d", len(events))
	}
}

func TestDetect_TruncatedWindowStaysUnresolved(t *testing.T) {
	level := londonLowLevel(1985, 2015)
	detector := NewLiquidityDetector(3, nil)

	breach := hourlyCandle(monday.Add(16*time.Hour), 1990, 1991, 1983, 1984)

	// 窗口被序列末尾截断：不判定。
	events := detector.Detect([]market.Candle{breach}, []SessionLevel{level})
	if len(events) != 0 {
		t.Fatalf("truncated window must stay unresolved, got %d events", len(events))
	}

	// 携带新K线重新评估后确认回收。
	extended := []market.Candle{
		breach,
		hourlyCandle(monday.Add(17*time.Hour), 1984, 1989, 1984, 1987),
	}
	events = detector.Detect(extended, []SessionLevel{level})
	if len(events) != 1 {
		t.Fatalf("expected grab after re-evaluation, got %d events", len(events))
	}
}

func TestDetect_ProvisionalLevelSkipped(t *testing.T) {
	level := londonLowLevel(1985, 2015)
	level.Provisional = true

	candles := []market.Candle{
		hourlyCandle(monday.Add(16*time.Hour), 1990, 1991, 1983, 1984),
		hourlyCandle(monday.Add(17*time.Hour), 1984, 1989, 1984, 1987),
	}

	detector := NewLiquidityDetector(5, nil)
	if events := detector.Detect(candles, []SessionLevel{level}); len(events) != 0 {
		t.Fatalf("provisional level must not produce grabs, got %d events", len(events))
	}
}

func TestDetect_PriorWeekLowGrabFromTrackerLevels(t *testing.T) {
	prevMonday := monday.AddDate(0, 0, -7)
	candles := []market.Candle{
		hourlyCandle(prevMonday.Add(10*time.Hour), 1990, 1996, 1970, 1992),
		hourlyCandle(prevMonday.AddDate(0, 0, 4).Add(12*time.Hour), 1992, 2005, 1985, 2000),
		// 周一下破上周低点1970后当根K线内收回。
		hourlyCandle(monday, 1980, 1982, 1968, 1978),
		hourlyCandle(monday.Add(time.Hour), 1978, 1984, 1976, 1982),
	}

	tracker := NewSessionTracker(nil, nil)
	levels, err := tracker.ComputeLevels(candles, monday.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ComputeLevels returned error: %v", err)
	}

	detector := NewLiquidityDetector(5, nil)
	events := detector.Detect(candles, levels)

	var weekEvent *LiquidityGrabEvent
	for i := range events {
		if events[i].Session == SessionWeek {
			weekEvent = &events[i]
		}
	}
	if weekEvent == nil {
		t.Fatalf("expected a week-level grab from tracker output, got %d events", len(events))
	}
	if weekEvent.Side != SideBelow {
		t.Errorf("side = %s, want below", weekEvent.Side)
	}
	if weekEvent.LevelPrice != 1970 {
		t.Errorf("level price = %f, want 1970", weekEvent.LevelPrice)
	}
	if weekEvent.BreachPrice != 1968 {
		t.Errorf("breach price = %f, want 1968", weekEvent.BreachPrice)
	}
	if !weekEvent.RejectionConfirmed {
		t.Fatalf("rejection back above the prior-week low must be confirmed")
	}
}

func TestDetect_MultiLevelBreachOrderedBySignificance(t *testing.T) {
	week := SessionLevel{
		Session:   SessionWeek,
		High:      2020,
		Low:       1986,
		StartTime: monday.AddDate(0, 0, -7),
		EndTime:   monday,
	}
	asian := SessionLevel{
		Session:   SessionAsian,
		High:      2010,
		Low:       1987,
		StartTime: monday,
		EndTime:   monday.Add(8 * time.Hour),
	}

	// 同一根K线同时下破周低与亚洲低点并收回。
	candles := []market.Candle{
		hourlyCandle(monday.Add(9*time.Hour), 1990, 1991, 1984, 1989),
	}

	detector := NewLiquidityDetector(5, nil)
	events := detector.Detect(candles, []SessionLevel{asian, week})

	if len(events) != 2 {
		t.Fatalf("expected 2 grab events, got %d", len(events))
	}
	if events[0].Session != SessionWeek || events[1].Session != SessionAsian {
		t.Errorf("events must be evaluated in significance order, got %s then %s",
			events[0].Session, events[1].Session)
	}
}
