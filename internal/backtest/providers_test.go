package backtest

import (
	"context"
	"testing"
	"time"

	"gold-digger/internal/market"
)

func TestCandleWindowProvider_ExpandingWindows(t *testing.T) {
	candles := make([]market.Candle, 0, 5)
	for i := 0; i < 5; i++ {
		candles = append(candles, market.Candle{
			OpenTime: testStart.Add(time.Duration(i) * time.Hour),
			Open:     2000, High: 2001, Low: 1999, Close: 2000.5,
		})
	}

	provider := NewCandleWindowProvider("PAXG/USDT", candles, 3)
	ctx := context.Background()

	var lengths []int
	for {
		snap, ok, err := provider.Next(ctx)
		if err != nil {
			t.Fatalf("Next returned error: %v", err)
		}
		if !ok {
			break
		}
		if snap.Symbol != "PAXG/USDT" {
			t.Errorf("symbol = %s, want PAXG/USDT", snap.Symbol)
		}
		lengths = append(lengths, len(snap.Candles1H))

		wantAt := snap.Candles1H[len(snap.Candles1H)-1].OpenTime.Add(time.Hour)
		if !snap.RetrievedAt.Equal(wantAt) {
			t.Errorf("retrieved at = %v, want %v", snap.RetrievedAt, wantAt)
		}
	}

	want := []int{3, 4, 5}
	if len(lengths) != len(want) {
		t.Fatalf("window count = %d, want %d", len(lengths), len(want))
	}
	for i := range want {
		if lengths[i] != want[i] {
			t.Errorf("window %d length = %d, want %d", i, lengths[i], want[i])
		}
	}
}

func TestSliceSnapshotProvider_Exhausts(t *testing.T) {
	snaps := []market.Snapshot{
		{Symbol: "PAXG/USDT", RetrievedAt: testStart},
		{Symbol: "PAXG/USDT", RetrievedAt: testStart.Add(time.Hour)},
	}

	provider := NewSliceSnapshotProvider(snaps)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		snap, ok, err := provider.Next(ctx)
		if err != nil || !ok {
			t.Fatalf("step %d: ok=%v err=%v", i, ok, err)
		}
		if !snap.RetrievedAt.Equal(snaps[i].RetrievedAt) {
			t.Errorf("step %d: out of order snapshot", i)
		}
	}

	if _, ok, _ := provider.Next(ctx); ok {
		t.Fatalf("exhausted provider must report done")
	}
}
