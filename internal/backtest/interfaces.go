package backtest

import (
	"context"

	"gold-digger/internal/market"
)

// SnapshotProvider 按时间顺序提供市场快照。
type SnapshotProvider interface {
	Next(ctx context.Context) (market.Snapshot, bool, error)
}
