package market

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service 并行拉取多个时间框架的K线并组装快照。
type Service struct {
	client *Client
	logger *zap.Logger
}

// NewService 创建市场数据服务。
func NewService(client *Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		logger: logger,
	}
}

// GetSnapshot 拉取15分钟、1小时、4小时与日线K线的市场快照。
func (s *Service) GetSnapshot(ctx context.Context, req SnapshotRequest) (Snapshot, error) {
	def := DefaultSnapshotRequest()
	if req.Limit15M <= 0 {
		req.Limit15M = def.Limit15M
	}
	if req.Limit1H <= 0 {
		req.Limit1H = def.Limit1H
	}
	if req.Limit4H <= 0 {
		req.Limit4H = def.Limit4H
	}
	if req.Limit1D <= 0 {
		req.Limit1D = def.Limit1D
	}

	var (
		candles15M []Candle
		candles1H  []Candle
		candles4H  []Candle
		candles1D  []Candle
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		data, err := s.client.FetchCandles(groupCtx, Timeframe15m, req.Limit15M)
		if err != nil {
			return err
		}
		candles15M = data
		return nil
	})

	group.Go(func() error {
		data, err := s.client.FetchCandles(groupCtx, Timeframe1h, req.Limit1H)
		if err != nil {
			return err
		}
		candles1H = data
		return nil
	})

	group.Go(func() error {
		data, err := s.client.FetchCandles(groupCtx, Timeframe4h, req.Limit4H)
		if err != nil {
			return err
		}
		candles4H = data
		return nil
	})

	group.Go(func() error {
		data, err := s.client.FetchCandles(groupCtx, Timeframe1d, req.Limit1D)
		if err != nil {
			return err
		}
		candles1D = data
		return nil
	})

	if err := group.Wait(); err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Symbol:      s.client.Symbol(),
		Candles15M:  candles15M,
		Candles1H:   candles1H,
		Candles4H:   candles4H,
		Candles1D:   candles1D,
		RetrievedAt: time.Now().UTC(),
	}

	s.logger.Debug("市场快照获取完成",
		zap.String("symbol", snapshot.Symbol),
		zap.Int("candle_15m_count", len(snapshot.Candles15M)),
		zap.Int("candle_1h_count", len(snapshot.Candles1H)),
		zap.Int("candle_4h_count", len(snapshot.Candles4H)),
		zap.Int("candle_1d_count", len(snapshot.Candles1D)),
	)

	return snapshot, nil
}
