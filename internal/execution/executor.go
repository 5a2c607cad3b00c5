package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gold-digger/internal/ai"
)

// Provider 为下游执行方的接口契约。核心只负责把验证通过的设置
// 交接出去，不负责仓位管理与订单生命周期。
type Provider interface {
	Submit(ctx context.Context, handoff Handoff) (Result, error)
}

// SimulatedExecutor 在模拟模式下接收交接，仅做记录不触发真实订单。
type SimulatedExecutor struct {
	logger *zap.Logger

	mu      sync.Mutex
	history []Handoff
	seq     int
}

// NewSimulatedExecutor 创建模拟执行器。
func NewSimulatedExecutor(logger *zap.Logger) *SimulatedExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedExecutor{logger: logger}
}

// Submit 接收交接载荷并返回回执。HOLD 决策会被拒绝。
func (e *SimulatedExecutor) Submit(ctx context.Context, handoff Handoff) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	if err := validateHandoff(handoff); err != nil {
		e.logger.Warn("交接载荷非法，已拒绝", zap.Error(err))
		return Result{
			Status:     StatusRejected,
			Reason:     err.Error(),
			ReceivedAt: time.Now().UTC(),
		}, nil
	}

	e.mu.Lock()
	e.seq++
	reference := fmt.Sprintf("sim-%d", e.seq)
	e.history = append(e.history, handoff)
	e.mu.Unlock()

	e.logger.Info("模拟执行器已接收交接",
		zap.String("reference", reference),
		zap.String("instrument", handoff.Setup.Instrument),
		zap.String("direction", string(handoff.Setup.Direction)),
		zap.Float64("entry", handoff.Setup.Entry),
		zap.Float64("stop_loss", handoff.Setup.StopLoss),
		zap.Float64("take_profit", handoff.Setup.TakeProfit),
		zap.Float64("risk_reward", handoff.Setup.RiskReward),
	)

	return Result{
		Status:     StatusAccepted,
		Reference:  reference,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// History 返回已接收交接的副本。
func (e *SimulatedExecutor) History() []Handoff {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Handoff, len(e.history))
	copy(out, e.history)
	return out
}

func validateHandoff(handoff Handoff) error {
	if handoff.Decision.Hold() {
		return errors.New("HOLD 决策不应交接执行")
	}
	if err := handoff.Decision.Validate(); err != nil {
		return fmt.Errorf("决策校验失败: %w", err)
	}

	setup := handoff.Setup
	if setup.Entry <= 0 || setup.StopLoss <= 0 || setup.TakeProfit <= 0 {
		return errors.New("设置价格字段必须为正")
	}

	switch handoff.Decision.Action {
	case ai.ActionBuy:
		if setup.StopLoss >= setup.Entry || setup.TakeProfit <= setup.Entry {
			return errors.New("BUY 设置的止损/止盈方向不一致")
		}
	case ai.ActionSell:
		if setup.StopLoss <= setup.Entry || setup.TakeProfit >= setup.Entry {
			return errors.New("SELL 设置的止损/止盈方向不一致")
		}
	}

	return nil
}
