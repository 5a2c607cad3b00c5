package ai

import (
	"context"

	"gold-digger/internal/feature"
)

// DecisionProvider 为AI决策方的接口契约，核心依赖该接口而不依赖具体实现，
// 便于在回测与测试中替换为脚本化实现。
type DecisionProvider interface {
	Decide(ctx context.Context, market feature.Context) (Decision, error)
}

// DecisionProviderFunc 允许使用函数作为决策提供者。
type DecisionProviderFunc func(ctx context.Context, market feature.Context) (Decision, error)

// Decide 实现 DecisionProvider。
func (f DecisionProviderFunc) Decide(ctx context.Context, market feature.Context) (Decision, error) {
	return f(ctx, market)
}
