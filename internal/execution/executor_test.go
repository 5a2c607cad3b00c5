package execution

import (
	"context"
	"testing"
	"time"

	"gold-digger/internal/ai"
	"gold-digger/internal/smc"
)

func makeBullishHandoff() Handoff {
	return Handoff{
		Setup: smc.TradeSetup{
			Instrument: "XAU/USD",
			Timeframe:  "1h",
			Direction:  smc.DirectionBullish,
			Entry:      1984,
			StopLoss:   1975,
			TakeProfit: 2002,
			RiskReward: 2,
		},
		Decision: ai.Decision{
			Action:     ai.ActionBuy,
			Confidence: 0.8,
			Entry:      1984,
			StopLoss:   1975,
			TakeProfit: 2002,
			Rationale:  "四步齐备",
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestSimulatedExecutor_AcceptsValidHandoff(t *testing.T) {
	exec := NewSimulatedExecutor(nil)

	result, err := exec.Submit(context.Background(), makeBullishHandoff())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !result.Accepted() {
		t.Fatalf("expected acceptance, got %+v", result)
	}
	if result.Reference != "sim-1" {
		t.Errorf("reference = %s, want sim-1", result.Reference)
	}
	if len(exec.History()) != 1 {
		t.Errorf("history length = %d, want 1", len(exec.History()))
	}
}

func TestSimulatedExecutor_RejectsHoldDecision(t *testing.T) {
	handoff := makeBullishHandoff()
	handoff.Decision = ai.Decision{Action: ai.ActionHold, Confidence: 0.4, Rationale: "观望"}

	exec := NewSimulatedExecutor(nil)
	result, err := exec.Submit(context.Background(), handoff)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if result.Accepted() {
		t.Fatalf("hold decisions must be rejected")
	}
	if len(exec.History()) != 0 {
		t.Errorf("rejected handoff must not enter history")
	}
}

func TestSimulatedExecutor_RejectsInconsistentLevels(t *testing.T) {
	handoff := makeBullishHandoff()
	// BUY 设置的止损必须低于入场价。
	handoff.Setup.StopLoss = 1990
	handoff.Decision.StopLoss = 1990

	exec := NewSimulatedExecutor(nil)
	result, err := exec.Submit(context.Background(), handoff)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if result.Accepted() {
		t.Fatalf("inconsistent stop placement must be rejected")
	}
}

func TestSimulatedExecutor_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewSimulatedExecutor(nil)
	if _, err := exec.Submit(ctx, makeBullishHandoff()); err == nil {
		t.Fatalf("expected context error")
	}
}
