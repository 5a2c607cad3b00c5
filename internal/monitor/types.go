package monitor

import (
	"time"

	"gold-digger/internal/ai"
	"gold-digger/internal/execution"
	"gold-digger/internal/feature"
	"gold-digger/internal/smc"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventMarketSnapshot EventType = "market_snapshot"
	EventSMCSignal      EventType = "smc_signal"
	EventSetup          EventType = "setup"
	EventAIDecision     EventType = "ai_decision"
	EventHandoff        EventType = "handoff"
	EventError          EventType = "error"
)

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MarketSnapshotPayload 记录行情上下文快照。
type MarketSnapshotPayload struct {
	Context feature.Context `json:"context"`
}

// SMCSignalPayload 记录单轮SMC检测的结构化结果。
type SMCSignalPayload struct {
	Timeframe string                   `json:"timeframe"`
	Levels    []smc.SessionLevel       `json:"levels"`
	Grabs     []smc.LiquidityGrabEvent `json:"grabs"`
	Blocks    []smc.OrderBlock         `json:"blocks"`
	Breaks    []smc.StructureBreak     `json:"breaks"`
}

// SetupPayload 记录验证通过的交易设置。
type SetupPayload struct {
	Setup smc.TradeSetup `json:"setup"`
}

// AIDecisionPayload 记录AI决策及其输入上下文。
type AIDecisionPayload struct {
	Decision ai.Decision     `json:"decision"`
	Context  feature.Context `json:"context"`
}

// HandoffPayload 记录执行交接及回执。
type HandoffPayload struct {
	Handoff execution.Handoff `json:"handoff"`
	Result  execution.Result  `json:"result"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
