package execution

import (
	"time"

	"gold-digger/internal/ai"
	"gold-digger/internal/smc"
)

// HandoffStatus 表示交接结果状态。
type HandoffStatus string

const (
	StatusAccepted HandoffStatus = "accepted"
	StatusRejected HandoffStatus = "rejected"
)

// Handoff 表示验证通过的设置连同AI决策一起移交给下游执行方的载荷。
type Handoff struct {
	Setup       smc.TradeSetup `json:"setup"`
	Decision    ai.Decision    `json:"decision"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Result 表示下游执行方对交接的回执。
type Result struct {
	Status     HandoffStatus `json:"status"`
	Reference  string        `json:"reference,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	ReceivedAt time.Time     `json:"received_at"`
}

// Accepted 判断交接是否被接受。
func (r Result) Accepted() bool {
	return r.Status == StatusAccepted
}
