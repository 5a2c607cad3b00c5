package ai

import (
	"errors"
	"fmt"
	"strings"
)

// 决策动作取值。
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Decision 表示AI决策方返回的交易指令。
// 核心只校验必要字段与取值范围，不复核其内容。
type Decision struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Entry      float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Rationale  string  `json:"rationale"`
}

var validActions = map[string]struct{}{
	ActionBuy:  {},
	ActionSell: {},
	ActionHold: {},
}

// Validate 校验决策字段合法性。
func (d Decision) Validate() error {
	action := strings.ToUpper(strings.TrimSpace(d.Action))
	if action == "" {
		return errors.New("action 不能为空")
	}
	if _, ok := validActions[action]; !ok {
		return fmt.Errorf("action 字段取值非法: %s", d.Action)
	}

	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence 必须在 [0,1] 区间，目前为 %f", d.Confidence)
	}

	if strings.TrimSpace(d.Rationale) == "" {
		return errors.New("rationale 不能为空")
	}

	if action != ActionHold {
		if d.Entry <= 0 {
			return errors.New("entry_price 必须为正 (BUY/SELL)")
		}
		if d.StopLoss <= 0 {
			return errors.New("stop_loss 必须为正 (BUY/SELL)")
		}
		if d.TakeProfit <= 0 {
			return errors.New("take_profit 必须为正 (BUY/SELL)")
		}
	}

	return nil
}

// Hold 判断该决策是否为观望。
func (d Decision) Hold() bool {
	return strings.ToUpper(strings.TrimSpace(d.Action)) == ActionHold
}
