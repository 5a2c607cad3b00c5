package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"gold-digger/internal/feature"
)

const decisionTemplate = `
你是一个专业的黄金(XAU/USD)交易员，严格执行 Smart Money Concepts 策略。你的任务是根据提供的市场结构分析，判断当前是否存在符合策略的交易机会。

当前市场上下文：
{{ .ContextJSON }}

请按策略的四个步骤依次核对：
1. 识别流动性：亚洲/伦敦/纽约时段高低点与前日、本周高低点是否清晰；
2. 流动性抓取：关键级别是否出现假突破后快速回收（stop hunt）；
3. 结构转变：回收后是否出现同方向的结构突破(BOS)确认；
4. 回踩入场：价格是否回踩到与突破方向一致的未失效订单块。

决策要求：
- 四个步骤必须全部满足才可给出 BUY 或 SELL，否则一律 HOLD；
- 风险回报比低于 1:2 的机会直接放弃；
- 上下文中的 setup_quality 低于 6 时保持谨慎；
- 止损放在订单块外侧，止盈参考下一个时段级别或VWAP。

请严格输出唯一的 JSON 对象，格式如下：
{
  "action": "BUY|SELL|HOLD",      // 交易动作，不满足条件时为 HOLD
  "confidence": 0.0-1.0,           // 决策信心度
  "entry_price": 1985.50,          // 建议入场价，HOLD 时可为 0
  "stop_loss": 1980.00,            // 止损价，HOLD 时可为 0
  "take_profit": 1995.00,          // 止盈价，HOLD 时可为 0
  "rationale": "..."              // 支撑结论的关键理由，引用具体步骤
}

注意事项：
- 所有价格均为 XAU/USD 美元报价；
- 若任一步骤缺失，请在 rationale 中指出缺失的步骤并返回 HOLD；
- 只输出 JSON，不要附加其他文字。
`

var tmpl = template.Must(template.New("decision").Parse(decisionTemplate))

type promptContext struct {
	ContextJSON string
}

// BuildPrompt 将市场上下文渲染成提示词字符串。
func BuildPrompt(market feature.Context) (string, error) {
	contextJSON, err := json.MarshalIndent(market, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化市场上下文失败: %w", err)
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, promptContext{ContextJSON: string(contextJSON)}); err != nil {
		return "", fmt.Errorf("渲染提示词失败: %w", err)
	}

	return buf.String(), nil
}
