package smc

import "time"

// Direction 表示信号方向。
type Direction string

const (
	// DirectionBullish 看多方向。
	DirectionBullish Direction = "bullish"
	// DirectionBearish 看空方向。
	DirectionBearish Direction = "bearish"
)

// Opposite 返回相反方向。
func (d Direction) Opposite() Direction {
	if d == DirectionBullish {
		return DirectionBearish
	}
	return DirectionBullish
}

// SessionName 标识流动性区间的来源。
type SessionName string

const (
	SessionAsian   SessionName = "asian"
	SessionLondon  SessionName = "london"
	SessionNewYork SessionName = "new_york"
	SessionPrevDay SessionName = "prev_day"
	SessionWeek    SessionName = "week"
)

// Significance 返回级别显著性，用于同一K线击穿多个级别时的评估顺序。
// 周级 > 前日 > 伦敦 > 纽约 > 亚洲。
func (n SessionName) Significance() int {
	switch n {
	case SessionWeek:
		return 5
	case SessionPrevDay:
		return 4
	case SessionLondon:
		return 3
	case SessionNewYork:
		return 2
	case SessionAsian:
		return 1
	default:
		return 0
	}
}

// SessionLevel 描述一个交易时段的高低点区间。时段收盘后不再变化。
type SessionLevel struct {
	Session     SessionName
	High        float64
	Low         float64
	StartTime   time.Time
	EndTime     time.Time
	Provisional bool
}

// LevelSide 标识击穿发生在区间的哪一侧。
type LevelSide string

const (
	// SideAbove 表示击穿时段高点（买方流动性）。
	SideAbove LevelSide = "above"
	// SideBelow 表示击穿时段低点（卖方流动性）。
	SideBelow LevelSide = "below"
)

// LiquidityGrabEvent 记录一次已确认的流动性抓取（假突破后回收）。
// 确认后不再修改。
type LiquidityGrabEvent struct {
	Session            SessionName
	Side               LevelSide
	LevelPrice         float64
	BreachPrice        float64
	BreachTime         time.Time
	RejectionConfirmed bool
	RejectionTime      time.Time
}

// BlockStatus 表示订单块的生命周期状态，只会单向推进。
type BlockStatus int

const (
	// StatusFresh 新鲜区域，价格尚未回踩。
	StatusFresh BlockStatus = iota
	// StatusTested 价格已回踩区域但未失效。
	StatusTested
	// StatusMitigated 价格收盘穿越对侧边界，区域失效。
	StatusMitigated
)

// String 返回状态名称。
func (s BlockStatus) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusTested:
		return "tested"
	case StatusMitigated:
		return "mitigated"
	default:
		return "unknown"
	}
}

// OrderBlock 描述机构订单区域。
type OrderBlock struct {
	Direction  Direction
	Top        float64
	Bottom     float64
	OriginTime time.Time
	Timeframe  string
	Strength   int
	Status     BlockStatus
}

// Contains 判断价格是否位于区域内。
func (b OrderBlock) Contains(price float64) bool {
	return price >= b.Bottom && price <= b.Top
}

// StructureBreak 描述一次结构突破。创建后不可变。
type StructureBreak struct {
	Direction         Direction
	BreakPrice        float64
	BreakTime         time.Time
	Strength          int
	PriorSwingHigh    float64
	PriorSwingLow     float64
	ChangeOfCharacter bool
}

// EntryZone 为入场价格区间。
type EntryZone struct {
	Top    float64
	Bottom float64
}

// TradeSetup 将流动性抓取、订单块与结构突破组合为可执行交易机会。
type TradeSetup struct {
	Instrument     string
	Timeframe      string
	Direction      Direction
	Grab           LiquidityGrabEvent
	Block          OrderBlock
	Break          StructureBreak
	Entry          float64
	StopLoss       float64
	TakeProfit     float64
	RiskReward     float64
	Zone           EntryZone
	CombinedScore  int
	IdentifiedTime time.Time
}
