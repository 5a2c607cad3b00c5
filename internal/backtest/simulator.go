package backtest

import (
	"time"

	"gold-digger/internal/market"
	"gold-digger/internal/smc"
)

// TradeRecord 记录一笔已平仓交易。
type TradeRecord struct {
	Direction smc.Direction
	Entry     float64
	Exit      float64
	Pnl       float64
	Win       bool
	OpenedAt  time.Time
	ClosedAt  time.Time
}

type openTrade struct {
	direction  smc.Direction
	entry      float64
	stop       float64
	target     float64
	riskAmount float64
	riskReward float64
	openedAt   time.Time
}

// Simulator 按止损/止盈规则模拟逐笔交易的权益变化。
// 同一时刻至多持有一笔交易，与验证器的单槽位语义一致。
type Simulator struct {
	initialEquity float64
	equity        float64

	trade *openTrade

	equityHistory []float64
	returnHistory []float64
	trades        []TradeRecord
}

func NewSimulator(initialEquity float64) *Simulator {
	if initialEquity <= 0 {
		initialEquity = 10000
	}
	return &Simulator{
		initialEquity: initialEquity,
		equity:        initialEquity,
		equityHistory: []float64{initialEquity},
	}
}

// Open 以给定设置开仓。已有持仓时拒绝并返回 false。
func (s *Simulator) Open(setup smc.TradeSetup, riskAmount float64, ts time.Time) bool {
	if s.trade != nil {
		return false
	}
	if riskAmount <= 0 || setup.Entry <= 0 {
		return false
	}

	s.trade = &openTrade{
		direction:  setup.Direction,
		entry:      setup.Entry,
		stop:       setup.StopLoss,
		target:     setup.TakeProfit,
		riskAmount: riskAmount,
		riskReward: setup.RiskReward,
		openedAt:   ts,
	}
	return true
}

// Advance 用一根新K线推进模拟。若持仓在该K线内触发止损或止盈则平仓，
// 同一根K线同时覆盖两者时按保守原则先判止损。返回本步是否发生平仓。
func (s *Simulator) Advance(candle market.Candle) bool {
	closed := false

	if s.trade != nil {
		t := s.trade
		switch t.direction {
		case smc.DirectionBullish:
			if candle.Low <= t.stop {
				s.close(t, t.stop, -t.riskAmount, candle.OpenTime)
				closed = true
			} else if candle.High >= t.target {
				s.close(t, t.target, t.riskAmount*t.riskReward, candle.OpenTime)
				closed = true
			}
		case smc.DirectionBearish:
			if candle.High >= t.stop {
				s.close(t, t.stop, -t.riskAmount, candle.OpenTime)
				closed = true
			} else if candle.Low <= t.target {
				s.close(t, t.target, t.riskAmount*t.riskReward, candle.OpenTime)
				closed = true
			}
		}
	}

	s.equityHistory = append(s.equityHistory, s.equity)
	return closed
}

func (s *Simulator) close(t *openTrade, exit, pnl float64, ts time.Time) {
	prevEquity := s.equity
	s.equity += pnl
	if prevEquity > 0 {
		s.returnHistory = append(s.returnHistory, pnl/prevEquity)
	}

	s.trades = append(s.trades, TradeRecord{
		Direction: t.direction,
		Entry:     t.entry,
		Exit:      exit,
		Pnl:       pnl,
		Win:       pnl > 0,
		OpenedAt:  t.openedAt,
		ClosedAt:  ts,
	})
	s.trade = nil
}

// HasOpen 返回当前是否持仓。
func (s *Simulator) HasOpen() bool {
	return s.trade != nil
}

func (s *Simulator) Equity() float64 {
	return s.equity
}

func (s *Simulator) TradeCount() int {
	return len(s.trades)
}

func (s *Simulator) Wins() int {
	wins := 0
	for _, t := range s.trades {
		if t.Win {
			wins++
		}
	}
	return wins
}

func (s *Simulator) Trades() []TradeRecord {
	return append([]TradeRecord(nil), s.trades...)
}

func (s *Simulator) EquityHistory() []float64 {
	return append([]float64(nil), s.equityHistory...)
}

func (s *Simulator) ReturnHistory() []float64 {
	return append([]float64(nil), s.returnHistory...)
}
