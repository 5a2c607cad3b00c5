package smc

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"gold-digger/internal/market"
)

// SessionWindow 定义一个交易时段在UTC日内的起止（分钟数，结束不包含）。
type SessionWindow struct {
	Name        SessionName
	StartMinute int
	EndMinute   int
}

// DefaultSessionWindows 返回黄金交易常用的三大时段划分（UTC）。
func DefaultSessionWindows() []SessionWindow {
	return []SessionWindow{
		{Name: SessionAsian, StartMinute: 0, EndMinute: 8 * 60},
		{Name: SessionLondon, StartMinute: 8 * 60, EndMinute: 16 * 60},
		{Name: SessionNewYork, StartMinute: 13 * 60, EndMinute: 21 * 60},
	}
}

// SessionTracker 基于K线序列计算各时段高低点。
type SessionTracker struct {
	windows []SessionWindow
	logger  *zap.Logger
}

// NewSessionTracker 创建时段级别跟踪器。
func NewSessionTracker(windows []SessionWindow, logger *zap.Logger) *SessionTracker {
	if len(windows) == 0 {
		windows = DefaultSessionWindows()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionTracker{
		windows: windows,
		logger:  logger,
	}
}

// ComputeLevels 计算 asOf 所在交易日的时段级别，外加前日与周级区间。
// 已收盘的时段结果不可变；进行中的时段返回临时级别，下次调用整体替换。
// 已开始的时段若没有任何K线落入窗口，返回 ErrInsufficientData。
func (t *SessionTracker) ComputeLevels(candles []market.Candle, asOf time.Time) ([]SessionLevel, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: 没有可用K线", ErrInsufficientData)
	}

	asOf = asOf.UTC()
	dayStart := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	levels := make([]SessionLevel, 0, len(t.windows)+2)

	for _, w := range t.windows {
		start := dayStart.Add(time.Duration(w.StartMinute) * time.Minute)
		end := dayStart.Add(time.Duration(w.EndMinute) * time.Minute)
		if !asOf.After(start) {
			continue
		}

		level, ok := levelFromRange(w.Name, candles, start, end)
		if !ok {
			return nil, fmt.Errorf("%w: 时段 %s 窗口内无K线", ErrInsufficientData, w.Name)
		}
		level.Provisional = asOf.Before(end)
		levels = append(levels, level)
	}

	if prev, ok := t.prevDayLevel(candles, dayStart); ok {
		levels = append(levels, prev)
	}
	if week, ok := t.weekLevel(candles, dayStart); ok {
		levels = append(levels, week)
	}

	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Session.Significance() > levels[j].Session.Significance()
	})

	t.logger.Debug("时段级别计算完成",
		zap.Time("as_of", asOf),
		zap.Int("level_count", len(levels)),
	)

	return levels, nil
}

// prevDayLevel 取当前交易日之前最近一个有数据的UTC日（最多回看7天，覆盖周末停盘）。
func (t *SessionTracker) prevDayLevel(candles []market.Candle, dayStart time.Time) (SessionLevel, bool) {
	for back := 1; back <= 7; back++ {
		start := dayStart.AddDate(0, 0, -back)
		end := start.AddDate(0, 0, 1)
		if level, ok := levelFromRange(SessionPrevDay, candles, start, end); ok {
			return level, true
		}
	}
	return SessionLevel{}, false
}

// weekLevel 与 prevDayLevel 对称：优先取最近一个已收盘的完整周（最多回看4周，
// 覆盖长假停盘），其高低点可参与突破扫描；历史不足一周时退回进行中的本周区间，
// 标记为临时级别。
func (t *SessionTracker) weekLevel(candles []market.Candle, dayStart time.Time) (SessionLevel, bool) {
	weekday := int(dayStart.Weekday())
	// 周从周一零点开始。
	offset := (weekday + 6) % 7
	weekStart := dayStart.AddDate(0, 0, -offset)

	for back := 1; back <= 4; back++ {
		start := weekStart.AddDate(0, 0, -7*back)
		if level, ok := levelFromRange(SessionWeek, candles, start, start.AddDate(0, 0, 7)); ok {
			return level, true
		}
	}

	level, ok := levelFromRange(SessionWeek, candles, weekStart, weekStart.AddDate(0, 0, 7))
	if !ok {
		return SessionLevel{}, false
	}
	level.Provisional = true
	return level, true
}

func levelFromRange(name SessionName, candles []market.Candle, start, end time.Time) (SessionLevel, bool) {
	var (
		high  float64
		low   float64
		found bool
	)

	for _, c := range candles {
		if c.OpenTime.Before(start) || !c.OpenTime.Before(end) {
			continue
		}
		if !found {
			high = c.High
			low = c.Low
			found = true
			continue
		}
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}

	if !found {
		return SessionLevel{}, false
	}

	return SessionLevel{
		Session:   name,
		High:      high,
		Low:       low,
		StartTime: start,
		EndTime:   end,
	}, true
}
