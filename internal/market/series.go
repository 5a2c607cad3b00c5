package market

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrDataIntegrity 表示K线序列不满足入库约束，管道拒绝在损坏数据上运行。
var ErrDataIntegrity = errors.New("candle series integrity violation")

// ValidateSeries 校验K线序列的完整性：时间严格递增、无重复时间戳、字段取值合法。
// 任何一条违规都会使整个序列被拒绝，而不是静默跳过问题行。
func ValidateSeries(candles []Candle) error {
	var err error

	for i, c := range candles {
		if c.OpenTime.IsZero() {
			err = multierr.Append(err, fmt.Errorf("第%d根K线缺少开盘时间", i))
			continue
		}
		if c.High < c.Low {
			err = multierr.Append(err, fmt.Errorf("第%d根K线 high < low (%f < %f)", i, c.High, c.Low))
		}
		if c.Open > c.High || c.Open < c.Low {
			err = multierr.Append(err, fmt.Errorf("第%d根K线 open 超出 [low, high] 区间", i))
		}
		if c.Close > c.High || c.Close < c.Low {
			err = multierr.Append(err, fmt.Errorf("第%d根K线 close 超出 [low, high] 区间", i))
		}
		if c.Volume < 0 {
			err = multierr.Append(err, fmt.Errorf("第%d根K线成交量为负", i))
		}
		if i == 0 {
			continue
		}
		prev := candles[i-1]
		if !c.OpenTime.After(prev.OpenTime) {
			err = multierr.Append(err, fmt.Errorf("第%d根K线时间未严格递增: %s -> %s",
				i, prev.OpenTime.Format("2006-01-02T15:04:05Z"), c.OpenTime.Format("2006-01-02T15:04:05Z")))
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	return nil
}
