package backtest

import "time"

// Config 定义回测参数。
type Config struct {
	Instrument    string    // 标的名称
	Timeframe     string    // 信号周期
	InitialEquity float64   // 初始净值
	RiskPerTrade  float64   // 单笔风险占净值比例
	StartTime     time.Time // 开始时间
	EndTime       time.Time // 结束时间
}

func (c *Config) normalize() Config {
	cfg := *c
	if cfg.Instrument == "" {
		cfg.Instrument = "XAU/USD"
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = "1h"
	}
	if cfg.InitialEquity <= 0 {
		cfg.InitialEquity = 10000
	}
	if cfg.RiskPerTrade <= 0 || cfg.RiskPerTrade > 0.05 {
		cfg.RiskPerTrade = 0.01
	}
	return cfg
}
