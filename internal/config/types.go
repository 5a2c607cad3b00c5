package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"gold-digger/internal/smc"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Market    MarketConfig    `mapstructure:"market"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Sessions  []SessionConfig `mapstructure:"sessions"`
	SMC       SMCConfig       `mapstructure:"smc"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	Instrument  string `mapstructure:"instrument"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

// MarketConfig 描述行情数据源连接信息。
type MarketConfig struct {
	Exchange   string      `mapstructure:"exchange"`
	Symbol     string      `mapstructure:"symbol"`
	APIKey     string      `mapstructure:"api_key"`
	APISecret  string      `mapstructure:"api_secret"`
	UseSandbox bool        `mapstructure:"use_sandbox"`
	Retry      RetryConfig `mapstructure:"retry"`
}

// RetryConfig 统一控制重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// OpenAIConfig 描述大模型调用参数。
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig 描述单个交易时段的UTC窗口，格式 HH:MM。
type SessionConfig struct {
	Name  string `mapstructure:"name"`
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// SMCConfig 管理SMC检测管道的参数。
type SMCConfig struct {
	Timeframe       string        `mapstructure:"timeframe"`
	LookaheadWindow int           `mapstructure:"lookahead_window"`
	MinDisplacement float64       `mapstructure:"min_displacement"`
	SwingLookback   int           `mapstructure:"swing_lookback"`
	ATRPeriod       int           `mapstructure:"atr_period"`
	MaxBlockAge     time.Duration `mapstructure:"max_block_age"`
	MinRiskReward   float64       `mapstructure:"min_risk_reward"`
	StopBuffer      float64       `mapstructure:"stop_buffer"`
}

// ExecutionConfig 控制下游执行交接行为。
type ExecutionConfig struct {
	Simulation bool `mapstructure:"simulation"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// SchedulerConfig 控制主循环节奏。
type SchedulerConfig struct {
	LoopInterval     time.Duration `mapstructure:"loop_interval"`
	DecisionInterval time.Duration `mapstructure:"decision_interval"`
}

// SessionWindows 将时段配置转换为SMC管道使用的窗口定义。
func (c *Config) SessionWindows() ([]smc.SessionWindow, error) {
	windows := make([]smc.SessionWindow, 0, len(c.Sessions))
	for _, s := range c.Sessions {
		start, err := parseClock(s.Start)
		if err != nil {
			return nil, fmt.Errorf("时段 %s start 非法: %w", s.Name, err)
		}
		end, err := parseClock(s.End)
		if err != nil {
			return nil, fmt.Errorf("时段 %s end 非法: %w", s.Name, err)
		}
		windows = append(windows, smc.SessionWindow{
			Name:        smc.SessionName(strings.ToLower(strings.TrimSpace(s.Name))),
			StartMinute: start,
			EndMinute:   end,
		})
	}
	return windows, nil
}

// parseClock 解析 HH:MM 为当日分钟数，允许 24:00 表示日终。
func parseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("期望 HH:MM 格式，得到 %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("小时取值非法: %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("分钟取值非法: %q", parts[1])
	}
	total := hour*60 + minute
	if total > 24*60 {
		return 0, fmt.Errorf("时间超出当日范围: %q", value)
	}
	return total, nil
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.App.Instrument == "" {
		err = multierr.Append(err, errors.New("app.instrument 不能为空"))
	}
	if c.Market.Symbol == "" {
		err = multierr.Append(err, errors.New("market.symbol 不能为空"))
	}
	if c.Market.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("market.retry.max_attempts 必须大于0"))
	}
	if c.Market.Retry.MinDelay <= 0 || c.Market.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("market.retry.delay 必须为正"))
	}
	if c.Market.Retry.MinDelay > c.Market.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("market.retry.min_delay 不能大于 max_delay"))
	}
	if c.OpenAI.APIKey == "" {
		err = multierr.Append(err, errors.New("openai.api_key 不能为空"))
	}
	if c.OpenAI.Model == "" {
		err = multierr.Append(err, errors.New("openai.model 不能为空"))
	}
	if c.OpenAI.Timeout <= 0 {
		err = multierr.Append(err, errors.New("openai.timeout 必须大于0"))
	}

	if len(c.Sessions) == 0 {
		err = multierr.Append(err, errors.New("sessions 至少配置一个交易时段"))
	}
	if _, winErr := c.SessionWindows(); winErr != nil {
		err = multierr.Append(err, winErr)
	}
	for _, s := range c.Sessions {
		start, e1 := parseClock(s.Start)
		end, e2 := parseClock(s.End)
		if e1 == nil && e2 == nil && start >= end {
			err = multierr.Append(err, fmt.Errorf("时段 %s 的 start 必须早于 end", s.Name))
		}
	}

	if c.SMC.Timeframe == "" {
		err = multierr.Append(err, errors.New("smc.timeframe 不能为空"))
	}
	if c.SMC.LookaheadWindow <= 0 {
		err = multierr.Append(err, errors.New("smc.lookahead_window 必须大于0"))
	}
	if c.SMC.MinDisplacement <= 0 {
		err = multierr.Append(err, errors.New("smc.min_displacement 必须大于0"))
	}
	if c.SMC.SwingLookback <= 0 {
		err = multierr.Append(err, errors.New("smc.swing_lookback 必须大于0"))
	}
	if c.SMC.ATRPeriod <= 0 {
		err = multierr.Append(err, errors.New("smc.atr_period 必须大于0"))
	}
	if c.SMC.MaxBlockAge <= 0 {
		err = multierr.Append(err, errors.New("smc.max_block_age 必须为正"))
	}
	if c.SMC.MinRiskReward < 1 {
		err = multierr.Append(err, errors.New("smc.min_risk_reward 不能小于1"))
	}
	if c.SMC.StopBuffer < 3 || c.SMC.StopBuffer > 7 {
		err = multierr.Append(err, errors.New("smc.stop_buffer 必须位于 [3,7]"))
	}

	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}

	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if c.Scheduler.LoopInterval <= 0 {
		err = multierr.Append(err, errors.New("scheduler.loop_interval 必须大于0"))
	}
	if c.Scheduler.DecisionInterval <= 0 {
		err = multierr.Append(err, errors.New("scheduler.decision_interval 必须大于0"))
	}
	if c.Scheduler.DecisionInterval < c.Scheduler.LoopInterval {
		err = multierr.Append(err, errors.New("scheduler.decision_interval 不应小于 loop_interval"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
