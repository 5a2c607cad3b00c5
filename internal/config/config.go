package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "gold"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.instrument", "XAU/USD")
	v.SetDefault("app.monitor_port", 0)

	v.SetDefault("market.exchange", "binance")
	v.SetDefault("market.symbol", "PAXG/USDT")
	v.SetDefault("market.use_sandbox", false)
	v.SetDefault("market.retry.max_attempts", 5)
	v.SetDefault("market.retry.min_delay", "500ms")
	v.SetDefault("market.retry.max_delay", "5s")

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4.1")
	v.SetDefault("openai.timeout", "15s")

	// 交易时段均为UTC时间。
	v.SetDefault("sessions", []map[string]any{
		{"name": "asian", "start": "00:00", "end": "08:00"},
		{"name": "london", "start": "08:00", "end": "16:00"},
		{"name": "new_york", "start": "13:00", "end": "21:00"},
	})

	v.SetDefault("smc.timeframe", "1h")
	v.SetDefault("smc.lookahead_window", 5)
	v.SetDefault("smc.min_displacement", 1.5)
	v.SetDefault("smc.swing_lookback", 3)
	v.SetDefault("smc.atr_period", 14)
	v.SetDefault("smc.max_block_age", "72h")
	v.SetDefault("smc.min_risk_reward", 2.0)
	v.SetDefault("smc.stop_buffer", 5.0)

	v.SetDefault("execution.simulation", true)

	v.SetDefault("database.path", "data/gold_digger.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("scheduler.loop_interval", "5m")
	v.SetDefault("scheduler.decision_interval", "1h")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
