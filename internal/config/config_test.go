package config

import (
	"strings"
	"testing"
	"time"

	"gold-digger/internal/smc"
)

func validConfig() Config {
	return Config{
		App: AppConfig{Environment: "test", Instrument: "XAU/USD"},
		Market: MarketConfig{
			Exchange: "binance",
			Symbol:   "PAXG/USDT",
			Retry: RetryConfig{
				MaxAttempts: 3,
				MinDelay:    500 * time.Millisecond,
				MaxDelay:    5 * time.Second,
			},
		},
		OpenAI: OpenAIConfig{
			APIKey:  "sk-test",
			Model:   "gpt-4.1",
			Timeout: 15 * time.Second,
		},
		Sessions: []SessionConfig{
			{Name: "asian", Start: "00:00", End: "08:00"},
			{Name: "london", Start: "08:00", End: "16:00"},
			{Name: "new_york", Start: "13:00", End: "21:00"},
		},
		SMC: SMCConfig{
			Timeframe:       "1h",
			LookaheadWindow: 5,
			MinDisplacement: 1.5,
			SwingLookback:   3,
			ATRPeriod:       14,
			MaxBlockAge:     72 * time.Hour,
			MinRiskReward:   2,
			StopBuffer:      5,
		},
		Database: DatabaseConfig{Path: "data/test.db", MaxOpenConns: 4},
		Logging: LoggingConfig{
			Level:            "info",
			Encoding:         "console",
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		},
		Scheduler: SchedulerConfig{
			LoopInterval:     5 * time.Minute,
			DecisionInterval: time.Hour,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_StopBufferRange(t *testing.T) {
	cfg := validConfig()
	cfg.SMC.StopBuffer = 9

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "stop_buffer") {
		t.Fatalf("expected stop_buffer validation error, got %v", err)
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAI.APIKey = ""
	cfg.SMC.LookaheadWindow = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "api_key") || !strings.Contains(msg, "lookahead_window") {
		t.Errorf("error must report every violation, got %q", msg)
	}
}

func TestSessionWindows_Conversion(t *testing.T) {
	cfg := validConfig()

	windows, err := cfg.SessionWindows()
	if err != nil {
		t.Fatalf("SessionWindows returned error: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}

	london := windows[1]
	if london.Name != smc.SessionLondon {
		t.Errorf("name = %s, want london", london.Name)
	}
	if london.StartMinute != 8*60 || london.EndMinute != 16*60 {
		t.Errorf("london window = [%d, %d], want [480, 960]", london.StartMinute, london.EndMinute)
	}
}

func TestSessionWindows_InvalidClock(t *testing.T) {
	cfg := validConfig()
	cfg.Sessions[0].Start = "25:00"

	if _, err := cfg.SessionWindows(); err == nil {
		t.Fatalf("expected parse error for invalid clock value")
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"24:00", 1440, false},
		{" 13:00 ", 780, false},
		{"8", 0, true},
		{"12:61", 0, true},
		{"24:30", 0, true},
	}

	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseClock(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
