package market

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validSeries() []Candle {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return []Candle{
		{OpenTime: start, Open: 2000, High: 2005, Low: 1998, Close: 2003, Volume: 120},
		{OpenTime: start.Add(time.Hour), Open: 2003, High: 2008, Low: 2001, Close: 2006, Volume: 80},
		{OpenTime: start.Add(2 * time.Hour), Open: 2006, High: 2007, Low: 2002, Close: 2004, Volume: 95},
	}
}

func TestValidateSeries_Valid(t *testing.T) {
	if err := ValidateSeries(validSeries()); err != nil {
		t.Fatalf("valid series rejected: %v", err)
	}
	if err := ValidateSeries(nil); err != nil {
		t.Fatalf("empty series must pass: %v", err)
	}
}

func TestValidateSeries_NonIncreasingTimestamps(t *testing.T) {
	candles := validSeries()
	candles[2].OpenTime = candles[1].OpenTime

	err := ValidateSeries(candles)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
}

func TestValidateSeries_HighBelowLow(t *testing.T) {
	candles := validSeries()
	candles[1].High = 1990

	err := ValidateSeries(candles)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
}

func TestValidateSeries_AccumulatesViolations(t *testing.T) {
	candles := validSeries()
	candles[0].Volume = -1
	candles[2].Close = 2050

	err := ValidateSeries(candles)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "成交量") || !strings.Contains(msg, "close") {
		t.Errorf("error must report every violation, got %q", msg)
	}
}

func TestCandleBody(t *testing.T) {
	bull := Candle{Open: 1995, Close: 2000, High: 2001, Low: 1994}
	bottom, top := bull.Body()
	if bottom != 1995 || top != 2000 {
		t.Errorf("bullish body = [%f, %f], want [1995, 2000]", bottom, top)
	}
	if !bull.Bullish() || bull.Bearish() {
		t.Errorf("candle direction flags inconsistent")
	}

	bear := Candle{Open: 2000, Close: 1995, High: 2001, Low: 1994}
	bottom, top = bear.Body()
	if bottom != 1995 || top != 2000 {
		t.Errorf("bearish body = [%f, %f], want [1995, 2000]", bottom, top)
	}
}
