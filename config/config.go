// Package config loads and validates every scanner tunable from the
// environment, and implements the external strategy-name-to-key mapping.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MarketHours is a local daily trading window, Mon-Fri.
type MarketHours struct {
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
}

// Config holds every tunable named in spec.md §6, defaults shown there.
type Config struct {
	InitialCapital float64

	MaxPositionSizePct float64
	MaxDailyLossPct    float64
	MaxTradesPerDay    int

	StopLossPct     float64
	TakeProfitPct   float64
	TrailingStopPct float64

	RSIPeriod     int
	RSIOverbought int
	RSIOversold   int

	MACDFast   int
	MACDSlow   int
	MACDSignal int

	BollingerPeriod int
	BollingerStdDev float64

	SMAShort int
	SMALong  int
	EMAShort int
	EMALong  int

	MarketHours  MarketHours
	ScanInterval time.Duration

	Watchlist []string
}

// Default returns the configuration defaults table of spec.md §6.
func Default() Config {
	return Config{
		InitialCapital:     100000,
		MaxPositionSizePct: 2.0,
		MaxDailyLossPct:    5.0,
		MaxTradesPerDay:    50,
		StopLossPct:        1.5,
		TakeProfitPct:      3.0,
		TrailingStopPct:    1.0,
		RSIPeriod:          14,
		RSIOverbought:      70,
		RSIOversold:        30,
		MACDFast:           12,
		MACDSlow:           26,
		MACDSignal:         9,
		BollingerPeriod:    20,
		BollingerStdDev:    2.0,
		SMAShort:           20,
		SMALong:            50,
		EMAShort:           12,
		EMALong:            26,
		MarketHours: MarketHours{
			OpenHour: 9, OpenMinute: 15,
			CloseHour: 15, CloseMinute: 30,
		},
		ScanInterval: 5 * time.Second,
		Watchlist:    []string{"AAA", "BBB", "CCC"},
	}
}

// Load builds a Config from environment variables, falling back to
// Default() for anything unset, then validates it.
func Load() (Config, error) {
	cfg := Default()

	cfg.InitialCapital = getEnvFloat("INITIAL_CAPITAL", cfg.InitialCapital)
	cfg.MaxPositionSizePct = getEnvFloat("MAX_POSITION_SIZE_PCT", cfg.MaxPositionSizePct)
	cfg.MaxDailyLossPct = getEnvFloat("MAX_DAILY_LOSS_PCT", cfg.MaxDailyLossPct)
	cfg.MaxTradesPerDay = getEnvInt("MAX_TRADES_PER_DAY", cfg.MaxTradesPerDay)

	cfg.StopLossPct = getEnvFloat("STOP_LOSS_PCT", cfg.StopLossPct)
	cfg.TakeProfitPct = getEnvFloat("TAKE_PROFIT_PCT", cfg.TakeProfitPct)
	cfg.TrailingStopPct = getEnvFloat("TRAILING_STOP_PCT", cfg.TrailingStopPct)

	cfg.RSIPeriod = getEnvInt("RSI_PERIOD", cfg.RSIPeriod)
	cfg.RSIOverbought = getEnvInt("RSI_OVERBOUGHT", cfg.RSIOverbought)
	cfg.RSIOversold = getEnvInt("RSI_OVERSOLD", cfg.RSIOversold)

	cfg.MACDFast = getEnvInt("MACD_FAST", cfg.MACDFast)
	cfg.MACDSlow = getEnvInt("MACD_SLOW", cfg.MACDSlow)
	cfg.MACDSignal = getEnvInt("MACD_SIGNAL", cfg.MACDSignal)

	cfg.BollingerPeriod = getEnvInt("BOLLINGER_PERIOD", cfg.BollingerPeriod)
	cfg.BollingerStdDev = getEnvFloat("BOLLINGER_STD", cfg.BollingerStdDev)

	cfg.SMAShort = getEnvInt("SMA_SHORT", cfg.SMAShort)
	cfg.SMALong = getEnvInt("SMA_LONG", cfg.SMALong)
	cfg.EMAShort = getEnvInt("EMA_SHORT", cfg.EMAShort)
	cfg.EMALong = getEnvInt("EMA_LONG", cfg.EMALong)

	cfg.MarketHours.OpenHour = getEnvInt("MARKET_OPEN_HOUR", cfg.MarketHours.OpenHour)
	cfg.MarketHours.OpenMinute = getEnvInt("MARKET_OPEN_MINUTE", cfg.MarketHours.OpenMinute)
	cfg.MarketHours.CloseHour = getEnvInt("MARKET_CLOSE_HOUR", cfg.MarketHours.CloseHour)
	cfg.MarketHours.CloseMinute = getEnvInt("MARKET_CLOSE_MINUTE", cfg.MarketHours.CloseMinute)

	cfg.ScanInterval = getEnvDuration("SCAN_INTERVAL", cfg.ScanInterval)

	if symbols := getEnv("WATCHLIST", ""); symbols != "" {
		cfg.Watchlist = splitAndTrim(symbols)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast on out-of-range tunables.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("config: initial capital must be positive, got %v", c.InitialCapital)
	}
	if c.MaxPositionSizePct <= 0 || c.MaxPositionSizePct > 100 {
		return fmt.Errorf("config: max position size pct out of range: %v", c.MaxPositionSizePct)
	}
	if c.MaxDailyLossPct <= 0 || c.MaxDailyLossPct > 100 {
		return fmt.Errorf("config: max daily loss pct out of range: %v", c.MaxDailyLossPct)
	}
	if c.MaxTradesPerDay <= 0 {
		return fmt.Errorf("config: max trades per day must be positive, got %d", c.MaxTradesPerDay)
	}
	if c.RSIOversold < 0 || c.RSIOverbought > 100 || c.RSIOversold >= c.RSIOverbought {
		return fmt.Errorf("config: invalid RSI thresholds: oversold=%d overbought=%d", c.RSIOversold, c.RSIOverbought)
	}
	if c.MACDFast <= 0 || c.MACDSlow <= c.MACDFast || c.MACDSignal <= 0 {
		return fmt.Errorf("config: invalid MACD periods: fast=%d slow=%d signal=%d", c.MACDFast, c.MACDSlow, c.MACDSignal)
	}
	if c.SMAShort <= 0 || c.SMALong <= c.SMAShort {
		return fmt.Errorf("config: invalid SMA periods: short=%d long=%d", c.SMAShort, c.SMALong)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("config: scan interval must be positive, got %v", c.ScanInterval)
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("config: watchlist must not be empty")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// strategyKeyPriority is the order ResolveStrategyKeys checks candidate
// keys in: specific before general, per spec.md §9's "Name-to-key
// mapping" note (MACD/EMA crossover before MA crossover, Stochastic RSI
// before plain RSI).
var strategyKeyPriority = []string{
	"ema_crossover",
	"macd",
	"stoch_rsi",
	"ma_crossover",
	"rsi",
	"bollinger",
	"vwap",
	"supertrend",
}

// ResolveStrategyKeys maps external strategy names to the canonical
// registry keys by longest-matching substring over the priority-ordered
// key list, de-duplicating while preserving first occurrence. Matching
// ignores case, spaces, and underscores so a human-readable external
// name like "EMA Crossover Strategy" matches the "ema_crossover" key.
func ResolveStrategyKeys(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		normalized := normalizeStrategyName(name)
		for _, key := range strategyKeyPriority {
			if strings.Contains(normalized, normalizeStrategyName(key)) {
				if !seen[key] {
					seen[key] = true
					out = append(out, key)
				}
				break
			}
		}
	}
	return out
}

func normalizeStrategyName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}
