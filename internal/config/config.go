package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantgale/premia/types"
)

// Config holds all engine configuration.
type Config struct {
	// Account
	Currency string

	// History depth
	HistoricalYears int
	HistoricalDays  int

	// Analytics
	MarketBenchmark   string
	StdevWindow       int
	BetaWindow        int
	CorrelationWindow int
	PriceWindow       int
	IVWindow          int
	RSIWindow         int
	FastSMAWindow     int
	SlowSMAWindow     int
	VerySlowSMAWindow int

	// Option-chain filters
	DTEMin         int
	DTEMax         int
	Expirations    []time.Time
	PriceBandWidth float64 // ± distance from the underlying, in percent

	// Risk
	PreservedCashFactor decimal.Decimal
	MaximumRiskFactor   decimal.Decimal
	TakeProfitFactor    float64
	StopLossFactor      float64

	// Loop
	SleepLoop time.Duration

	// Broker gateway
	GatewayURL string

	// Paths & persistence
	DataDir     string
	StrategyDir string
	JournalDSN  string

	// Mode
	Debug bool

	// Watch list
	WatchList []types.AssetDef
}

// Load reads configuration from environment variables, falling back to the
// engine defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Currency: getEnv("CURRENCY", "USD"),

		HistoricalYears: getEnvInt("HISTORICAL_YEARS", 1),

		MarketBenchmark:   getEnv("MARKET_BENCHMARK", "SPY"),
		StdevWindow:       getEnvInt("STDEV_WINDOW", 22),
		BetaWindow:        getEnvInt("BETA_WINDOW", 252),
		CorrelationWindow: getEnvInt("CORRELATION_WINDOW", 252),
		PriceWindow:       getEnvInt("PRICE_WINDOW", 22),
		IVWindow:          getEnvInt("IV_WINDOW", 22),
		RSIWindow:         getEnvInt("RSI_WINDOW", 14),
		FastSMAWindow:     getEnvInt("FAST_SMA_WINDOW", 20),
		SlowSMAWindow:     getEnvInt("SLOW_SMA_WINDOW", 50),
		VerySlowSMAWindow: getEnvInt("VERY_SLOW_SMA_WINDOW", 200),

		DTEMin:         getEnvInt("DTE_MIN", 0),
		DTEMax:         getEnvInt("DTE_MAX", 50),
		PriceBandWidth: getEnvFloat("PRICE_BAND_WIDTH", 10),

		PreservedCashFactor: getEnvDecimal("PRESERVED_CASH_FACTOR", decimal.NewFromFloat(0.4)),
		MaximumRiskFactor:   getEnvDecimal("MAXIMUM_RISK_FACTOR", decimal.NewFromFloat(0.05)),
		TakeProfitFactor:    getEnvFloat("TAKE_PROFIT_FACTOR", 0.5),
		StopLossFactor:      getEnvFloat("STOP_LOSS_FACTOR", 2.0),

		SleepLoop: getEnvDuration("SLEEP_LOOP", 20*time.Second),

		GatewayURL: getEnv("GATEWAY_URL", "ws://127.0.0.1:4002/api"),

		DataDir:     getEnv("DATA_DIR", "data"),
		StrategyDir: getEnv("STRATEGY_DIR", "strategy"),
		JournalDSN:  getEnv("JOURNAL_DSN", ""),

		Debug: getEnvBool("DEBUG", false),
	}

	cfg.HistoricalDays = types.TradingDaysPerYear * cfg.HistoricalYears

	var err error
	cfg.Expirations, err = parseDateList(os.Getenv("EXPIRATIONS"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPIRATIONS: %w", err)
	}

	cfg.WatchList, err = parseWatchList(getEnv("WATCH_LIST", "SPY:ETF"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH_LIST: %w", err)
	}

	return cfg, nil
}

// parseWatchList reads "CODE:TYPE[@EXCHANGE]" entries separated by commas,
// e.g. "SPY:ETF,EEM:ETF,TRIN-NYSE:IND@NYSE".
func parseWatchList(raw string) ([]types.AssetDef, error) {
	var defs []types.AssetDef
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("entry %q is not CODE:TYPE", entry)
		}
		def := types.AssetDef{Code: parts[0]}
		typePart := parts[1]
		if at := strings.SplitN(typePart, "@", 2); len(at) == 2 {
			typePart = at[0]
			def.Exchange = at[1]
		}
		def.Type = types.AssetType(typePart)
		switch def.Type {
		case types.AssetStock, types.AssetETF, types.AssetIndex:
		default:
			return nil, fmt.Errorf("entry %q: unsupported watch-list type %q", entry, typePart)
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("watch list is empty")
	}
	return defs, nil
}

// parseDateList reads comma-separated YYYY-MM-DD dates. An empty value
// means no explicit expiration allow-list.
func parseDateList(raw string) ([]time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	var dates []time.Time
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
