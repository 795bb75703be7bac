package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the trading core.
type Config struct {
	Port string

	// Broker gateway
	BrokerBaseURL string
	BrokerAPIKey  string
	UseMockBroker bool

	// Market data providers
	TwelveDataAPIKey   string
	AlphaVantageAPIKey string
	NewsAPIKey         string
	NewsTTL            time.Duration
	BarWindow          int
	CacheTTL           time.Duration
	CacheDir           string
	UseStreamWarmer    bool
	StreamSymbols      []string

	// Symbols
	ForexMajors  []string
	CryptoAssets []string

	// Position sizing
	LotMin           float64
	LotMax           float64
	LotBase          float64
	LotAdjustPercent float64

	// Stop / target rules
	StopLossPips      float64
	RiskFraction      float64
	RewardMultiple    float64
	StrictInstruments []string

	// Cycle timing
	TradingInterval time.Duration
	HoldDuration    time.Duration

	// Predictor
	PredictorConfigPath string

	// Persistence
	DBPath    string
	StateDir  string
	DataDir   string

	// Telegram
	TelegramBotToken  string
	TelegramChatID    int64
	TelegramChannelID int64

	// Monitor
	MonitorInterval   time.Duration
	MonitorThresholdP float64 // relative P/L change (%) that triggers a report
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	lotMin := getEnvFloat("LOT_MIN", 0.01)
	// All on-disk state defaults to subdirectories of DATA_DIR; each can
	// still be overridden individually.
	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		BrokerBaseURL: getEnv("BROKER_BASE_URL", "http://localhost:5001"),
		BrokerAPIKey:  os.Getenv("BROKER_API_KEY"),
		UseMockBroker: getEnv("USE_MOCK_BROKER", "false") == "true",

		TwelveDataAPIKey:   os.Getenv("TWELVEDATA_API_KEY"),
		AlphaVantageAPIKey: os.Getenv("ALPHAVANTAGE_API_KEY"),
		NewsAPIKey:         os.Getenv("NEWSAPI_KEY"),
		NewsTTL:            getEnvDuration("NEWS_SENTIMENT_TTL", time.Hour),
		BarWindow:          getEnvInt("BAR_WINDOW", 100),
		CacheTTL:           getEnvDuration("BAR_CACHE_TTL", 5*time.Minute),
		CacheDir:           getEnv("BAR_CACHE_DIR", filepath.Join(dataDir, "bar_cache")),
		UseStreamWarmer:    getEnv("USE_STREAM_WARMER", "false") == "true",
		StreamSymbols:      splitAndTrim(getEnv("STREAM_SYMBOLS", "BTCUSDT,ETHUSDT")),

		ForexMajors:  splitAndTrim(getEnv("FOREX_MAJORS", "EURUSD,GBPUSD,USDJPY,AUDUSD,USDCAD,USDCHF,NZDUSD")),
		CryptoAssets: splitAndTrim(getEnv("CRYPTO_ASSETS", "BTCUSDT,ETHUSDT,BNBUSDT,SOLUSDT,ADAUSDT,DOTUSDT,XRPUSDT")),

		LotMin:           lotMin,
		LotMax:           getEnvFloat("LOT_MAX", 0.20),
		LotBase:          getEnvFloat("LOT_BASE", lotMin),
		LotAdjustPercent: getEnvFloat("LOT_ADJUST_PERCENT", 10.0),

		StopLossPips:      getEnvFloat("SL_AMOUNT", 2.0),
		RiskFraction:      getEnvFloat("RISK_FRACTION", 0.01),
		RewardMultiple:    getEnvFloat("REWARD_MULTIPLE", 1.5),
		StrictInstruments: splitAndTrim(getEnv("STRICT_INSTRUMENTS", "USDJPY,XAUUSD")),

		TradingInterval: getEnvDuration("TRADING_INTERVAL", 5*time.Minute),
		HoldDuration:    getEnvDuration("TRADE_HOLD_DURATION", 2*time.Minute),

		PredictorConfigPath: getEnv("PREDICTOR_CONFIG", "./predictors.yaml"),

		DBPath:   getEnv("DB_PATH", filepath.Join(dataDir, "trades.db")),
		StateDir: getEnv("STATE_DIR", filepath.Join(dataDir, "state")),
		DataDir:  dataDir,

		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:    getEnvInt64("TELEGRAM_CHAT_ID", 0),
		TelegramChannelID: getEnvInt64("TELEGRAM_CHANNEL_ID", 0),

		MonitorInterval:   getEnvDuration("MONITOR_INTERVAL", 30*time.Second),
		MonitorThresholdP: getEnvFloat("MONITOR_THRESHOLD_PCT", 0.01),
	}

	return cfg, nil
}

// TodaySymbols returns the tradable set for the given weekday:
// forex on weekdays, crypto on weekends (forex markets are closed).
func (c *Config) TodaySymbols(now time.Time) []string {
	wd := now.UTC().Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return c.CryptoAssets
	}
	return c.ForexMajors
}

// IsStrict reports whether the broker minimum stop distance is authoritative
// for the given logical symbol.
func (c *Config) IsStrict(symbol string) bool {
	for _, s := range c.StrictInstruments {
		if strings.EqualFold(s, symbol) {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		// Tolerate inline comments in .env values ("0.20 # max lot").
		v = strings.TrimSpace(strings.SplitN(v, "#", 2)[0])
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
