package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"forecastbot/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Trading Parameters
	Symbol         string
	SettleAsset    string
	Threshold      float64 // Minimum forecast deviation to open, e.g. 0.01 for 1%
	StopLoss       float64 // Stop loss percentage, e.g. 0.1 for 10%
	Leverage       float64
	MinOrderAmount float64 // Below this base-asset amount orders are skipped

	// Forecast series
	SeriesPath      string // CSV with time,close,forecast columns
	MinRequiredData int    // Minimum rows the series must contain

	// Replay Parameters
	InitialBalance float64
	TakerFee       float64
	PriceStep      float64
	AmountStep     float64
	ExportPath     string // Optional XLSX ledger export, empty disables
	ArchiveDBPath  string // Optional SQLite run archive, empty disables

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API. Keys may stay empty for replay-only use; the live entry
	// point checks them itself.
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	// Trading Parameters
	cfg.Symbol = getEnv("SYMBOL", "ETHUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	cfg.SettleAsset = getEnv("SETTLE_ASSET", "USDT")

	cfg.Threshold, err = getEnvAsFloatRequired("THRESHOLD", 0.01)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid THRESHOLD: %v", err))
	} else if cfg.Threshold <= 0 {
		errs = append(errs, "THRESHOLD must be positive")
	}

	cfg.StopLoss, err = getEnvAsFloatRequired("STOP_LOSS", 0.1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STOP_LOSS: %v", err))
	} else if cfg.StopLoss <= 0 || cfg.StopLoss >= 1.0 {
		errs = append(errs, "STOP_LOSS must be between 0.0 and 1.0 (exclusive)")
	}

	cfg.Leverage, err = getEnvAsFloatRequired("LEVERAGE", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LEVERAGE: %v", err))
	} else if cfg.Leverage <= 0 {
		errs = append(errs, "LEVERAGE must be positive")
	}

	cfg.MinOrderAmount, err = getEnvAsFloatRequired("MIN_ORDER_AMOUNT", 0.01)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_ORDER_AMOUNT: %v", err))
	} else if cfg.MinOrderAmount < 0 {
		errs = append(errs, "MIN_ORDER_AMOUNT cannot be negative")
	}

	// Forecast series
	cfg.SeriesPath = getEnv("SERIES_PATH", "./data/series.csv")
	if cfg.SeriesPath == "" {
		errs = append(errs, "SERIES_PATH must be set")
	}
	cfg.MinRequiredData, err = getEnvAsIntRequired("MIN_REQUIRED_DATA", 2)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_REQUIRED_DATA: %v", err))
	} else if cfg.MinRequiredData < 2 {
		errs = append(errs, "MIN_REQUIRED_DATA must be at least 2")
	}

	// Replay Parameters
	cfg.InitialBalance, err = getEnvAsFloatRequired("INITIAL_BALANCE", 10000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INITIAL_BALANCE: %v", err))
	} else if cfg.InitialBalance <= 0 {
		errs = append(errs, "INITIAL_BALANCE must be positive")
	}

	cfg.TakerFee, err = getEnvAsFloatRequired("TAKER_FEE", 0.0004)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TAKER_FEE: %v", err))
	} else if cfg.TakerFee < 0 || cfg.TakerFee >= 1.0 {
		errs = append(errs, "TAKER_FEE must be in [0.0, 1.0)")
	}

	cfg.PriceStep = getEnvAsFloat("PRICE_STEP", 0.01)
	cfg.AmountStep = getEnvAsFloat("AMOUNT_STEP", 0.001)
	if cfg.PriceStep <= 0 || cfg.AmountStep <= 0 {
		errs = append(errs, "PRICE_STEP and AMOUNT_STEP must be positive")
	}

	cfg.ExportPath = getEnv("EXPORT_PATH", "")
	cfg.ArchiveDBPath = getEnv("ARCHIVE_DB_PATH", "")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
