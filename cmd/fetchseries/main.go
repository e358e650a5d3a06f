package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"forecastbot/config"
	"forecastbot/internal/adapters/binanceclient"
	"forecastbot/internal/adapters/logger"
	"forecastbot/internal/utils"
)

// Fetches historical close prices from Binance and writes them as a
// "time,close" CSV for the external forecasting pipeline. The pipeline
// appends its forecast column to produce the series consumed by the
// replay and live entry points.
func main() {
	interval := flag.String("interval", "1h", "kline interval, e.g. 1m, 1h, 1d")
	days := flag.Int("days", 90, "how many days of history to fetch")
	out := flag.String("out", "", "output CSV path (default data/<symbol>_<interval>.csv)")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 3. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Symbol:     cfg.Symbol,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -*days)
	appLogger.Info(ctx, "Fetching klines", map[string]interface{}{
		"symbol": cfg.Symbol, "interval": *interval, "start": start, "end": end,
	})
	klines, err := binanceClient.GetKlinesRange(ctx, *interval, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"count": len(klines)})

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s.csv", cfg.Symbol, *interval)
	}
	if err := utils.WriteClosesToCSV(klines, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved close series", map[string]interface{}{"filename": filename, "rows": len(klines)})
}
