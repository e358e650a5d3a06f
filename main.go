package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"time"

	"forecastbot/config"
	"forecastbot/internal/adapters/binanceclient"
	"forecastbot/internal/adapters/logger"
	"forecastbot/internal/strategy"
	"forecastbot/internal/trader"
	"forecastbot/internal/utils"
)

// Runs a single trading decision cycle against the live exchange: load the
// latest forecast-annotated price series, refresh the position, and open or
// close according to the strategy. Scheduling (cron, lambda, systemd timer)
// is left to the environment.
func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		log.Fatalf("FATAL: BINANCE_API_KEY and BINANCE_API_SECRET must be set for live trading")
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Load the forecast-annotated price series
	series, err := utils.ReadPriceSeriesFromCSV(cfg.SeriesPath)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to load price series")
		log.Fatalf("FATAL: Failed to load price series: %v", err)
	}
	if series.Len() < cfg.MinRequiredData {
		appLogger.Error(ctx, nil, "FATAL: Not enough data in price series", map[string]interface{}{
			"have": series.Len(), "need": cfg.MinRequiredData,
		})
		log.Fatalf("FATAL: price series has %d rows, need at least %d", series.Len(), cfg.MinRequiredData)
	}

	// 4. Initialize Exchange Client (Binance Adapter)
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
	symbolInfo, err := binanceClient.FetchSymbolInfo(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to fetch symbol info")
		log.Fatalf("FATAL: Failed to fetch symbol info: %v", err)
	}

	// 5. Initialize Strategy
	strat, err := strategy.New(strategy.Config{Threshold: cfg.Threshold})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize strategy")
		log.Fatalf("FATAL: Failed to initialize strategy: %v", err)
	}

	// 6. Initialize Trader and run one cycle on the latest step
	bot, err := trader.New(trader.Config{
		StopLoss:       cfg.StopLoss,
		Leverage:       cfg.Leverage,
		MinOrderAmount: cfg.MinOrderAmount,
	}, appLogger, binanceClient, strat, symbolInfo, series)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trader")
		log.Fatalf("FATAL: Failed to initialize trader: %v", err)
	}

	if err := bot.ExecuteTrade(ctx, trader.Latest); err != nil {
		appLogger.Error(ctx, err, "Trade cycle failed")
		log.Fatalf("FATAL: trade cycle failed: %v", err)
	}
	appLogger.Info(ctx, "Trade cycle completed")
}
