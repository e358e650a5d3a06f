package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"forecastbot/config"
	"forecastbot/internal/adapters/logger"
	"forecastbot/internal/adapters/sqlite"
	"forecastbot/internal/backtest"
	"forecastbot/internal/domain"
	"forecastbot/internal/strategy"
	"forecastbot/internal/trader"
	"forecastbot/internal/utils"
)

// Replays the trading strategy over a recorded forecast-annotated price
// series and prints a performance report. Optionally exports the trade
// ledger to XLSX and archives the run in SQLite.
func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 3. Load the recorded series
	series, err := utils.ReadPriceSeriesFromCSV(cfg.SeriesPath)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to load price series")
		log.Fatalf("FATAL: Failed to load price series: %v", err)
	}
	if series.Len() < cfg.MinRequiredData {
		log.Fatalf("FATAL: price series has %d rows, need at least %d", series.Len(), cfg.MinRequiredData)
	}
	appLogger.Info(ctx, "Price series loaded", map[string]interface{}{
		"path": cfg.SeriesPath, "steps": series.Len(),
	})

	// 4. Build the simulated market. Instrument metadata comes from config
	// rather than the live exchange so replays are reproducible offline.
	symbolInfo := &domain.SymbolInfo{
		ID:         cfg.Symbol,
		Settle:     cfg.SettleAsset,
		PriceStep:  cfg.PriceStep,
		AmountStep: cfg.AmountStep,
		TakerFee:   cfg.TakerFee,
	}
	sim, err := backtest.NewSimulator(backtest.Config{
		InitialBalance: cfg.InitialBalance,
		SymbolInfo:     symbolInfo,
		Series:         series,
	}, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize simulator: %v", err)
	}

	// 5. Strategy and trader wired against the simulator
	strat, err := strategy.New(strategy.Config{Threshold: cfg.Threshold})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize strategy: %v", err)
	}
	bot, err := trader.New(trader.Config{
		StopLoss:       cfg.StopLoss,
		Leverage:       cfg.Leverage,
		MinOrderAmount: cfg.MinOrderAmount,
	}, appLogger, sim, strat, symbolInfo, series)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trader: %v", err)
	}

	// 6. Run the replay
	replay, err := backtest.NewReplay(sim, bot, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize replay: %v", err)
	}
	report, err := replay.Run(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Replay failed")
		log.Fatalf("FATAL: replay failed: %v", err)
	}

	// 7. Print the report
	if report.IsEmpty() {
		fmt.Println("No transaction occurred.")
	} else {
		if err := report.WriteTable(os.Stdout); err != nil {
			log.Fatalf("FATAL: failed to render report: %v", err)
		}
	}

	// 8. Optional XLSX ledger export
	if cfg.ExportPath != "" {
		if err := backtest.ExportLedgerXLSX(sim.Ledger(), report, cfg.ExportPath); err != nil {
			appLogger.Error(ctx, err, "Failed to export ledger", map[string]interface{}{"path": cfg.ExportPath})
			os.Exit(1)
		}
		appLogger.Info(ctx, "Ledger exported", map[string]interface{}{"path": cfg.ExportPath})
	}

	// 9. Optional SQLite run archive
	if cfg.ArchiveDBPath != "" {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.ArchiveDBPath, Logger: appLogger})
		if err != nil {
			appLogger.Error(ctx, err, "Failed to open run archive", map[string]interface{}{"path": cfg.ArchiveDBPath})
			os.Exit(1)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				appLogger.Error(ctx, err, "Error closing run archive")
			}
		}()
		runID, err := repo.SaveRun(ctx, cfg.Symbol, cfg.InitialBalance, report.FinalBalance, sim.Ledger())
		if err != nil {
			appLogger.Error(ctx, err, "Failed to archive replay run")
			os.Exit(1)
		}
		appLogger.Info(ctx, "Replay run archived", map[string]interface{}{"runID": runID})
	}
}
