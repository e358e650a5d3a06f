package trader

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"forecastbot/internal/domain"
	"forecastbot/internal/ports"
)

// Latest selects the most recent step of the price series.
const Latest = -1

// Config holds the trade parameters consumed by the orchestrator.
type Config struct {
	StopLoss       float64 // Stop loss fraction (e.g. 0.02 for 2%)
	Leverage       float64 // Balance multiplier used for position sizing
	MinOrderAmount float64 // Smallest order amount worth submitting
}

// Trader executes one trading decision cycle at a time: refresh the position
// from the market, compare the current and forecast price, and delegate the
// open/close decision to the strategy. It works identically against a live
// market adapter and the backtest simulator.
type Trader struct {
	cfg        Config
	logger     ports.Logger
	market     ports.Market
	strategy   ports.Strategy
	symbolInfo *domain.SymbolInfo
	series     *domain.PriceSeries
	position   *domain.Position
}

// New creates a new Trader instance.
func New(
	cfg Config,
	logger ports.Logger,
	market ports.Market,
	strat ports.Strategy,
	symbolInfo *domain.SymbolInfo,
	series *domain.PriceSeries,
) (*Trader, error) {
	if logger == nil || market == nil || strat == nil {
		return nil, fmt.Errorf("missing required dependencies for Trader")
	}
	if symbolInfo == nil {
		return nil, fmt.Errorf("symbol info is required")
	}
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("price series is required")
	}
	if cfg.StopLoss <= 0 || cfg.StopLoss >= 1 {
		return nil, fmt.Errorf("configuration StopLoss must be between 0 and 1")
	}
	if cfg.Leverage <= 0 {
		return nil, fmt.Errorf("configuration Leverage must be positive")
	}
	if cfg.MinOrderAmount < 0 {
		return nil, fmt.Errorf("configuration MinOrderAmount cannot be negative")
	}
	return &Trader{
		cfg:        cfg,
		logger:     logger,
		market:     market,
		strategy:   strat,
		symbolInfo: symbolInfo,
		series:     series,
		position:   &domain.Position{},
	}, nil
}

// ExecuteTrade runs a single decision cycle at the given time index of the
// aligned historical/forecast series (Latest for the most recent step). Each
// cycle results in at most one order submission. Errors from the market port
// propagate to the caller; retry policy belongs to whoever schedules cycles.
func (t *Trader) ExecuteTrade(ctx context.Context, timeIndex int) error {
	if err := t.refreshPosition(ctx); err != nil {
		return err
	}

	currentPrice, forecastPrice := t.series.At(timeIndex)
	t.logger.Info(ctx, "Evaluating prices", map[string]interface{}{
		"symbol":        t.symbolInfo.ID,
		"currentPrice":  currentPrice,
		"forecastPrice": forecastPrice,
	})

	if t.position.IsNone() {
		return t.openPositionIf(ctx, currentPrice, forecastPrice)
	}
	return t.closePositionIf(ctx, currentPrice, forecastPrice)
}

// refreshPosition overwrites the local position with the market's view.
// A live exchange may report the position gone (e.g. liquidated), so a nil
// result unconditionally resets to flat.
func (t *Trader) refreshPosition(ctx context.Context) error {
	pos, err := t.market.FetchPosition(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh position: %w", err)
	}
	if pos == nil {
		t.position.Close()
		t.logger.Info(ctx, "No active position", map[string]interface{}{"symbol": t.symbolInfo.ID})
		return nil
	}
	t.position.Update(pos.Side, pos.Amount, pos.EntryPrice, pos.EntryTime)
	t.logger.Info(ctx, "Current position", map[string]interface{}{
		"symbol":     t.symbolInfo.ID,
		"side":       pos.Side,
		"amount":     pos.Amount,
		"entryPrice": pos.EntryPrice,
	})
	return nil
}

func (t *Trader) openPositionIf(ctx context.Context, currentPrice, forecastPrice float64) error {
	if !t.strategy.ShouldOpenPosition(currentPrice, forecastPrice) {
		t.logger.Debug(ctx, "Conditions not met to open position")
		return nil
	}
	side := domain.Short
	if currentPrice < forecastPrice {
		side = domain.Long
	}
	t.logger.Info(ctx, "Conditions met to open position", map[string]interface{}{"side": side})
	return t.openPosition(ctx, side, currentPrice)
}

func (t *Trader) openPosition(ctx context.Context, side domain.Side, currentPrice float64) error {
	balance, err := t.market.FetchAccountBalance(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch account balance: %w", err)
	}
	amount := roundToStep((balance*t.cfg.Leverage)/currentPrice, t.symbolInfo.AmountStep)
	if amount < t.cfg.MinOrderAmount {
		// Not an error: sized below the order floor means we simply sit out.
		t.logger.Warn(ctx, "Not enough balance to open position", map[string]interface{}{
			"balance":        balance,
			"amount":         amount,
			"minOrderAmount": t.cfg.MinOrderAmount,
		})
		return nil
	}
	if _, err := t.market.SubmitOrder(ctx, side, amount, currentPrice); err != nil {
		return fmt.Errorf("failed to submit opening order: %w", err)
	}
	return nil
}

func (t *Trader) closePositionIf(ctx context.Context, currentPrice, forecastPrice float64) error {
	t.logger.Debug(ctx, "Evaluating whether to close position", map[string]interface{}{"side": t.position.Side})
	if !t.strategy.ShouldClosePosition(t.position, currentPrice, forecastPrice, t.cfg.StopLoss) {
		t.logger.Debug(ctx, "Conditions not met to close position")
		return nil
	}
	t.logger.Info(ctx, "Conditions met to close position", map[string]interface{}{"side": t.position.Side})
	if _, err := t.market.SubmitOrder(ctx, t.position.Inverse(), t.position.Amount, currentPrice); err != nil {
		return fmt.Errorf("failed to submit closing order: %w", err)
	}
	return nil
}

// roundToStep quantizes an order amount to the instrument's amount step size.
func roundToStep(amount, step float64) float64 {
	if step <= 0 {
		return amount
	}
	quantized, _ := decimal.NewFromFloat(amount).
		Div(decimal.NewFromFloat(step)).
		Round(0).
		Mul(decimal.NewFromFloat(step)).
		Float64()
	return quantized
}
