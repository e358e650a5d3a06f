package ports

import (
	"context"
	"time"

	"forecastbot/internal/domain"
)

// OrderConfirmation represents the essential details returned after an order
// was accepted by the market.
type OrderConfirmation struct {
	Time   time.Time   // Fill or acceptance timestamp
	Side   domain.Side // Order side
	Amount float64     // Quantity in the base asset
	Price  float64     // Limit price
}

// Market defines the market-facing port consumed by the trader. It is
// implemented both by the live exchange adapter and by the in-memory backtest
// simulator; the orchestrator treats the two identically.
type Market interface {
	// FetchSymbolInfo retrieves instrument metadata. Called once per session.
	FetchSymbolInfo(ctx context.Context) (*domain.SymbolInfo, error)

	// FetchPosition returns the currently held position for the instrument,
	// or nil when no position is open.
	FetchPosition(ctx context.Context) (*domain.Position, error)

	// FetchAccountBalance returns the total balance of the settlement asset.
	FetchAccountBalance(ctx context.Context) (float64, error)

	// SubmitOrder places a limit order with the given side, amount and price.
	SubmitOrder(ctx context.Context, side domain.Side, amount, price float64) (*OrderConfirmation, error)
}
