package ports

import "forecastbot/internal/domain"

// Strategy defines the interface for trading decision rules. Implementations
// must be pure: the same inputs always yield the same decision.
type Strategy interface {
	// ShouldOpenPosition reports whether the forecast move away from the
	// current price is strong enough to enter a position. The direction of
	// the eventual position is decided by the caller.
	ShouldOpenPosition(currentPrice, forecastPrice float64) bool

	// ShouldClosePosition reports whether the open position should be closed,
	// either because the forecast turned against it or because the price
	// crossed the stop-loss bound derived from the entry price.
	ShouldClosePosition(position *domain.Position, currentPrice, forecastPrice, stopLoss float64) bool
}
