package strategy

import (
	"fmt"
	"math"

	"forecastbot/internal/domain"
)

// Config holds parameters for the threshold strategy.
type Config struct {
	Threshold float64 // Minimum absolute forecast change rate to open (e.g. 0.005)
}

// Threshold opens a position when the forecast price deviates from the
// current price by more than a configured fraction, and closes it when the
// forecast turns against the position or the stop-loss bound is crossed.
//
// Both methods are total over their documented domain: the current price is
// assumed positive since it originates from a live or simulated market.
type Threshold struct {
	cfg Config
}

// New creates a new Threshold strategy instance.
func New(cfg Config) (*Threshold, error) {
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("strategy threshold must be positive, got %v", cfg.Threshold)
	}
	return &Threshold{cfg: cfg}, nil
}

// ShouldOpenPosition compares the relative forecast change against the
// configured threshold. The check is symmetric: an expected move of the same
// magnitude triggers regardless of direction.
func (s *Threshold) ShouldOpenPosition(currentPrice, forecastPrice float64) bool {
	changeRate := (forecastPrice - currentPrice) / currentPrice
	return math.Abs(changeRate) > s.cfg.Threshold
}

// ShouldClosePosition closes a long position once the forecast drops below
// the current price or the price falls below entry*(1-stopLoss); a short
// position mirrors both conditions. The stop-loss is a hard bound evaluated
// every cycle, independent of the forecast signal.
func (s *Threshold) ShouldClosePosition(position *domain.Position, currentPrice, forecastPrice, stopLoss float64) bool {
	entryPrice := position.EntryPrice
	if position.IsLong() {
		return forecastPrice < currentPrice ||
			currentPrice < entryPrice*(1-stopLoss)
	}
	return forecastPrice > currentPrice ||
		currentPrice > entryPrice*(1+stopLoss)
}
