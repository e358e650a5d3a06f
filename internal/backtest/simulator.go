package backtest

import (
	"context"
	"fmt"

	"forecastbot/internal/domain"
	"forecastbot/internal/ports"
)

// Config holds configuration for the market simulator.
type Config struct {
	InitialBalance float64             // Starting settlement-asset balance
	SymbolInfo     *domain.SymbolInfo  // Instrument metadata, incl. the taker fee
	Series         *domain.PriceSeries // Historical series driving the replay
}

// Simulator implements the ports.Market contract against an in-memory
// historical price series. It fills every submitted order at the caller's
// price, charges the taker fee on notional, advances a time cursor over the
// series, and records every closed round-trip in an append-only ledger.
//
// The simulator keeps its own position mirror rather than sharing the
// trader's, so simulated state never couples to live state. Only two-leg
// cycles are modeled: an order while flat opens, an order while open closes.
type Simulator struct {
	logger     ports.Logger
	symbolInfo *domain.SymbolInfo
	series     *domain.PriceSeries

	initialBalance float64
	balance        float64
	position       domain.Position
	ledger         []domain.TradeRecord
	timeIndex      int
}

// NewSimulator creates a simulator positioned before the first time step.
func NewSimulator(cfg Config, logger ports.Logger) (*Simulator, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for simulator")
	}
	if cfg.SymbolInfo == nil {
		return nil, fmt.Errorf("symbol info is required for simulator")
	}
	if cfg.Series == nil || cfg.Series.Len() == 0 {
		return nil, fmt.Errorf("price series is required for simulator")
	}
	if cfg.InitialBalance <= 0 {
		return nil, fmt.Errorf("configuration InitialBalance must be positive")
	}
	return &Simulator{
		logger:         logger,
		symbolInfo:     cfg.SymbolInfo,
		series:         cfg.Series,
		initialBalance: cfg.InitialBalance,
		balance:        cfg.InitialBalance,
		timeIndex:      -1,
	}, nil
}

// FetchSymbolInfo returns the configured instrument metadata.
func (s *Simulator) FetchSymbolInfo(ctx context.Context) (*domain.SymbolInfo, error) {
	return s.symbolInfo, nil
}

// FetchPosition returns a copy of the simulator's position mirror, or nil
// when flat.
func (s *Simulator) FetchPosition(ctx context.Context) (*domain.Position, error) {
	if s.position.IsNone() {
		return nil, nil
	}
	pos := s.position
	return &pos, nil
}

// FetchAccountBalance returns the simulated settlement-asset balance.
func (s *Simulator) FetchAccountBalance(ctx context.Context) (float64, error) {
	return s.balance, nil
}

// SubmitOrder simulates a fill at the given price. The notional plus taker
// fee is charged against the balance, signed by side. An order submitted
// while flat opens the mirror position; an order submitted while open closes
// it and appends a TradeRecord to the ledger. Fills are timestamped with the
// next unconsumed time step, matching when a live order placed now would
// settle.
func (s *Simulator) SubmitOrder(ctx context.Context, side domain.Side, amount, price float64) (*ports.OrderConfirmation, error) {
	sign := side.Sign()
	notional := amount * price
	s.balance -= sign * notional * (1 + s.symbolInfo.TakerFee)
	fillTime := s.series.TimeAt(s.timeIndex + 1)

	if s.position.IsNone() {
		s.position.Update(side, amount, price, fillTime)
		s.logger.Debug(ctx, "Simulated position opened", map[string]interface{}{
			"side": side, "amount": amount, "price": price, "balance": s.balance,
		})
	} else {
		entryPrice := s.position.EntryPrice
		record := domain.TradeRecord{
			EntryTime:  s.position.EntryTime,
			CloseTime:  fillTime,
			Side:       s.position.Side,
			Amount:     amount,
			EntryPrice: entryPrice,
			ClosePrice: price,
			Return:     -sign * (price - entryPrice) / entryPrice,
			Balance:    s.balance,
		}
		s.ledger = append(s.ledger, record)
		s.position.Close()
		s.logger.Debug(ctx, "Simulated position closed", map[string]interface{}{
			"entryPrice": entryPrice, "closePrice": price, "return": record.Return, "balance": s.balance,
		})
	}

	return &ports.OrderConfirmation{
		Time:   fillTime,
		Side:   side,
		Amount: amount,
		Price:  price,
	}, nil
}

// Advance moves the time cursor forward one step and returns the new index.
// ok is false once the series is exhausted; the simulator is then terminal.
func (s *Simulator) Advance() (index int, ok bool) {
	s.timeIndex++
	if s.timeIndex >= s.series.Len()-1 {
		return 0, false
	}
	return s.timeIndex, true
}

// Ledger returns the closed trades recorded so far, in close order.
func (s *Simulator) Ledger() []domain.TradeRecord { return s.ledger }

// Report computes the performance statistics for the replay so far.
func (s *Simulator) Report() *Report {
	return ComputeReport(s.ledger, s.initialBalance)
}
