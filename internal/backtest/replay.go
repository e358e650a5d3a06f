package backtest

import (
	"context"
	"fmt"

	"forecastbot/internal/ports"
)

// Trader is the slice of the orchestrator the replay driver needs: one
// decision cycle per time index.
type Trader interface {
	ExecuteTrade(ctx context.Context, timeIndex int) error
}

// Replay drives the simulator's time cursor, invoking the trader once per
// non-terminal step. It owns the iteration and nothing else; all trading
// logic lives in the trader and all bookkeeping in the simulator. Given the
// same series and configuration, two runs produce identical ledgers.
type Replay struct {
	logger ports.Logger
	sim    *Simulator
	trader Trader
}

// NewReplay creates a replay driver over the given simulator and trader.
func NewReplay(sim *Simulator, trader Trader, logger ports.Logger) (*Replay, error) {
	if sim == nil || trader == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Replay")
	}
	return &Replay{logger: logger, sim: sim, trader: trader}, nil
}

// Run replays the decision cycle over the whole series and returns the
// performance report. A step error aborts the run; the partial ledger stays
// available on the simulator.
func (r *Replay) Run(ctx context.Context) (*Report, error) {
	steps := 0
	for {
		index, ok := r.sim.Advance()
		if !ok {
			break
		}
		if err := r.trader.ExecuteTrade(ctx, index); err != nil {
			return nil, fmt.Errorf("replay aborted at step %d: %w", index, err)
		}
		steps++
	}
	r.logger.Info(ctx, "Replay finished", map[string]interface{}{
		"steps":  steps,
		"trades": len(r.sim.Ledger()),
	})
	return r.sim.Report(), nil
}
