package backtest

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/montanaflynn/stats"

	"forecastbot/internal/domain"
)

// Report holds the performance statistics of one replay run. A run with an
// empty ledger yields the zero Report, which is a valid terminal outcome and
// not an error.
type Report struct {
	TradeCount   int
	WinRate      float64 // Fraction of trades with a positive return rate
	PNLRatio     float64 // Average gain of winners / average loss magnitude of losers
	MaxReturn    float64 // Best per-trade return rate
	MinReturn    float64 // Worst per-trade return rate
	FinalBalance float64
}

// ComputeReport derives performance statistics from the replay ledger.
//
// Win/loss classification follows the per-trade return rate, while the
// averages behind the P&L ratio are taken over balance deltas, so the ratio
// reflects fee-adjusted currency amounts. The ratio divides by winners only:
// with at least one winner and zero losers it is +Inf, never a division
// fault.
func ComputeReport(ledger []domain.TradeRecord, initialBalance float64) *Report {
	if len(ledger) == 0 {
		return &Report{FinalBalance: initialBalance}
	}

	returns := make([]float64, len(ledger))
	var winCount, loseCount int
	for i, rec := range ledger {
		returns[i] = rec.Return
		switch {
		case rec.Return > 0:
			winCount++
		case rec.Return < 0:
			loseCount++
		}
	}

	prevBalance := initialBalance
	var profitSum, lossSum float64
	for _, rec := range ledger {
		delta := rec.Balance - prevBalance
		if delta > 0 {
			profitSum += delta
		} else if delta < 0 {
			lossSum += delta
		}
		prevBalance = rec.Balance
	}

	var avgProfit, avgLoss float64
	if winCount > 0 {
		avgProfit = profitSum / float64(winCount)
	}
	if loseCount > 0 {
		avgLoss = lossSum / float64(loseCount)
	}
	pnlRatio := math.Inf(1)
	if avgLoss < 0 {
		pnlRatio = avgProfit / -avgLoss
	}

	// Ledger is non-empty, so Max/Min cannot fail.
	maxReturn, _ := stats.Max(returns)
	minReturn, _ := stats.Min(returns)

	return &Report{
		TradeCount:   len(ledger),
		WinRate:      float64(winCount) / float64(len(ledger)),
		PNLRatio:     pnlRatio,
		MaxReturn:    maxReturn,
		MinReturn:    minReturn,
		FinalBalance: ledger[len(ledger)-1].Balance,
	}
}

// IsEmpty reports whether the replay produced no trades.
func (r *Report) IsEmpty() bool { return r.TradeCount == 0 }

// Rows returns the report as ordered label/value pairs.
func (r *Report) Rows() [][2]string {
	return [][2]string{
		{"Number of trades", fmt.Sprintf("%d", r.TradeCount)},
		{"Win rate", fmt.Sprintf("%.1f%%", r.WinRate*100)},
		{"P&L ratio", fmt.Sprintf("%.2f", r.PNLRatio)},
		{"Max profit rate (per trade)", fmt.Sprintf("%.1f%%", r.MaxReturn*100)},
		{"Max loss rate (per trade)", fmt.Sprintf("%.1f%%", r.MinReturn*100)},
		{"Final balance", fmt.Sprintf("%.1f", r.FinalBalance)},
	}
}

// WriteTable renders the report as an aligned two-column table.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.AlignRight)
	for _, row := range r.Rows() {
		fmt.Fprintf(tw, "%s\t%s\t\n", row[0], row[1])
	}
	return tw.Flush()
}
