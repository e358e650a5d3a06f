package backtest

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecastbot/internal/domain"
)

func TestComputeReportEmptyLedger(t *testing.T) {
	report := ComputeReport(nil, 1000)
	assert.True(t, report.IsEmpty())
	assert.Zero(t, report.TradeCount)
	assert.Equal(t, 1000.0, report.FinalBalance)
}

func TestComputeReportMixedTrades(t *testing.T) {
	ledger := []domain.TradeRecord{
		{Return: 0.10, Balance: 1100},
		{Return: -0.05, Balance: 1045},
		{Return: 0.02, Balance: 1066},
	}
	report := ComputeReport(ledger, 1000)

	assert.Equal(t, 3, report.TradeCount)
	assert.InDelta(t, 2.0/3.0, report.WinRate, 1e-12)
	assert.Equal(t, 0.10, report.MaxReturn)
	assert.Equal(t, -0.05, report.MinReturn)
	assert.Equal(t, 1066.0, report.FinalBalance)

	// Average winner delta (100+21)/2 over average loser magnitude 55.
	assert.InDelta(t, 60.5/55.0, report.PNLRatio, 1e-9)
}

func TestComputeReportNoLosersYieldsInfiniteRatio(t *testing.T) {
	ledger := []domain.TradeRecord{
		{Return: 0.10, Balance: 1100},
		{Return: 0.05, Balance: 1155},
	}
	report := ComputeReport(ledger, 1000)

	assert.Equal(t, 1.0, report.WinRate)
	assert.True(t, math.IsInf(report.PNLRatio, 1))
}

func TestComputeReportAllLosers(t *testing.T) {
	ledger := []domain.TradeRecord{
		{Return: -0.10, Balance: 900},
		{Return: -0.05, Balance: 855},
	}
	report := ComputeReport(ledger, 1000)

	assert.Zero(t, report.WinRate)
	assert.Zero(t, report.PNLRatio, "no winners means a zero ratio, not NaN")
	assert.Equal(t, -0.05, report.MaxReturn)
	assert.Equal(t, -0.10, report.MinReturn)
}

func TestComputeReportBreakEvenTradeCountsNeither(t *testing.T) {
	ledger := []domain.TradeRecord{
		{Return: 0.0, Balance: 1000},
		{Return: 0.10, Balance: 1100},
	}
	report := ComputeReport(ledger, 1000)

	assert.Equal(t, 2, report.TradeCount)
	assert.InDelta(t, 0.5, report.WinRate, 1e-12, "break-even trades are not wins")
}

func TestReportRowsLabels(t *testing.T) {
	report := ComputeReport([]domain.TradeRecord{{Return: 0.10, Balance: 1100}}, 1000)
	rows := report.Rows()
	require.Len(t, rows, 6)
	assert.Equal(t, "Number of trades", rows[0][0])
	assert.Equal(t, "1", rows[0][1])
	assert.Equal(t, "Win rate", rows[1][0])
	assert.Equal(t, "100.0%", rows[1][1])
	assert.Equal(t, "P&L ratio", rows[2][0])
	assert.Equal(t, "+Inf", rows[2][1])
	assert.Equal(t, "Max profit rate (per trade)", rows[3][0])
	assert.Equal(t, "10.0%", rows[3][1])
	assert.Equal(t, "Max loss rate (per trade)", rows[4][0])
	assert.Equal(t, "10.0%", rows[4][1])
	assert.Equal(t, "Final balance", rows[5][0])
	assert.Equal(t, "1100.0", rows[5][1])
}

func TestWriteTable(t *testing.T) {
	report := ComputeReport([]domain.TradeRecord{
		{Return: 0.10, Balance: 1100},
		{Return: -0.02, Balance: 1078},
	}, 1000)

	var buf bytes.Buffer
	require.NoError(t, report.WriteTable(&buf))

	out := buf.String()
	assert.Contains(t, out, "Number of trades")
	assert.Contains(t, out, "Final balance")
	assert.Contains(t, out, "2")
}
