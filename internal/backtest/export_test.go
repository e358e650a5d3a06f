package backtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"forecastbot/internal/domain"
)

func TestExportLedgerXLSX(t *testing.T) {
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	ledger := []domain.TradeRecord{
		{
			EntryTime:  base,
			CloseTime:  base.Add(time.Hour),
			Side:       domain.Long,
			Amount:     10,
			EntryPrice: 100,
			ClosePrice: 110,
			Return:     0.10,
			Balance:    1100,
		},
	}
	report := ComputeReport(ledger, 1000)

	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	require.NoError(t, ExportLedgerXLSX(ledger, report, path))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 2)

	trades := file.Sheet["Trades"]
	require.NotNil(t, trades)
	require.Len(t, trades.Rows, 2, "header plus one trade")
	assert.Equal(t, "EntryTime", trades.Rows[0].Cells[0].String())
	assert.Equal(t, "long", trades.Rows[1].Cells[2].String())

	summary := file.Sheet["Summary"]
	require.NotNil(t, summary)
	require.Len(t, summary.Rows, 6)
	assert.Equal(t, "Number of trades", summary.Rows[0].Cells[0].String())
	assert.Equal(t, "1", summary.Rows[0].Cells[1].String())
}

func TestExportLedgerXLSXEmptyLedger(t *testing.T) {
	report := ComputeReport(nil, 1000)
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, ExportLedgerXLSX(nil, report, path))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	trades := file.Sheet["Trades"]
	require.NotNil(t, trades)
	assert.Len(t, trades.Rows, 1, "only the header row")
}
