package backtest

import (
	"fmt"
	"time"

	"github.com/tealeg/xlsx"

	"forecastbot/internal/domain"
)

// ExportLedgerXLSX writes the replay ledger to a spreadsheet: one "Trades"
// sheet with a row per closed round-trip and a "Summary" sheet holding the
// report statistics. Return rates carry a percentage format so the file is
// readable without post-processing.
func ExportLedgerXLSX(ledger []domain.TradeRecord, report *Report, path string) error {
	file := xlsx.NewFile()

	tradeSheet, err := file.AddSheet("Trades")
	if err != nil {
		return fmt.Errorf("failed to add trades sheet: %w", err)
	}
	header := tradeSheet.AddRow()
	for _, label := range []string{
		"EntryTime", "CloseTime", "Side", "Amount",
		"EntryPrice", "ClosePrice", "Return", "Balance",
	} {
		header.AddCell().SetString(label)
	}
	for _, rec := range ledger {
		row := tradeSheet.AddRow()
		row.AddCell().SetString(rec.EntryTime.Format(time.RFC3339))
		row.AddCell().SetString(rec.CloseTime.Format(time.RFC3339))
		row.AddCell().SetString(rec.Side.String())
		row.AddCell().SetFloat(rec.Amount)
		row.AddCell().SetFloat(rec.EntryPrice)
		row.AddCell().SetFloat(rec.ClosePrice)
		row.AddCell().SetFloatWithFormat(rec.Return, "0.0%")
		row.AddCell().SetFloatWithFormat(rec.Balance, "0.0")
	}

	summarySheet, err := file.AddSheet("Summary")
	if err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	for _, stat := range report.Rows() {
		row := summarySheet.AddRow()
		row.AddCell().SetString(stat[0])
		row.AddCell().SetString(stat[1])
	}

	if err := file.Save(path); err != nil {
		return fmt.Errorf("failed to save ledger export to %s: %w", path, err)
	}
	return nil
}
