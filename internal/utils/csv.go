package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"forecastbot/internal/domain"
)

// ReadPriceSeriesFromCSV loads a forecast-annotated price series from a CSV
// file with a "time,close,forecast" header. Timestamps are RFC3339.
func ReadPriceSeriesFromCSV(filename string) (*domain.PriceSeries, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening series file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 3
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading series file %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("series file %s has no data rows", filename)
	}

	rows := records[1:] // skip header
	times := make([]time.Time, 0, len(rows))
	prices := make([]float64, 0, len(rows))
	forecasts := make([]float64, 0, len(rows))
	for i, rec := range rows {
		t, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing time '%s': %w", i+2, rec[0], err)
		}
		price, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing close '%s': %w", i+2, rec[1], err)
		}
		forecast, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing forecast '%s': %w", i+2, rec[2], err)
		}
		times = append(times, t)
		prices = append(prices, price)
		forecasts = append(forecasts, forecast)
	}

	return domain.NewPriceSeries(times, prices, forecasts)
}

// WritePriceSeriesToCSV writes a series back out in the same
// "time,close,forecast" layout ReadPriceSeriesFromCSV accepts.
func WritePriceSeriesToCSV(series *domain.PriceSeries, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"time", "close", "forecast"})
	for i := 0; i < series.Len(); i++ {
		price, forecast := series.At(i)
		writer.Write([]string{
			series.TimeAt(i).Format(time.RFC3339),
			strconv.FormatFloat(price, 'f', -1, 64),
			strconv.FormatFloat(forecast, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// WriteClosesToCSV writes close prices from klines as a "time,close" CSV,
// the input expected by the external forecasting pipeline.
func WriteClosesToCSV(klines []*domain.Kline, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"time", "close"})
	for _, k := range klines {
		writer.Write([]string{
			k.CloseTime.Format(time.RFC3339),
			strconv.FormatFloat(k.Close, 'f', -1, 64),
		})
	}
	return writer.Error()
}
