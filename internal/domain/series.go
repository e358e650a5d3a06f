package domain

import (
	"fmt"
	"time"
)

// PriceSeries pairs an ordered historical close-price series with its
// index-aligned forecast series. Both sequences cover the same time range and
// are immutable for a session; the historical side is expected to already
// exclude any warm-up window the forecaster consumed.
type PriceSeries struct {
	Times     []time.Time
	Prices    []float64
	Forecasts []float64
}

// NewPriceSeries validates alignment of the three sequences.
func NewPriceSeries(times []time.Time, prices, forecasts []float64) (*PriceSeries, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("price series is empty")
	}
	if len(prices) != len(times) || len(forecasts) != len(times) {
		return nil, fmt.Errorf("misaligned price series: %d times, %d prices, %d forecasts",
			len(times), len(prices), len(forecasts))
	}
	return &PriceSeries{Times: times, Prices: prices, Forecasts: forecasts}, nil
}

// Len returns the number of time steps in the series.
func (s *PriceSeries) Len() int { return len(s.Times) }

// At returns the historical and forecast price at the given index. A negative
// index counts from the end, so -1 selects the most recent step.
func (s *PriceSeries) At(i int) (price, forecast float64) {
	i = s.normalize(i)
	return s.Prices[i], s.Forecasts[i]
}

// TimeAt returns the timestamp of the given step, with the same negative
// index convention as At.
func (s *PriceSeries) TimeAt(i int) time.Time {
	return s.Times[s.normalize(i)]
}

func (s *PriceSeries) normalize(i int) int {
	if i < 0 {
		i += len(s.Times)
	}
	return i
}
