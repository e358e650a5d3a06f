package trader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecastbot/internal/domain"
	"forecastbot/internal/ports"
)

// Mock implementations

type mockLogger struct {
	warnMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockMarket struct {
	symbolInfo  *domain.SymbolInfo
	position    *domain.Position
	positionErr error
	balance     float64
	balanceErr  error

	submittedSide   domain.Side
	submittedAmount float64
	submittedPrice  float64
	submitCalls     int
	submitErr       error
}

func (m *mockMarket) FetchSymbolInfo(ctx context.Context) (*domain.SymbolInfo, error) {
	return m.symbolInfo, nil
}

func (m *mockMarket) FetchPosition(ctx context.Context) (*domain.Position, error) {
	return m.position, m.positionErr
}

func (m *mockMarket) FetchAccountBalance(ctx context.Context) (float64, error) {
	return m.balance, m.balanceErr
}

func (m *mockMarket) SubmitOrder(ctx context.Context, side domain.Side, amount, price float64) (*ports.OrderConfirmation, error) {
	m.submitCalls++
	m.submittedSide = side
	m.submittedAmount = amount
	m.submittedPrice = price
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return &ports.OrderConfirmation{Time: time.Now(), Side: side, Amount: amount, Price: price}, nil
}

type mockStrategy struct {
	shouldOpen  bool
	shouldClose bool
}

func (m *mockStrategy) ShouldOpenPosition(currentPrice, forecastPrice float64) bool {
	return m.shouldOpen
}

func (m *mockStrategy) ShouldClosePosition(position *domain.Position, currentPrice, forecastPrice, stopLoss float64) bool {
	return m.shouldClose
}

// Helpers

func testSymbolInfo() *domain.SymbolInfo {
	return &domain.SymbolInfo{
		ID:         "ETHUSDT",
		Base:       "ETH",
		Quote:      "USDT",
		Settle:     "USDT",
		PriceStep:  0.01,
		AmountStep: 0.001,
		TakerFee:   0.0004,
	}
}

func testSeries(t *testing.T, prices, forecasts []float64) *domain.PriceSeries {
	t.Helper()
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(prices))
	for i := range times {
		times[i] = base.Add(time.Duration(i) * time.Hour)
	}
	s, err := domain.NewPriceSeries(times, prices, forecasts)
	require.NoError(t, err)
	return s
}

func newTestTrader(t *testing.T, market *mockMarket, strat *mockStrategy, series *domain.PriceSeries) (*Trader, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	bot, err := New(Config{
		StopLoss:       0.1,
		Leverage:       1.0,
		MinOrderAmount: 0.01,
	}, logger, market, strat, testSymbolInfo(), series)
	require.NoError(t, err)
	return bot, logger
}

// Tests

func TestNewValidation(t *testing.T) {
	market := &mockMarket{}
	strat := &mockStrategy{}
	series := testSeries(t, []float64{100}, []float64{101})
	logger := &mockLogger{}
	info := testSymbolInfo()

	valid := Config{StopLoss: 0.1, Leverage: 1, MinOrderAmount: 0.01}

	_, err := New(valid, nil, market, strat, info, series)
	assert.Error(t, err, "nil logger")

	_, err = New(valid, logger, nil, strat, info, series)
	assert.Error(t, err, "nil market")

	_, err = New(valid, logger, market, nil, info, series)
	assert.Error(t, err, "nil strategy")

	_, err = New(valid, logger, market, strat, nil, series)
	assert.Error(t, err, "nil symbol info")

	_, err = New(valid, logger, market, strat, info, nil)
	assert.Error(t, err, "nil series")

	_, err = New(Config{StopLoss: 0, Leverage: 1}, logger, market, strat, info, series)
	assert.Error(t, err, "zero stop loss")

	_, err = New(Config{StopLoss: 1, Leverage: 1}, logger, market, strat, info, series)
	assert.Error(t, err, "stop loss of one")

	_, err = New(Config{StopLoss: 0.1, Leverage: 0}, logger, market, strat, info, series)
	assert.Error(t, err, "zero leverage")

	_, err = New(Config{StopLoss: 0.1, Leverage: 1, MinOrderAmount: -1}, logger, market, strat, info, series)
	assert.Error(t, err, "negative min order amount")

	_, err = New(valid, logger, market, strat, info, series)
	assert.NoError(t, err)
}

func TestExecuteTradeOpensLongOnUpwardForecast(t *testing.T) {
	market := &mockMarket{balance: 1000}
	strat := &mockStrategy{shouldOpen: true}
	series := testSeries(t, []float64{100}, []float64{105})
	bot, _ := newTestTrader(t, market, strat, series)

	err := bot.ExecuteTrade(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, market.submitCalls)
	assert.Equal(t, domain.Long, market.submittedSide)
	assert.Equal(t, 100.0, market.submittedPrice)
	// balance*leverage/price = 1000/100 = 10, exact on the 0.001 step
	assert.Equal(t, 10.0, market.submittedAmount)
}

func TestExecuteTradeOpensShortOnDownwardForecast(t *testing.T) {
	market := &mockMarket{balance: 1000}
	strat := &mockStrategy{shouldOpen: true}
	series := testSeries(t, []float64{100}, []float64{95})
	bot, _ := newTestTrader(t, market, strat, series)

	err := bot.ExecuteTrade(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.Short, market.submittedSide)
}

func TestExecuteTradeNoSignalNoOrder(t *testing.T) {
	market := &mockMarket{balance: 1000}
	strat := &mockStrategy{shouldOpen: false}
	series := testSeries(t, []float64{100}, []float64{100.1})
	bot, _ := newTestTrader(t, market, strat, series)

	err := bot.ExecuteTrade(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, market.submitCalls)
}

func TestExecuteTradeSizesToAmountStep(t *testing.T) {
	market := &mockMarket{balance: 1000}
	strat := &mockStrategy{shouldOpen: true}
	series := testSeries(t, []float64{357}, []float64{400})
	bot, _ := newTestTrader(t, market, strat, series)

	err := bot.ExecuteTrade(context.Background(), 0)
	require.NoError(t, err)
	// 1000/357 = 2.80112... rounded to the 0.001 step
	assert.Equal(t, 2.801, market.submittedAmount)
}

func TestExecuteTradeSkipsBelowMinOrderAmount(t *testing.T) {
	// 0.5/100 sizes to 0.005, below the 0.01 floor.
	market := &mockMarket{balance: 0.5}
	strat := &mockStrategy{shouldOpen: true}
	series := testSeries(t, []float64{100}, []float64{105})
	bot, logger := newTestTrader(t, market, strat, series)

	err := bot.ExecuteTrade(context.Background(), 0)
	require.NoError(t, err, "an undersized order is skipped, not an error")
	assert.Zero(t, market.submitCalls)
	assert.Contains(t, logger.warnMsgs, "Not enough balance to open position")
}

func TestExecuteTradeClosesWithInverseOrder(t *testing.T) {
	market := &mockMarket{
		position: &domain.Position{Side: domain.Long, Amount: 2.5, EntryPrice: 100},
	}
	strat := &mockStrategy{shouldClose: true}
	series := testSeries(t, []float64{110}, []float64{108})
	bot, _ := newTestTrader(t, market, strat, series)

	err := bot.ExecuteTrade(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, market.submitCalls)
	assert.Equal(t, domain.Short, market.submittedSide)
	assert.Equal(t, 2.5, market.submittedAmount)
	assert.Equal(t, 110.0, market.submittedPrice)
}

func TestExecuteTradeHoldsOpenPosition(t *testing.T) {
	market := &mockMarket{
		position: &domain.Position{Side: domain.Short, Amount: 1, EntryPrice: 100},
	}
	strat := &mockStrategy{shouldOpen: true, shouldClose: false}
	series := testSeries(t, []float64{95}, []float64{90})
	bot, _ := newTestTrader(t, market, strat, series)

	err := bot.ExecuteTrade(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, market.submitCalls, "an open position must never trigger an opening order")
}

func TestExecuteTradeRefreshOverwritesLocalState(t *testing.T) {
	market := &mockMarket{
		position: &domain.Position{Side: domain.Short, Amount: 3, EntryPrice: 120},
	}
	strat := &mockStrategy{shouldClose: true}
	series := testSeries(t, []float64{110}, []float64{115})
	bot, _ := newTestTrader(t, market, strat, series)

	// First cycle closes the short reported by the market.
	require.NoError(t, bot.ExecuteTrade(context.Background(), 0))
	assert.Equal(t, domain.Long, market.submittedSide)
	assert.Equal(t, 3.0, market.submittedAmount)

	// The market now reports flat; the local position must reset even though
	// no close confirmation was processed locally.
	market.position = nil
	strat.shouldClose = false
	strat.shouldOpen = false
	require.NoError(t, bot.ExecuteTrade(context.Background(), 0))
	assert.Equal(t, 1, market.submitCalls, "no further orders once flat with no signal")
}

func TestExecuteTradePropagatesMarketErrors(t *testing.T) {
	fetchErr := errors.New("exchange down")

	t.Run("position fetch", func(t *testing.T) {
		market := &mockMarket{positionErr: fetchErr}
		bot, _ := newTestTrader(t, market, &mockStrategy{}, testSeries(t, []float64{100}, []float64{105}))
		err := bot.ExecuteTrade(context.Background(), 0)
		assert.ErrorIs(t, err, fetchErr)
	})

	t.Run("balance fetch", func(t *testing.T) {
		market := &mockMarket{balanceErr: fetchErr}
		bot, _ := newTestTrader(t, market, &mockStrategy{shouldOpen: true}, testSeries(t, []float64{100}, []float64{105}))
		err := bot.ExecuteTrade(context.Background(), 0)
		assert.ErrorIs(t, err, fetchErr)
	})

	t.Run("order submission", func(t *testing.T) {
		market := &mockMarket{balance: 1000, submitErr: fetchErr}
		bot, _ := newTestTrader(t, market, &mockStrategy{shouldOpen: true}, testSeries(t, []float64{100}, []float64{105}))
		err := bot.ExecuteTrade(context.Background(), 0)
		assert.ErrorIs(t, err, fetchErr)
	})
}

func TestExecuteTradeLatestIndex(t *testing.T) {
	market := &mockMarket{balance: 1000}
	strat := &mockStrategy{shouldOpen: true}
	series := testSeries(t, []float64{100, 200}, []float64{101, 210})
	bot, _ := newTestTrader(t, market, strat, series)

	err := bot.ExecuteTrade(context.Background(), Latest)
	require.NoError(t, err)
	assert.Equal(t, 200.0, market.submittedPrice, "Latest must select the final step")
}

func TestRoundToStep(t *testing.T) {
	tests := []struct {
		amount float64
		step   float64
		want   float64
	}{
		{amount: 2.80112, step: 0.001, want: 2.801},
		{amount: 2.8015, step: 0.001, want: 2.802},
		{amount: 10.0, step: 0.001, want: 10.0},
		{amount: 0.0004, step: 0.001, want: 0.0},
		{amount: 7.3, step: 1.0, want: 7.0},
		{amount: 7.3, step: 0, want: 7.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundToStep(tt.amount, tt.step), "roundToStep(%v, %v)", tt.amount, tt.step)
	}
}
