package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"forecastbot/internal/domain"
	"forecastbot/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

const (
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Client implements the ports.Market interface for a single futures symbol
// using the go-binance library.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	symbol        string

	// Cached metadata from the last FetchSymbolInfo call, used to format
	// order quantities and prices to the instrument's step sizes.
	symbolInfo *domain.SymbolInfo
}

// Config holds configuration specific to the Binance adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Symbol     string // Futures symbol, e.g. "ETHUSDT"
	Logger     ports.Logger
}

// New creates a new Binance market adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
	} else {
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{
		"baseURL": client.BaseURL, "symbol": cfg.Symbol,
	})

	return &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		symbol:        cfg.Symbol,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Invalid signature
			mappedErr = ports.ErrAuthenticationFailed
		case -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130:
			mappedErr = ports.ErrInvalidRequest
		case -2010: // New order rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -2013: // Order does not exist
			mappedErr = ports.ErrOrderNotFound
		case -2014: // API-key format invalid
			mappedErr = ports.ErrInvalidAPIKeys
		case -2015: // Invalid API-key, IP, or permissions
			mappedErr = ports.ErrInvalidAPIKeys
		case -2019, -3005, -3041: // Margin / balance insufficient
			mappedErr = ports.ErrInsufficientFunds
		case -4003, -4014, -4015: // Qty/price/leverage out of permissible range
			mappedErr = ports.ErrInvalidRequest
		case -4044: // Position not found
			mappedErr = ports.ErrPositionNotFound
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case strings.Contains(err.Error(), "use of closed network connection"),
		strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// FetchSymbolInfo retrieves instrument metadata for the configured symbol,
// combining exchange info (assets, step sizes) with the account's taker
// commission rate.
func (c *Client) FetchSymbolInfo(ctx context.Context) (*domain.SymbolInfo, error) {
	op := "FetchSymbolInfo"

	exchangeInfo, err := c.futuresClient.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	var symbol *futures.Symbol
	for i := range exchangeInfo.Symbols {
		if exchangeInfo.Symbols[i].Symbol == c.symbol {
			symbol = &exchangeInfo.Symbols[i]
			break
		}
	}
	if symbol == nil {
		err := fmt.Errorf("symbol %s: %w", c.symbol, ports.ErrSymbolNotFound)
		c.logger.Error(ctx, err, op+" failed")
		return nil, err
	}

	var priceStep, amountStep float64
	if pf := symbol.PriceFilter(); pf != nil {
		priceStep, err = strconv.ParseFloat(pf.TickSize, 64)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("could not parse tick size '%s': %w", pf.TickSize, err), op)
		}
	}
	if lf := symbol.LotSizeFilter(); lf != nil {
		amountStep, err = strconv.ParseFloat(lf.StepSize, 64)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("could not parse step size '%s': %w", lf.StepSize, err), op)
		}
	}

	commission, err := c.futuresClient.NewCommissionRateService().Symbol(c.symbol).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	takerFee, err := strconv.ParseFloat(commission.TakerCommissionRate, 64)
	if err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("could not parse taker rate '%s': %w", commission.TakerCommissionRate, err), op)
	}

	info := &domain.SymbolInfo{
		ID:         symbol.Symbol,
		Base:       symbol.BaseAsset,
		Quote:      symbol.QuoteAsset,
		Settle:     symbol.MarginAsset,
		PriceStep:  priceStep,
		AmountStep: amountStep,
		TakerFee:   takerFee,
	}
	c.symbolInfo = info
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": info.ID, "settle": info.Settle, "takerFee": info.TakerFee,
	})
	return info, nil
}

// FetchPosition returns the open position for the configured symbol, or nil
// when the exchange reports none. Binance one-way mode encodes the side in
// the sign of the position amount.
func (c *Client) FetchPosition(ctx context.Context) (*domain.Position, error) {
	op := "FetchPosition"
	positions, err := c.futuresClient.NewGetPositionRiskService().Symbol(c.symbol).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if len(positions) == 0 {
		c.logger.Debug(ctx, op+": no position for symbol", map[string]interface{}{"symbol": c.symbol})
		return nil, nil
	}

	binancePos := positions[0]
	qty, err := strconv.ParseFloat(binancePos.PositionAmt, 64)
	if err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("could not parse position amount '%s': %w", binancePos.PositionAmt, err), op)
	}
	if qty == 0 {
		c.logger.Debug(ctx, op+": position amount is zero", map[string]interface{}{"symbol": c.symbol})
		return nil, nil
	}
	entryPrice, err := strconv.ParseFloat(binancePos.EntryPrice, 64)
	if err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("could not parse entry price '%s': %w", binancePos.EntryPrice, err), op)
	}

	side := domain.Long
	if qty < 0 {
		side = domain.Short
	}
	// The exchange does not report when the position was opened.
	return &domain.Position{
		Side:       side,
		Amount:     math.Abs(qty),
		EntryPrice: entryPrice,
	}, nil
}

// FetchAccountBalance returns the wallet balance of the settlement asset.
// FetchSymbolInfo must have been called first so the settle asset is known.
func (c *Client) FetchAccountBalance(ctx context.Context) (float64, error) {
	op := "FetchAccountBalance"
	if c.symbolInfo == nil {
		if _, err := c.FetchSymbolInfo(ctx); err != nil {
			return 0, err
		}
	}

	account, err := c.futuresClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	for _, asset := range account.Assets {
		if asset.Asset == c.symbolInfo.Settle {
			balance, err := strconv.ParseFloat(asset.WalletBalance, 64)
			if err != nil {
				return 0, c.handleError(ctx, fmt.Errorf("could not parse balance '%s' for asset %s: %w", asset.WalletBalance, asset.Asset, err), op)
			}
			return balance, nil
		}
	}

	err = fmt.Errorf("asset %s not found in account balance", c.symbolInfo.Settle)
	return 0, c.handleError(ctx, err, op)
}

// SubmitOrder places a GTC limit order, formatting quantity and price to the
// instrument's step sizes.
func (c *Client) SubmitOrder(ctx context.Context, side domain.Side, amount, price float64) (*ports.OrderConfirmation, error) {
	op := "SubmitOrder"
	if c.symbolInfo == nil {
		if _, err := c.FetchSymbolInfo(ctx); err != nil {
			return nil, err
		}
	}

	binanceSide := futures.SideTypeBuy
	if side == domain.Short {
		binanceSide = futures.SideTypeSell
	}
	quantityStr := formatByStep(amount, c.symbolInfo.AmountStep)
	priceStr := formatByStep(price, c.symbolInfo.PriceStep)

	order, err := c.futuresClient.NewCreateOrderService().
		Symbol(c.symbol).
		Side(binanceSide).
		Type(futures.OrderTypeLimit).
		TimeInForce(futures.TimeInForceTypeGTC).
		Quantity(quantityStr).
		Price(priceStr).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": c.symbol, "side": side, "quantity": quantityStr, "price": priceStr,
		"orderID": order.OrderID, "status": order.Status,
	})
	return &ports.OrderConfirmation{
		Time:   time.UnixMilli(order.UpdateTime),
		Side:   side,
		Amount: amount,
		Price:  price,
	}, nil
}

// GetKlines retrieves historical klines for the configured symbol, oldest
// first. Used to build the close-price series handed to the forecasting
// pipeline.
func (c *Client) GetKlines(ctx context.Context, interval string, limit int) ([]*domain.Kline, error) {
	op := "GetKlines"
	binanceKlines, err := c.futuresClient.NewKlinesService().Symbol(c.symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	klines := make([]*domain.Kline, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		kline, err := translateKline(bk, c.symbol, interval)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline: %w", err), op)
		}
		klines = append(klines, kline)
	}
	return klines, nil
}

// GetKlinesRange fetches all klines between start and end time, paging
// through the exchange's per-request limit.
func (c *Client) GetKlinesRange(ctx context.Context, interval string, start, end time.Time) ([]*domain.Kline, error) {
	op := "GetKlinesRange"
	const maxLimit = 1500

	var all []*domain.Kline
	from := start
	for {
		binanceKlines, err := c.futuresClient.NewKlinesService().
			Symbol(c.symbol).
			Interval(interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(binanceKlines) == 0 {
			break
		}
		for _, bk := range binanceKlines {
			kline, err := translateKline(bk, c.symbol, interval)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline range: %w", err), op)
			}
			all = append(all, kline)
		}
		last := binanceKlines[len(binanceKlines)-1]
		from = time.UnixMilli(last.CloseTime)
		if from.After(end) || len(binanceKlines) < maxLimit {
			break
		}
	}
	return all, nil
}

// formatByStep renders a value with exactly as many decimal places as the
// instrument's step size carries.
func formatByStep(value, step float64) string {
	if step <= 0 {
		return decimal.NewFromFloat(value).String()
	}
	places := -decimal.NewFromFloat(step).Exponent()
	if places < 0 {
		places = 0
	}
	return decimal.NewFromFloat(value).StringFixed(places)
}

func translateKline(bk *futures.Kline, symbol, interval string) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.OpenTime),
		CloseTime: time.UnixMilli(bk.CloseTime),
		Symbol:    symbol,
		Interval:  interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}, nil
}
