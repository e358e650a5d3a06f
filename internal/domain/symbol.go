package domain

// SymbolInfo holds read-only instrument metadata supplied once per session by
// the market-facing port. Step sizes are decimal increments (e.g. 0.01), not
// digit counts.
type SymbolInfo struct {
	ID         string  // Exchange instrument id (e.g. "ETHUSDT")
	Base       string  // Base asset (e.g. "ETH")
	Quote      string  // Quote asset (e.g. "USDT")
	Settle     string  // Settlement/margin asset (e.g. "USDT")
	PriceStep  float64 // Minimum price increment
	AmountStep float64 // Minimum order amount increment
	TakerFee   float64 // Proportional taker fee rate charged on notional
}
