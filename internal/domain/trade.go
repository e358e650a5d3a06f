package domain

import "time"

// TradeRecord is one closed round-trip recorded during a replay run. Records
// are appended to the ledger when a simulated position transitions from open
// to flat and are never mutated afterwards.
type TradeRecord struct {
	EntryTime  time.Time // When the position was opened
	CloseTime  time.Time // When the position was closed
	Side       Side      // Side of the opened position
	Amount     float64   // Size in the base asset
	EntryPrice float64   // Opening fill price
	ClosePrice float64   // Closing fill price
	Return     float64   // Realized return rate relative to the entry price
	Balance    float64   // Account balance after the closing fill settled
}
