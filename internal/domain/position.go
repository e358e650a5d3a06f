package domain

import "time"

// Position is the bot's view of the single instrument position. The zero
// value is flat: no side, zero amount. A position is flat exactly when its
// side is empty, in which case the amount is always zero.
type Position struct {
	Side       Side      // Empty when flat
	Amount     float64   // Size in the base asset, never negative
	EntryPrice float64   // Price at which the position was opened
	EntryTime  time.Time // Timestamp of the opening fill (zero value if unknown)
}

// IsNone checks if there is no active position.
func (p *Position) IsNone() bool { return p.Side == "" }

// IsLong checks if the position is a long position.
func (p *Position) IsLong() bool { return p.Side == Long }

// IsShort checks if the position is a short position.
func (p *Position) IsShort() bool { return p.Side == Short }

// Inverse returns the side that closes the currently held position.
// Meaningless when flat.
func (p *Position) Inverse() Side {
	if p.IsLong() {
		return Short
	}
	return Long
}

// Update overwrites the position with freshly fetched state. Used when the
// market reports a position the bot did not know about (e.g. after a restart)
// as well as on every regular refresh.
func (p *Position) Update(side Side, amount, entryPrice float64, entryTime time.Time) {
	p.Side = side
	p.Amount = amount
	p.EntryPrice = entryPrice
	p.EntryTime = entryTime
}

// Close resets the position to flat.
func (p *Position) Close() { *p = Position{} }
