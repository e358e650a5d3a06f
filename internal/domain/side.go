package domain

import "fmt"

// Side represents the direction of an order or position.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// ParseSide converts an external side label into a Side. Exchanges report
// sides either as order verbs ("buy"/"sell") or as position directions
// ("long"/"short"), so both spellings are accepted.
func ParseSide(value string) (Side, error) {
	switch value {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	}
	return "", fmt.Errorf("unknown side %q", value)
}

// Sign returns the sign convention used in notional and P&L calculations:
// +1 for long, -1 for short.
func (s Side) Sign() float64 {
	if s == Long {
		return 1
	}
	return -1
}

func (s Side) String() string { return string(s) }
