package model

import (
	"fmt"
	"strings"
)

// Action is the side of a simulated trade.
// Keep these values stable; they are intended for CSV output and the trade sort key.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// SellMode selects which direction of the sell-window return liquidates a position.
type SellMode string

const (
	SellOnDrop SellMode = "drop"
	SellOnGain SellMode = "gain"
)

// ParseSellMode accepts "drop"/"gain" as well as the dashboard labels
// "Sell on drop"/"Sell on gain".
func ParseSellMode(s string) (SellMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop", "sell on drop", "sell_on_drop":
		return SellOnDrop, nil
	case "gain", "sell on gain", "sell_on_gain":
		return SellOnGain, nil
	default:
		return "", fmt.Errorf("invalid sell mode %q, expected drop or gain", s)
	}
}
