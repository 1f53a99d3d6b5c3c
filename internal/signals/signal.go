// Package signals holds the three stateless trading-signal detectors:
// bonding-curve graduation, early gems, and momentum breakouts. Each
// detector filters one raw source list; a record that fails a numeric cast
// is skipped on its own, never aborting the batch.
package signals

import "math"

// Type identifies the detector that produced a signal.
type Type string

const (
	TypePumpGraduation   Type = "pump_graduation"
	TypeEarlyGem         Type = "early_gem"
	TypeMomentumBreakout Type = "momentum_breakout"
)

// Signal is one actionable detection. Immutable once produced.
type Signal struct {
	Type        Type               `json:"signal_type"`
	Chain       string             `json:"chain"`
	Address     string             `json:"address"`
	Symbol      string             `json:"symbol"`
	Metrics     map[string]float64 `json:"metrics"`
	Explanation string             `json:"explanation"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
