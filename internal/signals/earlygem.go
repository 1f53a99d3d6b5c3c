package signals

import (
	"fmt"
	"time"

	"trenchwatch/internal/normalize"
)

// EarlyGemConfig filters the new-pair scan.
type EarlyGemConfig struct {
	MinLiquidity  float64 `yaml:"min_liquidity"`
	MaxAgeMinutes float64 `yaml:"max_age_minutes"`
}

// DefaultEarlyGemConfig keeps pairs under an hour old carrying at least
// $5k of liquidity.
func DefaultEarlyGemConfig() EarlyGemConfig {
	return EarlyGemConfig{MinLiquidity: 5000, MaxAgeMinutes: 60}
}

// DetectEarlyGems scans a new-pairs payload for very young pairs that
// already carry meaningful liquidity. A pair without a usable open or
// creation timestamp is skipped; age is the reason this detector exists, so
// it is never defaulted.
func DetectEarlyGems(raw any, chain string, cfg EarlyGemConfig, now time.Time) []Signal {
	pairs := normalize.ExtractList(raw, normalize.PairKeys...)
	signals := make([]Signal, 0)

	for _, pair := range pairs {
		ts, ok := openTimestamp(pair)
		if !ok {
			continue
		}
		ageMinutes := now.Sub(time.Unix(int64(ts), 0)).Minutes()
		liquidity := normalize.AsFloat(pair["liquidity"])

		if ageMinutes > cfg.MaxAgeMinutes {
			continue
		}
		if liquidity < cfg.MinLiquidity {
			continue
		}

		signals = append(signals, Signal{
			Type:    TypeEarlyGem,
			Chain:   chain,
			Address: normalize.AsString(pair["address"]),
			Symbol:  normalize.AsString(pair["symbol"]),
			Metrics: map[string]float64{
				"age_minutes":       round1(ageMinutes),
				"liquidity":         liquidity,
				"initial_liquidity": normalize.AsFloat(pair["initial_liquidity"]),
				"bot_degen_count":   normalize.AsFloat(pair["bot_degen_count"]),
			},
			Explanation: fmt.Sprintf(
				"New pair launched %.1fm ago with high liquidity ($%.0f > $%.0f). Potential strong launch.",
				round1(ageMinutes), liquidity, cfg.MinLiquidity),
		})
	}
	return signals
}

// openTimestamp resolves the pair's open or creation time, rejecting absent
// or non-numeric values.
func openTimestamp(pair map[string]any) (float64, bool) {
	for _, key := range []string{"open_timestamp", "creation_timestamp"} {
		v, ok := pair[key]
		if !ok || v == nil {
			continue
		}
		ts, valid := normalize.CoerceFloat(v)
		if valid && ts > 0 {
			return ts, true
		}
	}
	return 0, false
}
