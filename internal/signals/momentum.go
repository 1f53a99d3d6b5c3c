package signals

import (
	"fmt"
	"sort"

	"trenchwatch/internal/normalize"
)

// MomentumConfig filters the 1h trending scan for breakouts.
type MomentumConfig struct {
	MinVolMcapRatio  float64 `yaml:"min_vol_mcap_ratio"`
	MinPriceChange1h float64 `yaml:"min_price_change_1h"`
}

// DefaultMomentumConfig wants volume turning over at least half the market
// cap per hour on a double-digit move.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{MinVolMcapRatio: 0.5, MinPriceChange1h: 10}
}

// DetectMomentum scans the 1h trending payload for tokens whose turnover
// ratio (volume over market cap) and price move both clear the configured
// floors. Tokens without a positive market cap are skipped; the ratio is
// meaningless for them. Results are ordered by turnover ratio, highest
// first.
func DetectMomentum(raw any, chain string, cfg MomentumConfig) []Signal {
	tokens := normalize.ExtractList(raw, normalize.TrendingKeys...)
	signals := make([]Signal, 0)

	for _, token := range tokens {
		mcap, ok1 := normalize.CoerceFloat(token["market_cap"])
		volume, ok2 := normalize.CoerceFloat(token["volume"])
		change, ok3 := normalize.CoerceFloat(token["price_change_percent"])
		if !ok1 || !ok2 || !ok3 || mcap <= 0 {
			continue
		}

		turnover := volume / mcap
		if turnover < cfg.MinVolMcapRatio || change < cfg.MinPriceChange1h {
			continue
		}

		signals = append(signals, Signal{
			Type:    TypeMomentumBreakout,
			Chain:   chain,
			Address: normalize.AsString(token["address"]),
			Symbol:  normalize.AsString(token["symbol"]),
			Metrics: map[string]float64{
				"turnover_ratio":  round2(turnover),
				"price_change_1h": change,
				"volume":          volume,
				"market_cap":      mcap,
			},
			Explanation: fmt.Sprintf(
				"Volume is %.2fx market cap over 1h (threshold %.2fx) on a %+.1f%% move. Momentum breakout in progress.",
				round2(turnover), cfg.MinVolMcapRatio, change),
		})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Metrics["turnover_ratio"] > signals[j].Metrics["turnover_ratio"]
	})
	return signals
}
