package signals

import (
	"fmt"

	"trenchwatch/internal/normalize"
)

// GraduationConfig filters the bonding-curve completion scan.
type GraduationConfig struct {
	MinProgress float64 `yaml:"min_progress"`
	MaxProgress float64 `yaml:"max_progress"`
	MinHolders  int     `yaml:"min_holders"`
}

// DefaultGraduationConfig targets tokens in the 95-100% completion band
// with enough holders to rule out dead launches.
func DefaultGraduationConfig() GraduationConfig {
	return GraduationConfig{MinProgress: 95, MaxProgress: 100, MinHolders: 50}
}

// DetectGraduation scans a tokens-by-completion payload for tokens about to
// migrate from the bonding curve to open-market trading. Progress arrives
// either as a 0-1 fraction or an already-scaled percent; fractions are
// scaled up. Records without a usable progress value are skipped.
func DetectGraduation(raw any, chain string, cfg GraduationConfig) []Signal {
	tokens := normalize.ExtractList(raw, normalize.CompletionKeys...)
	signals := make([]Signal, 0)

	for _, token := range tokens {
		v, ok := token["progress"]
		if !ok || v == nil {
			continue
		}
		progress, valid := normalize.CoerceFloat(v)
		if !valid {
			continue
		}
		if progress <= 1.0 {
			progress *= 100
		}
		holderCount := normalize.AsInt(token["holder_count"])

		if progress < cfg.MinProgress || progress > cfg.MaxProgress {
			continue
		}
		if holderCount < cfg.MinHolders {
			continue
		}

		signals = append(signals, Signal{
			Type:    TypePumpGraduation,
			Chain:   chain,
			Address: normalize.AsString(token["address"]),
			Symbol:  normalize.AsString(token["symbol"]),
			Metrics: map[string]float64{
				"progress_pct": round2(progress),
				"holder_count": float64(holderCount),
				"sniper_count": normalize.AsFloat(token["sniper_count"]),
				"market_cap":   normalize.AsFloat(token["market_cap"]),
			},
			Explanation: fmt.Sprintf(
				"Token is %.2f%% through bonding curve (threshold %g-%g%%) with %d holders. Imminent graduation to DEX expected.",
				round2(progress), cfg.MinProgress, cfg.MaxProgress, holderCount),
		})
	}
	return signals
}
