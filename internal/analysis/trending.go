// Package analysis reconciles per-timeframe token observations into
// consistent, filterable aggregates and builds the deep-analysis record for
// a single contract.
package analysis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"trenchwatch/internal/normalize"
	"trenchwatch/internal/source"
)

// Config carries the trending filter thresholds.
type Config struct {
	VolumeThreshold    float64 `yaml:"volume_threshold"`
	MarketCapThreshold float64 `yaml:"market_cap_threshold"`
	MinConsistency     int     `yaml:"min_consistency"`
}

// DefaultConfig mirrors the service defaults used by the HTTP layer.
func DefaultConfig() Config {
	return Config{VolumeThreshold: 1000, MarketCapThreshold: 10000, MinConsistency: 3}
}

// AggregatedToken is one token reconciled across the timeframes it appeared
// in. Status-like fields take the max across observations: the most
// alarming or most complete value seen wins.
type AggregatedToken struct {
	Address          string  `json:"address"`
	Chain            string  `json:"chain"`
	Symbol           string  `json:"symbol"`
	ConsistencyCount int     `json:"consistency_count"`
	AvgPrice         float64 `json:"avg_price"`
	AvgVolume        float64 `json:"avg_volume"`
	MedianMarketCap  float64 `json:"median_market_cap"`
	AvgPriceChange   float64 `json:"avg_price_change"`
	HolderCount      float64 `json:"holder_count"`
	Top10HolderRate  float64 `json:"top_10_holder_rate"`
	RenouncedMint    float64 `json:"renounced_mint"`
	RenouncedFreeze  float64 `json:"renounced_freeze_account"`
	BurnRatio        float64 `json:"burn_ratio"`
	Launchpad        string  `json:"launchpad"`
	BluechipOwnerPct float64 `json:"bluechip_owner_percentage"`
}

// Service runs trending aggregation and deep analysis against one fetcher.
type Service struct {
	src source.Fetcher
	now func() time.Time
}

// NewService builds an analysis service on the given (usually cached)
// fetcher.
func NewService(src source.Fetcher) *Service {
	return &Service{src: src, now: time.Now}
}

// AnalyzeTrending fetches all trending timeframes concurrently, reconciles
// observations per contract, filters by the thresholds and returns the
// survivors ordered by consistency then volume. A timeframe that fails is
// logged and excluded; it never aborts the others. An empty result is a
// valid outcome, not an error.
func (s *Service) AnalyzeTrending(ctx context.Context, chain string, cfg Config) ([]AggregatedToken, error) {
	if err := source.ValidateChain(chain); err != nil {
		return nil, err
	}

	payloads := make([]any, len(source.Timeframes))
	errs := make([]error, len(source.Timeframes))

	var wg sync.WaitGroup
	for i, tf := range source.Timeframes {
		wg.Add(1)
		go func(i int, tf string) {
			defer wg.Done()
			payloads[i], errs[i] = s.src.TrendingTokens(ctx, tf, chain)
		}(i, tf)
	}
	wg.Wait()

	var observations []normalize.Observation
	for i, tf := range source.Timeframes {
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Str("timeframe", tf).Str("chain", chain).Msg("trending fetch failed, timeframe excluded")
			continue
		}
		if msg, failed := normalize.ErrorMessage(payloads[i]); failed {
			log.Warn().Str("timeframe", tf).Str("chain", chain).Str("upstream", msg).Msg("trending fetch degraded, timeframe excluded")
			continue
		}
		for _, token := range normalize.ExtractList(payloads[i], normalize.TrendingKeys...) {
			obs, ok := normalize.ObservationFrom(token, tf, chain)
			if !ok {
				continue
			}
			observations = append(observations, obs)
		}
	}

	return Aggregate(observations, cfg), nil
}

// Aggregate groups observations by contract address, derives per-group
// statistics and applies the threshold filter. Pure; split out from the
// fetching so the reconciliation is testable on its own.
func Aggregate(observations []normalize.Observation, cfg Config) []AggregatedToken {
	groups := make(map[string][]normalize.Observation)
	var order []string
	for _, obs := range observations {
		if _, seen := groups[obs.Address]; !seen {
			order = append(order, obs.Address)
		}
		groups[obs.Address] = append(groups[obs.Address], obs)
	}

	out := make([]AggregatedToken, 0, len(order))
	for _, addr := range order {
		agg := reconcile(groups[addr])
		if agg.ConsistencyCount < cfg.MinConsistency {
			continue
		}
		if agg.AvgVolume < cfg.VolumeThreshold {
			continue
		}
		if agg.MedianMarketCap < cfg.MarketCapThreshold {
			continue
		}
		out = append(out, agg)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConsistencyCount != out[j].ConsistencyCount {
			return out[i].ConsistencyCount > out[j].ConsistencyCount
		}
		return out[i].AvgVolume > out[j].AvgVolume
	})
	return out
}

// reconcile merges one contract's observations: means for flow metrics,
// median for market cap, distinct-timeframe count for consistency, max for
// status fields, first observation for identity fields.
func reconcile(group []normalize.Observation) AggregatedToken {
	first := group[0]
	agg := AggregatedToken{
		Address:   first.Address,
		Chain:     first.Chain,
		Symbol:    first.Symbol,
		Launchpad: first.Launchpad,
	}

	timeframes := make(map[string]struct{}, len(group))
	mcaps := make([]float64, 0, len(group))
	for _, obs := range group {
		timeframes[obs.Timeframe] = struct{}{}
		agg.AvgPrice += obs.Price
		agg.AvgVolume += obs.Volume
		agg.AvgPriceChange += obs.PriceChange
		mcaps = append(mcaps, obs.MarketCap)

		agg.HolderCount = max(agg.HolderCount, obs.HolderCount)
		agg.Top10HolderRate = max(agg.Top10HolderRate, obs.Top10HolderRate)
		agg.RenouncedMint = max(agg.RenouncedMint, obs.RenouncedMint)
		agg.RenouncedFreeze = max(agg.RenouncedFreeze, obs.RenouncedFreeze)
		agg.BurnRatio = max(agg.BurnRatio, obs.BurnRatio)
		agg.BluechipOwnerPct = max(agg.BluechipOwnerPct, obs.BluechipOwnerPct)
	}

	n := float64(len(group))
	agg.AvgPrice /= n
	agg.AvgVolume /= n
	agg.AvgPriceChange /= n
	agg.MedianMarketCap = median(mcaps)
	agg.ConsistencyCount = len(timeframes)
	return agg
}

// median returns the true median, averaging the middle pair for even-sized
// inputs.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
