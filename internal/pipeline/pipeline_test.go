package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trenchwatch/internal/analysis"
	"trenchwatch/internal/signals"
	"trenchwatch/internal/source"
)

// fakeSource serves one canned payload per feed.
type fakeSource struct {
	trending   any
	pairs      any
	completion any
}

func (f *fakeSource) TrendingTokens(ctx context.Context, timeframe, chain string) (any, error) {
	return f.trending, nil
}

func (f *fakeSource) NewPairs(ctx context.Context, limit int, chain string) (any, error) {
	return f.pairs, nil
}

func (f *fakeSource) TokensByCompletion(ctx context.Context, limit int, chain string) (any, error) {
	return f.completion, nil
}

func (f *fakeSource) TokenInfo(ctx context.Context, address, chain string) (any, error) {
	return map[string]any{"error": "not indexed"}, nil
}

func (f *fakeSource) SecurityInfo(ctx context.Context, address, chain string) (any, error) {
	return map[string]any{"error": "not indexed"}, nil
}

func (f *fakeSource) TopBuyers(ctx context.Context, address, chain string) (any, error) {
	return map[string]any{"error": "not indexed"}, nil
}

func trendingEntry(address string, volume float64, extra map[string]any) map[string]any {
	m := map[string]any{
		"address":              address,
		"symbol":               address,
		"price":                1.0,
		"volume":               volume,
		"market_cap":           50000.0,
		"price_change_percent": 5.0,
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// newScenario builds a source where "TrendTok" and "Dual" trend on every
// timeframe, "Dual" and "GemTok" are fresh pairs, and "GradTok" is about to
// graduate. TrendTok carries a full safety profile; the rest are bare.
func newScenario() *fakeSource {
	oldLaunch := float64(time.Now().Add(-400 * time.Hour).Unix())
	freshLaunch := float64(time.Now().Add(-10 * time.Minute).Unix())

	return &fakeSource{
		trending: map[string]any{"tokens": []any{
			trendingEntry("TrendTok", 9000, map[string]any{
				"liquidity":          150000.0,
				"holder_count":       2000.0,
				"open_timestamp":     oldLaunch,
				"renounced_mint":     1.0,
				"top_10_holder_rate": 0.2,
				"website":            "https://trend.example",
				"twitter_username":   "trendtok",
				"telegram":           "t.me/trendtok",
			}),
			trendingEntry("Dual", 5000, nil),
		}},
		pairs: map[string]any{"pairs": []any{
			map[string]any{"address": "Dual", "symbol": "Dual", "open_timestamp": freshLaunch, "liquidity": 20000.0},
			map[string]any{"address": "GemTok", "symbol": "GemTok", "open_timestamp": freshLaunch, "liquidity": 15000.0},
		}},
		completion: map[string]any{"tokens": []any{
			map[string]any{"address": "GradTok", "symbol": "GradTok", "progress": 0.99, "holder_count": 120.0},
		}},
	}
}

func newRunner(src source.Fetcher) *Runner {
	return NewRunner(analysis.NewService(src), signals.NewService(src))
}

func TestRunDedupesAcrossBranches(t *testing.T) {
	runner := newRunner(newScenario())

	cfg := DefaultConfig()
	cfg.MinSafetyScore = 0
	cfg.MaxCandidates = 10

	candidates, err := runner.Run(context.Background(), "sol", cfg)
	require.NoError(t, err)
	require.Len(t, candidates, 4)

	byAddress := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byAddress[c.Address] = c
	}

	assert.Equal(t, []string{"trending"}, byAddress["TrendTok"].TriggerSources)
	assert.Equal(t, []string{"trending", "early_gem"}, byAddress["Dual"].TriggerSources)
	assert.Equal(t, []string{"early_gem"}, byAddress["GemTok"].TriggerSources)
	assert.Equal(t, []string{"graduation_radar"}, byAddress["GradTok"].TriggerSources)
}

func TestRunTrendingCandidatesOrderFirst(t *testing.T) {
	runner := newRunner(newScenario())

	cfg := DefaultConfig()
	cfg.MinSafetyScore = 0
	cfg.MaxCandidates = 10

	candidates, err := runner.Run(context.Background(), "sol", cfg)
	require.NoError(t, err)
	require.Len(t, candidates, 4)

	// Trending seeds come first, highest volume leading.
	assert.Equal(t, "TrendTok", candidates[0].Address)
	assert.Equal(t, "Dual", candidates[1].Address)
}

func TestRunSafetyFloor(t *testing.T) {
	runner := newRunner(newScenario())

	cfg := DefaultConfig()
	cfg.MaxCandidates = 10 // keep the default 70-point floor

	candidates, err := runner.Run(context.Background(), "sol", cfg)
	require.NoError(t, err)

	// Only the token with a full safety profile clears 70.
	require.Len(t, candidates, 1)
	assert.Equal(t, "TrendTok", candidates[0].Address)
	assert.GreaterOrEqual(t, candidates[0].Analysis.Safety.Score, 70.0)
	assert.Equal(t, analysis.SourceTrendingCache, candidates[0].Analysis.Source)
}

func TestRunMaxCandidatesCap(t *testing.T) {
	runner := newRunner(newScenario())

	cfg := DefaultConfig()
	cfg.MinSafetyScore = 0
	cfg.MaxCandidates = 2

	candidates, err := runner.Run(context.Background(), "sol", cfg)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestRunSkipsGraduationOffSolana(t *testing.T) {
	runner := newRunner(newScenario())

	cfg := DefaultConfig()
	cfg.MinSafetyScore = 0
	cfg.MaxCandidates = 10

	candidates, err := runner.Run(context.Background(), "eth", cfg)
	require.NoError(t, err)

	for _, c := range candidates {
		assert.NotContains(t, c.TriggerSources, "graduation_radar")
	}
}

func TestRunInvalidChain(t *testing.T) {
	runner := newRunner(newScenario())

	_, err := runner.Run(context.Background(), "near", DefaultConfig())
	var ve *source.ValidationError
	require.ErrorAs(t, err, &ve)
}
