// Package pipeline runs the end-to-end candidate workflow for one chain:
// gather candidates from the aggregator and the signal detectors, dedupe,
// deep-analyze the survivors and keep the ones that clear the safety floor.
package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"trenchwatch/internal/analysis"
	"trenchwatch/internal/signals"
	"trenchwatch/internal/source"
)

// Config tunes one workflow run.
type Config struct {
	MinConsistency  int     `yaml:"min_consistency"`
	MinLiquidityGem float64 `yaml:"min_liquidity_gem"`
	MinProgressGrad float64 `yaml:"min_progress_grad"`
	MinSafetyScore  float64 `yaml:"min_safety_score"`
	MaxCandidates   int     `yaml:"max_candidates"`
}

// DefaultConfig mirrors the automation defaults.
func DefaultConfig() Config {
	return Config{
		MinConsistency:  3,
		MinLiquidityGem: 10000,
		MinProgressGrad: 98,
		MinSafetyScore:  70,
		MaxCandidates:   5,
	}
}

// Candidate is one surviving token with its full analysis and the sources
// that surfaced it.
type Candidate struct {
	Address        string                 `json:"address"`
	Symbol         string                 `json:"symbol"`
	TriggerSources []string               `json:"trigger_sources"`
	Analysis       *analysis.DeepAnalysis `json:"analysis"`
}

// Runner wires the aggregation and signal layers into one workflow.
type Runner struct {
	analysis *analysis.Service
	signals  *signals.Service
}

// NewRunner builds a workflow runner.
func NewRunner(a *analysis.Service, s *signals.Service) *Runner {
	return &Runner{analysis: a, signals: s}
}

// Run executes the workflow for one chain. Source failures degrade to fewer
// candidates; only a fully failed run with no usable branch is an error-free
// empty result, never a hard failure.
func (r *Runner) Run(ctx context.Context, chain string, cfg Config) ([]Candidate, error) {
	if err := source.ValidateChain(chain); err != nil {
		return nil, err
	}

	aggCfg := analysis.DefaultConfig()
	aggCfg.MinConsistency = cfg.MinConsistency

	gemCfg := signals.DefaultEarlyGemConfig()
	gemCfg.MinLiquidity = cfg.MinLiquidityGem

	gradCfg := signals.DefaultGraduationConfig()
	gradCfg.MinProgress = cfg.MinProgressGrad

	var (
		wg       sync.WaitGroup
		trending []analysis.AggregatedToken
		gems     []signals.Signal
		grads    []signals.Signal
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		out, err := r.analysis.AnalyzeTrending(ctx, chain, aggCfg)
		if err != nil {
			log.Warn().Err(err).Str("chain", chain).Msg("trending branch failed")
			return
		}
		trending = out
	}()
	go func() {
		defer wg.Done()
		out, err := r.signals.EarlyGems(ctx, chain, gemCfg)
		if err != nil {
			log.Warn().Err(err).Str("chain", chain).Msg("early gem branch failed")
			return
		}
		gems = out
	}()
	// Bonding curves are a launchpad mechanism; only Solana has one here.
	if chain == "sol" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.signals.Graduation(ctx, chain, gradCfg)
			if err != nil {
				log.Warn().Err(err).Str("chain", chain).Msg("graduation branch failed")
				return
			}
			grads = out
		}()
	}
	wg.Wait()

	type seed struct {
		symbol  string
		sources []string
	}
	seeds := make(map[string]*seed)
	var order []string

	add := func(address, symbol, src string) {
		if address == "" {
			return
		}
		if s, ok := seeds[address]; ok {
			s.sources = append(s.sources, src)
			return
		}
		seeds[address] = &seed{symbol: symbol, sources: []string{src}}
		order = append(order, address)
	}
	for _, t := range trending {
		add(t.Address, t.Symbol, "trending")
	}
	for _, g := range gems {
		add(g.Address, g.Symbol, "early_gem")
	}
	for _, g := range grads {
		add(g.Address, g.Symbol, "graduation_radar")
	}

	log.Info().Str("chain", chain).Int("unique", len(order)).Msg("aggregation complete")

	if cfg.MaxCandidates > 0 && len(order) > cfg.MaxCandidates {
		order = order[:cfg.MaxCandidates]
	}

	candidates := make([]Candidate, 0, len(order))
	for _, address := range order {
		deep, err := r.analysis.DeepAnalyze(ctx, address, chain)
		if err != nil {
			log.Warn().Err(err).Str("address", address).Msg("deep analysis failed, candidate dropped")
			continue
		}
		if deep.Safety.Score < cfg.MinSafetyScore {
			log.Debug().Str("address", address).Float64("score", deep.Safety.Score).Msg("candidate rejected by safety floor")
			continue
		}
		candidates = append(candidates, Candidate{
			Address:        address,
			Symbol:         seeds[address].symbol,
			TriggerSources: seeds[address].sources,
			Analysis:       deep,
		})
	}

	log.Info().Str("chain", chain).Int("candidates", len(candidates)).Msg("workflow complete")
	return candidates, nil
}
