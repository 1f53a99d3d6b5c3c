package signals

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"trenchwatch/internal/source"
	"trenchwatch/internal/telemetry/metrics"
)

// Service fetches raw source lists and runs the detectors over them. The
// momentum path reads the 1h trending feed, which the injected fetcher
// memoizes under the same key the consistency aggregator uses.
type Service struct {
	src source.Fetcher
	now func() time.Time
}

// NewService builds a signal service on the given (usually cached) fetcher.
func NewService(src source.Fetcher) *Service {
	return &Service{src: src, now: time.Now}
}

const scanLimit = 50

// Graduation runs the bonding-curve completion detector for one chain.
func (s *Service) Graduation(ctx context.Context, chain string, cfg GraduationConfig) ([]Signal, error) {
	raw, err := s.src.TokensByCompletion(ctx, scanLimit, chain)
	if err != nil {
		return nil, err
	}
	out := DetectGraduation(raw, chain, cfg)
	s.record(chain, TypePumpGraduation, out)
	return out, nil
}

// EarlyGems runs the new-pair detector for one chain.
func (s *Service) EarlyGems(ctx context.Context, chain string, cfg EarlyGemConfig) ([]Signal, error) {
	raw, err := s.src.NewPairs(ctx, scanLimit, chain)
	if err != nil {
		return nil, err
	}
	out := DetectEarlyGems(raw, chain, cfg, s.now())
	s.record(chain, TypeEarlyGem, out)
	return out, nil
}

// Momentum runs the breakout detector over the 1h trending feed.
func (s *Service) Momentum(ctx context.Context, chain string, cfg MomentumConfig) ([]Signal, error) {
	raw, err := s.src.TrendingTokens(ctx, "1h", chain)
	if err != nil {
		return nil, err
	}
	out := DetectMomentum(raw, chain, cfg)
	s.record(chain, TypeMomentumBreakout, out)
	return out, nil
}

func (s *Service) record(chain string, typ Type, out []Signal) {
	metrics.SignalsEmitted.WithLabelValues(string(typ)).Add(float64(len(out)))
	log.Debug().Str("chain", chain).Str("type", string(typ)).Int("count", len(out)).Msg("signal scan complete")
}
