package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"trenchwatch/internal/analysis"
	"trenchwatch/internal/narrative"
	"trenchwatch/internal/pipeline"
	"trenchwatch/internal/signals"
	"trenchwatch/internal/source"
)

// Analyzer covers the aggregation and deep-analysis operations.
type Analyzer interface {
	AnalyzeTrending(ctx context.Context, chain string, cfg analysis.Config) ([]analysis.AggregatedToken, error)
	DeepAnalyze(ctx context.Context, address, chain string) (*analysis.DeepAnalysis, error)
}

// SignalService covers the three detectors.
type SignalService interface {
	Graduation(ctx context.Context, chain string, cfg signals.GraduationConfig) ([]signals.Signal, error)
	EarlyGems(ctx context.Context, chain string, cfg signals.EarlyGemConfig) ([]signals.Signal, error)
	Momentum(ctx context.Context, chain string, cfg signals.MomentumConfig) ([]signals.Signal, error)
}

// PipelineRunner runs the end-to-end candidate scan.
type PipelineRunner interface {
	Run(ctx context.Context, chain string, cfg pipeline.Config) ([]pipeline.Candidate, error)
}

// NarrativeAssessor produces AI verdicts for a token context.
type NarrativeAssessor interface {
	Assess(ctx context.Context, req narrative.Request) (*narrative.Assessment, error)
}

// SourceGateway is the upstream surface the passthrough routes expose.
type SourceGateway interface {
	source.Fetcher
	SnipedTokens(ctx context.Context, size int, chain string) (any, error)
	GasFee(ctx context.Context, chain string) (any, error)
	TokenUSDPrice(ctx context.Context, address, chain string) (any, error)
	TrendingWallets(ctx context.Context, timeframe, tag, chain string) (any, error)
	WalletInfo(ctx context.Context, address, period, chain string) (any, error)
}

// HandlersConfig carries the per-endpoint defaults.
type HandlersConfig struct {
	Analysis   analysis.Config
	Graduation signals.GraduationConfig
	EarlyGem   signals.EarlyGemConfig
	Momentum   signals.MomentumConfig
	Pipeline   pipeline.Config
}

// Handlers holds the services the routes dispatch to. Assessor may be nil
// when no narrative provider is configured.
type Handlers struct {
	analyzer Analyzer
	signals  SignalService
	runner   PipelineRunner
	assessor NarrativeAssessor
	source   SourceGateway
	cfg      HandlersConfig
}

// NewHandlers wires the route handlers.
func NewHandlers(a Analyzer, s SignalService, r PipelineRunner, n NarrativeAssessor, src SourceGateway, cfg HandlersConfig) *Handlers {
	return &Handlers{analyzer: a, signals: s, runner: r, assessor: n, source: src, cfg: cfg}
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// TrendingAnalysis handles GET /api/v1/analysis/trending.
func (h *Handlers) TrendingAnalysis(w http.ResponseWriter, r *http.Request) {
	chain := queryDefault(r, "chain", "sol")
	cfg := h.cfg.Analysis
	if v, ok := queryFloat(r, "volume_threshold"); ok {
		cfg.VolumeThreshold = v
	}
	if v, ok := queryFloat(r, "market_cap_threshold"); ok {
		cfg.MarketCapThreshold = v
	}
	if v, ok := queryInt(r, "min_consistency"); ok {
		cfg.MinConsistency = v
	}

	tokens, err := h.analyzer.AnalyzeTrending(r.Context(), chain, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chain":  chain,
		"count":  len(tokens),
		"tokens": tokens,
	})
}

// DeepAnalysis handles GET /api/v1/analysis/deep/{chain}/{address}.
func (h *Handlers) DeepAnalysis(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	record, err := h.analyzer.DeepAnalyze(r.Context(), vars["address"], vars["chain"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// PumpGraduation handles GET /api/v1/signals/pump-graduation.
func (h *Handlers) PumpGraduation(w http.ResponseWriter, r *http.Request) {
	chain := queryDefault(r, "chain", "sol")
	out, err := h.signals.Graduation(r.Context(), chain, h.cfg.Graduation)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSignals(w, chain, out)
}

// EarlyGems handles GET /api/v1/signals/early-gems.
func (h *Handlers) EarlyGems(w http.ResponseWriter, r *http.Request) {
	chain := queryDefault(r, "chain", "sol")
	cfg := h.cfg.EarlyGem
	if v, ok := queryFloat(r, "min_liquidity"); ok {
		cfg.MinLiquidity = v
	}
	out, err := h.signals.EarlyGems(r.Context(), chain, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSignals(w, chain, out)
}

// Momentum handles GET /api/v1/signals/momentum.
func (h *Handlers) Momentum(w http.ResponseWriter, r *http.Request) {
	chain := queryDefault(r, "chain", "sol")
	cfg := h.cfg.Momentum
	if v, ok := queryFloat(r, "min_vol_mcap_ratio"); ok {
		cfg.MinVolMcapRatio = v
	}
	if v, ok := queryFloat(r, "min_price_change_1h"); ok {
		cfg.MinPriceChange1h = v
	}
	out, err := h.signals.Momentum(r.Context(), chain, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSignals(w, chain, out)
}

// PipelineScan handles GET /api/v1/pipeline/scan.
func (h *Handlers) PipelineScan(w http.ResponseWriter, r *http.Request) {
	chain := queryDefault(r, "chain", "sol")
	candidates, err := h.runner.Run(r.Context(), chain, h.cfg.Pipeline)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chain":      chain,
		"count":      len(candidates),
		"candidates": candidates,
	})
}

// Assess handles POST /api/v1/ai/assess.
func (h *Handlers) Assess(w http.ResponseWriter, r *http.Request) {
	if h.assessor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "no narrative provider configured"})
		return
	}
	var req narrative.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body: " + err.Error()})
		return
	}
	assessment, err := h.assessor.Assess(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// Passthrough routes relay a single upstream payload unchanged.

func (h *Handlers) TokenInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.TokenInfo(ctx, vars["address"], vars["chain"])
	})
}

func (h *Handlers) SecurityInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.SecurityInfo(ctx, vars["address"], vars["chain"])
	})
}

func (h *Handlers) TopBuyers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.TopBuyers(ctx, vars["address"], vars["chain"])
	})
}

func (h *Handlers) TokenPrice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.TokenUSDPrice(ctx, vars["address"], vars["chain"])
	})
}

func (h *Handlers) MarketTrending(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	timeframe := queryDefault(r, "timeframe", "1h")
	if err := source.ValidateTimeframe(timeframe); err != nil {
		writeError(w, err)
		return
	}
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.TrendingTokens(ctx, timeframe, vars["chain"])
	})
}

func (h *Handlers) NewPairs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit, ok := queryInt(r, "limit")
	if !ok {
		limit = 50
	}
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.NewPairs(ctx, limit, vars["chain"])
	})
}

func (h *Handlers) TokensByCompletion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit, ok := queryInt(r, "limit")
	if !ok {
		limit = 50
	}
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.TokensByCompletion(ctx, limit, vars["chain"])
	})
}

func (h *Handlers) SnipedTokens(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	size, ok := queryInt(r, "size")
	if !ok {
		size = 10
	}
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.SnipedTokens(ctx, size, vars["chain"])
	})
}

func (h *Handlers) GasFee(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.GasFee(ctx, vars["chain"])
	})
}

func (h *Handlers) TrendingWallets(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	timeframe := queryDefault(r, "timeframe", "7d")
	tag := queryDefault(r, "tag", "smart_degen")
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.TrendingWallets(ctx, timeframe, tag, vars["chain"])
	})
}

func (h *Handlers) WalletInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	period := queryDefault(r, "period", "7d")
	h.passthrough(w, r, vars["chain"], func(ctx context.Context) (any, error) {
		return h.source.WalletInfo(ctx, vars["address"], period, vars["chain"])
	})
}

// NotFound handles unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found", "path": r.URL.Path})
}

func (h *Handlers) passthrough(w http.ResponseWriter, r *http.Request, chain string, call func(context.Context) (any, error)) {
	if err := source.ValidateChain(chain); err != nil {
		writeError(w, err)
		return
	}
	payload, err := call(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeSignals(w http.ResponseWriter, chain string, out []signals.Signal) {
	writeJSON(w, http.StatusOK, map[string]any{
		"chain":   chain,
		"count":   len(out),
		"signals": out,
	})
}

func writeError(w http.ResponseWriter, err error) {
	var ve *source.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error()})
		return
	}
	var ge *narrative.GenerationError
	if errors.As(err, &ge) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": ge.Error()})
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusGatewayTimeout, map[string]any{"error": "upstream timeout"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func queryDefault(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func queryFloat(r *http.Request, key string) (float64, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func queryInt(r *http.Request, key string) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
