// Package source is the client for the upstream blockchain-analytics
// wrapper API. Expected upstream failures (HTTP errors, malformed bodies,
// transport faults) come back as an error-marked payload so callers can
// degrade instead of aborting; only cancellation and an open breaker
// surface as Go errors.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"trenchwatch/internal/telemetry/metrics"
)

// Fetcher is the data-source contract the aggregation and signal layers
// consume. Payloads are deliberately loose: the wrapper's envelopes vary
// and the normalizer owns shape resolution.
type Fetcher interface {
	TrendingTokens(ctx context.Context, timeframe, chain string) (any, error)
	NewPairs(ctx context.Context, limit int, chain string) (any, error)
	TokensByCompletion(ctx context.Context, limit int, chain string) (any, error)
	TokenInfo(ctx context.Context, address, chain string) (any, error)
	SecurityInfo(ctx context.Context, address, chain string) (any, error)
	TopBuyers(ctx context.Context, address, chain string) (any, error)
}

// Config configures the wrapper client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	Burst     int
}

// Client talks to the wrapper over HTTP with a rate limiter and a circuit
// breaker in front.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a wrapper client from config, filling sane defaults.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 5
	}
	if cfg.Burst == 0 {
		cfg.Burst = 10
	}

	settings := gobreaker.Settings{Name: "wrapper"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 5 {
			return true
		}
		total := counts.Requests
		if total < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(total) > 0.25
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// TrendingTokens fetches the top-ranked tokens for one timeframe.
func (c *Client) TrendingTokens(ctx context.Context, timeframe, chain string) (any, error) {
	return c.get(ctx, "trending-tokens",
		fmt.Sprintf("/%s/trending-tokens?timeframe=%s", ChainPath(chain), timeframe))
}

// NewPairs fetches recently opened pairs.
func (c *Client) NewPairs(ctx context.Context, limit int, chain string) (any, error) {
	return c.get(ctx, "new-pairs",
		fmt.Sprintf("/%s/new-pairs?limit=%d", ChainPath(chain), limit))
}

// TokensByCompletion fetches tokens ordered by bonding curve progress.
func (c *Client) TokensByCompletion(ctx context.Context, limit int, chain string) (any, error) {
	return c.get(ctx, "tokens-by-completion",
		fmt.Sprintf("/%s/tokens-by-completion?limit=%d", ChainPath(chain), limit))
}

// TokenInfo fetches market data for one contract.
func (c *Client) TokenInfo(ctx context.Context, address, chain string) (any, error) {
	return c.get(ctx, "token-info",
		fmt.Sprintf("/%s/token-info/%s", ChainPath(chain), address))
}

// SecurityInfo fetches contract safety flags for one contract.
func (c *Client) SecurityInfo(ctx context.Context, address, chain string) (any, error) {
	return c.get(ctx, "security-info",
		fmt.Sprintf("/%s/security-info/%s", ChainPath(chain), address))
}

// TopBuyers fetches the earliest/largest buyers of one contract.
func (c *Client) TopBuyers(ctx context.Context, address, chain string) (any, error) {
	return c.get(ctx, "top-buyers",
		fmt.Sprintf("/%s/top-buyers/%s", ChainPath(chain), address))
}

// SnipedTokens fetches recently sniped tokens.
func (c *Client) SnipedTokens(ctx context.Context, size int, chain string) (any, error) {
	return c.get(ctx, "sniped-tokens",
		fmt.Sprintf("/%s/sniped-tokens?size=%d", ChainPath(chain), size))
}

// GasFee fetches the chain's current gas price.
func (c *Client) GasFee(ctx context.Context, chain string) (any, error) {
	return c.get(ctx, "gas-fee", fmt.Sprintf("/%s/gas-fee", ChainPath(chain)))
}

// TokenUSDPrice fetches the realtime USD price of one contract.
func (c *Client) TokenUSDPrice(ctx context.Context, address, chain string) (any, error) {
	return c.get(ctx, "token-usd-price",
		fmt.Sprintf("/%s/token-usd-price/%s", ChainPath(chain), address))
}

// TrendingWallets fetches top wallets by tag over a window.
func (c *Client) TrendingWallets(ctx context.Context, timeframe, tag, chain string) (any, error) {
	return c.get(ctx, "trending-wallets",
		fmt.Sprintf("/%s/trending-wallets?timeframe=%s&tag=%s", ChainPath(chain), timeframe, tag))
}

// WalletInfo fetches aggregate stats for one wallet.
func (c *Client) WalletInfo(ctx context.Context, address, period, chain string) (any, error) {
	return c.get(ctx, "wallet-info",
		fmt.Sprintf("/%s/wallet-info/%s?period=%s", ChainPath(chain), address, period))
}

func (c *Client) get(ctx context.Context, endpoint, path string) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	payload, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, path)
	})
	metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		// Cancellation and an open breaker are the caller's problem; every
		// other failure degrades to an error-marked payload.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamRequests.WithLabelValues(endpoint, "aborted").Inc()
			return nil, err
		}
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		log.Warn().Err(err).Str("endpoint", endpoint).Msg("upstream request failed")
		return map[string]any{"error": err.Error()}, nil
	}

	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return payload, nil
}

func (c *Client) do(ctx context.Context, path string) (any, error) {
	url := c.baseURL + "/api" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upstream error: %d", resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}
	return payload, nil
}
