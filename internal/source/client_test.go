package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trenchwatch/internal/cache"
	"trenchwatch/internal/normalize"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		BaseURL:   server.URL,
		APIKey:    "test-key",
		Timeout:   2 * time.Second,
		RateLimit: 1000,
		Burst:     1000,
	})
}

func TestClientSendsAPIKeyAndPath(t *testing.T) {
	var gotPath, gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`{"tokens": []}`))
	})

	payload, err := client.TrendingTokens(context.Background(), "1h", "sol")
	require.NoError(t, err)
	assert.Equal(t, "/api/solana/trending-tokens?timeframe=1h", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.NotNil(t, payload)
}

func TestClientChainPathMapping(t *testing.T) {
	paths := make([]string, 0, 4)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{}`))
	})

	for _, chain := range []string{"sol", "eth", "base", "bsc"} {
		_, err := client.GasFee(context.Background(), chain)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"/api/solana/gas-fee",
		"/api/ethereum/gas-fee",
		"/api/base/gas-fee",
		"/api/binance/gas-fee",
	}, paths)
}

func TestClientHTTPErrorBecomesErrorPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	payload, err := client.TokenInfo(context.Background(), "addr", "sol")
	require.NoError(t, err, "HTTP failures degrade to an error payload")

	msg, failed := normalize.ErrorMessage(payload)
	require.True(t, failed)
	assert.Contains(t, msg, "500")
}

func TestClientMalformedBodyBecomesErrorPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	payload, err := client.SecurityInfo(context.Background(), "addr", "sol")
	require.NoError(t, err)

	_, failed := normalize.ErrorMessage(payload)
	assert.True(t, failed)
}

func TestClientCancellationSurfacesAsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.TopBuyers(ctx, "addr", "sol")
	assert.ErrorIs(t, err, context.Canceled)
}

// recordingFetcher counts inner fetches for cache tests.
type recordingFetcher struct {
	Fetcher
	payload any
	calls   int
}

func (r *recordingFetcher) TrendingTokens(ctx context.Context, timeframe, chain string) (any, error) {
	r.calls++
	return r.payload, nil
}

func TestCachedFetcherMemoizes(t *testing.T) {
	inner := &recordingFetcher{payload: map[string]any{"tokens": []any{}}}
	cached := NewCachedFetcher(inner, cache.NewTTLStore(10, time.Minute))

	for i := 0; i < 3; i++ {
		_, err := cached.TrendingTokens(context.Background(), "1h", "sol")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.calls, "repeat fetches within the window hit the cache")
}

func TestCachedFetcherKeysByChainAndTimeframe(t *testing.T) {
	inner := &recordingFetcher{payload: map[string]any{"tokens": []any{}}}
	cached := NewCachedFetcher(inner, cache.NewTTLStore(10, time.Minute))

	_, _ = cached.TrendingTokens(context.Background(), "1h", "sol")
	_, _ = cached.TrendingTokens(context.Background(), "5m", "sol")
	_, _ = cached.TrendingTokens(context.Background(), "1h", "eth")

	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "trending_tokens:sol:1h", TrendingKey("sol", "1h"))
}

func TestCachedFetcherSkipsErrorPayloads(t *testing.T) {
	inner := &recordingFetcher{payload: map[string]any{"error": "rate limited"}}
	cached := NewCachedFetcher(inner, cache.NewTTLStore(10, time.Minute))

	_, _ = cached.TrendingTokens(context.Background(), "1h", "sol")
	_, _ = cached.TrendingTokens(context.Background(), "1h", "sol")

	assert.Equal(t, 2, inner.calls, "degraded payloads are never cached")
}

func TestValidateTimeframe(t *testing.T) {
	for _, tf := range Timeframes {
		assert.NoError(t, ValidateTimeframe(tf))
	}
	err := ValidateTimeframe("2h")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "timeframe", ve.Param)
}
