package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractListEnvelopePriority(t *testing.T) {
	raw := map[string]any{
		"rank":   []any{map[string]any{"address": "ranked"}},
		"tokens": []any{map[string]any{"address": "tokened"}},
	}
	got := ExtractList(raw, TrendingKeys...)
	require.Len(t, got, 1)
	assert.Equal(t, "tokened", got[0]["address"])
}

func TestExtractListFallbackKey(t *testing.T) {
	raw := map[string]any{"rank": []any{map[string]any{"address": "a"}}}
	got := ExtractList(raw, TrendingKeys...)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0]["address"])
}

func TestExtractListBareList(t *testing.T) {
	raw := []any{map[string]any{"address": "a"}, "not-an-object", map[string]any{"address": "b"}}
	got := ExtractList(raw, TrendingKeys...)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1]["address"])
}

func TestExtractListErrorMarker(t *testing.T) {
	raw := map[string]any{"error": "rate limited"}
	assert.Nil(t, ExtractList(raw, TrendingKeys...))
}

func TestExtractListUnrecognized(t *testing.T) {
	assert.Nil(t, ExtractList("garbage", TrendingKeys...))
	assert.Nil(t, ExtractList(nil, TrendingKeys...))
	assert.Nil(t, ExtractList(map[string]any{"other": 1}, TrendingKeys...))
}

func TestExtractObject(t *testing.T) {
	nested := map[string]any{"token": map[string]any{"symbol": "ABC"}}
	got := ExtractObject(nested, "token")
	require.NotNil(t, got)
	assert.Equal(t, "ABC", got["symbol"])

	flat := map[string]any{"symbol": "XYZ"}
	got = ExtractObject(flat, "token")
	require.NotNil(t, got)
	assert.Equal(t, "XYZ", got["symbol"])

	assert.Nil(t, ExtractObject(map[string]any{"error": "down"}, "token"))
	assert.Nil(t, ExtractObject([]any{}, "token"))
}

func TestErrorMessage(t *testing.T) {
	msg, ok := ErrorMessage(map[string]any{"error": "boom"})
	assert.True(t, ok)
	assert.Equal(t, "boom", msg)

	_, ok = ErrorMessage(map[string]any{"tokens": []any{}})
	assert.False(t, ok)

	_, ok = ErrorMessage(map[string]any{"error": nil})
	assert.False(t, ok)

	_, ok = ErrorMessage([]any{})
	assert.False(t, ok)
}

func TestCoerceFloat(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		want  float64
		valid bool
	}{
		{"nil", nil, 0, true},
		{"float", 1.5, 1.5, true},
		{"int", 7, 7, true},
		{"numeric_string", "42.5", 42.5, true},
		{"padded_string", "  3 ", 3, true},
		{"empty_string", "", 0, true},
		{"bool_true", true, 1, true},
		{"garbage_string", "abc", 0, false},
		{"structured", map[string]any{}, 0, false},
		{"list", []any{1.0}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, valid := CoerceFloat(tc.in)
			assert.Equal(t, tc.valid, valid)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAsBool(t *testing.T) {
	assert.True(t, AsBool(true))
	assert.True(t, AsBool("true"))
	assert.True(t, AsBool("1"))
	assert.True(t, AsBool(1.0))
	assert.False(t, AsBool("yes"))
	assert.False(t, AsBool(0.0))
	assert.False(t, AsBool(nil))
}

func TestOptFloat(t *testing.T) {
	m := map[string]any{"liq": 5.0, "bad": "xx", "null": nil}

	got := OptFloat(m, "liq")
	require.NotNil(t, got)
	assert.Equal(t, 5.0, *got)

	assert.Nil(t, OptFloat(m, "missing"))
	assert.Nil(t, OptFloat(m, "bad"))
	assert.Nil(t, OptFloat(m, "null"))
}

func TestOptBool(t *testing.T) {
	m := map[string]any{"flag": false, "null": nil}

	got := OptBool(m, "flag")
	require.NotNil(t, got)
	assert.False(t, *got)

	assert.Nil(t, OptBool(m, "missing"))
	assert.Nil(t, OptBool(m, "null"))
}

func TestObservationFrom(t *testing.T) {
	record := map[string]any{
		"address":              "So1abc",
		"symbol":               "WIF",
		"price":                "0.002",
		"volume":               150000.0,
		"market_cap":           nil,
		"price_change_percent": 12.5,
		"holder_count":         900.0,
		"top_10_holder_rate":   0.35,
	}
	obs, ok := ObservationFrom(record, "1h", "sol")
	require.True(t, ok)
	assert.Equal(t, "So1abc", obs.Address)
	assert.Equal(t, "sol", obs.Chain)
	assert.Equal(t, "1h", obs.Timeframe)
	assert.Equal(t, 0.002, obs.Price)
	assert.Equal(t, 150000.0, obs.Volume)
	assert.Equal(t, 0.0, obs.MarketCap) // absent defaults to zero
	assert.Equal(t, 900.0, obs.HolderCount)
}

func TestObservationFromRejectsUnparseable(t *testing.T) {
	record := map[string]any{
		"address": "So1abc",
		"price":   "not-a-number",
		"volume":  1.0,
	}
	_, ok := ObservationFrom(record, "1h", "sol")
	assert.False(t, ok)
}

func TestObservationFromChainOverride(t *testing.T) {
	record := map[string]any{"chain": "eth", "price": 1.0}
	obs, ok := ObservationFrom(record, "5m", "sol")
	require.True(t, ok)
	assert.Equal(t, "eth", obs.Chain)
}
