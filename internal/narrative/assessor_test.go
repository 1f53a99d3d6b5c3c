package narrative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider returns a fixed reply and remembers the prompts it saw.
type scriptedProvider struct {
	reply string
	err   error

	systemPrompt string
	userPrompt   string
}

func (p *scriptedProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	p.systemPrompt = systemPrompt
	p.userPrompt = userPrompt
	return p.reply, p.err
}

const validReply = `{
	"verdict": "BULLISH",
	"summary": "Strong launch, liquidity holding.",
	"explanation": "Liquidity above $100k and honeypot check passed.",
	"risk": {
		"risk_level": "MEDIUM",
		"score": 62,
		"risk_factors": ["young token"],
		"positive_signals": ["locked liquidity", "holder growth"]
	},
	"entry_suggestion": "Ape small now.",
	"meme_potential_score": 80
}`

func sampleRequest() Request {
	price := 0.002
	return Request{
		Token: TokenContext{
			Name:    "dogwifhat",
			Symbol:  "WIF",
			Address: "So1abc",
			Chain:   "sol",
			Price:   &price,
		},
	}
}

func TestAssessParsesValidReply(t *testing.T) {
	provider := &scriptedProvider{reply: validReply}
	assessor := NewAssessor(provider)

	got, err := assessor.Assess(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "BULLISH", got.Verdict)
	assert.Equal(t, "MEDIUM", got.Risk.RiskLevel)
	assert.Equal(t, 62, got.Risk.Score)
	assert.Equal(t, 80, got.MemePotentialScore)

	// The token snapshot must be embedded in the prompt.
	assert.Contains(t, provider.userPrompt, `"WIF"`)
	assert.Contains(t, provider.userPrompt, "So1abc")
}

func TestAssessStripsCodeFences(t *testing.T) {
	provider := &scriptedProvider{reply: "```json\n" + validReply + "\n```"}
	assessor := NewAssessor(provider)

	got, err := assessor.Assess(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "BULLISH", got.Verdict)
}

func TestAssessProviderFailure(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("api quota exhausted")}
	assessor := NewAssessor(provider)

	_, err := assessor.Assess(context.Background(), sampleRequest())
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "provider", ge.Stage)
}

func TestAssessSchemaFailures(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"not_json", "I think this token looks great!"},
		{"bad_verdict", `{"verdict": "MAYBE", "summary": "x", "risk": {"risk_level": "LOW", "score": 50}}`},
		{"bad_risk_level", `{"verdict": "NEUTRAL", "summary": "x", "risk": {"risk_level": "SEVERE", "score": 50}}`},
		{"score_out_of_range", `{"verdict": "NEUTRAL", "summary": "x", "risk": {"risk_level": "LOW", "score": 150}}`},
		{"empty_summary", `{"verdict": "NEUTRAL", "summary": "", "risk": {"risk_level": "LOW", "score": 50}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assessor := NewAssessor(&scriptedProvider{reply: tc.reply})
			_, err := assessor.Assess(context.Background(), sampleRequest())

			var ge *GenerationError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, "schema", ge.Stage)
		})
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json_fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare_fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading_prose", "Here you go: ```json\n{\"a\":1}\n```", `{"a":1}`},
		{"unclosed_fence", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.in))
		})
	}
}
