// Package narrative builds a structured prompt from a token snapshot,
// delegates text generation to a pluggable provider and validates the reply
// against a fixed verdict schema. Unlike the data-fetch paths, a narrative
// result is all-or-nothing: any provider or schema failure is fatal to the
// request.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Provider generates raw text from a system and user prompt. Selection is
// static per deployment, not per request.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenerationError marks a failed assessment: provider failure or a reply
// that doesn't satisfy the schema. It is surfaced as a server-class error
// and never retried.
type GenerationError struct {
	Stage string // "provider" or "schema"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("narrative assessment failed (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// TokenContext is the market slice of the assessment request.
type TokenContext struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Address     string   `json:"address"`
	Chain       string   `json:"chain"`
	Price       *float64 `json:"price,omitempty"`
	MarketCap   *float64 `json:"market_cap,omitempty"`
	Volume24h   *float64 `json:"volume_24h,omitempty"`
	Liquidity   *float64 `json:"liquidity,omitempty"`
	HolderCount *int     `json:"holder_count,omitempty"`
	AgeHours    *float64 `json:"age_hours,omitempty"`
}

// SecurityContext is the safety slice of the assessment request.
type SecurityContext struct {
	IsHoneypot        *bool    `json:"is_honeypot,omitempty"`
	IsMintable        *bool    `json:"is_mintable,omitempty"`
	IsOpenSource      *bool    `json:"is_open_source,omitempty"`
	OwnerPercentage   *float64 `json:"owner_percentage,omitempty"`
	CreatorPercentage *float64 `json:"creator_percentage,omitempty"`
}

// SocialContext is the optional social slice of the assessment request.
type SocialContext struct {
	TwitterFollowers *int   `json:"twitter_followers,omitempty"`
	TelegramMembers  *int   `json:"telegram_members,omitempty"`
	WebsiteURL       string `json:"website_url,omitempty"`
	TwitterURL       string `json:"twitter_url,omitempty"`
	TelegramURL      string `json:"telegram_url,omitempty"`
}

// Request is the caller-supplied snapshot the assessment is built from.
type Request struct {
	Token          TokenContext    `json:"token"`
	Security       SecurityContext `json:"security"`
	Social         *SocialContext  `json:"social,omitempty"`
	SafetyScore    *float64        `json:"safety_score,omitempty"`
	AdditionalInfo string          `json:"additional_info,omitempty"`
}

// Risk is the risk block of an assessment.
type Risk struct {
	RiskLevel       string   `json:"risk_level"`
	Score           int      `json:"score"`
	RiskFactors     []string `json:"risk_factors"`
	PositiveSignals []string `json:"positive_signals"`
}

// Assessment is the fixed-schema verdict object.
type Assessment struct {
	Verdict            string `json:"verdict"`
	Summary            string `json:"summary"`
	Explanation        string `json:"explanation"`
	Risk               Risk   `json:"risk"`
	EntrySuggestion    string `json:"entry_suggestion,omitempty"`
	MemePotentialScore int    `json:"meme_potential_score"`
}

const systemPrompt = "You are a crypto analysis AI assistant that outputs strict JSON."

const promptTemplate = `You are a seasoned crypto degen analyst and meme coin expert. Your job is to analyze the provided token data and give a brutally honest assessment.
You speak the language of crypto twitter (CT) - using terms like "aped", "jeets", "rug", "moon", "alpha", etc., but keep it professional enough to be actionable.

Analyze the following token data:
%s

Your analysis must be returned as a VALID JSON object matching the following structure exactly:
{
    "verdict": "BULLISH" | "BEARISH" | "NEUTRAL",
    "summary": "A concise 2-3 sentence summary of your thoughts in degen style.",
    "explanation": "A clear, logical explanation of WHY you chose this verdict. Cite specific metrics (e.g., 'Liquidity is too low at $5k', 'Whale concentration is safe at 15%%'). This helps the user decide.",
    "risk": {
        "risk_level": "LOW" | "MEDIUM" | "HIGH" | "EXTREME",
        "score": 0-100, (integer, 100 = safest),
        "risk_factors": ["List of specific concerns..."],
        "positive_signals": ["List of bullish indicators..."]
    },
    "entry_suggestion": "Specific advice on when/if to buy (e.g., 'Wait for dip to X', 'Ape small now', 'Avoid completely').",
    "meme_potential_score": 0-100 (integer)
}

Evaluation Criteria:
- High holder count and liquidity are good.
- High whale concentration is bad (risk of dumps).
- Honeypots or mintable functions are EXTREME risks.
- Active social (if provided) is a strong plus for meme coins.
- Low safety score (if provided) is a major red flag.

IMPORTANT: Return ONLY the JSON object. No markdown formatting, no explanations outside the JSON.`

// Assessor runs narrative assessments via one provider.
type Assessor struct {
	provider Provider
}

// NewAssessor builds an assessor on the given provider.
func NewAssessor(provider Provider) *Assessor {
	return &Assessor{provider: provider}
}

// Assess serializes the snapshot into the prompt, invokes the provider,
// strips incidental code fencing and validates the reply as strict JSON.
func (a *Assessor) Assess(ctx context.Context, req Request) (*Assessment, error) {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, &GenerationError{Stage: "schema", Err: err}
	}

	raw, err := a.provider.Generate(ctx, systemPrompt, fmt.Sprintf(promptTemplate, data))
	if err != nil {
		return nil, &GenerationError{Stage: "provider", Err: err}
	}

	var assessment Assessment
	if err := json.Unmarshal([]byte(StripFences(raw)), &assessment); err != nil {
		return nil, &GenerationError{Stage: "schema", Err: fmt.Errorf("response is not valid JSON: %w", err)}
	}
	if err := assessment.validate(); err != nil {
		return nil, &GenerationError{Stage: "schema", Err: err}
	}
	return &assessment, nil
}

var (
	validVerdicts   = map[string]bool{"BULLISH": true, "BEARISH": true, "NEUTRAL": true}
	validRiskLevels = map[string]bool{"LOW": true, "MEDIUM": true, "HIGH": true, "EXTREME": true}
)

func (a *Assessment) validate() error {
	if !validVerdicts[a.Verdict] {
		return fmt.Errorf("invalid verdict %q", a.Verdict)
	}
	if !validRiskLevels[a.Risk.RiskLevel] {
		return fmt.Errorf("invalid risk level %q", a.Risk.RiskLevel)
	}
	if a.Risk.Score < 0 || a.Risk.Score > 100 {
		return fmt.Errorf("risk score %d outside [0,100]", a.Risk.Score)
	}
	if a.MemePotentialScore < 0 || a.MemePotentialScore > 100 {
		return fmt.Errorf("meme potential score %d outside [0,100]", a.MemePotentialScore)
	}
	if a.Summary == "" {
		return fmt.Errorf("empty summary")
	}
	return nil
}

// StripFences removes a markdown code fence wrapper that some models add
// despite instructions, returning the inner text untouched otherwise.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if i := strings.Index(trimmed, "```json"); i >= 0 {
		rest := trimmed[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(trimmed, "```"); i >= 0 {
		rest := trimmed[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return trimmed
}
