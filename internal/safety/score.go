// Package safety computes the heuristic 0-100 safety score for a token
// snapshot. The scorer is a pure function: no I/O, no randomness, identical
// input always yields an identical score and breakdown.
package safety

import (
	"fmt"
	"math"
	"time"
)

// Input is the snapshot the scorer evaluates. Pointer fields distinguish a
// genuinely observed zero from an absent measurement; the distinction drives
// the adaptive denominator.
type Input struct {
	Market   Market
	Security Security
	Holders  Holders
	Socials  Socials
}

// Market carries the liquidity/holder/age signals.
type Market struct {
	Liquidity        *float64
	HolderCount      *float64
	CreatedTimestamp *float64 // unix seconds
}

// Security carries the contract safety flags. A nil flag is unknown and
// earns nothing either way.
type Security struct {
	IsHoneypot    *bool
	IsMintable    *bool
	RenouncedMint *bool
}

// Holders carries the concentration signals. Concentration is judged present
// when the value is a positive number or a non-empty holder list exists;
// otherwise the whale bucket is excluded from the denominator entirely.
type Holders struct {
	WhaleConcentrationTop10 *float64 // percent of supply held by top 10
	TopHolders              []map[string]any
}

// Socials carries the social-presence links.
type Socials struct {
	Website  string
	Twitter  string
	Telegram string
	Discord  string
}

// Score is the scorer output: a 0-100 value re-normalized against only the
// buckets that were actually countable, plus one breakdown line per bucket
// in a fixed order.
type Score struct {
	Score     float64  `json:"score"`
	Breakdown []string `json:"breakdown"`
}

// Bucket weight ceilings.
const (
	maxLiquidity = 30
	maxHolders   = 20
	maxAge       = 10
	maxSecurity  = 20
	maxWhale     = 20
	maxSocial    = 15
)

// Evaluate scores a snapshot at the given reference time. The time only
// feeds the token-age bucket; passing it in keeps the function deterministic.
func Evaluate(in Input, now time.Time) Score {
	var earned, possible int
	breakdown := make([]string, 0, 6)

	// Liquidity, 0-30.
	liq := deref(in.Market.Liquidity)
	pts := 0
	switch {
	case liq > 100_000:
		pts = 30
	case liq > 50_000:
		pts = 20
	case liq > 10_000:
		pts = 10
	}
	earned += pts
	possible += maxLiquidity
	breakdown = append(breakdown, fmt.Sprintf("Liquidity: $%.0f (+%d/%d)", liq, pts, maxLiquidity))

	// Holder count, 0-20.
	holders := deref(in.Market.HolderCount)
	pts = 0
	switch {
	case holders > 1000:
		pts = 20
	case holders > 500:
		pts = 15
	case holders > 100:
		pts = 5
	}
	earned += pts
	possible += maxHolders
	breakdown = append(breakdown, fmt.Sprintf("Holders: %.0f (+%d/%d)", holders, pts, maxHolders))

	// Token age, 0-10. Not adaptive: an unknown age still counts against the
	// denominator, it just earns nothing.
	pts = 0
	possible += maxAge
	if ts := in.Market.CreatedTimestamp; ts != nil && *ts > 0 {
		ageHours := now.Sub(time.Unix(int64(*ts), 0)).Hours()
		switch {
		case ageHours > 168:
			pts = 10
		case ageHours > 24:
			pts = 5
		}
		earned += pts
		breakdown = append(breakdown, fmt.Sprintf("Token Age: %.1fh (+%d/%d)", ageHours, pts, maxAge))
	} else {
		breakdown = append(breakdown, fmt.Sprintf("Token Age: unknown (+0/%d)", maxAge))
	}

	// Security flags, 0-20. An unknown flag earns nothing but is never a
	// penalty beyond the lost points.
	pts = 0
	if in.Security.IsHoneypot != nil && !*in.Security.IsHoneypot {
		pts += 10
	}
	if (in.Security.IsMintable != nil && !*in.Security.IsMintable) ||
		(in.Security.RenouncedMint != nil && *in.Security.RenouncedMint) {
		pts += 10
	}
	earned += pts
	possible += maxSecurity
	breakdown = append(breakdown, fmt.Sprintf("Security Flags: (+%d/%d)", pts, maxSecurity))

	// Whale concentration, 0-20, adaptive. A bare 0.0 with no holder list is
	// treated as missing rather than perfectly distributed; that is a
	// heuristic carried from upstream, not a verified semantic.
	conc := in.Holders.WhaleConcentrationTop10
	present := (conc != nil && *conc > 0) || len(in.Holders.TopHolders) > 0
	if present {
		value := 100.0 // unknown but measurable: assume the worst
		if conc != nil {
			value = *conc
		}
		pts = 0
		switch {
		case value < 30:
			pts = 20
		case value < 50:
			pts = 10
		case value < 70:
			pts = 5
		}
		earned += pts
		possible += maxWhale
		breakdown = append(breakdown, fmt.Sprintf("Whale Concentration: %.1f%% (+%d/%d)", value, pts, maxWhale))
	} else {
		breakdown = append(breakdown, "Whale Concentration: N/A (Excluded)")
	}

	// Social presence, 0-15.
	pts = 0
	if in.Socials.Website != "" {
		pts += 5
	}
	if in.Socials.Twitter != "" {
		pts += 5
	}
	if in.Socials.Telegram != "" || in.Socials.Discord != "" {
		pts += 5
	}
	earned += pts
	possible += maxSocial
	breakdown = append(breakdown, fmt.Sprintf("Social Presence: (+%d/%d)", pts, maxSocial))

	score := 0.0
	if possible > 0 {
		score = math.Round(float64(earned)/float64(possible)*100*100) / 100
	}
	return Score{Score: score, Breakdown: breakdown}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
