package source

import "fmt"

// Timeframes is the fixed trending window set, in increasing duration. The
// consistency aggregator fans out across all of them.
var Timeframes = []string{"1m", "5m", "1h", "6h", "24h"}

// chainPaths maps short chain codes to the wrapper's path segments.
var chainPaths = map[string]string{
	"sol":  "solana",
	"eth":  "ethereum",
	"base": "base",
	"bsc":  "binance",
}

// ValidationError marks a caller-supplied parameter outside its allowed
// domain. The HTTP boundary maps it to a client error.
type ValidationError struct {
	Param string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Param, e.Value)
}

// ValidateChain checks a short chain code against the supported set.
func ValidateChain(chain string) error {
	if _, ok := chainPaths[chain]; !ok {
		return &ValidationError{Param: "chain", Value: chain}
	}
	return nil
}

// ValidateTimeframe checks a trending timeframe against the fixed set.
func ValidateTimeframe(tf string) error {
	for _, t := range Timeframes {
		if t == tf {
			return nil
		}
	}
	return &ValidationError{Param: "timeframe", Value: tf}
}

// ChainPath resolves a short chain code to the wrapper path segment,
// passing unknown codes through untouched.
func ChainPath(chain string) string {
	if p, ok := chainPaths[chain]; ok {
		return p
	}
	return chain
}
