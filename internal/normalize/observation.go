package normalize

// Observation is one sighting of a token in one timeframe's trending list.
// Numeric fields default to 0 when the upstream record omits them; records
// whose core numerics are present but unparseable are rejected outright.
type Observation struct {
	Chain     string
	Address   string
	Symbol    string
	Timeframe string

	Price       float64
	Volume      float64
	MarketCap   float64
	PriceChange float64

	HolderCount      float64
	Top10HolderRate  float64
	RenouncedMint    float64
	RenouncedFreeze  float64
	BurnRatio        float64
	BluechipOwnerPct float64
	Launchpad        string
}

// ObservationFrom builds an Observation from a raw trending record. The
// second return is false when any core numeric field is present but cannot
// be parsed; such records are skipped by the caller, never defaulted.
func ObservationFrom(m map[string]any, timeframe, fallbackChain string) (Observation, bool) {
	price, ok1 := CoerceFloat(m["price"])
	volume, ok2 := CoerceFloat(m["volume"])
	mcap, ok3 := CoerceFloat(m["market_cap"])
	change, ok4 := CoerceFloat(m["price_change_percent"])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Observation{}, false
	}

	chain := AsString(m["chain"])
	if chain == "" {
		chain = fallbackChain
	}

	return Observation{
		Chain:            chain,
		Address:          AsString(m["address"]),
		Symbol:           AsString(m["symbol"]),
		Timeframe:        timeframe,
		Price:            price,
		Volume:           volume,
		MarketCap:        mcap,
		PriceChange:      change,
		HolderCount:      AsFloat(m["holder_count"]),
		Top10HolderRate:  AsFloat(m["top_10_holder_rate"]),
		RenouncedMint:    AsFloat(m["renounced_mint"]),
		RenouncedFreeze:  AsFloat(m["renounced_freeze_account"]),
		BurnRatio:        AsFloat(m["burn_ratio"]),
		BluechipOwnerPct: AsFloat(m["bluechip_owner_percentage"]),
		Launchpad:        AsString(m["launchpad"]),
	}, true
}
