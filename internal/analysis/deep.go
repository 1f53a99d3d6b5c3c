package analysis

import (
	"context"
	"math"
	"sync"
	"time"

	"trenchwatch/internal/normalize"
	"trenchwatch/internal/safety"
	"trenchwatch/internal/source"
)

// Provenance values for DeepAnalysis.Source.
const (
	SourceTrendingCache = "trending_cache"
	SourceLiveFetch     = "live_fetch"
)

// MarketData is the market sub-object of a deep-analysis record. Pointer
// fields stay nil when the upstream omitted them.
type MarketData struct {
	Symbol           string   `json:"symbol,omitempty"`
	Name             string   `json:"name,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	MarketCap        *float64 `json:"market_cap,omitempty"`
	Liquidity        *float64 `json:"liquidity,omitempty"`
	Volume24h        *float64 `json:"volume_24h,omitempty"`
	PriceChange24h   *float64 `json:"price_change_24h,omitempty"`
	HolderCount      *float64 `json:"holder_count,omitempty"`
	CreatedTimestamp *float64 `json:"created_timestamp,omitempty"`
}

// SecurityInfo is the contract-safety sub-object.
type SecurityInfo struct {
	IsHoneypot           *bool    `json:"is_honeypot,omitempty"`
	IsOpenSource         *bool    `json:"is_open_source,omitempty"`
	IsProxy              *bool    `json:"is_proxy,omitempty"`
	IsMintable           *bool    `json:"is_mintable,omitempty"`
	OwnerAddress         string   `json:"owner_address,omitempty"`
	CreatorAddress       string   `json:"creator_address,omitempty"`
	CanTakeBackOwnership *bool    `json:"can_take_back_ownership,omitempty"`
	HiddenOwner          *bool    `json:"hidden_owner,omitempty"`
	Selfdestruct         *bool    `json:"selfdestruct,omitempty"`
	ExternalCall         *bool    `json:"external_call,omitempty"`
	RenouncedMint        *bool    `json:"renounced_mint,omitempty"`
	RenouncedFreeze      *bool    `json:"renounced_freeze_account,omitempty"`
	BurnRatio            *float64 `json:"burn_ratio,omitempty"`
	BurnStatus           string   `json:"burn_status,omitempty"`
	Launchpad            string   `json:"launchpad,omitempty"`
}

// HolderInfo is the holder-distribution sub-object.
type HolderInfo struct {
	TopBuyersCount          *int             `json:"top_buyers_count,omitempty"`
	WhaleConcentrationTop10 *float64         `json:"whale_concentration_top10,omitempty"`
	TopHolders              []map[string]any `json:"top_holders,omitempty"`
	BluechipOwnerPct        *float64         `json:"bluechip_owner_percentage,omitempty"`
	SmartDegenCount         *float64         `json:"smart_degen_count,omitempty"`
}

// SocialInfo is the social-presence sub-object.
type SocialInfo struct {
	Website  string `json:"website,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Discord  string `json:"discord,omitempty"`
}

// DeepAnalysis is the full per-token snapshot. It is always returned, even
// when every upstream call fails; failures land in Errors and the affected
// sub-objects stay empty.
type DeepAnalysis struct {
	Address    string       `json:"address"`
	Chain      string       `json:"chain"`
	MarketData MarketData   `json:"market_data"`
	Security   SecurityInfo `json:"security"`
	Holders    HolderInfo   `json:"holders"`
	Socials    SocialInfo   `json:"socials"`
	Safety     safety.Score `json:"safety"`
	Source     string       `json:"source"`
	Errors     []string     `json:"errors"`
}

// DeepAnalyze builds the snapshot for one contract. The 1h trending cache is
// checked first; a hit is both faster and more complete for tokens currently
// trending. Otherwise token info, security info and top buyers are fetched
// concurrently with per-branch failure capture.
func (s *Service) DeepAnalyze(ctx context.Context, address, chain string) (*DeepAnalysis, error) {
	if err := source.ValidateChain(chain); err != nil {
		return nil, err
	}

	if trending, err := s.src.TrendingTokens(ctx, "1h", chain); err == nil {
		for _, token := range normalize.ExtractList(trending, normalize.TrendingKeys...) {
			if normalize.AsString(token["address"]) == address {
				return fromTrendingToken(token, address, chain, s.now()), nil
			}
		}
	}

	type branch struct {
		payload any
		err     error
	}
	results := make([]branch, 3)

	var wg sync.WaitGroup
	fetches := []func(context.Context) (any, error){
		func(ctx context.Context) (any, error) { return s.src.TokenInfo(ctx, address, chain) },
		func(ctx context.Context) (any, error) { return s.src.SecurityInfo(ctx, address, chain) },
		func(ctx context.Context) (any, error) { return s.src.TopBuyers(ctx, address, chain) },
	}
	for i, fetch := range fetches {
		wg.Add(1)
		go func(i int, fetch func(context.Context) (any, error)) {
			defer wg.Done()
			results[i].payload, results[i].err = fetch(ctx)
		}(i, fetch)
	}
	wg.Wait()

	record := &DeepAnalysis{
		Address: address,
		Chain:   chain,
		Source:  SourceLiveFetch,
		Errors:  []string{},
	}

	applyTokenInfo(record, results[0].payload, results[0].err)
	applySecurityInfo(record, results[1].payload, results[1].err)
	applyTopBuyers(record, results[2].payload, results[2].err)

	record.Safety = safety.Evaluate(record.safetyInput(), s.now())
	return record, nil
}

func applyTokenInfo(record *DeepAnalysis, payload any, err error) {
	if msg, failed := branchFailure(payload, err); failed {
		record.Errors = append(record.Errors, "token info error: "+msg)
		return
	}
	data := normalize.ExtractObject(payload, "token")
	record.MarketData = MarketData{
		Symbol:           normalize.AsString(data["symbol"]),
		Name:             normalize.AsString(data["name"]),
		Price:            normalize.OptFloat(data, "price"),
		MarketCap:        normalize.OptFloat(data, "market_cap"),
		Liquidity:        normalize.OptFloat(data, "liquidity"),
		Volume24h:        normalize.OptFloat(data, "volume"),
		PriceChange24h:   normalize.OptFloat(data, "price_change_24h"),
		HolderCount:      normalize.OptFloat(data, "holder_count"),
		CreatedTimestamp: normalize.OptFloat(data, "created_timestamp"),
	}
	record.Socials = SocialInfo{
		Website:  normalize.AsString(data["website"]),
		Twitter:  normalize.AsString(data["twitter_username"]),
		Telegram: normalize.AsString(data["telegram"]),
		Discord:  normalize.AsString(data["discord"]),
	}
}

func applySecurityInfo(record *DeepAnalysis, payload any, err error) {
	if msg, failed := branchFailure(payload, err); failed {
		record.Errors = append(record.Errors, "security info error: "+msg)
		return
	}
	data := normalize.ExtractObject(payload, "security_info")
	record.Security = SecurityInfo{
		IsHoneypot:           normalize.OptBool(data, "is_honeypot"),
		IsOpenSource:         normalize.OptBool(data, "is_open_source"),
		IsProxy:              normalize.OptBool(data, "is_proxy"),
		IsMintable:           normalize.OptBool(data, "is_mintable"),
		OwnerAddress:         normalize.AsString(data["owner_address"]),
		CreatorAddress:       normalize.AsString(data["creator_address"]),
		CanTakeBackOwnership: normalize.OptBool(data, "can_take_back_ownership"),
		HiddenOwner:          normalize.OptBool(data, "hidden_owner"),
		Selfdestruct:         normalize.OptBool(data, "selfdestruct"),
		ExternalCall:         normalize.OptBool(data, "external_call"),
		RenouncedMint:        normalize.OptBool(data, "renounced_mint"),
		RenouncedFreeze:      normalize.OptBool(data, "renounced_freeze_account"),
	}
}

func applyTopBuyers(record *DeepAnalysis, payload any, err error) {
	if msg, failed := branchFailure(payload, err); failed {
		record.Errors = append(record.Errors, "top buyers error: "+msg)
		return
	}
	buyers := normalize.ExtractList(payload, normalize.BuyerKeys...)

	top := buyers
	if len(top) > 10 {
		top = top[:10]
	}
	var total, top10 float64
	for i, buyer := range buyers {
		holding := normalize.AsFloat(buyer["amount"])
		total += holding
		if i < 10 {
			top10 += holding
		}
	}
	concentration := 0.0
	if total > 0 {
		concentration = math.Round(top10/total*100*100) / 100
	}

	count := len(buyers)
	record.Holders = HolderInfo{
		TopBuyersCount:          &count,
		WhaleConcentrationTop10: &concentration,
		TopHolders:              top,
	}
}

// branchFailure folds the two expected failure modes of one concurrent
// branch (a Go error, or an error-marked payload) into a single message.
func branchFailure(payload any, err error) (string, bool) {
	if err != nil {
		return err.Error(), true
	}
	if msg, failed := normalize.ErrorMessage(payload); failed {
		return msg, true
	}
	return "", false
}

// fromTrendingToken converts a flat trending record into the deep-analysis
// shape. Security flags the trending list doesn't carry stay unknown.
func fromTrendingToken(token map[string]any, address, chain string, now time.Time) *DeepAnalysis {
	record := &DeepAnalysis{
		Address: address,
		Chain:   chain,
		MarketData: MarketData{
			Symbol:           normalize.AsString(token["symbol"]),
			Name:             normalize.AsString(token["name"]),
			Price:            normalize.OptFloat(token, "price"),
			MarketCap:        normalize.OptFloat(token, "market_cap"),
			Liquidity:        normalize.OptFloat(token, "liquidity"),
			Volume24h:        normalize.OptFloat(token, "volume"),
			PriceChange24h:   normalize.OptFloat(token, "price_change_percent"),
			HolderCount:      normalize.OptFloat(token, "holder_count"),
			CreatedTimestamp: normalize.OptFloat(token, "open_timestamp"),
		},
		Security: SecurityInfo{
			RenouncedMint:   normalize.OptBool(token, "renounced_mint"),
			RenouncedFreeze: normalize.OptBool(token, "renounced_freeze_account"),
			BurnRatio:       normalize.OptFloat(token, "burn_ratio"),
			BurnStatus:      normalize.AsString(token["burn_status"]),
			Launchpad:       normalize.AsString(token["launchpad"]),
		},
		Holders: HolderInfo{
			BluechipOwnerPct: normalize.OptFloat(token, "bluechip_owner_percentage"),
			SmartDegenCount:  normalize.OptFloat(token, "smart_degen_count"),
		},
		Socials: SocialInfo{
			Website:  normalize.AsString(token["website"]),
			Twitter:  normalize.AsString(token["twitter_username"]),
			Telegram: normalize.AsString(token["telegram"]),
			Discord:  normalize.AsString(token["discord"]),
		},
		Source: SourceTrendingCache,
		Errors: []string{},
	}

	// The trending list reports concentration as a 0-1 rate.
	whale := normalize.AsFloat(token["top_10_holder_rate"]) * 100
	record.Holders.WhaleConcentrationTop10 = &whale

	record.Safety = safety.Evaluate(record.safetyInput(), now)
	return record
}

// safetyInput projects the record onto the scorer's input shape.
func (r *DeepAnalysis) safetyInput() safety.Input {
	return safety.Input{
		Market: safety.Market{
			Liquidity:        r.MarketData.Liquidity,
			HolderCount:      r.MarketData.HolderCount,
			CreatedTimestamp: r.MarketData.CreatedTimestamp,
		},
		Security: safety.Security{
			IsHoneypot:    r.Security.IsHoneypot,
			IsMintable:    r.Security.IsMintable,
			RenouncedMint: r.Security.RenouncedMint,
		},
		Holders: safety.Holders{
			WhaleConcentrationTop10: r.Holders.WhaleConcentrationTop10,
			TopHolders:              r.Holders.TopHolders,
		},
		Socials: safety.Socials{
			Website:  r.Socials.Website,
			Twitter:  r.Socials.Twitter,
			Telegram: r.Socials.Telegram,
			Discord:  r.Socials.Discord,
		},
	}
}
