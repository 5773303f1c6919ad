package model

// IssuerID is the disclosure API's stable identifier for a traded entity.
type IssuerID string

// MarketCapClass buckets issuers by market capitalization.
type MarketCapClass string

const (
	MarketCapMicro MarketCapClass = "micro"
	MarketCapSmall MarketCapClass = "small"
	MarketCapMid   MarketCapClass = "mid"
	MarketCapLarge MarketCapClass = "large"
	MarketCapMega  MarketCapClass = "mega"
)

// Issuer is a traded entity (company, fund, sovereign) referenced by trades.
// Ticker is empty for unlisted issuers such as municipal bonds.
type Issuer struct {
	ID          IssuerID        `json:"id"`
	Name        string          `json:"name"`
	Ticker      string          `json:"ticker,omitempty"`
	Sector      string          `json:"sector,omitempty"`
	Country     string          `json:"country,omitempty"`
	MarketCap   MarketCapClass  `json:"market_cap_class,omitempty"`
	Performance *IssuerSnapshot `json:"performance,omitempty"`
}

// IssuerSnapshot is the upstream's derived performance snapshot for an
// issuer. Derived, never authoritative.
type IssuerSnapshot struct {
	CountTrades      int     `json:"count_trades"`
	CountPoliticians int     `json:"count_politicians"`
	Volume           int64   `json:"volume"`
	Return90d        float64 `json:"return_90d"`
}
