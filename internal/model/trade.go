package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TradeDirection is the reported transaction direction.
type TradeDirection string

const (
	DirectionBuy      TradeDirection = "buy"
	DirectionSell     TradeDirection = "sell"
	DirectionExchange TradeDirection = "exchange"
)

// ParseDirection normalizes an upstream direction string. Unknown values
// map to exchange, which return computations exclude.
func ParseDirection(s string) TradeDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "purchase":
		return DirectionBuy
	case "sell", "sale", "sale_full", "sale_partial":
		return DirectionSell
	default:
		return DirectionExchange
	}
}

// UnmarshalJSON applies ParseDirection so unrecognized upstream values
// decode as exchange instead of failing.
func (d *TradeDirection) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = ParseDirection(s)
	return nil
}

// AssetType is the tagged variant for the traded instrument kind.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetBond   AssetType = "bond"
	AssetOption AssetType = "option"
	AssetOther  AssetType = "other"
)

// ParseAssetType normalizes an upstream asset type; unknown kinds map
// to other. ETFs are folded into stock, matching the disclosure feed.
func ParseAssetType(s string) AssetType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock", "etf":
		return AssetStock
	case "bond", "municipal-security", "corporate-bond":
		return AssetBond
	case "option", "stock-option", "stock-options":
		return AssetOption
	default:
		return AssetOther
	}
}

// SizeBucket is the upstream-reported value range for a trade
// (e.g. 1,001–15,000 USD). Endpoints are preserved separately and never
// collapsed into a point estimate.
type SizeBucket struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Mid returns the bucket midpoint. Display-only; aggregates report both
// endpoints.
func (b SizeBucket) Mid() float64 { return (b.Low + b.High) / 2 }

// TradeID identifies a single transaction within a disclosure report.
type TradeID struct {
	ReportID string `json:"report_id"`
	TxIndex  int    `json:"tx_index"`
}

// String returns "reportID/txIndex", the stable ordering key for trades.
func (id TradeID) String() string {
	return fmt.Sprintf("%s/%d", id.ReportID, id.TxIndex)
}

// Trade is one disclosed transaction. It references its politician and
// issuer by ID only; resolution to full records goes through the client's
// side-table resolver.
type Trade struct {
	ReportID   string         `json:"report_id"`
	TxIndex    int            `json:"tx_index"`
	Politician PoliticianID   `json:"politician_id"`
	Issuer     IssuerID       `json:"issuer_id"`
	Ticker     string         `json:"ticker,omitempty"`
	Asset      AssetType      `json:"asset_type"`
	Direction  TradeDirection `json:"direction"`
	Size       SizeBucket     `json:"size"`
	TxDate     Date           `json:"tx_date"`
	PubDate    Date           `json:"pub_date"`
	Price      *float64       `json:"price,omitempty"`
	Value      *float64       `json:"value,omitempty"`
}

// ID returns the trade's composite identifier.
func (t Trade) ID() TradeID {
	return TradeID{ReportID: t.ReportID, TxIndex: t.TxIndex}
}
