package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price for a symbol. Quotes are ephemeral and
// never persisted.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Volume        decimal.Decimal `json:"volume"`
	PreviousClose decimal.Decimal `json:"previousClose"`
	TradingDay    string          `json:"tradingDay"`
	AsOf          time.Time       `json:"asOf"`
}

type MarketStatus struct {
	MarketType       string `json:"marketType"`
	Region           string `json:"region"`
	PrimaryExchanges string `json:"primaryExchanges"`
	LocalOpen        string `json:"localOpen"`
	LocalClose       string `json:"localClose"`
	CurrentStatus    string `json:"currentStatus"`
}
