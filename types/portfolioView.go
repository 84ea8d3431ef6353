package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioView is the valued snapshot of a user's holdings: cash plus the
// current market value of every open position.
type PortfolioView struct {
	Cash                decimal.Decimal `json:"cashBalance"`
	Positions           []PositionValue `json:"positions"`
	TotalPositionsValue decimal.Decimal `json:"totalPositionsValue"`
	TotalValue          decimal.Decimal `json:"totalValue"`
	Time                time.Time       `json:"time"`
}

type PositionValue struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	// Stale is set when CurrentPrice fell back to the cost basis because
	// the quote provider was rate limited.
	Stale bool `json:"stale,omitempty"`
}
