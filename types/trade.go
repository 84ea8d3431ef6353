package types

import "github.com/shopspring/decimal"

type SideType string

const (
	SideTypeBuy  SideType = "BUY"
	SideTypeSell SideType = "SELL"
)

// TradeResult is returned for every committed trade: the cash balance
// after the fill and the freshly revalued portfolio.
type TradeResult struct {
	Side           SideType        `json:"side"`
	Symbol         string          `json:"symbol"`
	Quantity       decimal.Decimal `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	NewBalance     decimal.Decimal `json:"newBalance"`
	PortfolioValue decimal.Decimal `json:"portfolioValue"`
}
