package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Candle struct {
	Symbol    string          `json:"symbol"`
	Open      decimal.Decimal `json:"open"`
	Close     decimal.Decimal `json:"close"`
	High      decimal.Decimal `json:"high" `
	Low       decimal.Decimal `json:"low"`
	Volume    decimal.Decimal `json:"volume"`
	Range     SeriesRange     `json:"range"`
	Timestamp time.Time       `json:"timestamp"`
}
