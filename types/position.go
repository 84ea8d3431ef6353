package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position is a user's open holding in one symbol. At most one row exists
// per (user, symbol); PurchasePrice is the cost basis recorded when the
// position was opened and is not re-averaged on later buys.
type Position struct {
	UserId        uuid.UUID       `json:"userId"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	OpenedAt      time.Time       `json:"openedAt"`
}
