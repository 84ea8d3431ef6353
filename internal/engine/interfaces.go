package engine

import (
	"context"

	"papertrader/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type quoter interface {
	GetQuote(ctx context.Context, symbol string) (types.Quote, error)
}

type ledger interface {
	GetUser(ctx context.Context, id uuid.UUID) (types.User, error)
	GetPositions(ctx context.Context, userId uuid.UUID) ([]types.Position, error)
	ExecuteBuy(ctx context.Context, userId uuid.UUID, symbol string, quantity, price decimal.Decimal) (decimal.Decimal, error)
	ExecuteSell(ctx context.Context, userId uuid.UUID, symbol string, quantity, price decimal.Decimal) (decimal.Decimal, error)
}
