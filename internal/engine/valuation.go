package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"papertrader/internal/quote"
	"papertrader/types"

	"github.com/google/uuid"
)

// Valuator converts positions plus live quotes into current values. A
// rate-limited quote degrades to the position's cost basis instead of
// failing the valuation; any other quote failure propagates.
type Valuator struct {
	quotes quoter
	db     ledger
}

func NewValuator(quotes quoter, db ledger) *Valuator {
	return &Valuator{quotes: quotes, db: db}
}

// ValuePosition prices a single position against a quote result. quoteErr is
// the error returned alongside the quote fetch; on ErrRateLimited the stale
// cost basis is used and the value is flagged stale.
func ValuePosition(pos types.Position, q types.Quote, quoteErr error) (types.PositionValue, error) {
	if quoteErr != nil {
		if !errors.Is(quoteErr, quote.ErrRateLimited) {
			return types.PositionValue{}, fmt.Errorf("value %s: %w", pos.Symbol, quoteErr)
		}
		return types.PositionValue{
			Symbol:        pos.Symbol,
			Quantity:      pos.Quantity,
			PurchasePrice: pos.PurchasePrice,
			CurrentPrice:  pos.PurchasePrice,
			CurrentValue:  pos.PurchasePrice.Mul(pos.Quantity),
			Stale:         true,
		}, nil
	}
	return types.PositionValue{
		Symbol:        pos.Symbol,
		Quantity:      pos.Quantity,
		PurchasePrice: pos.PurchasePrice,
		CurrentPrice:  q.Price,
		CurrentValue:  q.Price.Mul(pos.Quantity),
	}, nil
}

// ValuePortfolio values every position a user holds. The failure unit is
// the whole portfolio: one position failing with an unrecoverable quote
// error aborts the valuation, no partial results.
func (v *Valuator) ValuePortfolio(ctx context.Context, userId uuid.UUID) (types.PortfolioView, error) {
	user, err := v.db.GetUser(ctx, userId)
	if err != nil {
		return types.PortfolioView{}, err
	}
	positions, err := v.db.GetPositions(ctx, userId)
	if err != nil {
		return types.PortfolioView{}, err
	}

	view := types.PortfolioView{
		Cash:      user.Balance,
		Positions: make([]types.PositionValue, 0, len(positions)),
		Time:      time.Now().UTC(),
	}
	for _, pos := range positions {
		q, quoteErr := v.quotes.GetQuote(ctx, pos.Symbol)
		value, err := ValuePosition(pos, q, quoteErr)
		if err != nil {
			return types.PortfolioView{}, err
		}
		view.Positions = append(view.Positions, value)
		view.TotalPositionsValue = view.TotalPositionsValue.Add(value.CurrentValue)
	}
	view.TotalValue = view.Cash.Add(view.TotalPositionsValue)
	return view, nil
}
