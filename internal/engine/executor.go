package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"papertrader/internal/quote"
	"papertrader/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Global error declarations.
var (
	ErrInvalidInput  = errors.New("invalid trade input")
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// Executor is the state-mutating trade core. Every request either commits
// one atomic balance+position mutation or leaves the ledger untouched. The
// quote fetch happens before any row lock is taken; the affordability and
// ownership checks are re-run under the lock inside the ledger transaction.
type Executor struct {
	quotes   quoter
	db       ledger
	valuator *Valuator
	log      zerolog.Logger
}

func NewExecutor(quotes quoter, db ledger, valuator *Valuator, log zerolog.Logger) *Executor {
	return &Executor{
		quotes:   quotes,
		db:       db,
		valuator: valuator,
		log:      log.With().Str("component", "executor").Logger(),
	}
}

// Buy purchases quantity shares of symbol at the current quoted price.
func (e *Executor) Buy(ctx context.Context, userId uuid.UUID, symbol string, quantity decimal.Decimal) (types.TradeResult, error) {
	return e.execute(ctx, types.SideTypeBuy, userId, symbol, quantity)
}

// Sell liquidates quantity shares of symbol at the current quoted price.
func (e *Executor) Sell(ctx context.Context, userId uuid.UUID, symbol string, quantity decimal.Decimal) (types.TradeResult, error) {
	return e.execute(ctx, types.SideTypeSell, userId, symbol, quantity)
}

func (e *Executor) execute(ctx context.Context, side types.SideType, userId uuid.UUID, symbol string, quantity decimal.Decimal) (types.TradeResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := validateRequest(userId, symbol, quantity); err != nil {
		return types.TradeResult{}, err
	}

	q, err := e.quotes.GetQuote(ctx, symbol)
	if err != nil {
		if errors.Is(err, quote.ErrSymbolNotFound) {
			return types.TradeResult{}, fmt.Errorf("%s: %w", symbol, ErrInvalidSymbol)
		}
		// Rate limit and transport errors propagate as-is; the trade is
		// rejected with zero mutation either way.
		return types.TradeResult{}, err
	}

	var newBalance decimal.Decimal
	switch side {
	case types.SideTypeBuy:
		newBalance, err = e.db.ExecuteBuy(ctx, userId, symbol, quantity, q.Price)
	case types.SideTypeSell:
		newBalance, err = e.db.ExecuteSell(ctx, userId, symbol, quantity, q.Price)
	default:
		return types.TradeResult{}, fmt.Errorf("%w: unknown side %q", ErrInvalidInput, side)
	}
	if err != nil {
		return types.TradeResult{}, err
	}

	e.log.Info().
		Str("side", string(side)).
		Str("symbol", symbol).
		Str("quantity", quantity.String()).
		Str("price", q.Price.String()).
		Str("newBalance", newBalance.String()).
		Msg("trade committed")

	result := types.TradeResult{
		Side:       side,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      q.Price,
		NewBalance: newBalance,
	}

	// The trade is already committed; the summary valuation degrades to
	// cost basis on a rate limit rather than failing the whole call.
	view, err := e.valuator.ValuePortfolio(ctx, userId)
	if err != nil {
		return types.TradeResult{}, fmt.Errorf("post-trade valuation: %w", err)
	}
	result.PortfolioValue = view.TotalValue
	return result, nil
}

func validateRequest(userId uuid.UUID, symbol string, quantity decimal.Decimal) error {
	if userId == uuid.Nil {
		return fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	if symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrInvalidInput)
	}
	// Explicitly quantity > 0; zero is rejected the same as negative.
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	return nil
}
