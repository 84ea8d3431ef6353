package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"papertrader/internal/quote"
	"papertrader/internal/repository"
	"papertrader/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type mockQuoter struct {
	quotes map[string]types.Quote
	errs   map[string]error
	calls  int
}

func (m *mockQuoter) GetQuote(_ context.Context, symbol string) (types.Quote, error) {
	m.calls++
	if err, ok := m.errs[symbol]; ok {
		return types.Quote{}, err
	}
	q, ok := m.quotes[symbol]
	if !ok {
		return types.Quote{}, fmt.Errorf("%s: %w", symbol, quote.ErrSymbolNotFound)
	}
	return q, nil
}

// memLedger mirrors the repository's buy/sell semantics in memory,
// including the no-mutation-on-rejection guarantee.
type memLedger struct {
	users     map[uuid.UUID]types.User
	positions map[string]types.Position
}

func newMemLedger(users ...types.User) *memLedger {
	l := &memLedger{
		users:     make(map[uuid.UUID]types.User),
		positions: make(map[string]types.Position),
	}
	for _, u := range users {
		l.users[u.Id] = u
	}
	return l
}

func posKey(userId uuid.UUID, symbol string) string {
	return userId.String() + ":" + symbol
}

func (l *memLedger) GetUser(_ context.Context, id uuid.UUID) (types.User, error) {
	user, ok := l.users[id]
	if !ok {
		return types.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (l *memLedger) GetPositions(_ context.Context, userId uuid.UUID) ([]types.Position, error) {
	var out []types.Position
	for _, pos := range l.positions {
		if pos.UserId == userId {
			out = append(out, pos)
		}
	}
	return out, nil
}

func (l *memLedger) ExecuteBuy(_ context.Context, userId uuid.UUID, symbol string, quantity, price decimal.Decimal) (decimal.Decimal, error) {
	user, ok := l.users[userId]
	if !ok {
		return decimal.Zero, repository.ErrUserNotFound
	}
	cost := price.Mul(quantity)
	if cost.GreaterThan(user.Balance) {
		return decimal.Zero, repository.ErrInsufficientFunds
	}
	user.Balance = user.Balance.Sub(cost)
	l.users[userId] = user

	key := posKey(userId, symbol)
	if pos, ok := l.positions[key]; ok {
		pos.Quantity = pos.Quantity.Add(quantity)
		l.positions[key] = pos
	} else {
		l.positions[key] = types.Position{
			UserId:        userId,
			Symbol:        symbol,
			Quantity:      quantity,
			PurchasePrice: price,
			OpenedAt:      time.UnixMilli(1),
		}
	}
	return user.Balance, nil
}

func (l *memLedger) ExecuteSell(_ context.Context, userId uuid.UUID, symbol string, quantity, price decimal.Decimal) (decimal.Decimal, error) {
	user, ok := l.users[userId]
	if !ok {
		return decimal.Zero, repository.ErrUserNotFound
	}
	key := posKey(userId, symbol)
	pos, ok := l.positions[key]
	if !ok || quantity.GreaterThan(pos.Quantity) {
		return decimal.Zero, repository.ErrInsufficientShares
	}
	remaining := pos.Quantity.Sub(quantity)
	if remaining.IsZero() {
		delete(l.positions, key)
	} else {
		pos.Quantity = remaining
		l.positions[key] = pos
	}
	user.Balance = user.Balance.Add(price.Mul(quantity))
	l.users[userId] = user
	return user.Balance, nil
}

func (l *memLedger) snapshot() string {
	var lines []string
	for id, user := range l.users {
		lines = append(lines, id.String()+"="+user.Balance.String())
	}
	for key, pos := range l.positions {
		lines = append(lines, key+"="+pos.Quantity.String()+"@"+pos.PurchasePrice.String())
	}
	sort.Strings(lines)
	return strings.Join(lines, ";")
}

func newTestExecutor(quotes *mockQuoter, db *memLedger) *Executor {
	return NewExecutor(quotes, db, NewValuator(quotes, db), zerolog.Nop())
}

func d(value string) decimal.Decimal { return decimal.RequireFromString(value) }

func TestExecutorBuy(t *testing.T) {
	userId := uuid.New()

	tests := []struct {
		name        string
		balance     decimal.Decimal
		price       decimal.Decimal
		symbol      string
		quantity    decimal.Decimal
		wantBalance decimal.Decimal
		wantQty     decimal.Decimal
		wantErr     error
	}{
		{
			name:        "buy within balance",
			balance:     d("1000.00"),
			price:       d("100.00"),
			symbol:      "AAPL",
			quantity:    d("5"),
			wantBalance: d("500.00"),
			wantQty:     d("5"),
		},
		{
			name:     "insufficient funds",
			balance:  d("100.00"),
			price:    d("50.00"),
			symbol:   "AAPL",
			quantity: d("10"),
			wantErr:  repository.ErrInsufficientFunds,
		},
		{
			name:     "zero quantity",
			balance:  d("1000"),
			price:    d("100"),
			symbol:   "AAPL",
			quantity: d("0"),
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "negative quantity",
			balance:  d("1000"),
			price:    d("100"),
			symbol:   "AAPL",
			quantity: d("-3"),
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "empty symbol",
			balance:  d("1000"),
			price:    d("100"),
			symbol:   "",
			quantity: d("1"),
			wantErr:  ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemLedger(types.User{Id: userId, Username: "alice", Balance: tt.balance})
			quotes := &mockQuoter{quotes: map[string]types.Quote{"AAPL": {Symbol: "AAPL", Price: tt.price}}}
			exec := newTestExecutor(quotes, db)

			before := db.snapshot()
			result, err := exec.Buy(context.Background(), userId, tt.symbol, tt.quantity)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Buy() error = %v, want %v", err, tt.wantErr)
				}
				if got := db.snapshot(); got != before {
					t.Errorf("rejected buy mutated ledger: %q -> %q", before, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Buy() unexpected error = %v", err)
			}
			if !result.NewBalance.Equal(tt.wantBalance) {
				t.Errorf("Buy() newBalance = %v, want %v", result.NewBalance, tt.wantBalance)
			}
			pos := db.positions[posKey(userId, tt.symbol)]
			if !pos.Quantity.Equal(tt.wantQty) {
				t.Errorf("Buy() position quantity = %v, want %v", pos.Quantity, tt.wantQty)
			}
		})
	}
}

func TestExecutorBuyKeepsCostBasis(t *testing.T) {
	userId := uuid.New()
	db := newMemLedger(types.User{Id: userId, Balance: d("10000")})
	quotes := &mockQuoter{quotes: map[string]types.Quote{"AAPL": {Symbol: "AAPL", Price: d("100")}}}
	exec := newTestExecutor(quotes, db)

	if _, err := exec.Buy(context.Background(), userId, "AAPL", d("5")); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	quotes.quotes["AAPL"] = types.Quote{Symbol: "AAPL", Price: d("200")}
	if _, err := exec.Buy(context.Background(), userId, "AAPL", d("5")); err != nil {
		t.Fatalf("second buy: %v", err)
	}

	pos := db.positions[posKey(userId, "AAPL")]
	if !pos.Quantity.Equal(d("10")) {
		t.Errorf("quantity = %v, want 10", pos.Quantity)
	}
	if !pos.PurchasePrice.Equal(d("100")) {
		t.Errorf("cost basis re-averaged to %v, want original 100", pos.PurchasePrice)
	}
}

func TestExecutorSell(t *testing.T) {
	userId := uuid.New()

	tests := []struct {
		name        string
		balance     decimal.Decimal
		held        decimal.Decimal
		price       decimal.Decimal
		quantity    decimal.Decimal
		wantBalance decimal.Decimal
		wantGone    bool
		wantQty     decimal.Decimal
		wantErr     error
	}{
		{
			name:        "sell entire position deletes it",
			balance:     d("0"),
			held:        d("10"),
			price:       d("20.00"),
			quantity:    d("10"),
			wantBalance: d("200.00"),
			wantGone:    true,
		},
		{
			name:        "partial sell",
			balance:     d("50"),
			held:        d("10"),
			price:       d("20"),
			quantity:    d("4"),
			wantBalance: d("130"),
			wantQty:     d("6"),
		},
		{
			name:     "sell without position",
			balance:  d("100"),
			held:     decimal.Zero,
			price:    d("20"),
			quantity: d("1"),
			wantErr:  repository.ErrInsufficientShares,
		},
		{
			name:     "sell more than held",
			balance:  d("100"),
			held:     d("3"),
			price:    d("20"),
			quantity: d("5"),
			wantErr:  repository.ErrInsufficientShares,
		},
		{
			name:     "zero quantity",
			balance:  d("100"),
			held:     d("3"),
			price:    d("20"),
			quantity: d("0"),
			wantErr:  ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemLedger(types.User{Id: userId, Balance: tt.balance})
			if tt.held.IsPositive() {
				db.positions[posKey(userId, "AAPL")] = types.Position{
					UserId: userId, Symbol: "AAPL", Quantity: tt.held, PurchasePrice: d("15"),
				}
			}
			quotes := &mockQuoter{quotes: map[string]types.Quote{"AAPL": {Symbol: "AAPL", Price: tt.price}}}
			exec := newTestExecutor(quotes, db)

			before := db.snapshot()
			result, err := exec.Sell(context.Background(), userId, "AAPL", tt.quantity)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Sell() error = %v, want %v", err, tt.wantErr)
				}
				if got := db.snapshot(); got != before {
					t.Errorf("rejected sell mutated ledger: %q -> %q", before, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Sell() unexpected error = %v", err)
			}
			if !result.NewBalance.Equal(tt.wantBalance) {
				t.Errorf("Sell() newBalance = %v, want %v", result.NewBalance, tt.wantBalance)
			}
			pos, ok := db.positions[posKey(userId, "AAPL")]
			if tt.wantGone {
				if ok {
					t.Errorf("position still present after full sell: %+v", pos)
				}
				return
			}
			if !pos.Quantity.Equal(tt.wantQty) {
				t.Errorf("Sell() remaining quantity = %v, want %v", pos.Quantity, tt.wantQty)
			}
		})
	}
}

func TestExecutorBuySellRoundTrip(t *testing.T) {
	userId := uuid.New()
	db := newMemLedger(types.User{Id: userId, Balance: d("1234.56")})
	quotes := &mockQuoter{quotes: map[string]types.Quote{"MSFT": {Symbol: "MSFT", Price: d("101.25")}}}
	exec := newTestExecutor(quotes, db)

	if _, err := exec.Buy(context.Background(), userId, "MSFT", d("7")); err != nil {
		t.Fatalf("buy: %v", err)
	}
	result, err := exec.Sell(context.Background(), userId, "MSFT", d("7"))
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if !result.NewBalance.Equal(d("1234.56")) {
		t.Errorf("round trip balance = %v, want 1234.56", result.NewBalance)
	}
	if _, ok := db.positions[posKey(userId, "MSFT")]; ok {
		t.Error("position survived round trip")
	}
}

func TestExecutorQuoteFailures(t *testing.T) {
	userId := uuid.New()

	tests := []struct {
		name     string
		quoteErr error
		wantErr  error
	}{
		{"rate limited", quote.ErrRateLimited, quote.ErrRateLimited},
		{"unknown symbol", quote.ErrSymbolNotFound, ErrInvalidSymbol},
		{"transport", errors.New("connection refused"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemLedger(types.User{Id: userId, Balance: d("1000")})
			quotes := &mockQuoter{errs: map[string]error{"AAPL": tt.quoteErr}}
			exec := newTestExecutor(quotes, db)

			before := db.snapshot()
			_, err := exec.Buy(context.Background(), userId, "AAPL", d("1"))
			if err == nil {
				t.Fatal("Buy() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Buy() error = %v, want %v", err, tt.wantErr)
			}
			if got := db.snapshot(); got != before {
				t.Errorf("failed quote mutated ledger: %q -> %q", before, got)
			}
		})
	}
}

func TestExecutorValidationSkipsQuoteFetch(t *testing.T) {
	quotes := &mockQuoter{}
	exec := newTestExecutor(quotes, newMemLedger())

	if _, err := exec.Buy(context.Background(), uuid.Nil, "AAPL", d("1")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Buy() error = %v, want %v", err, ErrInvalidInput)
	}
	if _, err := exec.Sell(context.Background(), uuid.New(), "AAPL", d("-1")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Sell() error = %v, want %v", err, ErrInvalidInput)
	}
	if quotes.calls != 0 {
		t.Errorf("invalid input still fetched %d quotes", quotes.calls)
	}
}
