package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ExecuteBuy debits price*quantity from the user's balance and adds quantity
// to the (user, symbol) position, inside one transaction. The user row is
// locked before the check so concurrent trades for the same user serialize;
// affordability is validated under that lock. On a new position the purchase
// price becomes the cost basis; on an existing one only quantity grows.
//
// Returns the balance after the debit.
func (db *Database) ExecuteBuy(ctx context.Context, userId uuid.UUID, symbol string, quantity, price decimal.Decimal) (decimal.Decimal, error) {
	cost := price.Mul(quantity)

	tx, err := db.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin buy tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	balance, err := lockUserBalance(ctx, tx, userId)
	if err != nil {
		return decimal.Zero, err
	}
	if cost.GreaterThan(balance) {
		return decimal.Zero, ErrInsufficientFunds
	}
	newBalance := balance.Sub(cost)

	if _, err := tx.Exec(ctx, `
		UPDATE users SET balance = $1 WHERE id = $2
	`, newBalance, userId); err != nil {
		return decimal.Zero, fmt.Errorf("debit balance: %w", err)
	}

	// Cost basis stays at the original purchase price on re-buys.
	if _, err := tx.Exec(ctx, `
		INSERT INTO positions (user_id, symbol, quantity, purchase_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, symbol)
		DO UPDATE SET quantity = positions.quantity + EXCLUDED.quantity
	`, userId, symbol, quantity, price); err != nil {
		return decimal.Zero, fmt.Errorf("upsert position: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit buy: %w", err)
	}
	committed = true
	return newBalance, nil
}

// ExecuteSell removes quantity from the (user, symbol) position and credits
// price*quantity to the user's balance, inside one transaction. Lock order
// matches ExecuteBuy: user row first, then position row. A position reduced
// to exactly zero is deleted.
//
// Returns the balance after the credit.
func (db *Database) ExecuteSell(ctx context.Context, userId uuid.UUID, symbol string, quantity, price decimal.Decimal) (decimal.Decimal, error) {
	proceeds := price.Mul(quantity)

	tx, err := db.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin sell tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	balance, err := lockUserBalance(ctx, tx, userId)
	if err != nil {
		return decimal.Zero, err
	}

	var held decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT quantity FROM positions
		WHERE user_id = $1 AND symbol = $2
		FOR UPDATE
	`, userId, symbol).Scan(&held)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrInsufficientShares
		}
		return decimal.Zero, fmt.Errorf("lock position: %w", err)
	}
	if quantity.GreaterThan(held) {
		return decimal.Zero, ErrInsufficientShares
	}

	remaining := held.Sub(quantity)
	if remaining.IsZero() {
		if _, err := tx.Exec(ctx, `
			DELETE FROM positions WHERE user_id = $1 AND symbol = $2
		`, userId, symbol); err != nil {
			return decimal.Zero, fmt.Errorf("delete position: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx, `
			UPDATE positions SET quantity = $1 WHERE user_id = $2 AND symbol = $3
		`, remaining, userId, symbol); err != nil {
			return decimal.Zero, fmt.Errorf("reduce position: %w", err)
		}
	}

	newBalance := balance.Add(proceeds)
	if _, err := tx.Exec(ctx, `
		UPDATE users SET balance = $1 WHERE id = $2
	`, newBalance, userId); err != nil {
		return decimal.Zero, fmt.Errorf("credit balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit sell: %w", err)
	}
	committed = true
	return newBalance, nil
}

func lockUserBalance(ctx context.Context, tx pgx.Tx, userId uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT balance FROM users WHERE id = $1 FOR UPDATE
	`, userId).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("lock user: %w", err)
	}
	return balance, nil
}
