package repository

import (
	"context"
	"errors"
	"fmt"

	"papertrader/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetPosition retrieves a single open position by (user, symbol).
func (db *Database) GetPosition(ctx context.Context, userId uuid.UUID, symbol string) (*types.Position, error) {
	row := db.conn.QueryRow(ctx, `
		SELECT user_id, symbol, quantity, purchase_price, opened_at
		FROM positions WHERE user_id = $1 AND symbol = $2
	`, userId, symbol)

	var pos types.Position
	err := row.Scan(&pos.UserId, &pos.Symbol, &pos.Quantity, &pos.PurchasePrice, &pos.OpenedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("symbol %s %w", symbol, ErrPositionNotFound)
		}
		return nil, err
	}
	return &pos, nil
}

// GetPositions retrieves all open positions for a user, ordered by symbol.
func (db *Database) GetPositions(ctx context.Context, userId uuid.UUID) ([]types.Position, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT user_id, symbol, quantity, purchase_price, opened_at
		FROM positions WHERE user_id = $1 ORDER BY symbol
	`, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []types.Position
	for rows.Next() {
		var pos types.Position
		if err := rows.Scan(&pos.UserId, &pos.Symbol, &pos.Quantity, &pos.PurchasePrice, &pos.OpenedAt); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}
