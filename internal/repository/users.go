package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"papertrader/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CreateUser inserts a new user with the given starting cash balance.
func (db *Database) CreateUser(ctx context.Context, username, email, passwordHash string, startingCash decimal.Decimal) (types.User, error) {
	user := types.User{
		Id:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Balance:      startingCash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := db.conn.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.Id, user.Username, user.Email, user.PasswordHash, user.Balance, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_username_key") {
			return types.User{}, ErrUsernameExists
		}
		if isUniqueViolation(err, "users_email_key") {
			return types.User{}, ErrEmailExists
		}
		return types.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by id.
func (db *Database) GetUser(ctx context.Context, id uuid.UUID) (types.User, error) {
	row := db.conn.QueryRow(ctx, `
		SELECT id, username, email, password_hash, balance, created_at
		FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (db *Database) GetUserByUsername(ctx context.Context, username string) (types.User, error) {
	row := db.conn.QueryRow(ctx, `
		SELECT id, username, email, password_hash, balance, created_at
		FROM users WHERE username = $1
	`, username)
	return scanUser(row)
}

// UpdatePassword replaces the stored password hash for username.
func (db *Database) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	tag, err := db.conn.Exec(ctx, `
		UPDATE users SET password_hash = $1 WHERE username = $2
	`, passwordHash, username)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (types.User, error) {
	var user types.User
	err := row.Scan(&user.Id, &user.Username, &user.Email, &user.PasswordHash, &user.Balance, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
