package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	Id           uuid.UUID       `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// UserSummary is the shape returned by the auth endpoints. It never
// carries the password hash.
type UserSummary struct {
	Id       uuid.UUID       `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Balance  decimal.Decimal `json:"balance"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		Id:       u.Id,
		Username: u.Username,
		Email:    u.Email,
		Balance:  u.Balance,
	}
}
