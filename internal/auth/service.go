// Package auth covers registration, login and password updates. Identity
// verification yields a user id; everything downstream works from that.
package auth

import (
	"context"
	"errors"
	"fmt"

	"papertrader/internal/repository"
	"papertrader/types"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Global error declarations.
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
)

type usersStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string, startingCash decimal.Decimal) (types.User, error)
	GetUserByUsername(ctx context.Context, username string) (types.User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

type Service struct {
	db           usersStore
	startingCash decimal.Decimal
	log          zerolog.Logger
}

func NewService(db usersStore, startingCash decimal.Decimal, log zerolog.Logger) *Service {
	return &Service{
		db:           db,
		startingCash: startingCash,
		log:          log.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new user with the configured starting cash balance.
func (s *Service) Register(ctx context.Context, username, email, password string) (types.UserSummary, error) {
	if username == "" || email == "" || password == "" {
		return types.UserSummary{}, ErrMissingFields
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.UserSummary{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.db.CreateUser(ctx, username, email, string(hash), s.startingCash)
	if err != nil {
		return types.UserSummary{}, err
	}
	s.log.Info().Str("username", username).Msg("user registered")
	return user.Summary(), nil
}

// Login verifies the credentials and returns the user summary. An unknown
// username and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (types.UserSummary, error) {
	if username == "" || password == "" {
		return types.UserSummary{}, ErrMissingFields
	}
	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return types.UserSummary{}, ErrInvalidCredentials
		}
		return types.UserSummary{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return types.UserSummary{}, ErrInvalidCredentials
	}
	return user.Summary(), nil
}

// UpdatePassword rotates a user's password after verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	if username == "" || currentPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrIncorrectPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.UpdatePassword(ctx, username, string(hash)); err != nil {
		return err
	}
	s.log.Info().Str("username", username).Msg("password updated")
	return nil
}
