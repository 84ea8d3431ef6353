package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"papertrader/internal/auth"
	"papertrader/internal/engine"
	"papertrader/internal/quote"
	"papertrader/internal/repository"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps the typed error taxonomy onto HTTP statuses. Anything
// unmapped is treated as an upstream/transport failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidInput),
		errors.Is(err, engine.ErrInvalidSymbol),
		errors.Is(err, quote.ErrSymbolNotFound),
		errors.Is(err, repository.ErrInsufficientFunds),
		errors.Is(err, repository.ErrInsufficientShares),
		errors.Is(err, repository.ErrUsernameExists),
		errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, auth.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrIncorrectPassword):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrPositionNotFound):
		return http.StatusNotFound
	case errors.Is(err, quote.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}
