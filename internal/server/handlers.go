package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"papertrader/internal/engine"
	"papertrader/types"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	user, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	token := s.sessions.Issue(user.Id)
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

type updatePasswordRequest struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	if err := s.auth.UpdatePassword(r.Context(), req.Username, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.quotes.GetQuote(r.Context(), chi.URLParam(r, "symbol"))
	s.metrics.observeQuote(err)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

func (s *Server) handlePositionValue(w http.ResponseWriter, r *http.Request) {
	shares, err := decimal.NewFromString(r.URL.Query().Get("shares"))
	if err != nil || !shares.IsPositive() {
		respondError(w, fmt.Errorf("%w: shares must be a positive number", engine.ErrInvalidInput))
		return
	}
	quote, err := s.quotes.GetQuote(r.Context(), chi.URLParam(r, "symbol"))
	s.metrics.observeQuote(err)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"symbol": quote.Symbol,
		"shares": shares,
		"price":  quote.Price,
		"value":  quote.Price.Mul(shares),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rangeParam := r.URL.Query().Get("range")
	if rangeParam == "" {
		rangeParam = string(types.Daily)
	}
	seriesRange, ok := types.ConvertSeriesRange[rangeParam]
	if !ok {
		respondError(w, fmt.Errorf("%w: unknown range %q", engine.ErrInvalidInput, rangeParam))
		return
	}
	candles, err := s.quotes.GetSeries(r.Context(), chi.URLParam(r, "symbol"), seriesRange)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, candles)
}

func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.quotes.GetMarketStatus(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"markets": statuses})
}

type tradeRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, types.SideTypeBuy)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, types.SideTypeSell)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, side types.SideType) {
	userId, ok := userFrom(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "no authenticated user"})
		return
	}
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	var result types.TradeResult
	var err error
	if side == types.SideTypeBuy {
		result, err = s.executor.Buy(r.Context(), userId, req.Symbol, req.Quantity)
	} else {
		result, err = s.executor.Sell(r.Context(), userId, req.Symbol, req.Quantity)
	}
	s.metrics.observeTrade(string(side), err)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	userId, ok := userFrom(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "no authenticated user"})
		return
	}
	view, err := s.valuator.ValuePortfolio(r.Context(), userId)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
