package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"papertrader/internal/auth"
	"papertrader/types"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Consumer-side views of the services the handlers call.
type authService interface {
	Register(ctx context.Context, username, email, password string) (types.UserSummary, error)
	Login(ctx context.Context, username, password string) (types.UserSummary, error)
	UpdatePassword(ctx context.Context, username, currentPassword, newPassword string) error
}

type trader interface {
	Buy(ctx context.Context, userId uuid.UUID, symbol string, quantity decimal.Decimal) (types.TradeResult, error)
	Sell(ctx context.Context, userId uuid.UUID, symbol string, quantity decimal.Decimal) (types.TradeResult, error)
}

type valuator interface {
	ValuePortfolio(ctx context.Context, userId uuid.UUID) (types.PortfolioView, error)
}

type quoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (types.Quote, error)
	GetSeries(ctx context.Context, symbol string, seriesRange types.SeriesRange) ([]types.Candle, error)
	GetMarketStatus(ctx context.Context) ([]types.MarketStatus, error)
}

type Config struct {
	Log          zerolog.Logger
	Port         int
	AllowOrigins []string
	Auth         authService
	Sessions     *auth.Sessions
	Quotes       quoteProvider
	Executor     trader
	Valuator     valuator
}

// Server is the HTTP binding over the trade core.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	auth     authService
	sessions *auth.Sessions
	quotes   quoteProvider
	executor trader
	valuator valuator
	metrics  *metrics
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		auth:     cfg.Auth,
		sessions: cfg.Sessions,
		quotes:   cfg.Quotes,
		executor: cfg.Executor,
		valuator: cfg.Valuator,
		metrics:  newMetrics(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.routes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Put("/auth/update-password", s.handleUpdatePassword)

		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/quote/{symbol}/value", s.handlePositionValue)
		r.Get("/quote/{symbol}/history", s.handleHistory)
		r.Get("/market/status", s.handleMarketStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/trade/buy", s.handleBuy)
			r.Post("/trade/sell", s.handleSell)
			r.Get("/portfolio", s.handlePortfolio)
		})
	})
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
