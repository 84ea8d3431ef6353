package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	registry     *prometheus.Registry
	trades       *prometheus.CounterVec
	quoteLookups *prometheus.CounterVec
}

// newMetrics builds a per-server registry so tests can spin up servers
// without colliding on the global one.
func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &metrics{
		registry: registry,
		trades: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrader_trades_total",
			Help: "Trade requests by side and outcome.",
		}, []string{"side", "outcome"}),
		quoteLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrader_quote_lookups_total",
			Help: "Quote lookups by result.",
		}, []string{"result"}),
	}
}

func (m *metrics) observeTrade(side string, err error) {
	outcome := "committed"
	if err != nil {
		outcome = "rejected"
	}
	m.trades.WithLabelValues(side, outcome).Inc()
}

func (m *metrics) observeQuote(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.quoteLookups.WithLabelValues(result).Inc()
}
