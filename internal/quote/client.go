// Package quote wraps the Alpha Vantage market-data API. It is the only
// package that sees the provider's string-keyed payloads; everything it
// returns is decimal-typed.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"papertrader/types"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Global error declarations.
var (
	ErrRateLimited    = errors.New("quote provider rate limited")
	ErrSymbolNotFound = errors.New("symbol not found at quote provider")
)

const defaultBaseURL = "https://www.alphavantage.co/query"

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Cache      *Cache
	Log        zerolog.Logger
}

// Client is a read-through adapter: one HTTP call per lookup, no retries.
// Retry policy belongs to the caller.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	cache   *Cache
	log     zerolog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    cfg.HTTPClient,
		cache:   cfg.Cache,
		log:     cfg.Log.With().Str("component", "quote").Logger(),
	}
}

type quoteEnvelope struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	Note         string            `json:"Note"`
	Information  string            `json:"Information"`
	ErrorMessage string            `json:"Error Message"`
}

// GetQuote fetches the current quote for symbol. A fresh cache entry
// bypasses the HTTP call.
func (c *Client) GetQuote(ctx context.Context, symbol string) (types.Quote, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(symbol); ok {
			return cached, nil
		}
	}

	var env quoteEnvelope
	if err := c.get(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}, &env); err != nil {
		return types.Quote{}, err
	}
	if env.Note != "" || env.Information != "" {
		return types.Quote{}, ErrRateLimited
	}
	if env.ErrorMessage != "" || len(env.GlobalQuote) == 0 {
		return types.Quote{}, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}

	quote, err := normalizeQuote(symbol, env.GlobalQuote)
	if err != nil {
		return types.Quote{}, err
	}
	if c.cache != nil {
		c.cache.Put(quote)
	}
	return quote, nil
}

// normalizeQuote maps the provider's "NN. name" keys into a typed Quote.
func normalizeQuote(symbol string, raw map[string]string) (types.Quote, error) {
	price, err := decimal.NewFromString(raw["05. price"])
	if err != nil {
		return types.Quote{}, fmt.Errorf("unparseable price %q for %s: %w", raw["05. price"], symbol, ErrSymbolNotFound)
	}
	// Volume and previous close are informational; a malformed value
	// degrades to zero rather than rejecting the quote.
	volume, _ := decimal.NewFromString(raw["06. volume"])
	prevClose, _ := decimal.NewFromString(raw["08. previous close"])

	return types.Quote{
		Symbol:        symbol,
		Price:         price,
		Volume:        volume,
		PreviousClose: prevClose,
		TradingDay:    raw["07. latest trading day"],
		AsOf:          time.Now().UTC(),
	}, nil
}

var rangeToFunction = map[types.SeriesRange]string{
	types.Daily:   "TIME_SERIES_DAILY",
	types.Weekly:  "TIME_SERIES_WEEKLY",
	types.Monthly: "TIME_SERIES_MONTHLY",
}

type seriesEnvelope struct {
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	ErrorMessage string                       `json:"Error Message"`
	Daily        map[string]map[string]string `json:"Time Series (Daily)"`
	Weekly       map[string]map[string]string `json:"Weekly Time Series"`
	Monthly      map[string]map[string]string `json:"Monthly Time Series"`
}

// GetSeries fetches the date-keyed OHLCV series for symbol, oldest first.
func (c *Client) GetSeries(ctx context.Context, symbol string, seriesRange types.SeriesRange) ([]types.Candle, error) {
	function, ok := rangeToFunction[seriesRange]
	if !ok {
		return nil, fmt.Errorf("series range %q not supported", seriesRange)
	}

	var env seriesEnvelope
	if err := c.get(ctx, url.Values{"function": {function}, "symbol": {symbol}}, &env); err != nil {
		return nil, err
	}
	if env.Note != "" || env.Information != "" {
		return nil, ErrRateLimited
	}

	var series map[string]map[string]string
	switch seriesRange {
	case types.Daily:
		series = env.Daily
	case types.Weekly:
		series = env.Weekly
	case types.Monthly:
		series = env.Monthly
	}
	if env.ErrorMessage != "" || len(series) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}

	candles := make([]types.Candle, 0, len(series))
	for day, fields := range series {
		timestamp, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("unparseable series date %q for %s", day, symbol)
		}
		candle := types.Candle{
			Symbol:    symbol,
			Range:     seriesRange,
			Timestamp: timestamp,
		}
		for key, dst := range map[string]*decimal.Decimal{
			"1. open":   &candle.Open,
			"2. high":   &candle.High,
			"3. low":    &candle.Low,
			"4. close":  &candle.Close,
			"5. volume": &candle.Volume,
		} {
			value, err := decimal.NewFromString(fields[key])
			if err != nil {
				return nil, fmt.Errorf("unparseable %q for %s on %s", key, symbol, day)
			}
			*dst = value
		}
		candles = append(candles, candle)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	return candles, nil
}

type marketStatusEnvelope struct {
	Note        string `json:"Note"`
	Information string `json:"Information"`
	Markets     []struct {
		MarketType       string `json:"market_type"`
		Region           string `json:"region"`
		PrimaryExchanges string `json:"primary_exchanges"`
		LocalOpen        string `json:"local_open"`
		LocalClose       string `json:"local_close"`
		CurrentStatus    string `json:"current_status"`
	} `json:"markets"`
}

// GetMarketStatus fetches the open/closed status of the major venues.
func (c *Client) GetMarketStatus(ctx context.Context) ([]types.MarketStatus, error) {
	var env marketStatusEnvelope
	if err := c.get(ctx, url.Values{"function": {"MARKET_STATUS"}}, &env); err != nil {
		return nil, err
	}
	if env.Note != "" || env.Information != "" {
		return nil, ErrRateLimited
	}

	statuses := make([]types.MarketStatus, 0, len(env.Markets))
	for _, market := range env.Markets {
		statuses = append(statuses, types.MarketStatus{
			MarketType:       market.MarketType,
			Region:           market.Region,
			PrimaryExchanges: market.PrimaryExchanges,
			LocalOpen:        market.LocalOpen,
			LocalClose:       market.LocalClose,
			CurrentStatus:    market.CurrentStatus,
		})
	}
	return statuses, nil
}

// get performs an HTTP GET against the provider and unmarshals the JSON
// response into data.
func (c *Client) get(ctx context.Context, params url.Values, data interface{}) error {
	params.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build quote request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("function", params.Get("function")).Str("status", resp.Status).Msg("provider request")
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quote request: unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(data); err != nil {
		return fmt.Errorf("decode quote response: %w", err)
	}
	return nil
}
