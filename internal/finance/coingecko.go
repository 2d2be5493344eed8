package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CoinGeckoConfig configures the remote price API client.
type CoinGeckoConfig struct {
	BaseURL string
	APIKey  string
	RPS     float64
	Timeout time.Duration
	// Backoffs between attempts; nil uses the defaults.
	Backoffs []time.Duration
}

// CoinGecko is the RemotePriceAPI backed by the CoinGecko v3 REST API.
type CoinGecko struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	backoffs []time.Duration
	log      *zap.SugaredLogger
}

func NewCoinGecko(cfg CoinGeckoConfig, log *zap.SugaredLogger) *CoinGecko {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 0.5
	}
	backoffs := cfg.Backoffs
	if backoffs == nil {
		backoffs = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}
	}
	st := gobreaker.Settings{
		Name:     "coingecko",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// unknown coins are answers, not outages
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDataUnavailable) || errors.Is(err, context.Canceled)
		},
	}
	return &CoinGecko{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), 3),
		breaker:  gobreaker.NewCircuitBreaker(st),
		backoffs: backoffs,
		log:      log.With("component", "coingecko"),
	}
}

// coinResp mirrors /coins/{id} (trimmed to needed fields).
type coinResp struct {
	ID         string   `json:"id"`
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Links      struct {
		Homepage []string `json:"homepage"`
	} `json:"links"`
	Description struct {
		En string `json:"en"`
	} `json:"description"`
	MarketData struct {
		CurrentPrice             map[string]float64 `json:"current_price"`
		MarketCap                map[string]float64 `json:"market_cap"`
		High24h                  map[string]float64 `json:"high_24h"`
		Low24h                   map[string]float64 `json:"low_24h"`
		PriceChangePercentage24h float64            `json:"price_change_percentage_24h"`
	} `json:"market_data"`
}

// marketChartResp mirrors /coins/{id}/market_chart[/range].
type marketChartResp struct {
	Prices [][]float64 `json:"prices"`
}

// marketsResp mirrors one element of /coins/markets.
type marketsResp struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
}

const (
	descriptionLimit = 300
	tagLimit         = 5
)

// CoinSnapshot fetches the market snapshot for one coin id.
func (c *CoinGecko) CoinSnapshot(ctx context.Context, id string) (CoinSnapshot, error) {
	id = ResolveID(id)
	if id == "" {
		return CoinSnapshot{}, fmt.Errorf("%w: empty coin id", ErrInvalidInput)
	}
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("market_data", "true")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")
	q.Set("sparkline", "false")
	var cr coinResp
	if err := c.getJSON(ctx, "coin", "/coins/"+url.PathEscape(id), q, &cr); err != nil {
		return CoinSnapshot{}, err
	}
	tags := cr.Categories
	if len(tags) > tagLimit {
		tags = tags[:tagLimit]
	}
	website := ""
	if len(cr.Links.Homepage) > 0 {
		website = cr.Links.Homepage[0]
	}
	desc := cr.Description.En
	if r := []rune(desc); len(r) > descriptionLimit {
		desc = string(r[:descriptionLimit]) + "..."
	}
	return CoinSnapshot{
		ID:          cr.ID,
		Name:        cr.Name,
		Symbol:      strings.ToUpper(cr.Symbol),
		Price:       cr.MarketData.CurrentPrice["usd"],
		MarketCap:   cr.MarketData.MarketCap["usd"],
		Change24h:   cr.MarketData.PriceChangePercentage24h,
		High24h:     cr.MarketData.High24h["usd"],
		Low24h:      cr.MarketData.Low24h["usd"],
		Tags:        tags,
		Website:     website,
		Description: desc,
	}, nil
}

// MarketChart fetches the trailing days of daily prices for a coin id.
func (c *CoinGecko) MarketChart(ctx context.Context, id string, days int) ([]PricePoint, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidInput, days)
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", "daily")
	var mc marketChartResp
	if err := c.getJSON(ctx, "market_chart", "/coins/"+url.PathEscape(ResolveID(id))+"/market_chart", q, &mc); err != nil {
		return nil, err
	}
	return pricePairs(mc.Prices), nil
}

// MarketChartRange fetches prices between from and to for a coin id.
func (c *CoinGecko) MarketChartRange(ctx context.Context, id string, from, to time.Time) ([]PricePoint, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: range start %s is not before end %s", ErrInvalidInput, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))
	var mc marketChartResp
	if err := c.getJSON(ctx, "market_chart_range", "/coins/"+url.PathEscape(ResolveID(id))+"/market_chart/range", q, &mc); err != nil {
		return nil, err
	}
	return pricePairs(mc.Prices), nil
}

// TopMarkets fetches the first n coins by market cap.
func (c *CoinGecko) TopMarkets(ctx context.Context, n int) ([]MarketRank, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive", ErrInvalidInput)
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(n))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	var rows []marketsResp
	if err := c.getJSON(ctx, "markets", "/coins/markets", q, &rows); err != nil {
		return nil, err
	}
	out := make([]MarketRank, 0, len(rows))
	for i, r := range rows {
		rank := r.MarketCapRank
		if rank == 0 {
			rank = i + 1
		}
		out = append(out, MarketRank{
			Rank:      rank,
			ID:        r.ID,
			Symbol:    strings.ToUpper(r.Symbol),
			Name:      r.Name,
			Price:     r.CurrentPrice,
			MarketCap: r.MarketCap,
			Change24h: r.PriceChangePercentage24h,
		})
	}
	return out, nil
}

func pricePairs(raw [][]float64) []PricePoint {
	out := make([]PricePoint, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		out = append(out, PricePoint{Time: time.UnixMilli(int64(pair[0])).UTC(), Price: pair[1]})
	}
	return out
}

// getJSON performs a rate-limited, breaker-guarded GET with retry on
// throttling and transient failures.
func (c *CoinGecko) getJSON(ctx context.Context, endpoint, path string, q url.Values, dest any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.getWithRetry(ctx, path, q, dest)
	})
	upstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		upstreamRequests.WithLabelValues(endpoint, "ok").Inc()
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		upstreamRequests.WithLabelValues(endpoint, "breaker_open").Inc()
		return fmt.Errorf("%w: coingecko %s: %v", ErrUpstream, endpoint, err)
	case errors.Is(err, ErrDataUnavailable):
		upstreamRequests.WithLabelValues(endpoint, "not_found").Inc()
		return err
	default:
		upstreamRequests.WithLabelValues(endpoint, "error").Inc()
		c.log.Warnw("coingecko: request failed", "endpoint", endpoint, "path", path, "error", err)
		return err
	}
}

func (c *CoinGecko) getWithRetry(ctx context.Context, path string, q url.Values, dest any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var lastErr error
	for attempt := 0; attempt < len(c.backoffs)+1; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		retry, err := c.do(ctx, u, dest)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
		if attempt < len(c.backoffs) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoffs[attempt]):
			}
		}
	}
	return lastErr
}

// do issues one request. The bool reports whether a retry may help.
func (c *CoinGecko) do(ctx context.Context, u string, dest any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "coindash/1.0")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return true, fmt.Errorf("%w: read coingecko response: %v", ErrUpstream, readErr)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return true, fmt.Errorf("%w: coingecko returned 429", ErrUpstream)
	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("%w: coingecko has no data for %s", ErrDataUnavailable, req.URL.Path)
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("%w: coingecko returned %d: %s", ErrUpstream, resp.StatusCode, preview(body))
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("%w: coingecko returned %d: %s", ErrUpstream, resp.StatusCode, preview(body))
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return false, fmt.Errorf("%w: parse coingecko json: %v; body: %s", ErrUpstream, err, preview(body))
	}
	return false, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
