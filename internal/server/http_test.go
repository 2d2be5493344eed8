package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coindash/internal/finance"
	"coindash/internal/storage"
)

func init() { gin.SetMode(gin.TestMode) }

var dataStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const dataDays = 40

// localCSV holds BTC and ETH with regular dips and UP, which only rises.
func localCSV() string {
	var b strings.Builder
	b.WriteString("symbol,name,timestamp,price,market_cap,percent_change_24h\n")
	for i := 0; i < dataDays; i++ {
		ts := dataStart.AddDate(0, 0, i).Format(time.DateOnly)
		btc := 100 + float64(2*i)
		if i%7 == 3 {
			btc -= 15
		}
		eth := 50 + float64(i)
		if i%5 == 2 {
			eth -= 8
		}
		fmt.Fprintf(&b, "BTC,Bitcoin,%s,%.2f,0,0\n", ts, btc)
		fmt.Fprintf(&b, "ETH,Ethereum,%s,%.2f,0,0\n", ts, eth)
		fmt.Fprintf(&b, "UP,Up Only,%s,%.2f,0,0\n", ts, 10+float64(i))
	}
	return b.String()
}

type staticRanker []finance.MarketRank

func (r staticRanker) Top(context.Context, int) ([]finance.MarketRank, error) { return r, nil }

type memUsage struct {
	mu   sync.Mutex
	rows []string
}

func (m *memUsage) RecordUsage(_ context.Context, category, command string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, category+" "+command)
	return nil
}

func (m *memUsage) UsageSince(context.Context, time.Time) (map[string]*storage.UsageStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]*storage.UsageStats{}
	for _, r := range m.rows {
		cat, cmd, _ := strings.Cut(r, " ")
		st, ok := out[cat]
		if !ok {
			st = &storage.UsageStats{Category: cat, Commands: map[string]int{}}
			out[cat] = st
		}
		st.Count++
		st.Commands[cmd]++
	}
	return out, nil
}

func (m *memUsage) UsageTimeSeries(context.Context, time.Time, time.Duration) (map[string][]storage.TimeSeriesPoint, error) {
	return map[string][]storage.TimeSeriesPoint{}, nil
}

func newTestServer(t *testing.T) (*Server, *memUsage) {
	t.Helper()
	log := zap.NewNop().Sugar()
	local, err := finance.ReadHistoricalCSV(strings.NewReader(localCSV()))
	require.NoError(t, err)
	src := finance.NewPriceSource(local, nil, log)
	ranking := staticRanker{
		{Rank: 1, ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		{Rank: 2, ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
	}
	end := dataStart.AddDate(0, 0, dataDays-1)
	fin := finance.NewService(src, ranking, finance.NewChartRenderer(src, nil, log), end, log)
	usage := &memUsage{}
	return New(Deps{Finance: fin, Usage: usage, Log: log}), usage
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthzSetsRequestID(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestHistory(t *testing.T) {
	s, usage := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/history/btc/10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp historyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "BTC", resp.Coin)
	require.Equal(t, "local", resp.Source)
	require.Len(t, resp.Values, 11)
	require.Len(t, resp.Labels, 11)
	require.Equal(t, []string{"api /api/history/:coin/:days"}, usage.rows)

	w = do(t, s, http.MethodGet, "/api/history/btc/abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/history/zzz/10", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "data_unavailable", decode(t, w)["diagnostic"].(map[string]any)["kind"])
}

func TestIER(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/ier/btc?days=30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	require.Equal(t, false, got["ratio_infinite"])
	require.Greater(t, got["ratio"].(float64), 0.0)
	require.Greater(t, got["max_drawdown"].(float64), 0.0)
	require.NotNil(t, got["stats"])

	w = do(t, s, http.MethodGet, "/api/ier/up", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got = decode(t, w)
	require.Equal(t, true, got["ratio_infinite"])
	require.Nil(t, got["ratio"])
	require.Equal(t, "no_drawdown", got["diagnostic"].(map[string]any)["kind"])

	w = do(t, s, http.MethodGet, "/api/ier/btc?investment=-5", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/ier/zzz", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCorrelation(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/correlation/btc?days=30", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res finance.CorrelationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.ElementsMatch(t, []string{"BTC", "ETH"}, res.Labels)
	require.Len(t, res.Entries, 4)
	require.GreaterOrEqual(t, res.Points, finance.MinOverlap)
}

func TestSimulate(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/simulate", map[string]any{
		"coin": "btc", "start_date": "2024-01-01", "amount": 1000, "strategy": "lump_sum",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)
	require.Equal(t, "BTC", got["coin"])
	require.Equal(t, "2024-02-09", got["end_date"])
	require.InDelta(t, 1000*178.0/100.0, got["final_value"].(float64), 1e-6)

	tests := []struct {
		name string
		body map[string]any
		code int
	}{
		{"missing coin", map[string]any{"start_date": "2024-01-01", "amount": 1000}, http.StatusBadRequest},
		{"bad date", map[string]any{"coin": "btc", "start_date": "01/01/2024", "amount": 1000}, http.StatusBadRequest},
		{"bad strategy", map[string]any{"coin": "btc", "start_date": "2024-01-01", "amount": 1000, "strategy": "yolo"}, http.StatusBadRequest},
		{"negative amount", map[string]any{"coin": "btc", "start_date": "2024-01-01", "amount": -1}, http.StatusBadRequest},
		{"dca too short", map[string]any{"coin": "btc", "start_date": "2024-01-20", "amount": 1000, "strategy": "dca"}, http.StatusUnprocessableEntity},
		{"start after end", map[string]any{"coin": "btc", "start_date": "2024-03-01", "amount": 1000}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/simulate", tt.body)
			require.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestUsageReport(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/api/history/btc/10", nil)
	do(t, s, http.MethodGet, "/api/history/eth/10", nil)

	w := do(t, s, http.MethodGet, "/api/usage.png?format=text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "api: 2 (100.0%)")

	w = do(t, s, http.MethodGet, "/api/usage.png?view=timeline", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardReportsFailedPanels(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/dashboard?coin=btc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	require.Contains(t, got["errors"], "coin")
	require.Len(t, got["top"], 2)
	require.Len(t, got["history"].(map[string]any)["values"], 31)
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusOK, statusFor(nil))
	require.Equal(t, http.StatusOK, statusFor(&finance.Diagnostic{Kind: finance.KindNoDrawdown}))
	require.Equal(t, http.StatusBadGateway, statusFor(&finance.Diagnostic{Kind: finance.KindUpstreamFailure}))
}
