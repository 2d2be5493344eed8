package finance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func rampPrices(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func newTestSimulator(series map[string][]PricePoint, end time.Time) *Simulator {
	src := NewPriceSource(storeOf(series), nil, testLog)
	return NewSimulator(src, end, testLog)
}

func TestSimulateLumpSum(t *testing.T) {
	end := day("2025-01-01")
	// 2024 is a leap year: 2024-01-01..2025-01-01 is 367 daily points.
	sim := newTestSimulator(map[string][]PricePoint{
		"BTC": dailyPoints(day("2024-01-01"), rampPrices(367, 100, 1)...),
	}, end)

	res := sim.Simulate(context.Background(), "btc", day("2024-01-01"), 1000, StrategyLumpSum)
	require.Nil(t, res.Diagnostic)
	require.InDelta(t, 4660, *res.FinalValue, 1e-9)
	require.InDelta(t, 1000, *res.TotalInvested, 1e-9)
	require.InDelta(t, 3660, *res.Profit, 1e-9)
	require.InDelta(t, 366, *res.ProfitPercent, 1e-9)
}

func TestSimulateDollarCostAverage(t *testing.T) {
	end := day("2025-01-01")
	ctx := context.Background()

	t.Run("flat price breaks even and overshoots the amount", func(t *testing.T) {
		sim := newTestSimulator(map[string][]PricePoint{
			"ETH": dailyPoints(day("2024-01-01"), rampPrices(367, 100, 0)...),
		}, end)
		res := sim.Simulate(ctx, "ethereum", day("2024-01-01"), 1200, StrategyDollarCostAverage)
		require.Nil(t, res.Diagnostic)
		// 366 days -> 12 installments of 100, but 13 purchase dates (day 0..360).
		require.Equal(t, 13, res.Installments)
		require.InDelta(t, 1300, *res.TotalInvested, 1e-9)
		require.InDelta(t, 1300, *res.FinalValue, 1e-9)
		require.InDelta(t, 0, *res.Profit, 1e-9)
		require.InDelta(t, 0, *res.ProfitPercent, 1e-9)
	})

	t.Run("rising price is profitable", func(t *testing.T) {
		sim := newTestSimulator(map[string][]PricePoint{
			"ETH": dailyPoints(day("2024-01-01"), rampPrices(367, 100, 1)...),
		}, end)
		res := sim.Simulate(ctx, "eth", day("2024-01-01"), 1000, StrategyDollarCostAverage)
		require.Nil(t, res.Diagnostic)
		require.Greater(t, *res.Profit, 0.0)
		require.InDelta(t, *res.FinalValue-*res.TotalInvested, *res.Profit, 1e-9)
	})

	t.Run("window under 30 days", func(t *testing.T) {
		sim := newTestSimulator(map[string][]PricePoint{
			"ETH": dailyPoints(day("2024-12-10"), rampPrices(23, 100, 1)...),
		}, end)
		res := sim.Simulate(ctx, "eth", day("2024-12-10"), 1000, StrategyDollarCostAverage)
		require.NotNil(t, res.Diagnostic)
		require.Equal(t, "requires at least 30 days", res.Diagnostic.Message)
		require.Nil(t, res.FinalValue)
		require.Nil(t, res.Profit)
	})
}

func TestSimulateFailures(t *testing.T) {
	end := day("2025-01-01")
	sim := newTestSimulator(map[string][]PricePoint{
		"BTC": dailyPoints(day("2024-01-01"), rampPrices(367, 100, 1)...),
	}, end)
	ctx := context.Background()

	tests := []struct {
		name     string
		coin     string
		start    time.Time
		amount   float64
		strategy Strategy
		wantKind DiagnosticKind
		wantMsg  string
	}{
		{"start equals end", "btc", end, 1000, StrategyLumpSum, KindInvalidInput, "start date must precede end date"},
		{"start after end", "btc", end.AddDate(0, 1, 0), 1000, StrategyDollarCostAverage, KindInvalidInput, "start date must precede end date"},
		{"zero amount", "btc", day("2024-01-01"), 0, StrategyLumpSum, KindInvalidInput, "amount must be positive"},
		{"unknown strategy", "btc", day("2024-01-01"), 1000, Strategy("yolo"), KindInvalidInput, `unknown strategy "yolo"`},
		{"unknown coin", "nocoin", day("2024-01-01"), 1000, StrategyLumpSum, KindDataUnavailable, "no data for nocoin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := sim.Simulate(ctx, tt.coin, tt.start, tt.amount, tt.strategy)
			require.NotNil(t, res.Diagnostic)
			require.Equal(t, tt.wantKind, res.Diagnostic.Kind)
			require.Equal(t, tt.wantMsg, res.Diagnostic.Message)
			require.Nil(t, res.FinalValue)
			require.Nil(t, res.TotalInvested)
			require.Nil(t, res.Profit)
			require.Nil(t, res.ProfitPercent)
		})
	}
}

func TestNearestPrice(t *testing.T) {
	pts := []PricePoint{
		{Time: day("2024-01-01"), Price: 10},
		{Time: day("2024-01-03"), Price: 30},
		{Time: day("2024-01-10"), Price: 100},
	}
	require.Equal(t, 10.0, nearestPrice(pts, day("2024-01-02")), "tie goes to the earlier observation")
	require.Equal(t, 30.0, nearestPrice(pts, day("2024-01-04")))
	require.Equal(t, 100.0, nearestPrice(pts, day("2024-02-01")))
	require.Equal(t, 10.0, nearestPrice(pts, day("2023-12-01")))
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{
		"":                    StrategyLumpSum,
		"lump":                StrategyLumpSum,
		"LUMP_SUM":            StrategyLumpSum,
		"dca":                 StrategyDollarCostAverage,
		"dollar_cost_average": StrategyDollarCostAverage,
	} {
		got, ok := ParseStrategy(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
	_, ok := ParseStrategy("weekly")
	require.False(t, ok)
}
