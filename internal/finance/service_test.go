package finance

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// wavyPairs returns n daily [epoch-ms, price] pairs ending at end, the shape
// the remote API answers with.
func wavyPairs(end time.Time, n int) [][]float64 {
	start := end.AddDate(0, 0, -(n - 1))
	out := make([][]float64, n)
	for i := range out {
		ts := start.AddDate(0, 0, i).UnixMilli()
		out[i] = []float64{float64(ts), 100 + 0.2*float64(i) + 15*math.Sin(float64(i)/9)}
	}
	return out
}

func TestServiceLocalAndRemoteAgree(t *testing.T) {
	ctx := context.Background()
	end := day("2025-01-01")
	pts := pricePairs(wavyPairs(end, 400))

	localSrc := NewPriceSource(storeOf(map[string][]PricePoint{"BTC": pts}), nil, testLog)
	remote := newFakeRemote()
	remote.charts["bitcoin"] = pts
	remoteSrc := NewPriceSource(nil, remote, testLog)

	local := NewService(localSrc, nil, NewChartRenderer(localSrc, nil, testLog), end, testLog)
	viaAPI := NewService(remoteSrc, nil, NewChartRenderer(remoteSrc, nil, testLog), end, testLog)

	t.Run("ier", func(t *testing.T) {
		a := local.IER(ctx, "btc", 365, 1000)
		b := viaAPI.IER(ctx, "btc", 365, 1000)
		require.Equal(t, "local", a.Source)
		require.Equal(t, "remote", b.Source)
		require.Equal(t, a.Points, b.Points)
		require.Nil(t, a.Result.Diagnostic)
		require.Nil(t, b.Result.Diagnostic)
		require.InDelta(t, a.Result.FinalValue, b.Result.FinalValue, 1e-9)
		require.InDelta(t, a.Result.MaxDrawdown, b.Result.MaxDrawdown, 1e-9)
		require.InDelta(t, a.Result.Ratio, b.Result.Ratio, 1e-9)
		require.Equal(t, a.Stats, b.Stats)
		require.Equal(t, 1, remote.called("chart:bitcoin"))
	})

	for _, strategy := range []Strategy{StrategyLumpSum, StrategyDollarCostAverage} {
		t.Run(string(strategy), func(t *testing.T) {
			req := SimulationRequest{Coin: "btc", StartDate: day("2024-03-01"), Amount: 1000, Strategy: strategy}
			a := local.Simulate(ctx, req)
			b := viaAPI.Simulate(ctx, req)
			require.Nil(t, a.Diagnostic)
			require.Nil(t, b.Diagnostic)
			require.Equal(t, a.Installments, b.Installments)
			require.InDelta(t, *a.FinalValue, *b.FinalValue, 1e-9)
			require.InDelta(t, *a.TotalInvested, *b.TotalInvested, 1e-9)
			require.InDelta(t, *a.Profit, *b.Profit, 1e-9)
			require.InDelta(t, *a.ProfitPercent, *b.ProfitPercent, 1e-9)
		})
	}
	require.Equal(t, 2, remote.called("range:bitcoin"))
}

func TestServiceIERSurvivesExplosiveSeries(t *testing.T) {
	start := day("2024-01-01")
	src := NewPriceSource(storeOf(map[string][]PricePoint{
		"PUMP": dailyPoints(start, 1, 10, 1000),
	}), nil, testLog)
	svc := NewService(src, nil, NewChartRenderer(src, nil, testLog), start.AddDate(0, 0, 2), testLog)

	var rep IERReport
	require.NotPanics(t, func() { rep = svc.IER(context.Background(), "pump", 2, 1000) })
	require.Equal(t, KindNoDrawdown, rep.Result.Diagnostic.Kind)
	require.InDelta(t, 1e6, rep.Result.FinalValue, 1e-6)
	require.Nil(t, rep.Stats)
}
