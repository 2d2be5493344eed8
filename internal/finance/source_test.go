package finance

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceSourcePrefersLocal(t *testing.T) {
	remote := newFakeRemote()
	remote.charts["bitcoin"] = dailyPoints(day("2024-01-01"), 1, 2, 3)
	store := storeOf(map[string][]PricePoint{
		"BTC": dailyPoints(day("2024-01-01"), 10, 20, 30, 40),
	})
	src := NewPriceSource(store, remote, testLog)

	for _, token := range []string{"btc", "BTC", "bitcoin", " Bitcoin "} {
		res := src.Fetch(context.Background(), token, 2)
		require.Nil(t, res.Diagnostic, token)
		require.Equal(t, "local", res.Series.Source)
		require.Equal(t, "BTC", res.Series.Symbol)
		require.Equal(t, []float64{20, 30, 40}, res.Series.Prices())
	}
	require.Zero(t, remote.called("chart:bitcoin"))
}

func TestPriceSourceRemoteFallback(t *testing.T) {
	remote := newFakeRemote()
	remote.charts["solana"] = []PricePoint{
		{Time: day("2024-01-02"), Price: 101},
		{Time: day("2024-01-01"), Price: 100},
		{Time: day("2024-01-03"), Price: -1},
	}
	src := NewPriceSource(nil, remote, testLog)

	res := src.Fetch(context.Background(), "sol", 5)
	require.Nil(t, res.Diagnostic)
	require.Equal(t, "remote", res.Series.Source)
	require.Equal(t, []float64{100, 101}, res.Series.Prices())
	require.Equal(t, []string{"Jan 01", "Jan 02"}, res.Series.Labels())
	require.Equal(t, 1, remote.called("chart:solana"))
}

func TestPriceSourceDiagnostics(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid days", func(t *testing.T) {
		res := NewPriceSource(nil, nil, testLog).Fetch(ctx, "btc", 0)
		require.Equal(t, KindInvalidInput, res.Diagnostic.Kind)
		require.True(t, res.Series.Empty())
	})

	t.Run("empty coin", func(t *testing.T) {
		res := NewPriceSource(nil, nil, testLog).Fetch(ctx, "  ", 7)
		require.Equal(t, KindInvalidInput, res.Diagnostic.Kind)
	})

	t.Run("unknown coin", func(t *testing.T) {
		res := NewPriceSource(nil, newFakeRemote(), testLog).Fetch(ctx, "nope", 7)
		require.Equal(t, KindDataUnavailable, res.Diagnostic.Kind)
		require.True(t, res.Series.Empty())
	})

	t.Run("upstream failure", func(t *testing.T) {
		remote := newFakeRemote()
		remote.err = fmt.Errorf("%w: boom", ErrUpstream)
		res := NewPriceSource(nil, remote, testLog).Fetch(ctx, "btc", 7)
		require.Equal(t, KindUpstreamFailure, res.Diagnostic.Kind)
		require.Equal(t, "upstream failure: boom", res.Diagnostic.Message)
	})

	t.Run("range start not before end", func(t *testing.T) {
		res := NewPriceSource(nil, nil, testLog).FetchRange(ctx, "btc", day("2024-02-01"), day("2024-01-01"))
		require.Equal(t, "start date must precede end date", res.Diagnostic.Message)
	})
}

func TestPriceSourceFetchRangeRemote(t *testing.T) {
	remote := newFakeRemote()
	remote.charts["ethereum"] = dailyPoints(day("2024-01-01"), 1, 2, 3, 4, 5)
	src := NewPriceSource(nil, remote, testLog)

	res := src.FetchRange(context.Background(), "eth", day("2024-01-02"), day("2024-01-04"))
	require.Nil(t, res.Diagnostic)
	require.Equal(t, []float64{2, 3, 4}, res.Series.Prices())
	require.Equal(t, 1, remote.called("range:ethereum"))
}

func TestResolveAliases(t *testing.T) {
	tests := []struct{ in, id, sym string }{
		{"btc", "bitcoin", "BTC"},
		{"AVAX", "avalanche-2", "AVAX"},
		{"matic-network", "matic-network", "MATIC"},
		{"pepe", "pepe", "PEPE"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.id, ResolveID(tt.in), tt.in)
		require.Equal(t, tt.sym, ResolveSymbol(tt.in), tt.in)
	}
}
