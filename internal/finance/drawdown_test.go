package finance

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeIER(t *testing.T) {
	tests := []struct {
		name       string
		prices     []float64
		investment float64
		wantFinal  float64
		wantDD     float64
		wantRatio  float64
		wantKind   DiagnosticKind
	}{
		{
			name:       "peak then trough",
			prices:     []float64{100, 200, 50, 150},
			investment: 1000,
			wantFinal:  1500,
			wantDD:     1500,
			wantRatio:  1,
		},
		{
			name:       "extrema are not reset after a new peak",
			prices:     []float64{100, 20, 200, 50},
			investment: 1000,
			wantFinal:  500,
			wantDD:     800,
			wantRatio:  0.625,
		},
		{
			name:       "strictly increasing",
			prices:     []float64{1, 2, 3, 4},
			investment: 1000,
			wantFinal:  4000,
			wantDD:     0,
			wantRatio:  math.Inf(1),
			wantKind:   KindNoDrawdown,
		},
		{
			name:       "flat",
			prices:     []float64{5, 5, 5},
			investment: 1000,
			wantFinal:  1000,
			wantRatio:  math.Inf(1),
			wantKind:   KindNoDrawdown,
		},
		{
			name:       "single price",
			prices:     []float64{100},
			investment: 1000,
			wantKind:   KindInsufficientData,
		},
		{
			name:       "empty",
			investment: 1000,
			wantKind:   KindInsufficientData,
		},
		{
			name:       "zero first price",
			prices:     []float64{0, 10, 20},
			investment: 1000,
			wantKind:   KindInsufficientData,
		},
		{
			name:       "non-positive investment",
			prices:     []float64{1, 2},
			investment: -5,
			wantKind:   KindInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeIER(tt.prices, tt.investment)
			if tt.wantKind == "" {
				require.Nil(t, got.Diagnostic)
			} else {
				require.NotNil(t, got.Diagnostic)
				require.Equal(t, tt.wantKind, got.Diagnostic.Kind)
			}
			require.InDelta(t, tt.wantFinal, got.FinalValue, 1e-9)
			require.InDelta(t, tt.wantDD, got.MaxDrawdown, 1e-9)
			if math.IsInf(tt.wantRatio, 1) {
				require.True(t, math.IsInf(got.Ratio, 1))
				require.Equal(t, "no drawdown detected", got.Diagnostic.Message)
			} else {
				require.InDelta(t, tt.wantRatio, got.Ratio, 1e-9)
			}
		})
	}
}

func TestComputeIERInsufficientMessage(t *testing.T) {
	got := ComputeIER([]float64{42}, DefaultInvestment)
	require.Equal(t, DrawdownResult{Diagnostic: got.Diagnostic}, got)
	require.Equal(t, "insufficient data", got.Diagnostic.Message)
}

func TestComputeIERProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := 2 + rng.Intn(60)
		prices := make([]float64, n)
		for j := range prices {
			prices[j] = 1 + rng.Float64()*1000
		}
		got := ComputeIER(prices, DefaultInvestment)

		require.GreaterOrEqual(t, got.MaxDrawdown, 0.0)
		require.InDelta(t, DefaultInvestment*prices[n-1]/prices[0], got.FinalValue, 1e-6)
		if got.MaxDrawdown == 0 {
			require.True(t, math.IsInf(got.Ratio, 1))
		} else {
			require.Nil(t, got.Diagnostic)
			require.InDelta(t, got.FinalValue/got.MaxDrawdown, got.Ratio, 1e-9)
		}
	}
}

func TestSpanDrawdownIncreasingIsZero(t *testing.T) {
	require.Zero(t, spanDrawdown([]float64{1, 1.5, 2, 10, 11}))
}
