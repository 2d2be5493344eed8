package finance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimulationArgs(t *testing.T) {
	req, err := ParseSimulationArgs("/sim btc 2023-01-15 $500 dca")
	require.NoError(t, err)
	require.Equal(t, SimulationRequest{
		Coin:      "btc",
		StartDate: day("2023-01-15"),
		Amount:    500,
		Strategy:  StrategyDollarCostAverage,
	}, req)

	req, err = ParseSimulationArgs("eth 2024-06-01 1000")
	require.NoError(t, err)
	require.Equal(t, StrategyLumpSum, req.Strategy)

	for _, bad := range []string{
		"/sim btc",
		"btc 01/02/2024 100",
		"btc 2024-01-02 -5",
		"btc 2024-01-02 abc",
		"btc 2024-01-02 100 weekly",
		"btc 2024-01-02 100 dca extra",
	} {
		_, err := ParseSimulationArgs(bad)
		require.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestParseCoinList(t *testing.T) {
	require.Equal(t, []string{"btc", "eth", "sol"}, ParseCoinList("btc, eth bitcoin,sol ETH"))
	require.Empty(t, ParseCoinList(" , "))
}
