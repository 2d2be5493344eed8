package finance

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const historicalCSV = `symbol,name,timestamp,price,market_cap,percent_change_24h
btc,Bitcoin,2024-01-03,44000,860000000000,1.2
BTC,Bitcoin,2024-01-01T00:00:00Z,42000,820000000000,0.5
BTC,Bitcoin,2024-01-02 12:00:00,43000,840000000000,-0.3
BTC,Bitcoin,not-a-date,1,1,1
BTC,Bitcoin,2024-01-04,0,0,0
ETH,Ethereum,1704067200,2300,0,0
ETH,Ethereum,1704153600000,2350,0,0
`

func TestReadHistoricalCSV(t *testing.T) {
	s, err := ReadHistoricalCSV(strings.NewReader(historicalCSV))
	require.NoError(t, err)
	require.Equal(t, []string{"BTC", "ETH"}, s.Symbols())
	require.True(t, s.Has("btc"))
	require.False(t, s.Has("SOL"))

	btc := s.rows("BTC")
	require.Len(t, btc, 3, "unparseable timestamp and zero price are dropped")
	require.Equal(t, []float64{42000, 43000, 44000}, PriceSeries{Points: btc}.Prices())

	eth := s.rows("ETH")
	require.Len(t, eth, 2)
	require.True(t, eth[0].Time.Equal(day("2024-01-01")), "epoch seconds")
	require.True(t, eth[1].Time.Equal(day("2024-01-02")), "epoch milliseconds")
}

func TestHistoricalTrailingIsInclusive(t *testing.T) {
	s := storeOf(map[string][]PricePoint{
		"BTC": dailyPoints(day("2024-01-01"), 1, 2, 3, 4, 5, 6),
	})
	got := s.Trailing("BTC", 2)
	require.Equal(t, []float64{4, 5, 6}, PriceSeries{Points: got}.Prices())

	between := s.Between("btc", day("2024-01-02"), day("2024-01-03").Add(time.Hour))
	require.Equal(t, []float64{2, 3}, PriceSeries{Points: between}.Prices())

	require.Nil(t, s.Trailing("BTC", 0))
	require.Empty(t, s.Trailing("XYZ", 5))
}

func TestLoadHistoricalCSVMissingFile(t *testing.T) {
	s, err := LoadHistoricalCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	require.Empty(t, s.Symbols())
}

func TestPriceSeriesLabels(t *testing.T) {
	s := PriceSeries{Points: dailyPoints(day("2024-02-28"), 1, 2, 3)}
	require.Equal(t, []string{"Feb 28", "Feb 29", "Mar 01"}, s.Labels())
}
