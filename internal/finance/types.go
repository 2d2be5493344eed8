package finance

import (
	"time"
)

// LabelLayout is the date label format used for chart points.
const LabelLayout = "Jan 02"

// PricePoint is one daily observation of an asset price.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// PriceSeries is an ascending, de-duplicated list of positive prices for one asset.
type PriceSeries struct {
	Symbol string
	Source string // "local" or "remote"
	Points []PricePoint
}

func (s PriceSeries) Len() int { return len(s.Points) }

func (s PriceSeries) Empty() bool { return len(s.Points) == 0 }

// Prices returns the price column.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// Labels returns the chart labels, one per point.
func (s PriceSeries) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Time.UTC().Format(LabelLayout)
	}
	return out
}

// SeriesResult is a fetched series or the reason it is empty.
type SeriesResult struct {
	Series     PriceSeries
	Diagnostic *Diagnostic
}

// CoinSnapshot is the point-in-time market view of one coin.
type CoinSnapshot struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Price       float64  `json:"price"`
	MarketCap   float64  `json:"market_cap"`
	Change24h   float64  `json:"change_24h"`
	High24h     float64  `json:"high_24h"`
	Low24h      float64  `json:"low_24h"`
	Tags        []string `json:"tags"`
	Website     string   `json:"website"`
	Description string   `json:"description"`
}

// MarketRank is one row of the market-cap ranking.
type MarketRank struct {
	Rank      int     `json:"rank"`
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`
	Change24h float64 `json:"change_24h"`
}

// DrawdownResult is the outcome of an IER computation.
type DrawdownResult struct {
	FinalValue  float64
	MaxDrawdown float64
	Ratio       float64 // +Inf when no drawdown was observed
	Diagnostic  *Diagnostic
}

// CorrelationEntry is one cell of the correlation matrix.
type CorrelationEntry struct {
	Row      string  `json:"row"`
	Col      string  `json:"col"`
	Value    float64 `json:"value"`
	Strength string  `json:"strength"`
}

// CorrelationResult is the flattened correlation matrix and its labels.
type CorrelationResult struct {
	Entries    []CorrelationEntry `json:"entries"`
	Labels     []string           `json:"labels"`
	Points     int                `json:"points"`
	Diagnostic *Diagnostic        `json:"diagnostic,omitempty"`
}

// Strategy is an investment simulation mode.
type Strategy string

const (
	StrategyLumpSum           Strategy = "lump_sum"
	StrategyDollarCostAverage Strategy = "dollar_cost_average"
)

// SimulationResult holds the simulator outputs. The numeric fields are all
// nil together when Diagnostic is set.
type SimulationResult struct {
	FinalValue    *float64    `json:"final_value"`
	TotalInvested *float64    `json:"total_invested"`
	Profit        *float64    `json:"profit"`
	ProfitPercent *float64    `json:"profit_percent"`
	Installments  int         `json:"installments,omitempty"`
	Diagnostic    *Diagnostic `json:"diagnostic,omitempty"`
}
