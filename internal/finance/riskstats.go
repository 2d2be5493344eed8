package finance

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// DaysPerYear annualizes daily crypto returns; markets trade every day.
const DaysPerYear = 365.0

// RiskStats summarizes a price series beyond the IER.
type RiskStats struct {
	TotalReturn  float64 `json:"total_return_pct"`
	AnnualReturn float64 `json:"annual_return_pct"`
	Volatility   float64 `json:"volatility_pct"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown_pct"`
	Days         int     `json:"days"`
}

// ComputeRiskStats derives return, annualized volatility, Sharpe (zero
// risk-free rate) and classic peak-to-trough drawdown from daily prices.
func ComputeRiskStats(prices []float64) (RiskStats, error) {
	if len(prices) < 3 {
		return RiskStats{}, fmt.Errorf("%w: need at least 3 prices, got %d", ErrInsufficientData, len(prices))
	}
	first, last := prices[0], prices[len(prices)-1]
	if first <= 0 || last <= 0 {
		return RiskStats{}, fmt.Errorf("%w: non-positive price", ErrInvalidInput)
	}

	rets := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		rets = append(rets, (prices[i]-prices[i-1])/prices[i-1])
	}
	sd, err := stats.StandardDeviationSample(rets)
	if err != nil {
		return RiskStats{}, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}

	years := float64(len(rets)) / DaysPerYear
	annual := math.Pow(last/first, 1/years) - 1
	vol := sd * math.Sqrt(DaysPerYear)
	sharpe := 0.0
	if vol > 0 {
		sharpe = annual / vol
	}
	total := (last - first) / first
	for _, v := range []float64{total, annual, vol, sharpe} {
		if !isFinite(v) {
			return RiskStats{}, fmt.Errorf("%w: non-finite statistic", ErrInsufficientData)
		}
	}

	out := RiskStats{
		TotalReturn:  round2(total * 100),
		AnnualReturn: round2(annual * 100),
		Volatility:   round2(vol * 100),
		SharpeRatio:  round2(sharpe),
		MaxDrawdown:  round2(peakToTroughPct(prices) * 100),
		Days:         len(prices),
	}
	return out, nil
}

// peakToTroughPct is the largest fractional decline from a running peak.
func peakToTroughPct(values []float64) float64 {
	peak, worst := values[0], 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			worst = max(worst, (peak-v)/peak)
		}
	}
	return worst
}
