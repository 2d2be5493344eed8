package finance

import (
	"math"
)

// DefaultInvestment is the hypothetical stake replayed by ComputeIER.
const DefaultInvestment = 1000.0

// replayLumpSum values a fixed share position bought at prices[0].
func replayLumpSum(prices []float64, investment float64) ([]float64, error) {
	if prices[0] <= 0 || !isFinite(prices[0]) {
		return nil, diag(KindInsufficientData, "invalid initial price: %f", prices[0])
	}
	shares := investment / prices[0]
	if !isFinite(shares) {
		return nil, diag(KindInsufficientData, "invalid share calculation: %f", shares)
	}
	values := make([]float64, len(prices))
	for i, p := range prices {
		v := shares * p
		if !isFinite(v) || p < 0 {
			return nil, diag(KindInsufficientData, "invalid price on day %d: %f", i, p)
		}
		values[i] = v
	}
	return values, nil
}

// spanDrawdown tracks running peak and running trough independently across
// the whole series and samples peak-trough each time a new trough is set.
// The extrema are never reset after a new peak, so this can exceed the
// classic peak-to-subsequent-trough drawdown.
func spanDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak, trough := values[0], values[0]
	maxDD := 0.0
	for _, v := range values[1:] {
		if v > peak {
			peak = v
			continue
		}
		if v < trough {
			trough = v
			if dd := peak - trough; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// ComputeIER replays initialInvestment through prices and returns the final
// value, the maximum drawdown and their ratio. It never panics; bad input
// becomes an all-zero result with a diagnostic.
func ComputeIER(prices []float64, initialInvestment float64) (res DrawdownResult) {
	defer func() {
		if r := recover(); r != nil {
			res = DrawdownResult{Diagnostic: diag(KindInsufficientData, "computation failed: %v", r)}
		}
	}()

	if len(prices) < 2 {
		return DrawdownResult{Diagnostic: diag(KindInsufficientData, "insufficient data")}
	}
	if initialInvestment <= 0 || !isFinite(initialInvestment) {
		return DrawdownResult{Diagnostic: diag(KindInvalidInput, "investment must be positive")}
	}
	values, err := replayLumpSum(prices, initialInvestment)
	if err != nil {
		return DrawdownResult{Diagnostic: diagnosticFromErr(err)}
	}

	final := values[len(values)-1]
	maxDD := spanDrawdown(values)
	if maxDD == 0 {
		return DrawdownResult{
			FinalValue:  final,
			MaxDrawdown: 0,
			Ratio:       math.Inf(1),
			Diagnostic:  diag(KindNoDrawdown, "no drawdown detected"),
		}
	}
	ratio := final / maxDD
	if !isFinite(ratio) {
		return DrawdownResult{Diagnostic: diag(KindInsufficientData, "invalid ratio: %f", ratio)}
	}
	return DrawdownResult{FinalValue: final, MaxDrawdown: maxDD, Ratio: ratio}
}
