package finance

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// InstallmentDays is the stride between DCA purchases.
	InstallmentDays = 30
)

// Simulator replays lump-sum and dollar-cost-averaging purchases over the
// window [start, endDate].
type Simulator struct {
	source  *PriceSource
	endDate time.Time
	log     *zap.SugaredLogger
}

func NewSimulator(source *PriceSource, endDate time.Time, log *zap.SugaredLogger) *Simulator {
	return &Simulator{source: source, endDate: dayOf(endDate), log: log.With("component", "simulator")}
}

// EndDate is the fixed evaluation cutoff.
func (s *Simulator) EndDate() time.Time { return s.endDate }

// ParseStrategy accepts the canonical names and the short forms lump/dca.
func ParseStrategy(v string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "lump_sum", "lump", "lumpsum", "":
		return StrategyLumpSum, true
	case "dollar_cost_average", "dca":
		return StrategyDollarCostAverage, true
	}
	return "", false
}

// Simulate runs one strategy. Every failure path returns nil numeric fields
// and a diagnostic.
func (s *Simulator) Simulate(ctx context.Context, assetID string, start time.Time, amount float64, strategy Strategy) SimulationResult {
	start = dayOf(start)
	if strings.TrimSpace(assetID) == "" {
		return failedSimulation(diag(KindInvalidInput, "coin is required"))
	}
	if !start.Before(s.endDate) {
		return failedSimulation(diag(KindInvalidInput, "start date must precede end date"))
	}
	if amount <= 0 || !isFinite(amount) {
		return failedSimulation(diag(KindInvalidInput, "amount must be positive"))
	}
	if strategy != StrategyLumpSum && strategy != StrategyDollarCostAverage {
		return failedSimulation(diag(KindInvalidInput, "unknown strategy %q", strategy))
	}
	windowDays := daysBetween(start, s.endDate)
	if strategy == StrategyDollarCostAverage && windowDays < InstallmentDays {
		return failedSimulation(diag(KindInsufficientData, "requires at least 30 days"))
	}

	res := s.source.FetchRange(ctx, assetID, start, s.endDate)
	if res.Diagnostic != nil {
		return failedSimulation(res.Diagnostic)
	}
	if res.Series.Empty() {
		return failedSimulation(diag(KindDataUnavailable, "no data"))
	}

	switch strategy {
	case StrategyDollarCostAverage:
		return dollarCostAverage(res.Series.Points, start, s.endDate, amount)
	default:
		return lumpSum(res.Series.Prices(), amount)
	}
}

func lumpSum(prices []float64, amount float64) SimulationResult {
	if len(prices) == 0 {
		return failedSimulation(diag(KindDataUnavailable, "no data"))
	}
	values, err := replayLumpSum(prices, amount)
	if err != nil {
		return failedSimulation(diagnosticFromErr(err))
	}
	final := values[len(values)-1]
	profit := final - amount
	return simulationResult(final, amount, profit, profit/amount*100, 1)
}

// dollarCostAverage buys amount/floor(window/30) at every 30-day stride from
// start through end inclusive, at the observation nearest each date.
func dollarCostAverage(points []PricePoint, start, end time.Time, amount float64) SimulationResult {
	if len(points) == 0 {
		return failedSimulation(diag(KindDataUnavailable, "no data"))
	}
	count := daysBetween(start, end) / InstallmentDays
	if count < 1 {
		return failedSimulation(diag(KindInsufficientData, "requires at least 30 days"))
	}
	installment := amount / float64(count)

	var shares, invested float64
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, InstallmentDays) {
		p := nearestPrice(points, d)
		shares += installment / p
		invested += installment
		n++
	}
	final := shares * points[len(points)-1].Price
	if !isFinite(final) || invested == 0 {
		return failedSimulation(diag(KindInsufficientData, "invalid simulation result"))
	}
	profit := final - invested
	return simulationResult(final, invested, profit, profit/invested*100, n)
}

// nearestPrice returns the price whose date is closest to day; ties go to
// the earlier observation.
func nearestPrice(points []PricePoint, day time.Time) float64 {
	best := points[0]
	bestDiff := absInt(daysBetween(best.Time, day))
	for _, p := range points[1:] {
		if d := absInt(daysBetween(p.Time, day)); d < bestDiff {
			best, bestDiff = p, d
		}
	}
	return best.Price
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func simulationResult(final, invested, profit, pct float64, installments int) SimulationResult {
	if !isFinite(final) || !isFinite(profit) || !isFinite(pct) {
		return failedSimulation(diag(KindInsufficientData, "invalid simulation result"))
	}
	return SimulationResult{
		FinalValue:    &final,
		TotalInvested: &invested,
		Profit:        &profit,
		ProfitPercent: &pct,
		Installments:  installments,
	}
}

func failedSimulation(d *Diagnostic) SimulationResult {
	return SimulationResult{Diagnostic: d}
}
