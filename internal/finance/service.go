package finance

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultIERWindow is the IER lookback when none is given.
const DefaultIERWindow = 365

// IERReport is the IER for one coin plus the descriptive risk statistics of
// the same series.
type IERReport struct {
	Coin   string
	Days   int
	Source string
	Points int
	Result DrawdownResult
	Stats  *RiskStats
}

// Service bundles the metric components behind the HTTP, CLI and chat front
// ends.
type Service struct {
	Source     *PriceSource
	Ranking    Ranker
	Correlator *Correlator
	Simulator  *Simulator
	Charts     *ChartRenderer
	log        *zap.SugaredLogger
}

// NewService wires the components over one price source.
func NewService(source *PriceSource, ranking Ranker, charts *ChartRenderer, endDate time.Time, log *zap.SugaredLogger) *Service {
	return &Service{
		Source:     source,
		Ranking:    ranking,
		Correlator: NewCorrelator(source, ranking, log),
		Simulator:  NewSimulator(source, endDate, log),
		Charts:     charts,
		log:        log.With("component", "finance"),
	}
}

// IER fetches the trailing series and computes the drawdown metric.
func (s *Service) IER(ctx context.Context, coin string, days int, investment float64) IERReport {
	if days <= 0 {
		days = DefaultIERWindow
	}
	if investment == 0 {
		investment = DefaultInvestment
	}
	rep := IERReport{Coin: ResolveSymbol(coin), Days: days}
	res := s.Source.Fetch(ctx, coin, days)
	if res.Diagnostic != nil {
		rep.Result = DrawdownResult{Diagnostic: res.Diagnostic}
		return rep
	}
	rep.Source = res.Series.Source
	rep.Points = res.Series.Len()
	prices := res.Series.Prices()
	rep.Result = ComputeIER(prices, investment)
	if st, err := ComputeRiskStats(prices); err == nil {
		rep.Stats = &st
	} else {
		s.log.Debugw("finance: risk stats skipped", "coin", coin, "error", err)
	}
	return rep
}

func (s *Service) Correlate(ctx context.Context, coin string, days int) CorrelationResult {
	return s.Correlator.Compute(ctx, coin, days)
}

func (s *Service) Simulate(ctx context.Context, req SimulationRequest) SimulationResult {
	return s.Simulator.Simulate(ctx, req.Coin, req.StartDate, req.Amount, req.Strategy)
}
