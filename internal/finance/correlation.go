package finance

import (
	"context"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCorrelationWindow is the lookback used when none is given.
	DefaultCorrelationWindow = 365
	// MinOverlap is the fewest aligned daily returns a matrix is built from.
	MinOverlap = 10

	basketFetchConcurrency = 4
)

// Correlator builds the pairwise daily-return correlation matrix between an
// anchor coin and the top of the market.
type Correlator struct {
	source  *PriceSource
	ranking Ranker
	log     *zap.SugaredLogger
}

func NewCorrelator(source *PriceSource, ranking Ranker, log *zap.SugaredLogger) *Correlator {
	return &Correlator{source: source, ranking: ranking, log: log.With("component", "correlation")}
}

type basketAsset struct {
	id     string
	symbol string
}

// Compute returns the matrix for anchor's basket over windowDays. Per-asset
// failures drop that asset; only total insufficiency yields a diagnostic.
func (c *Correlator) Compute(ctx context.Context, anchor string, windowDays int) CorrelationResult {
	if strings.TrimSpace(anchor) == "" {
		return CorrelationResult{Diagnostic: diag(KindInvalidInput, "coin is required")}
	}
	if windowDays <= 0 {
		windowDays = DefaultCorrelationWindow
	}

	basket := c.basket(ctx, anchor)
	series := c.fetchBasket(ctx, basket, windowDays)
	if len(series) < 2 {
		return emptyMatrix(diag(KindInsufficientData, "insufficient assets: %d", len(series)))
	}

	table := alignSeries(series)
	rets := table.returns()
	if len(table.labels) < 2 {
		return emptyMatrix(diag(KindInsufficientData, "insufficient assets: %d", len(table.labels)))
	}
	points := len(rets[0])
	if points < MinOverlap {
		return emptyMatrix(diag(KindInsufficientData, "insufficient overlapping data: %d points", points))
	}

	entries, err := pearsonMatrix(table.labels, rets)
	if err != nil {
		c.log.Warnw("correlation: matrix failed", "anchor", anchor, "error", err)
		return emptyMatrix(diag(KindInsufficientData, "correlation failed: %v", err))
	}
	return CorrelationResult{Entries: entries, Labels: table.labels, Points: points}
}

// basket returns the top assets plus the anchor when it is not among them.
func (c *Correlator) basket(ctx context.Context, anchor string) []basketAsset {
	var out []basketAsset
	if c.ranking != nil {
		top, err := c.ranking.Top(ctx, BasketSize)
		if err != nil {
			c.log.Warnw("correlation: ranking unavailable", "error", err)
		}
		for _, r := range top {
			out = append(out, basketAsset{id: r.ID, symbol: strings.ToUpper(r.Symbol)})
		}
	}

	anchorID, anchorSym := ResolveID(anchor), ResolveSymbol(anchor)
	for _, a := range out {
		if a.id == anchorID || a.symbol == anchorSym {
			return out
		}
	}

	snap, d := c.source.Snapshot(ctx, anchorID)
	switch {
	case d == nil:
		out = append(out, basketAsset{id: snap.ID, symbol: strings.ToUpper(snap.Symbol)})
	case c.source.HasLocal(anchorSym):
		out = append(out, basketAsset{id: anchorID, symbol: anchorSym})
	default:
		c.log.Infow("correlation: anchor omitted from basket", "anchor", anchor, "reason", d.Message)
	}
	return out
}

func (c *Correlator) fetchBasket(ctx context.Context, basket []basketAsset, days int) []PriceSeries {
	results := make([]SeriesResult, len(basket))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(basketFetchConcurrency)
	for i, a := range basket {
		i, a := i, a
		g.Go(func() error {
			results[i] = c.source.FetchAsset(gctx, a.symbol, a.id, days)
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]struct{}{}
	out := make([]PriceSeries, 0, len(results))
	for i, r := range results {
		if r.Diagnostic != nil || r.Series.Empty() {
			c.log.Debugw("correlation: asset omitted", "id", basket[i].id, "diagnostic", r.Diagnostic)
			continue
		}
		if _, dup := seen[r.Series.Symbol]; dup {
			continue
		}
		seen[r.Series.Symbol] = struct{}{}
		out = append(out, r.Series)
	}
	return out
}

// pearsonMatrix computes every (row, col) coefficient, rounded to two
// decimals. The upper triangle is mirrored so the matrix is exactly symmetric.
func pearsonMatrix(labels []string, cols [][]float64) ([]CorrelationEntry, error) {
	n := len(labels)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r, err := stats.Pearson(cols[i], cols[j])
			if err != nil {
				return nil, err
			}
			if math.IsNaN(r) {
				r = 0
			}
			r = round2(r)
			m[i][j], m[j][i] = r, r
		}
	}

	out := make([]CorrelationEntry, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out = append(out, CorrelationEntry{
				Row:      labels[i],
				Col:      labels[j],
				Value:    m[i][j],
				Strength: CorrelationStrength(m[i][j]),
			})
		}
	}
	return out, nil
}

// CorrelationStrength buckets |r|.
func CorrelationStrength(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.8:
		return "very strong"
	case a >= 0.6:
		return "strong"
	case a >= 0.4:
		return "moderate"
	case a >= 0.2:
		return "weak"
	}
	return "very weak"
}

// round2 leaves NaN and Inf untouched; decimal cannot represent them.
func round2(v float64) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func emptyMatrix(d *Diagnostic) CorrelationResult {
	return CorrelationResult{Entries: []CorrelationEntry{}, Labels: []string{}, Diagnostic: d}
}
