package finance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"coindash/internal/cache"

	"github.com/vicanso/go-charts/v2"
	"go.uber.org/zap"
)

// ChartTTL is how long a rendered price chart is reused.
const ChartTTL = 60 * time.Second

// ChartRenderer draws daily price charts as PNG.
type ChartRenderer struct {
	source *PriceSource
	cache  cache.BytesCache
	log    *zap.SugaredLogger
}

func NewChartRenderer(source *PriceSource, c cache.BytesCache, log *zap.SugaredLogger) *ChartRenderer {
	if c == nil {
		c = cache.NewMemory()
	}
	return &ChartRenderer{source: source, cache: c, log: log.With("component", "charts")}
}

// PriceChart renders the trailing days of coin prices.
func (r *ChartRenderer) PriceChart(ctx context.Context, coin string, days int) ([]byte, *Diagnostic) {
	key := fmt.Sprintf("chart:%s:%d", ResolveSymbol(coin), days)
	if img, ok, err := r.cache.GetBytes(ctx, key); err == nil && ok {
		return img, nil
	}

	res := r.source.Fetch(ctx, coin, days)
	if res.Diagnostic != nil {
		return nil, res.Diagnostic
	}
	img, err := RenderPriceChart(res.Series, days)
	if err != nil {
		var d *Diagnostic
		if errors.As(err, &d) {
			return nil, d
		}
		r.log.Warnw("charts: render failed", "coin", coin, "error", err)
		return nil, diag(KindUpstreamFailure, "chart rendering failed")
	}
	if err := r.cache.SetBytes(ctx, key, img, ChartTTL); err != nil {
		r.log.Debugw("charts: cache write failed", "key", key, "error", err)
	}
	return img, nil
}

// RenderPriceChart draws a single line with a padded y-range.
func RenderPriceChart(s PriceSeries, days int) ([]byte, error) {
	if s.Len() < 2 {
		return nil, diag(KindInsufficientData, "not enough data points")
	}
	prices := s.Prices()
	yMin, yMax := prices[0], prices[0]
	for _, v := range prices[1:] {
		yMin = min(yMin, v)
		yMax = max(yMax, v)
	}
	pad := (yMax - yMin) * 0.05
	if pad < yMax*0.002 {
		pad = yMax * 0.002
	}
	yMin = max(yMin-pad, 0)
	yMax += pad

	split := 10
	if s.Len() < split {
		split = s.Len()
	}
	painter, err := charts.LineRender([][]float64{prices},
		charts.TitleTextOptionFunc(fmt.Sprintf("%s • %dd", strings.ToUpper(s.Symbol), days)),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: s.Labels(), BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// CompareChart renders several coins indexed to 100 at the first shared day.
func (r *ChartRenderer) CompareChart(ctx context.Context, coins []string, days int) ([]byte, *Diagnostic) {
	var series []PriceSeries
	for _, c := range coins {
		res := r.source.Fetch(ctx, c, days)
		if res.Diagnostic != nil {
			r.log.Debugw("charts: compare member omitted", "coin", c, "diagnostic", res.Diagnostic)
			continue
		}
		series = append(series, res.Series)
	}
	if len(series) == 0 {
		return nil, diag(KindDataUnavailable, "no data for %s", strings.Join(coins, ", "))
	}
	img, err := RenderIndexedChart(series, days)
	if err != nil {
		var d *Diagnostic
		if errors.As(err, &d) {
			return nil, d
		}
		r.log.Warnw("charts: compare render failed", "coins", coins, "error", err)
		return nil, diag(KindUpstreamFailure, "chart rendering failed")
	}
	return img, nil
}

// RenderIndexedChart aligns the series on a shared daily calendar and plots
// each one rebased to 100.
func RenderIndexedChart(series []PriceSeries, days int) ([]byte, error) {
	t := alignSeries(series)
	start := 0
	for start < len(t.dates) && !rowComplete(t.columns, start) {
		start++
	}
	if len(t.dates)-start < 2 {
		return nil, diag(KindInsufficientData, "not enough overlapping data points")
	}

	labels := make([]string, 0, len(t.dates)-start)
	for _, d := range t.dates[start:] {
		labels = append(labels, d.Format(LabelLayout))
	}
	values := make([][]float64, len(t.columns))
	gmin, gmax := math.Inf(1), math.Inf(-1)
	for c, col := range t.columns {
		base := col[start]
		out := make([]float64, 0, len(col)-start)
		for _, v := range col[start:] {
			iv := v / base * 100
			out = append(out, iv)
			gmin, gmax = min(gmin, iv), max(gmax, iv)
		}
		values[c] = out
	}
	pad := (gmax - gmin) * 0.05
	yMin, yMax := gmin-pad, gmax+pad

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = t.labels[i]
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(fmt.Sprintf("Indexed • %dd", days), strings.Join(t.labels, ", ")+" • base 100"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: t.labels}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

func rowComplete(cols [][]float64, i int) bool {
	for _, col := range cols {
		if math.IsNaN(col[i]) {
			return false
		}
	}
	return true
}
