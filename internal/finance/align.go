package finance

import (
	"math"
	"sort"
	"time"
)

// priceTable is a set of price columns sharing one calendar index. Missing
// cells hold NaN.
type priceTable struct {
	dates   []time.Time
	labels  []string
	columns [][]float64
}

// fillDaily resamples a normalized series onto every calendar day between
// its first and last observation, forward-filling missing days.
func fillDaily(points []PricePoint) []PricePoint {
	if len(points) == 0 {
		return nil
	}
	first := dayOf(points[0].Time)
	last := dayOf(points[len(points)-1].Time)
	out := make([]PricePoint, 0, daysBetween(first, last)+1)
	idx := 0
	lastKnown := points[0].Price
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		for idx < len(points) && !dayOf(points[idx].Time).After(d) {
			lastKnown = points[idx].Price
			idx++
		}
		out = append(out, PricePoint{Time: d, Price: lastKnown})
	}
	return out
}

// alignSeries assembles daily-filled series into one table keyed by symbol.
// Dates where every asset is missing are dropped and internal gaps are
// forward-filled from the last known price.
func alignSeries(series []PriceSeries) priceTable {
	perAsset := make([]map[time.Time]float64, 0, len(series))
	labels := make([]string, 0, len(series))
	seen := map[time.Time]struct{}{}
	for _, s := range series {
		filled := fillDaily(normalizeSeries(append([]PricePoint(nil), s.Points...)))
		if len(filled) == 0 {
			continue
		}
		m := make(map[time.Time]float64, len(filled))
		for _, p := range filled {
			m[p.Time] = p.Price
			seen[p.Time] = struct{}{}
		}
		perAsset = append(perAsset, m)
		labels = append(labels, s.Symbol)
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	columns := make([][]float64, len(perAsset))
	for c, m := range perAsset {
		col := make([]float64, len(dates))
		for i, d := range dates {
			if v, ok := m[d]; ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		columns[c] = col
	}

	t := priceTable{dates: dates, labels: labels, columns: columns}
	t.dropEmptyRows()
	t.forwardFill()
	return t
}

func (t *priceTable) dropEmptyRows() {
	keep := make([]int, 0, len(t.dates))
	for i := range t.dates {
		for _, col := range t.columns {
			if !math.IsNaN(col[i]) {
				keep = append(keep, i)
				break
			}
		}
	}
	if len(keep) == len(t.dates) {
		return
	}
	dates := make([]time.Time, len(keep))
	for j, i := range keep {
		dates[j] = t.dates[i]
	}
	for c, col := range t.columns {
		nc := make([]float64, len(keep))
		for j, i := range keep {
			nc[j] = col[i]
		}
		t.columns[c] = nc
	}
	t.dates = dates
}

func (t *priceTable) forwardFill() {
	for _, col := range t.columns {
		last := math.NaN()
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = last
				continue
			}
			last = v
		}
	}
}

// returns computes day-over-day percent changes per column, dropping the
// first row and any row with a missing value in some column.
func (t priceTable) returns() [][]float64 {
	out := make([][]float64, len(t.columns))
	for i := 1; i < len(t.dates); i++ {
		row := make([]float64, len(t.columns))
		complete := true
		for c, col := range t.columns {
			prev, cur := col[i-1], col[i]
			if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
				complete = false
				break
			}
			row[c] = (cur - prev) / prev
		}
		if !complete {
			continue
		}
		for c := range row {
			out[c] = append(out[c], row[c])
		}
	}
	return out
}
