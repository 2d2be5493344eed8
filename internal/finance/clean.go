package finance

import (
	"math"
	"sort"
	"time"
)

// filterPositive drops points whose price is non-positive, NaN or Inf.
func filterPositive(points []PricePoint) []PricePoint {
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// normalizeSeries sorts points ascending and keeps the last observation of
// each calendar day, so timestamps are strictly increasing one-per-day.
func normalizeSeries(points []PricePoint) []PricePoint {
	points = filterPositive(points)
	if len(points) == 0 {
		return points
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		p.Time = dayOf(p.Time)
		if n := len(out); n > 0 && out[n-1].Time.Equal(p.Time) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// dayOf truncates t to midnight UTC.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(dayOf(b).Sub(dayOf(a)).Hours() / 24))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
