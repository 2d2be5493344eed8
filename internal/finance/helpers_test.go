package finance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

var testLog = zap.NewNop().Sugar()

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// dailyPoints lays prices out one per day starting at start.
func dailyPoints(start time.Time, prices ...float64) []PricePoint {
	out := make([]PricePoint, len(prices))
	for i, p := range prices {
		out[i] = PricePoint{Time: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func storeOf(series map[string][]PricePoint) *HistoricalPriceStore {
	s := EmptyHistoricalStore()
	for sym, pts := range series {
		s.bySymbol[sym] = pts
	}
	return s
}

type fakeRemote struct {
	mu        sync.Mutex
	charts    map[string][]PricePoint
	snapshots map[string]CoinSnapshot
	top       []MarketRank
	err       error
	calls     map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		charts:    map[string][]PricePoint{},
		snapshots: map[string]CoinSnapshot{},
		calls:     map[string]int{},
	}
}

func (f *fakeRemote) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeRemote) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) CoinSnapshot(_ context.Context, id string) (CoinSnapshot, error) {
	f.record("snapshot")
	if f.err != nil {
		return CoinSnapshot{}, f.err
	}
	s, ok := f.snapshots[id]
	if !ok {
		return CoinSnapshot{}, ErrDataUnavailable
	}
	return s, nil
}

func (f *fakeRemote) MarketChart(_ context.Context, id string, days int) ([]PricePoint, error) {
	f.record("chart:" + id)
	if f.err != nil {
		return nil, f.err
	}
	pts, ok := f.charts[id]
	if !ok {
		return nil, ErrDataUnavailable
	}
	if len(pts) > days+1 {
		pts = pts[len(pts)-days-1:]
	}
	return append([]PricePoint(nil), pts...), nil
}

func (f *fakeRemote) MarketChartRange(_ context.Context, id string, from, to time.Time) ([]PricePoint, error) {
	f.record("range:" + id)
	if f.err != nil {
		return nil, f.err
	}
	var out []PricePoint
	for _, p := range f.charts[id] {
		if !p.Time.Before(from) && !p.Time.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRemote) TopMarkets(_ context.Context, n int) ([]MarketRank, error) {
	f.record("top")
	if f.err != nil {
		return nil, f.err
	}
	if len(f.top) > n {
		return f.top[:n], nil
	}
	return f.top, nil
}

type staticRanker []MarketRank

func (r staticRanker) Top(_ context.Context, n int) ([]MarketRank, error) {
	if len(r) > n {
		return r[:n], nil
	}
	return r, nil
}
