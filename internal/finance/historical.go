package finance

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

type historicalRow struct {
	Symbol           string  `csv:"symbol"`
	Name             string  `csv:"name"`
	Timestamp        string  `csv:"timestamp"`
	Price            float64 `csv:"price"`
	MarketCap        float64 `csv:"market_cap"`
	PercentChange24h float64 `csv:"percent_change_24h"`
}

// HistoricalPriceStore is the read-only local price table, keyed by symbol.
// It is loaded once and never mutated, so it is safe to share.
type HistoricalPriceStore struct {
	bySymbol map[string][]PricePoint
	names    map[string]string
}

// EmptyHistoricalStore returns a store that has no symbols; every lookup
// falls through to the remote API.
func EmptyHistoricalStore() *HistoricalPriceStore {
	return &HistoricalPriceStore{bySymbol: map[string][]PricePoint{}, names: map[string]string{}}
}

// LoadHistoricalCSV reads the dataset at path. A missing file is not an
// error: it yields an empty store.
func LoadHistoricalCSV(path string) (*HistoricalPriceStore, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return EmptyHistoricalStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open historical csv: %w", err)
	}
	defer f.Close()
	return ReadHistoricalCSV(f)
}

// ReadHistoricalCSV parses the dataset from r. Rows with unparseable
// timestamps or non-positive prices are skipped.
func ReadHistoricalCSV(r io.Reader) (*HistoricalPriceStore, error) {
	var rows []historicalRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse historical csv: %w", err)
	}
	s := EmptyHistoricalStore()
	for _, row := range rows {
		sym := strings.ToUpper(strings.TrimSpace(row.Symbol))
		if sym == "" {
			continue
		}
		ts, ok := parseTimestamp(row.Timestamp)
		if !ok {
			continue
		}
		s.bySymbol[sym] = append(s.bySymbol[sym], PricePoint{Time: ts, Price: row.Price})
		if row.Name != "" {
			s.names[sym] = row.Name
		}
	}
	for sym, pts := range s.bySymbol {
		pts = filterPositive(pts)
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })
		s.bySymbol[sym] = pts
	}
	return s, nil
}

// Has reports whether the store holds rows for the symbol.
func (s *HistoricalPriceStore) Has(symbol string) bool {
	if s == nil {
		return false
	}
	return len(s.bySymbol[strings.ToUpper(symbol)]) > 0
}

// Symbols lists the loaded symbols in sorted order.
func (s *HistoricalPriceStore) Symbols() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.bySymbol))
	for sym := range s.bySymbol {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Trailing returns the rows in [max(ts)-days, max(ts)], inclusive.
func (s *HistoricalPriceStore) Trailing(symbol string, days int) []PricePoint {
	pts := s.rows(symbol)
	if len(pts) == 0 || days <= 0 {
		return nil
	}
	latest := pts[len(pts)-1].Time
	cutoff := latest.AddDate(0, 0, -days)
	return s.Between(symbol, cutoff, latest)
}

// Between returns the rows with from <= ts <= to.
func (s *HistoricalPriceStore) Between(symbol string, from, to time.Time) []PricePoint {
	pts := s.rows(symbol)
	out := make([]PricePoint, 0, len(pts))
	for _, p := range pts {
		if p.Time.Before(from) || p.Time.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *HistoricalPriceStore) rows(symbol string) []PricePoint {
	if s == nil {
		return nil
	}
	return s.bySymbol[strings.ToUpper(symbol)]
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

func parseTimestamp(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		// epoch milliseconds are at least 1e11 for any date after 1973
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	return time.Time{}, false
}
