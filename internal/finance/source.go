package finance

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemotePriceAPI is the remote market data collaborator.
type RemotePriceAPI interface {
	CoinSnapshot(ctx context.Context, id string) (CoinSnapshot, error)
	MarketChart(ctx context.Context, id string, days int) ([]PricePoint, error)
	MarketChartRange(ctx context.Context, id string, from, to time.Time) ([]PricePoint, error)
	TopMarkets(ctx context.Context, n int) ([]MarketRank, error)
}

// PriceSource resolves price series, preferring the local dataset over the
// remote API.
type PriceSource struct {
	local  *HistoricalPriceStore
	remote RemotePriceAPI
	log    *zap.SugaredLogger
}

func NewPriceSource(local *HistoricalPriceStore, remote RemotePriceAPI, log *zap.SugaredLogger) *PriceSource {
	if local == nil {
		local = EmptyHistoricalStore()
	}
	return &PriceSource{local: local, remote: remote, log: log.With("component", "price_source")}
}

// Fetch returns the trailing days of daily prices for a symbol or id. It
// never fails: an empty series carries the diagnostic.
func (s *PriceSource) Fetch(ctx context.Context, symbolOrID string, days int) SeriesResult {
	token := strings.TrimSpace(symbolOrID)
	if token == "" {
		return emptySeries("", diag(KindInvalidInput, "coin is required"))
	}
	if days <= 0 {
		return emptySeries(token, diag(KindInvalidInput, "days must be a positive integer, got %d", days))
	}

	return s.fetchTrailing(ctx, ResolveSymbol(token), ResolveID(token), days)
}

// FetchAsset is Fetch for a basket member whose symbol and id are both known.
func (s *PriceSource) FetchAsset(ctx context.Context, symbol, id string, days int) SeriesResult {
	if days <= 0 {
		return emptySeries(symbol, diag(KindInvalidInput, "days must be a positive integer, got %d", days))
	}
	return s.fetchTrailing(ctx, strings.ToUpper(symbol), strings.ToLower(id), days)
}

func (s *PriceSource) fetchTrailing(ctx context.Context, sym, id string, days int) SeriesResult {
	if s.local.Has(sym) {
		pts := normalizeSeries(s.local.Trailing(sym, days))
		if len(pts) > 0 {
			seriesServed.WithLabelValues("local").Inc()
			return SeriesResult{Series: PriceSeries{Symbol: sym, Source: "local", Points: pts}}
		}
	}

	if s.remote == nil || id == "" {
		seriesServed.WithLabelValues("empty").Inc()
		return emptySeries(sym, diag(KindDataUnavailable, "no data for %s", sym))
	}
	raw, err := s.remote.MarketChart(ctx, id, days)
	if err != nil {
		s.log.Warnw("price_source: remote history failed", "coin", id, "days", days, "error", err)
		seriesServed.WithLabelValues("empty").Inc()
		return emptySeries(sym, diagnosticFromErr(err))
	}
	return s.remoteResult(sym, id, raw)
}

// HasLocal reports whether the local dataset covers the symbol.
func (s *PriceSource) HasLocal(symbol string) bool {
	return s.local.Has(strings.ToUpper(symbol))
}

// FetchRange returns daily prices with from <= date <= to.
func (s *PriceSource) FetchRange(ctx context.Context, symbolOrID string, from, to time.Time) SeriesResult {
	token := strings.TrimSpace(symbolOrID)
	if token == "" {
		return emptySeries("", diag(KindInvalidInput, "coin is required"))
	}
	if !from.Before(to) {
		return emptySeries(token, diag(KindInvalidInput, "start date must precede end date"))
	}

	sym := ResolveSymbol(token)
	if s.local.Has(sym) {
		pts := normalizeSeries(s.local.Between(sym, from, to))
		if len(pts) > 0 {
			seriesServed.WithLabelValues("local").Inc()
			return SeriesResult{Series: PriceSeries{Symbol: sym, Source: "local", Points: pts}}
		}
	}

	if s.remote == nil {
		seriesServed.WithLabelValues("empty").Inc()
		return emptySeries(sym, diag(KindDataUnavailable, "no data for %s", token))
	}
	raw, err := s.remote.MarketChartRange(ctx, ResolveID(token), from, to)
	if err != nil {
		s.log.Warnw("price_source: remote range failed", "coin", token, "error", err)
		seriesServed.WithLabelValues("empty").Inc()
		return emptySeries(sym, diagnosticFromErr(err))
	}
	return s.remoteResult(sym, token, raw)
}

// Snapshot fetches the live market snapshot for a coin.
func (s *PriceSource) Snapshot(ctx context.Context, symbolOrID string) (CoinSnapshot, *Diagnostic) {
	if strings.TrimSpace(symbolOrID) == "" {
		return CoinSnapshot{}, diag(KindInvalidInput, "coin is required")
	}
	if s.remote == nil {
		return CoinSnapshot{}, diag(KindDataUnavailable, "coin not found or error fetching data")
	}
	snap, err := s.remote.CoinSnapshot(ctx, ResolveID(symbolOrID))
	if err != nil {
		s.log.Warnw("price_source: snapshot failed", "coin", symbolOrID, "error", err)
		return CoinSnapshot{}, diagnosticFromErr(err)
	}
	return snap, nil
}

func (s *PriceSource) remoteResult(sym, token string, raw []PricePoint) SeriesResult {
	pts := normalizeSeries(raw)
	if len(pts) == 0 {
		seriesServed.WithLabelValues("empty").Inc()
		return emptySeries(sym, diag(KindDataUnavailable, "no data for %s", token))
	}
	seriesServed.WithLabelValues("remote").Inc()
	return SeriesResult{Series: PriceSeries{Symbol: sym, Source: "remote", Points: pts}}
}

func emptySeries(sym string, d *Diagnostic) SeriesResult {
	return SeriesResult{Series: PriceSeries{Symbol: sym}, Diagnostic: d}
}
