package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"coindash/internal/cache"
)

// BasketSize is the number of top assets used as the correlation basket.
const BasketSize = 10

// Ranker supplies the market-cap ranking.
type Ranker interface {
	Top(ctx context.Context, n int) ([]MarketRank, error)
}

// Ranking serves the market-cap ranking from a time-boxed snapshot cache.
type Ranking struct {
	remote RemotePriceAPI
	cache  cache.BytesCache
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewRanking(remote RemotePriceAPI, c cache.BytesCache, ttl time.Duration, log *zap.SugaredLogger) *Ranking {
	if c == nil {
		c = cache.NewMemory()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Ranking{remote: remote, cache: c, ttl: ttl, log: log.With("component", "ranking")}
}

// Top returns the first n coins by market cap.
func (r *Ranking) Top(ctx context.Context, n int) ([]MarketRank, error) {
	key := fmt.Sprintf("ranking:top:%d", n)
	if b, ok, err := r.cache.GetBytes(ctx, key); err != nil {
		r.log.Warnw("ranking: cache read failed", "key", key, "error", err)
	} else if ok {
		var rows []MarketRank
		if err := json.Unmarshal(b, &rows); err == nil {
			return rows, nil
		}
	}

	if r.remote == nil {
		return nil, fmt.Errorf("%w: no ranking source configured", ErrDataUnavailable)
	}
	rows, err := r.remote.TopMarkets(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("fetch top %d: %w", n, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty ranking", ErrDataUnavailable)
	}
	if b, err := json.Marshal(rows); err == nil {
		if err := r.cache.SetBytes(ctx, key, b, r.ttl); err != nil {
			r.log.Warnw("ranking: cache write failed", "key", key, "error", err)
		}
	}
	r.log.Debugw("ranking: refreshed snapshot", "n", n, "ttl", r.ttl)
	return rows, nil
}
