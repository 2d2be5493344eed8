package finance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coindash/internal/cache"
)

func TestRankingCachesSnapshot(t *testing.T) {
	remote := newFakeRemote()
	remote.top = []MarketRank{{Rank: 1, ID: "bitcoin", Symbol: "BTC"}, {Rank: 2, ID: "ethereum", Symbol: "ETH"}}
	r := NewRanking(remote, cache.NewMemory(), time.Minute, testLog)
	ctx := context.Background()

	first, err := r.Top(ctx, 2)
	require.NoError(t, err)
	second, err := r.Top(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, remote.called("top"))

	_, err = r.Top(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, remote.called("top"), "different n is a different key")
}

func TestRankingErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewRanking(nil, nil, 0, testLog).Top(ctx, 10)
	require.ErrorIs(t, err, ErrDataUnavailable)

	_, err = NewRanking(newFakeRemote(), nil, 0, testLog).Top(ctx, 10)
	require.ErrorIs(t, err, ErrDataUnavailable, "empty ranking")
}
