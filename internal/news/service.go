package news

import (
	"context"
	"time"

	"coindash/internal/storage"

	"go.uber.org/zap"
)

// Archive persists scraped headlines.
type Archive interface {
	SaveHeadlines(ctx context.Context, items []storage.Headline) error
	RecentHeadlines(ctx context.Context, limit int) ([]storage.Headline, error)
}

// Feed is the headline source.
type Feed interface {
	Headlines(ctx context.Context) ([]Headline, error)
}

// Digest is the scored headline set served to clients.
type Digest struct {
	Items     []Headline `json:"items"`
	Tally     Tally      `json:"tally"`
	FetchedAt time.Time  `json:"fetched_at"`
	Archived  bool       `json:"archived"`
}

// Service scrapes headlines, archives them, and serves the archive when the
// live source is down.
type Service struct {
	feed    Feed
	archive Archive
	now     func() time.Time
	log     *zap.SugaredLogger
}

func NewService(feed Feed, archive Archive, log *zap.SugaredLogger) *Service {
	return &Service{feed: feed, archive: archive, now: time.Now, log: log.With("component", "news")}
}

func (s *Service) Latest(ctx context.Context) (Digest, error) {
	now := s.now().UTC()
	items, err := s.feed.Headlines(ctx)
	if err != nil {
		if s.archive == nil {
			return Digest{}, err
		}
		s.log.Warnw("news: live headlines unavailable, serving archive", "error", err)
		stored, aerr := s.archive.RecentHeadlines(ctx, MaxHeadlines)
		if aerr != nil || len(stored) == 0 {
			return Digest{}, err
		}
		items = fromStorage(stored)
		return Digest{Items: items, Tally: Summarize(items), FetchedAt: stored[0].FetchedAt, Archived: true}, nil
	}

	if s.archive != nil {
		if err := s.archive.SaveHeadlines(ctx, toStorage(items, now)); err != nil {
			s.log.Warnw("news: archive write failed", "error", err)
		}
	}
	return Digest{Items: items, Tally: Summarize(items), FetchedAt: now}, nil
}

func toStorage(items []Headline, at time.Time) []storage.Headline {
	out := make([]storage.Headline, len(items))
	for i, h := range items {
		out[i] = storage.Headline{Title: h.Title, Link: h.Link, Source: h.Source, Sentiment: string(h.Sentiment), FetchedAt: at}
	}
	return out
}

func fromStorage(rows []storage.Headline) []Headline {
	out := make([]Headline, len(rows))
	for i, r := range rows {
		score := Score(r.Title)
		out[i] = Headline{Title: r.Title, Link: r.Link, Source: r.Source, Score: score, Sentiment: Classify(score)}
	}
	return out
}
