// Package news collects crypto headlines and tallies their sentiment.
package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// MaxHeadlines caps a single scrape.
const MaxHeadlines = 10

// headlineSelectors are tried in order; the first one that matches wins.
var headlineSelectors = []string{
	"article.card h6.heading",
	"article h5",
	"article h6",
	".article-card h6",
}

// Headline is one scraped news item.
type Headline struct {
	Title     string  `json:"title"`
	Link      string  `json:"link"`
	Source    string  `json:"source"`
	Sentiment Label   `json:"sentiment"`
	Score     float64 `json:"score"`
}

// Scraper reads headlines from a news page and falls back to its RSS feed.
type Scraper struct {
	pageURL string
	feedURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

func NewScraper(pageURL, feedURL string, timeout time.Duration, log *zap.SugaredLogger) *Scraper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		pageURL: pageURL,
		feedURL: feedURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With("component", "news"),
	}
}

// Headlines returns up to MaxHeadlines scored items.
func (s *Scraper) Headlines(ctx context.Context) ([]Headline, error) {
	items, err := s.scrapePage(ctx)
	if err != nil || len(items) == 0 {
		if err != nil {
			s.log.Warnw("news: page scrape failed, trying feed", "url", s.pageURL, "error", err)
		}
		items, err = s.readFeed(ctx)
		if err != nil {
			return nil, err
		}
	}
	for i := range items {
		items[i].Score = Score(items[i].Title)
		items[i].Sentiment = Classify(items[i].Score)
	}
	return items, nil
}

func (s *Scraper) scrapePage(ctx context.Context) ([]Headline, error) {
	if s.pageURL == "" {
		return nil, nil
	}
	body, err := s.get(ctx, s.pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse news page: %w", err)
	}
	base, _ := url.Parse(s.pageURL)
	host := ""
	if base != nil {
		host = base.Hostname()
	}

	for _, sel := range headlineSelectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}
		var out []Headline
		nodes.EachWithBreak(func(_ int, n *goquery.Selection) bool {
			title := strings.Join(strings.Fields(n.Text()), " ")
			if title == "" {
				return true
			}
			href, _ := n.Closest("a").Attr("href")
			if href == "" {
				href, _ = n.Find("a").First().Attr("href")
			}
			out = append(out, Headline{Title: title, Link: absolute(base, href), Source: host})
			return len(out) < MaxHeadlines
		})
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, nil
}

func (s *Scraper) readFeed(ctx context.Context) ([]Headline, error) {
	if s.feedURL == "" {
		return nil, fmt.Errorf("no headlines found")
	}
	body, err := s.get(ctx, s.feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}
	source := feed.Title
	var out []Headline
	for _, it := range feed.Items {
		if len(out) >= MaxHeadlines {
			break
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		out = append(out, Headline{Title: title, Link: it.Link, Source: source})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no headlines found")
	}
	return out, nil
}

func (s *Scraper) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "coindash/1.0")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: status %d", u, resp.StatusCode)
	}
	return resp.Body, nil
}

func absolute(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
