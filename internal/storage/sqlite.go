package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

type Store struct{ db DB }

// Headline is one archived news item.
type Headline struct {
	Title     string
	Link      string
	Source    string
	Sentiment string
	FetchedAt time.Time
}

// UsageStats is the request count for one category within a window.
type UsageStats struct {
	Category string
	Count    int
	Commands map[string]int
}

// TimeSeriesPoint is a bucketed usage count.
type TimeSeriesPoint struct {
	Timestamp int64
	Count     int
}

func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	return db, nil
}

func InitSchema(ctx context.Context, db DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS headlines(
			title TEXT NOT NULL, link TEXT NOT NULL, source TEXT, sentiment TEXT, ts INTEGER,
			UNIQUE(title, link)
		)`,
		`CREATE TABLE IF NOT EXISTS usage(
			category TEXT NOT NULL, command TEXT NOT NULL, ts INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS usage_ts ON usage(ts)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func NewStore(db DB) *Store { return &Store{db: db} }

// SaveHeadlines archives headlines, ignoring ones already stored.
func (s *Store) SaveHeadlines(ctx context.Context, items []Headline) error {
	for _, h := range items {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO headlines(title,link,source,sentiment,ts) VALUES(?,?,?,?,?)`,
			h.Title, h.Link, h.Source, h.Sentiment, h.FetchedAt.Unix())
		if err != nil {
			return fmt.Errorf("save headline: %w", err)
		}
	}
	return nil
}

// RecentHeadlines returns the newest archived headlines first.
func (s *Store) RecentHeadlines(ctx context.Context, limit int) ([]Headline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, link, source, sentiment, ts FROM headlines ORDER BY ts DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query headlines: %w", err)
	}
	defer rows.Close()
	var out []Headline
	for rows.Next() {
		var h Headline
		var src, sent sql.NullString
		var ts int64
		if err := rows.Scan(&h.Title, &h.Link, &src, &sent, &ts); err != nil {
			return nil, fmt.Errorf("scan headline: %w", err)
		}
		h.Source, h.Sentiment = src.String, sent.String
		h.FetchedAt = time.Unix(ts, 0).UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) RecordUsage(ctx context.Context, category, command string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO usage(category,command,ts) VALUES(?,?,?)`,
		category, command, at.Unix())
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// UsageSince groups usage rows at or after since by category.
func (s *Store) UsageSince(ctx context.Context, since time.Time) (map[string]*UsageStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, command, COUNT(*) FROM usage WHERE ts >= ? GROUP BY category, command`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()
	out := map[string]*UsageStats{}
	for rows.Next() {
		var cat, cmd string
		var n int
		if err := rows.Scan(&cat, &cmd, &n); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		st, ok := out[cat]
		if !ok {
			st = &UsageStats{Category: cat, Commands: map[string]int{}}
			out[cat] = st
		}
		st.Count += n
		st.Commands[cmd] += n
	}
	return out, rows.Err()
}

// UsageTimeSeries buckets usage per category into bucket-wide intervals.
func (s *Store) UsageTimeSeries(ctx context.Context, since time.Time, bucket time.Duration) (map[string][]TimeSeriesPoint, error) {
	width := int64(bucket / time.Second)
	if width <= 0 {
		width = 3600
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, (ts / ?) * ? AS b, COUNT(*) FROM usage WHERE ts >= ? GROUP BY category, b ORDER BY b`,
		width, width, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query usage series: %w", err)
	}
	defer rows.Close()
	out := map[string][]TimeSeriesPoint{}
	for rows.Next() {
		var cat string
		var p TimeSeriesPoint
		if err := rows.Scan(&cat, &p.Timestamp, &p.Count); err != nil {
			return nil, fmt.Errorf("scan usage series: %w", err)
		}
		out[cat] = append(out[cat], p)
	}
	return out, rows.Err()
}
