package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"9095"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	HistoricalCSV string `envconfig:"HISTORICAL_CSV" default:"data/historical.csv"`

	CoinGeckoBaseURL string        `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com/api/v3/"`
	CoinGeckoAPIKey  string        `envconfig:"COINGECKO_API_KEY"`
	CoinGeckoRPS     float64       `envconfig:"COINGECKO_RPS" default:"0.5"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	RankingTTL time.Duration `envconfig:"RANKING_TTL" default:"5m"`
	RedisAddr  string        `envconfig:"REDIS_ADDR"`

	SimulationEndDate string `envconfig:"SIMULATION_END_DATE" default:"2025-01-01"`

	NewsURL     string `envconfig:"NEWS_URL" default:"https://www.coindesk.com/"`
	NewsFeedURL string `envconfig:"NEWS_FEED_URL" default:"https://www.coindesk.com/arc/outboundfeeds/rss/"`

	DBPath string `envconfig:"DB_PATH" default:"data/coindash.db"`

	TelegramToken    string `envconfig:"TELEGRAM_BOT_TOKEN"`
	WebhookPublicURL string `envconfig:"WEBHOOK_PUBLIC_URL"`
	OpenAIKey        string `envconfig:"OPENAI_API_KEY"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.EndDate(); err != nil {
		return err
	}
	if c.CoinGeckoRPS <= 0 {
		return errors.New("COINGECKO_RPS must be positive")
	}
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	return nil
}

// EndDate is the parsed SIMULATION_END_DATE.
func (c *Config) EndDate() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, c.SimulationEndDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("SIMULATION_END_DATE %q: want YYYY-MM-DD", c.SimulationEndDate)
	}
	return t, nil
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.WebhookPublicURL != ""
}

func (c *Config) OpenAIEnabled() bool { return c.OpenAIKey != "" }

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }
