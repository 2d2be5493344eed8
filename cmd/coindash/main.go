package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coindash/internal/cache"
	"coindash/internal/config"
	"coindash/internal/finance"
	"coindash/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "coindash",
	Short: "Crypto market dashboard: prices, IER, correlation, simulation and news",
	Long: `coindash serves crypto market metrics over HTTP and Telegram, and
computes them one-shot from the command line.

Examples:
  coindash serve
  coindash ier btc --days 180
  coindash simulate eth 2023-01-01 1000 --strategy dca
  coindash correlate sol
  coindash news`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the components every subcommand shares.
type app struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	cache   cache.BytesCache
	fin     *finance.Service
	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	finance.RegisterMetrics()

	local, err := finance.LoadHistoricalCSV(cfg.HistoricalCSV)
	if err != nil {
		return nil, err
	}
	log.Infow("finance: historical dataset loaded", "path", cfg.HistoricalCSV, "symbols", len(local.Symbols()))

	a := &app{cfg: cfg, log: log, cache: cache.NewMemory()}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, "coindash")
		if err != nil {
			log.Warnw("cache: redis unavailable, using memory", "addr", cfg.RedisAddr, "error", err)
		} else {
			a.cache = rc
			a.closers = append(a.closers, rc.Close)
		}
	}

	end, _ := cfg.EndDate()
	remote := finance.NewCoinGecko(finance.CoinGeckoConfig{
		BaseURL: cfg.CoinGeckoBaseURL,
		APIKey:  cfg.CoinGeckoAPIKey,
		RPS:     cfg.CoinGeckoRPS,
		Timeout: cfg.HTTPTimeout,
	}, log)
	source := finance.NewPriceSource(local, remote, log)
	ranking := finance.NewRanking(remote, a.cache, cfg.RankingTTL, log)
	charts := finance.NewChartRenderer(source, a.cache, log)
	a.fin = finance.NewService(source, ranking, charts, end, log)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warnw("shutdown: close failed", "error", err)
		}
	}
	_ = a.log.Sync()
}
