package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"coindash/internal/news"
	"coindash/internal/openai"
	"coindash/internal/server"
	"coindash/internal/storage"
	"coindash/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the Telegram webhook",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.log

	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.InitSchema(ctx, db); err != nil {
		return err
	}
	log.Infow("db: schema ensured", "path", cfg.DBPath)
	store := storage.NewStore(db)

	scraper := news.NewScraper(cfg.NewsURL, cfg.NewsFeedURL, cfg.HTTPTimeout, log)
	newsSvc := news.NewService(scraper, store, log)

	var ai *openai.Client
	if cfg.OpenAIEnabled() {
		ai = openai.New(cfg.OpenAIKey)
	}

	deps := server.Deps{Finance: a.fin, News: newsSvc, AI: ai, Usage: store, Log: log}
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, log)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		bot.Attach(telegram.NewHandlers(bot.API(), a.fin, newsSvc, ai, store, log))
		deps.Webhook = bot.WebhookHandler
	} else {
		log.Infow("telegram: disabled, TELEGRAM_BOT_TOKEN or WEBHOOK_PUBLIC_URL unset")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return server.New(deps).ListenAndServe(ctx, ":"+cfg.Port)
}
