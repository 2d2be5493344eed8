package telegram

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
	log *zap.SugaredLogger
}

// NewBot registers the webhook and returns the bot. Handlers are attached
// with Attach once the API client exists.
func NewBot(token, webhookURL string, log *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	log.Infow("telegram: webhook set", "url", webhookURL)
	return &Bot{api: api, log: log.With("component", "telegram")}, nil
}

// API is the underlying client, used as the handlers' Sender.
func (b *Bot) API() *tgbotapi.BotAPI { return b.api }

func (b *Bot) Attach(h *Handlers) { b.h = h }

// WebhookHandler decodes an update and dispatches it asynchronously.
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	if update.Message == nil {
		b.log.Debugw("webhook: non-message update received")
		w.WriteHeader(http.StatusOK)
		return
	}
	b.log.Infow("webhook: message", "chat_id", update.Message.Chat.ID, "text", update.Message.Text)
	if b.h != nil {
		go b.h.HandleMessage(update.Message)
	}
	w.WriteHeader(http.StatusOK)
}
