package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"coindash/internal/finance"
	"coindash/internal/news"
	"coindash/internal/openai"
	"coindash/internal/report"
)

var (
	rePrice   = regexp.MustCompile(`^/price(?:@[\w_]+)?\s+([A-Za-z0-9-]+)(?:\s+(\d+))?$`)
	reIER     = regexp.MustCompile(`^/ier(?:@[\w_]+)?\s+([A-Za-z0-9-]+)(?:\s+(\d+))?$`)
	reCorr    = regexp.MustCompile(`^/corr(?:@[\w_]+)?\s+([A-Za-z0-9-]+)(?:\s+(\d+))?$`)
	reCompare = regexp.MustCompile(`^/compare(?:@[\w_]+)?\s+([A-Za-z0-9,\-\s]+?)(?:\s+(\d+))?$`)
	reSim     = regexp.MustCompile(`^/sim(?:@[\w_]+)?\s+(.+)$`)
	reExplain = regexp.MustCompile(`^/explain(?:@[\w_]+)?\s+([A-Za-z0-9-]+)(?:\s+(\d+))?$`)
	reNews    = regexp.MustCompile(`^/news(?:@[\w_]+)?$`)
	reHelp    = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

const (
	defaultChartDays = 30
	commandTimeout   = 45 * time.Second
)

// Sender is the subset of the bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UsageRecorder logs one handled command.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, category, command string, at time.Time) error
}

type Handlers struct {
	api     Sender
	fin     *finance.Service
	news    *news.Service
	ai      *openai.Client
	usage   UsageRecorder
	log     *zap.SugaredLogger
	timeout time.Duration
}

// NewHandlers wires the chat commands. news, ai and usage may be nil.
func NewHandlers(api Sender, fin *finance.Service, ns *news.Service, ai *openai.Client, usage UsageRecorder, log *zap.SugaredLogger) *Handlers {
	return &Handlers{api: api, fin: fin, news: ns, ai: ai, usage: usage, log: log.With("component", "telegram"), timeout: commandTimeout}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	txt := strings.TrimSpace(m.Text)
	chatID := m.Chat.ID
	switch {
	case rePrice.MatchString(txt):
		g := rePrice.FindStringSubmatch(txt)
		h.track(ctx, "price")
		h.handlePrice(ctx, chatID, g[1], atoiOr(g[2], defaultChartDays))

	case reIER.MatchString(txt):
		g := reIER.FindStringSubmatch(txt)
		h.track(ctx, "ier")
		h.handleIER(ctx, chatID, g[1], atoiOr(g[2], finance.DefaultIERWindow))

	case reCorr.MatchString(txt):
		g := reCorr.FindStringSubmatch(txt)
		h.track(ctx, "corr")
		h.handleCorrelation(ctx, chatID, g[1], atoiOr(g[2], finance.DefaultCorrelationWindow))

	case reCompare.MatchString(txt):
		g := reCompare.FindStringSubmatch(txt)
		coins := finance.ParseCoinList(g[1])
		if len(coins) < 2 {
			h.reply(chatID, "Please provide at least two coins, e.g. /compare btc eth sol 90")
			return
		}
		h.track(ctx, "compare")
		h.handleCompare(ctx, chatID, coins, atoiOr(g[2], defaultChartDays))

	case reSim.MatchString(txt):
		h.track(ctx, "sim")
		h.handleSimulate(ctx, chatID, txt)

	case reExplain.MatchString(txt):
		g := reExplain.FindStringSubmatch(txt)
		h.track(ctx, "explain")
		h.handleExplain(ctx, chatID, g[1], atoiOr(g[2], finance.DefaultIERWindow))

	case reNews.MatchString(txt):
		h.track(ctx, "news")
		h.handleNews(ctx, chatID)

	case reHelp.MatchString(txt):
		h.handleHelp(chatID)
	}
}

func (h *Handlers) handlePrice(ctx context.Context, chatID int64, coin string, days int) {
	img, d := h.fin.Charts.PriceChart(ctx, coin, days)
	if d != nil {
		h.reply(chatID, fmt.Sprintf("Couldn’t chart %s: %s", coin, d.Message))
		return
	}
	sym := finance.ResolveSymbol(coin)
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fmt.Sprintf("%s_%dd.png", sym, days), Bytes: img})
	photo.Caption = fmt.Sprintf("%s • %dd", sym, days)
	h.send(photo)
}

func (h *Handlers) handleCompare(ctx context.Context, chatID int64, coins []string, days int) {
	img, d := h.fin.Charts.CompareChart(ctx, coins, days)
	if d != nil {
		h.reply(chatID, "Compare failed: "+d.Message)
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "compare.png", Bytes: img})
	photo.Caption = fmt.Sprintf("Indexed: %s • %dd", strings.ToUpper(strings.Join(coins, ", ")), days)
	h.send(photo)
}

func (h *Handlers) handleIER(ctx context.Context, chatID int64, coin string, days int) {
	rep := h.fin.IER(ctx, coin, days, finance.DefaultInvestment)
	h.reply(chatID, report.IER(rep))
}

func (h *Handlers) handleCorrelation(ctx context.Context, chatID int64, coin string, days int) {
	res := h.fin.Correlate(ctx, coin, days)
	h.reply(chatID, report.Correlation(finance.ResolveSymbol(coin), res))
}

func (h *Handlers) handleSimulate(ctx context.Context, chatID int64, txt string) {
	req, err := finance.ParseSimulationArgs(txt)
	if err != nil {
		h.reply(chatID, "Usage: /sim COIN YYYY-MM-DD AMOUNT [lump|dca]")
		return
	}
	res := h.fin.Simulate(ctx, req)
	h.reply(chatID, report.Simulation(req, h.fin.Simulator.EndDate(), res))
}

func (h *Handlers) handleExplain(ctx context.Context, chatID int64, coin string, days int) {
	if h.ai == nil {
		h.reply(chatID, "Explanations are disabled.")
		return
	}
	rep := h.fin.IER(ctx, coin, days, finance.DefaultInvestment)
	if d := rep.Result.Diagnostic; d != nil && d.Kind != finance.KindNoDrawdown {
		h.reply(chatID, report.IER(rep))
		return
	}
	out, err := h.ai.Explain(ctx, openai.MetricFacts{Coin: coin, Days: days, Facts: ierFacts(rep)})
	if err != nil {
		h.log.Warnw("telegram: explain failed", "coin", coin, "error", err)
		h.reply(chatID, "Explain failed, here are the raw numbers:\n"+report.IER(rep))
		return
	}
	msg := tgbotapi.NewMessage(chatID, out)
	msg.ParseMode = "Markdown"
	h.send(msg)
}

func (h *Handlers) handleNews(ctx context.Context, chatID int64) {
	if h.news == nil {
		h.reply(chatID, "News is disabled.")
		return
	}
	dg, err := h.news.Latest(ctx)
	if err != nil {
		h.reply(chatID, "News failed: "+err.Error())
		return
	}
	h.reply(chatID, report.News(dg))
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /price COIN [days] - Daily price chart (default 30 days)\n" +
		"- /ier COIN [days] - Investment efficiency ratio of a $1000 buy-and-hold (default 365 days)\n" +
		"- /corr COIN [days] - Return correlation against the top 10 coins\n" +
		"- /compare C1 C2 ... [days] - Prices indexed to 100 at the start\n" +
		"- /sim COIN YYYY-MM-DD AMOUNT [lump|dca] - Lump sum or monthly DCA replay\n" +
		"- /explain COIN [days] - Plain-language note on the IER numbers\n" +
		"- /news - Latest headlines with sentiment\n" +
		"\nCoins accept symbols or ids, e.g. btc, eth, solana."
	h.reply(chatID, help)
}

func (h *Handlers) track(ctx context.Context, cmd string) {
	if h.usage == nil {
		return
	}
	if err := h.usage.RecordUsage(ctx, "telegram", cmd, time.Now()); err != nil {
		h.log.Debugw("telegram: usage not recorded", "command", cmd, "error", err)
	}
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Warnw("telegram: send failed", "error", err)
	}
}

func atoiOr(s string, def int) int {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n <= 0 {
		return def
	}
	return n
}

func ierFacts(rep finance.IERReport) map[string]string {
	f := map[string]string{
		"final value of $1000": fmt.Sprintf("$%.2f", rep.Result.FinalValue),
		"max drawdown":         fmt.Sprintf("$%.2f", rep.Result.MaxDrawdown),
		"efficiency ratio":     report.Ratio(rep.Result.Ratio),
	}
	if st := rep.Stats; st != nil {
		f["total return"] = fmt.Sprintf("%.2f%%", st.TotalReturn)
		f["annualized volatility"] = fmt.Sprintf("%.2f%%", st.Volatility)
		f["sharpe ratio"] = fmt.Sprintf("%.2f", st.SharpeRatio)
	}
	return f
}
