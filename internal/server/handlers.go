package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"coindash/internal/finance"
	"coindash/internal/news"
)

const (
	defaultHistoryDays = 30
	defaultUsageDays   = 7
)

func returnErrorJsonCode(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func returnDiagnostic(c *gin.Context, d *finance.Diagnostic) {
	c.AbortWithStatusJSON(statusFor(d), gin.H{"error": d.Message, "kind": d.Kind})
}

// statusFor maps a diagnostic kind onto an HTTP status.
func statusFor(d *finance.Diagnostic) int {
	if d == nil {
		return http.StatusOK
	}
	switch d.Kind {
	case finance.KindInvalidInput:
		return http.StatusBadRequest
	case finance.KindDataUnavailable:
		return http.StatusNotFound
	case finance.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case finance.KindUpstreamFailure:
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func positiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("days must be a positive integer, got %q", raw)
	}
	return n, nil
}

func (s *Server) coin(c *gin.Context) {
	snap, d := s.fin.Source.Snapshot(c.Request.Context(), c.Param("name"))
	if d != nil {
		returnDiagnostic(c, d)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type historyResponse struct {
	Coin       string              `json:"coin"`
	Days       int                 `json:"days"`
	Source     string              `json:"source,omitempty"`
	Labels     []string            `json:"labels"`
	Values     []float64           `json:"values"`
	Diagnostic *finance.Diagnostic `json:"diagnostic,omitempty"`
}

func (s *Server) historyFor(ctx context.Context, coin string, days int) historyResponse {
	res := s.fin.Source.Fetch(ctx, coin, days)
	return historyResponse{
		Coin:       finance.ResolveSymbol(coin),
		Days:       days,
		Source:     res.Series.Source,
		Labels:     res.Series.Labels(),
		Values:     res.Series.Prices(),
		Diagnostic: res.Diagnostic,
	}
}

func (s *Server) history(c *gin.Context) {
	days, err := positiveInt(c.Param("days"), defaultHistoryDays)
	if err != nil {
		returnErrorJsonCode(c, http.StatusBadRequest, err.Error())
		return
	}
	resp := s.historyFor(c.Request.Context(), c.Param("coin"), days)
	c.JSON(statusFor(resp.Diagnostic), resp)
}

func (s *Server) chart(c *gin.Context) {
	days, err := positiveInt(c.Param("days"), defaultHistoryDays)
	if err != nil {
		returnErrorJsonCode(c, http.StatusBadRequest, err.Error())
		return
	}
	img, d := s.fin.Charts.PriceChart(c.Request.Context(), c.Param("coin"), days)
	if d != nil {
		returnDiagnostic(c, d)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) compare(c *gin.Context) {
	coins := finance.ParseCoinList(c.Query("coins"))
	if len(coins) < 2 {
		returnErrorJsonCode(c, http.StatusBadRequest, "coins must list at least two coins")
		return
	}
	days, err := positiveInt(c.Query("days"), defaultHistoryDays)
	if err != nil {
		returnErrorJsonCode(c, http.StatusBadRequest, err.Error())
		return
	}
	img, d := s.fin.Charts.CompareChart(c.Request.Context(), coins, days)
	if d != nil {
		returnDiagnostic(c, d)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) top(c *gin.Context) {
	rows, err := s.fin.Ranking.Top(c.Request.Context(), finance.BasketSize)
	if err != nil {
		s.log.Warnw("http: ranking failed", "error", err)
		returnErrorJsonCode(c, http.StatusBadGateway, "ranking unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": rows})
}

type ierResponse struct {
	Coin          string              `json:"coin"`
	Days          int                 `json:"days"`
	Source        string              `json:"source,omitempty"`
	Points        int                 `json:"points"`
	Investment    float64             `json:"investment"`
	FinalValue    float64             `json:"final_value"`
	MaxDrawdown   float64             `json:"max_drawdown"`
	Ratio         *float64            `json:"ratio"`
	RatioInfinite bool                `json:"ratio_infinite"`
	Stats         *finance.RiskStats  `json:"stats,omitempty"`
	Diagnostic    *finance.Diagnostic `json:"diagnostic,omitempty"`
}

// newIERResponse encodes +Inf as a null ratio with ratio_infinite set, since
// JSON has no infinity.
func newIERResponse(rep finance.IERReport, investment float64) ierResponse {
	r := rep.Result
	out := ierResponse{
		Coin:        rep.Coin,
		Days:        rep.Days,
		Source:      rep.Source,
		Points:      rep.Points,
		Investment:  investment,
		FinalValue:  r.FinalValue,
		MaxDrawdown: r.MaxDrawdown,
		Stats:       rep.Stats,
		Diagnostic:  r.Diagnostic,
	}
	switch {
	case math.IsInf(r.Ratio, 1):
		out.RatioInfinite = true
	case r.Diagnostic == nil:
		ratio := r.Ratio
		out.Ratio = &ratio
	}
	return out
}

func (s *Server) ier(c *gin.Context) {
	days, err := positiveInt(c.Query("days"), finance.DefaultIERWindow)
	if err != nil {
		returnErrorJsonCode(c, http.StatusBadRequest, err.Error())
		return
	}
	investment := finance.DefaultInvestment
	if raw := c.Query("investment"); raw != "" {
		investment, err = strconv.ParseFloat(raw, 64)
		if err != nil || investment <= 0 {
			returnErrorJsonCode(c, http.StatusBadRequest, "investment must be a positive number")
			return
		}
	}
	rep := s.fin.IER(c.Request.Context(), c.Param("coin"), days, investment)
	c.JSON(statusFor(rep.Result.Diagnostic), newIERResponse(rep, investment))
}

func (s *Server) correlation(c *gin.Context) {
	days, err := positiveInt(c.Query("days"), finance.DefaultCorrelationWindow)
	if err != nil {
		returnErrorJsonCode(c, http.StatusBadRequest, err.Error())
		return
	}
	res := s.fin.Correlate(c.Request.Context(), c.Param("coin"), days)
	c.JSON(statusFor(res.Diagnostic), res)
}

type simulateRequest struct {
	Coin      string  `json:"coin" binding:"required"`
	StartDate string  `json:"start_date" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Strategy  string  `json:"strategy"`
}

type simulateResponse struct {
	Coin      string  `json:"coin"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Amount    float64 `json:"amount"`
	Strategy  string  `json:"strategy"`
	finance.SimulationResult
}

func (s *Server) simulate(c *gin.Context) {
	var body simulateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		returnErrorJsonCode(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	start, err := time.Parse(time.DateOnly, body.StartDate)
	if err != nil {
		returnErrorJsonCode(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	strategy, ok := finance.ParseStrategy(body.Strategy)
	if !ok {
		returnErrorJsonCode(c, http.StatusBadRequest, fmt.Sprintf("unknown strategy %q", body.Strategy))
		return
	}
	req := finance.SimulationRequest{Coin: body.Coin, StartDate: start, Amount: body.Amount, Strategy: strategy}
	res := s.fin.Simulate(c.Request.Context(), req)
	c.JSON(statusFor(res.Diagnostic), simulateResponse{
		Coin:             finance.ResolveSymbol(body.Coin),
		StartDate:        body.StartDate,
		EndDate:          s.fin.Simulator.EndDate().Format(time.DateOnly),
		Amount:           body.Amount,
		Strategy:         string(strategy),
		SimulationResult: res,
	})
}

func (s *Server) headlines(c *gin.Context) {
	if s.news == nil {
		returnErrorJsonCode(c, http.StatusServiceUnavailable, "news disabled")
		return
	}
	dg, err := s.news.Latest(c.Request.Context())
	if err != nil {
		s.log.Warnw("http: news failed", "error", err)
		returnErrorJsonCode(c, http.StatusBadGateway, "news unavailable")
		return
	}
	c.JSON(http.StatusOK, dg)
}

func (s *Server) digest(c *gin.Context) {
	if s.news == nil || s.ai == nil {
		returnErrorJsonCode(c, http.StatusServiceUnavailable, "digest disabled")
		return
	}
	dg, err := s.news.Latest(c.Request.Context())
	if err != nil {
		returnErrorJsonCode(c, http.StatusBadGateway, "news unavailable")
		return
	}
	titles := make([]string, len(dg.Items))
	for i, h := range dg.Items {
		titles[i] = h.Title
	}
	summary, err := s.ai.Digest(c.Request.Context(), titles)
	if err != nil {
		s.log.Warnw("http: digest failed", "error", err)
		returnErrorJsonCode(c, http.StatusBadGateway, "digest unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"digest": summary, "tally": dg.Tally, "headlines": len(titles)})
}

type dashboardResponse struct {
	Coin    *finance.CoinSnapshot `json:"coin,omitempty"`
	History historyResponse       `json:"history"`
	Top     []finance.MarketRank  `json:"top"`
	News    *news.Digest          `json:"news,omitempty"`
	Errors  map[string]string     `json:"errors,omitempty"`
}

// dashboard fans out to every panel; a failed panel is reported in errors
// and the rest are still served.
func (s *Server) dashboard(c *gin.Context) {
	coin := c.DefaultQuery("coin", "bitcoin")
	ctx := c.Request.Context()

	var (
		resp    dashboardResponse
		snapErr *finance.Diagnostic
		topErr  error
		newsErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, d := s.fin.Source.Snapshot(gctx, coin)
		if d != nil {
			snapErr = d
			return nil
		}
		resp.Coin = &snap
		return nil
	})
	g.Go(func() error {
		resp.History = s.historyFor(gctx, coin, defaultHistoryDays)
		return nil
	})
	g.Go(func() error {
		resp.Top, topErr = s.fin.Ranking.Top(gctx, finance.BasketSize)
		return nil
	})
	if s.news != nil {
		g.Go(func() error {
			dg, err := s.news.Latest(gctx)
			if err != nil {
				newsErr = err
				return nil
			}
			resp.News = &dg
			return nil
		})
	}
	_ = g.Wait()

	resp.Errors = map[string]string{}
	if snapErr != nil {
		resp.Errors["coin"] = snapErr.Message
	}
	if topErr != nil {
		resp.Errors["top"] = "ranking unavailable"
	}
	if newsErr != nil {
		resp.Errors["news"] = "news unavailable"
	}
	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}
	if resp.Top == nil {
		resp.Top = []finance.MarketRank{}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) usageChart(c *gin.Context) {
	if s.usage == nil {
		returnErrorJsonCode(c, http.StatusServiceUnavailable, "usage tracking disabled")
		return
	}
	days, err := positiveInt(c.Query("days"), defaultUsageDays)
	if err != nil {
		returnErrorJsonCode(c, http.StatusBadRequest, err.Error())
		return
	}
	since := s.now().AddDate(0, 0, -days)
	if strings.EqualFold(c.Query("view"), "timeline") {
		s.usageTimeline(c, since, days)
		return
	}
	stats, err := s.usage.UsageSince(c.Request.Context(), since)
	if err != nil {
		s.log.Warnw("http: usage query failed", "error", err)
		returnErrorJsonCode(c, http.StatusInternalServerError, "usage unavailable")
		return
	}
	if strings.EqualFold(c.Query("format"), "text") {
		c.String(http.StatusOK, finance.FormatUsageText(stats, days))
		return
	}
	img, err := finance.MakeUsageChart(stats, days)
	if errors.Is(err, finance.ErrDataUnavailable) {
		returnErrorJsonCode(c, http.StatusNotFound, "no usage data")
		return
	}
	if err != nil {
		s.log.Warnw("http: usage chart failed", "error", err)
		returnErrorJsonCode(c, http.StatusInternalServerError, "usage chart failed")
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) usageTimeline(c *gin.Context, since time.Time, days int) {
	bucket := time.Hour
	if days > 7 {
		bucket = 24 * time.Hour
	}
	series, err := s.usage.UsageTimeSeries(c.Request.Context(), since, bucket)
	if err != nil {
		s.log.Warnw("http: usage series query failed", "error", err)
		returnErrorJsonCode(c, http.StatusInternalServerError, "usage unavailable")
		return
	}
	img, err := finance.MakeUsageTimeSeriesChart(series, days)
	if errors.Is(err, finance.ErrDataUnavailable) {
		returnErrorJsonCode(c, http.StatusNotFound, "no usage data")
		return
	}
	if err != nil {
		s.log.Warnw("http: usage timeline failed", "error", err)
		returnErrorJsonCode(c, http.StatusInternalServerError, "usage chart failed")
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}
