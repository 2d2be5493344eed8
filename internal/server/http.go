package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"coindash/internal/finance"
	"coindash/internal/news"
	"coindash/internal/openai"
	"coindash/internal/storage"
)

const requestIDHeader = "X-Request-ID"

// UsageStore records and aggregates endpoint usage.
type UsageStore interface {
	RecordUsage(ctx context.Context, category, command string, at time.Time) error
	UsageSince(ctx context.Context, since time.Time) (map[string]*storage.UsageStats, error)
	UsageTimeSeries(ctx context.Context, since time.Time, bucket time.Duration) (map[string][]storage.TimeSeriesPoint, error)
}

// Deps are the collaborators behind the API. Only Finance is required.
type Deps struct {
	Finance *finance.Service
	News    *news.Service
	AI      *openai.Client
	Usage   UsageStore
	Webhook http.HandlerFunc
	Log     *zap.SugaredLogger
}

type Server struct {
	fin     *finance.Service
	news    *news.Service
	ai      *openai.Client
	usage   UsageStore
	webhook http.HandlerFunc
	log     *zap.SugaredLogger
	now     func() time.Time
}

func New(d Deps) *Server {
	return &Server{
		fin:     d.Finance,
		news:    d.News,
		ai:      d.AI,
		usage:   d.Usage,
		webhook: d.Webhook,
		log:     d.Log.With("component", "http"),
		now:     time.Now,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(s.requestIDMiddleware, s.logRequestMiddleware)

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if s.webhook != nil {
		router.POST("/telegram/webhook", gin.WrapF(s.webhook))
	}

	api := router.Group("/api", s.usageMiddleware)
	api.GET("/coins/:name", s.coin)
	api.GET("/history/:coin/:days", s.history)
	api.GET("/chart/:coin/:days", s.chart)
	api.GET("/compare", s.compare)
	api.GET("/top", s.top)
	api.GET("/ier/:coin", s.ier)
	api.GET("/correlation/:coin", s.correlation)
	api.POST("/simulate", s.simulate)
	api.GET("/news", s.headlines)
	api.GET("/news/digest", s.digest)
	api.GET("/dashboard", s.dashboard)
	api.GET("/usage.png", s.usageChart)
	return router
}

// ListenAndServe serves until ctx is cancelled, then drains for 10s.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Infow("http: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestIDMiddleware(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("request_id", id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func (s *Server) logRequestMiddleware(c *gin.Context) {
	start := s.now()
	c.Next()
	s.log.Infow("http: request",
		"request_id", c.GetString("request_id"),
		"method", c.Request.Method,
		"route", c.FullPath(),
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// usageMiddleware records one usage row per API call under its route pattern.
func (s *Server) usageMiddleware(c *gin.Context) {
	c.Next()
	if s.usage == nil || c.FullPath() == "" {
		return
	}
	if err := s.usage.RecordUsage(c.Request.Context(), "api", c.FullPath(), s.now()); err != nil {
		s.log.Debugw("http: usage not recorded", "route", c.FullPath(), "error", err)
	}
}
