// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ministore/internal/history"
	"ministore/internal/logging"
	"ministore/internal/pipeline"
	"ministore/internal/scheduler"
	"ministore/internal/web"
)

const (
	defaultHistoryLimit = 50
	maxMultipartMemory  = 32 << 20
)

// Analyzer runs the pipeline for each kind of source.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (*pipeline.Result, error)
	AnalyzeURL(ctx context.Context, url string) (*pipeline.Result, error)
	AnalyzePDF(ctx context.Context, r io.Reader, filename string) (*pipeline.Result, error)
}

// HistoryReader lists past analyses.
type HistoryReader interface {
	Recent(limit int) ([]history.Record, error)
}

// StatusProvider reports the inbox schedule.
type StatusProvider interface {
	Info() scheduler.Info
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeURLRequest struct {
	URL string `json:"url"`
}

// Deps are the collaborators of the router. History and Schedule may be nil.
type Deps struct {
	Analyzer Analyzer
	History  HistoryReader
	Schedule StatusProvider
	Logger   *zap.Logger
}

type handlers struct {
	Deps
	logger *zap.Logger
}

// NewRouter builds the gin engine.
func NewRouter(deps Deps) *gin.Engine {
	h := &handlers{Deps: deps, logger: logging.OrNop(deps.Logger)}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	r.MaxMultipartMemory = maxMultipartMemory

	r.GET("/health", h.health)
	r.GET("/", h.root)
	r.POST("/analyze", h.analyzeText)
	r.POST("/analyze_url", h.analyzeURL)
	r.POST("/analyze_pdf", h.analyzePDF)
	r.GET("/history", h.history)
	r.GET("/cron/status", h.cronStatus)
	return r
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Ministore Summarizer API",
		"endpoints": []string{
			"GET /health - Health check",
			"POST /analyze - Analyze article text",
			"POST /analyze_url - Analyze the article at a URL",
			"POST /analyze_pdf - Analyze an uploaded PDF (multipart field \"file\")",
			"GET /history - Recent analyses",
			"GET /cron/status - Inbox schedule status",
		},
	})
}

func (h *handlers) analyzeText(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	result, err := h.Analyzer.AnalyzeText(c.Request.Context(), req.Text)
	h.respond(c, result, err)
}

func (h *handlers) analyzeURL(c *gin.Context) {
	var req analyzeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	result, err := h.Analyzer.AnalyzeURL(c.Request.Context(), req.URL)
	h.respond(c, result, err)
}

func (h *handlers) analyzePDF(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing PDF file: " + err.Error()})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read PDF file: " + err.Error()})
		return
	}
	defer file.Close()

	result, err := h.Analyzer.AnalyzePDF(c.Request.Context(), file, header.Filename)
	h.respond(c, result, err)
}

func (h *handlers) history(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusOK, []history.Record{})
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	records, err := h.History.Recent(limit)
	if err != nil {
		h.logger.Error("failed to read history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *handlers) cronStatus(c *gin.Context) {
	if h.Schedule == nil {
		c.JSON(http.StatusOK, gin.H{
			"service":      "ministore",
			"cron_enabled": false,
			"timestamp":    time.Now().Format("2006-01-02 15:04:05"),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"service":      "ministore",
		"cron_enabled": true,
		"schedule":     h.Schedule.Info(),
		"timestamp":    time.Now().Format("2006-01-02 15:04:05"),
	})
}

func (h *handlers) respond(c *gin.Context, result *pipeline.Result, err error) {
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("analysis failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// StatusFor maps a pipeline error to an HTTP status code.
func StatusFor(err error) int {
	var fetchErr *web.FetchError
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
