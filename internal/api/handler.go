package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"report-service/internal/export"
	"report-service/internal/models"
	"report-service/internal/redisclient"
	"report-service/internal/service"
	"report-service/internal/store"
	"report-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	reports  *service.ReportService
	exporter *export.Controller
	store    *store.Store
	redis    *redisclient.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(reports *service.ReportService, exporter *export.Controller, store *store.Store, redis *redisclient.Client) *Handler {
	return &Handler{
		reports:  reports,
		exporter: exporter,
		store:    store,
		redis:    redis,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/report", h.getReport)
		v1.POST("/report/export", h.exportReport)
		v1.GET("/exports", h.listExports)
		v1.GET("/exports/latest", h.latestExport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"export": string(h.exporter.State()),
		"time":   time.Now().Unix(),
	})
}

// getReport fetches a fresh snapshot for the range and returns it with the
// derived views. A failed fetch leaves any previously returned snapshot
// untouched on the caller's side; retry is simply re-requesting.
func (h *Handler) getReport(c *gin.Context) {
	rng, ok := parseRange(c)
	if !ok {
		return
	}

	model, err := h.reports.Refresh(c.Request.Context(), rng)
	if err != nil {
		if errors.Is(err, service.ErrStaleSnapshot) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Superseded by a newer report request",
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to load report data",
			"details": err.Error(),
		})
		return
	}

	include := includeSet(c.DefaultQuery("include", "tables,charts"))

	resp := gin.H{
		"summary":    model.Summary,
		"fetched_at": model.FetchedAt,
		"chips": gin.H{
			"revenue": service.FormatChange(model.Summary.RevenueChange),
			"orders":  service.FormatChange(model.Summary.OrderChange),
			"users":   service.FormatChange(model.Summary.UserChange),
		},
	}
	if include["tables"] {
		resp["users"] = model.Users
		resp["orders"] = model.Orders
		resp["payments"] = model.Payments
		resp["views"] = service.DeriveViews(model)
	}
	if include["charts"] {
		resp["revenue_trend"] = service.RevenueTrend(model.Summary)
		resp["orders_vs_users"] = service.OrdersVsUsers(model.Summary)
	}

	c.JSON(http.StatusOK, resp)
}

type exportRequest struct {
	Start   string `json:"start" binding:"required"`
	End     string `json:"end" binding:"required"`
	Confirm bool   `json:"confirm"`
}

// exportReport runs the export flow and streams the finished PDF
func (h *Handler) exportReport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	rng, ok := parseDates(c, req.Start, req.End)
	if !ok {
		return
	}

	// Declining must cause no fetch and no capture
	if !req.Confirm {
		_, err := h.exporter.Run(c.Request.Context(), export.Request{Range: rng, Confirmed: false})
		if errors.Is(err, export.ErrExportInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "An export is already running"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "declined"})
		return
	}

	model, currentRng := h.reports.Current()
	if model == nil || !currentRng.Start.Equal(rng.Start) || !currentRng.End.Equal(rng.End) {
		var err error
		model, err = h.reports.Refresh(c.Request.Context(), rng)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Failed to load report data for export",
				"details": err.Error(),
			})
			return
		}
	}

	result, err := h.exporter.Run(c.Request.Context(), export.Request{
		Range:     rng,
		Model:     model,
		Views:     service.DeriveViews(model),
		Confirmed: true,
	})
	if err != nil {
		if errors.Is(err, export.ErrExportInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "An export is already running",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Could not export. Try again.",
			"details": err.Error(),
		})
		return
	}

	if h.redis != nil {
		if err := h.redis.SetLastExport(c.Request.Context(), result.Document.Filename, 24*time.Hour); err != nil {
			util.GetLogger().Warn("Failed to record last export in redis")
		}
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Document.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", result.Document.Bytes)
}

// listExports returns the export history, newest first
func (h *Handler) listExports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	exports, err := h.store.ListExports(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list exports",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exports": exports})
}

// latestExport returns the filename of the most recent export
func (h *Handler) latestExport(c *gin.Context) {
	filename, err := h.redis.GetLastExport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read latest export",
		})
		return
	}
	if filename == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No export recorded yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": filename})
}

// parseRange reads and validates start/end query params
func parseRange(c *gin.Context) (models.DateRange, bool) {
	return parseDates(c, c.Query("start"), c.Query("end"))
}

func parseDates(c *gin.Context, start, end string) (models.DateRange, bool) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start date"})
		return models.DateRange{}, false
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end date"})
		return models.DateRange{}, false
	}
	if s.After(e) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Start date must not be after end date"})
		return models.DateRange{}, false
	}
	return models.DateRange{Start: s, End: e}, true
}

func includeSet(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		set[strings.TrimSpace(part)] = true
	}
	return set
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
