package export

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/analytics"
)

// Handler serves downloadable renditions of the analytics read models.
// Depends on the analytics layer one way only: it reads histories and
// builds reports, then streams the chosen format.
type Handler struct {
	history analytics.HistorySource
	lister  analytics.CaseLister
	rules   analytics.ReporterRules
	logger  *zap.Logger
}

// NewHandler creates a new export handler.
func NewHandler(history analytics.HistorySource, lister analytics.CaseLister, rules analytics.ReporterRules, logger *zap.Logger) *Handler {
	return &Handler{history: history, lister: lister, rules: rules, logger: logger}
}

// RegisterRoutes registers export routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/cases/:id/analysis/export", h.exportCaseAnalysis)
	router.GET("/fleet/report/export", h.exportFleetReport)
}

// exportCaseAnalysis handles GET /api/v1/cases/:id/analysis/export
func (h *Handler) exportCaseAnalysis(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case ID"})
		return
	}

	history, err := h.history.FullHistory(c.Request.Context(), caseID)
	if err != nil {
		h.logger.Error("Failed to load case history",
			zap.String("case_id", caseID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=case-%s-analysis.csv", caseID))
	c.Header("Content-Type", "text/csv")
	if err := CSVCaseBreakdown(analytics.Analyze(history, time.Now()), c.Writer); err != nil {
		h.logger.Error("Case analysis export failed", zap.Error(err))
	}
}

// exportFleetReport handles GET /api/v1/fleet/report/export?format=excel|csv|pdf
func (h *Handler) exportFleetReport(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		if d, err := strconv.Atoi(raw); err == nil && d > 0 {
			days = d
		}
	}

	now := time.Now()
	window := analytics.ReportWindow{Start: now.AddDate(0, 0, -days), End: now}

	report, err := analytics.BuildReportOverCases(c.Request.Context(), h.lister, h.history, window, now, h.rules)
	if err != nil {
		h.logger.Error("Failed to build fleet report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stamp := report.GeneratedAt.Format("2006-01-02")
	switch c.DefaultQuery("format", "excel") {
	case "excel":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=fleet-report-%s.xlsx", stamp))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = ExcelFleetReport(report, c.Writer)
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=fleet-report-%s.csv", stamp))
		c.Header("Content-Type", "text/csv")
		err = CSVStatusPerformance(report, c.Writer)
	case "pdf":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=fleet-report-%s.pdf", stamp))
		c.Header("Content-Type", "application/pdf")
		err = PDFFleetSummary(report, c.Writer)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format"})
		return
	}
	if err != nil {
		h.logger.Error("Fleet report export failed", zap.Error(err))
	}
}
