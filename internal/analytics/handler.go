package analytics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/cases"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

// HistorySource is the slice of the ledger the analytics layer reads.
type HistorySource interface {
	FullHistory(ctx context.Context, caseID uuid.UUID) ([]*ledger.TransitionEntry, error)
}

// CaseLister is the slice of the case store the fleet report reads.
type CaseLister interface {
	ListCases(ctx context.Context, filter cases.CaseFilter) ([]*cases.Case, error)
}

// Handler serves the analysis read API: per-case duration breakdowns
// and fleet-wide reports. Read-only; runs concurrently with ledger
// writers without coordination.
type Handler struct {
	history HistorySource
	lister  CaseLister
	rules   ReporterRules
	logger  *zap.Logger
}

// NewHandler creates a new analytics handler.
func NewHandler(history HistorySource, lister CaseLister, rules ReporterRules, logger *zap.Logger) *Handler {
	return &Handler{history: history, lister: lister, rules: rules, logger: logger}
}

// RegisterRoutes registers analysis routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/cases/:id/analysis", h.caseAnalysis)
	router.GET("/fleet/report", h.fleetReport)
}

// caseAnalysis handles GET /api/v1/cases/:id/analysis
func (h *Handler) caseAnalysis(c *gin.Context) {
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

	c.JSON(http.StatusOK, Analyze(history, time.Now()))
}

// fleetReport handles GET /api/v1/fleet/report
func (h *Handler) fleetReport(c *gin.Context) {
	report, err := h.buildReport(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) buildReport(c *gin.Context) (FleetReport, error) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		if d, err := strconv.Atoi(raw); err == nil && d > 0 {
			days = d
		}
	}

	now := time.Now()
	window := ReportWindow{Start: now.AddDate(0, 0, -days), End: now}

	report, err := BuildReportOverCases(c.Request.Context(), h.lister, h.history, window, now, h.rules)
	if err != nil {
		h.logger.Error("Failed to build fleet report", zap.Error(err))
		return FleetReport{}, err
	}
	return report, nil
}

// BuildReportOverCases loads every case touching the window, analyzes
// each one's history and folds the analyses into a fleet report. Used
// by both the HTTP handler and the scheduled report worker. A case
// belongs to the window if it was still advancing during it: cases
// created after the window ends or finalized before it starts are
// excluded, so an old completed case can never linger as "active".
func BuildReportOverCases(ctx context.Context, lister CaseLister, history HistorySource, window ReportWindow, now time.Time, rules ReporterRules) (FleetReport, error) {
	list, err := lister.ListCases(ctx, cases.CaseFilter{CreatedBefore: &window.End})
	if err != nil {
		return FleetReport{}, err
	}

	analyses := make([]CaseAnalysis, 0, len(list))
	for _, item := range list {
		entries, err := history.FullHistory(ctx, item.ID)
		if err != nil {
			return FleetReport{}, err
		}
		if len(entries) == 0 {
			continue
		}
		a := Analyze(entries, now)
		if a.Completed && a.CompletedAt != nil && a.CompletedAt.Before(window.Start) {
			continue
		}
		analyses = append(analyses, a)
	}

	return BuildFleetReport(analyses, window, now, rules), nil
}
