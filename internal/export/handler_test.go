package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/analytics"
	"fleetops/incident-portal/incident-portal-backend/internal/cases"
	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

type stubLister struct{ list []*cases.Case }

func (s *stubLister) ListCases(ctx context.Context, filter cases.CaseFilter) ([]*cases.Case, error) {
	return s.list, nil
}

type stubHistory struct {
	entries map[uuid.UUID][]*ledger.TransitionEntry
}

func (s *stubHistory) FullHistory(ctx context.Context, caseID uuid.UUID) ([]*ledger.TransitionEntry, error) {
	return s.entries[caseID], nil
}

func newTestHandler() (*Handler, uuid.UUID) {
	caseID := uuid.New()
	entry := &ledger.TransitionEntry{
		ID:         uuid.New(),
		CaseID:     caseID,
		SequenceNo: 1,
		NewState:   catalog.StateInMaintenance,
		Actor:      "garcia",
		EnteredAt:  time.Now().Add(-2 * time.Hour),
	}
	history := &stubHistory{entries: map[uuid.UUID][]*ledger.TransitionEntry{caseID: {entry}}}
	lister := &stubLister{list: []*cases.Case{{ID: caseID, CreatedAt: entry.EnteredAt}}}
	return NewHandler(history, lister, analytics.DefaultReporterRules(), zap.NewNop()), caseID
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestExportFleetReportCSV(t *testing.T) {
	h, _ := newTestHandler()
	w := serve(h, "/api/v1/fleet/report/export?format=csv")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "State,"))
}

func TestExportFleetReportRejectsUnknownFormat(t *testing.T) {
	h, _ := newTestHandler()
	w := serve(h, "/api/v1/fleet/report/export?format=docx")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCaseAnalysisCSV(t *testing.T) {
	h, caseID := newTestHandler()
	w := serve(h, "/api/v1/cases/"+caseID.String()+"/analysis/export")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "In Maintenance")
}
