package ledger

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/auth"
	"fleetops/incident-portal/incident-portal-backend/internal/catalog"
)

// Handler handles HTTP requests for ledger operations.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new ledger handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers ledger routes under the cases resource.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/cases/:id/transitions")
	{
		group.POST("", h.transition)
		group.GET("", h.fullHistory)
		group.GET("/current", h.currentEntry)
	}
	router.GET("/states", h.listStates)
}

// transition handles POST /api/v1/cases/:id/transitions
func (h *Handler) transition(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case ID"})
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := req.Actor
	if operator, ok := auth.Operator(c); ok {
		actor = operator
	}

	newState, err := catalog.Parse(req.NewState)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.Transition(c.Request.Context(), caseID, newState, actor, req.Notes)
	if err != nil {
		h.respondError(c, caseID, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// currentEntry handles GET /api/v1/cases/:id/transitions/current
//
// This is the read clients use to resolve "did my transition go
// through" after a timeout, before deciding whether to retry.
func (h *Handler) currentEntry(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case ID"})
		return
	}

	entry, err := h.service.CurrentEntry(c.Request.Context(), caseID)
	if err != nil {
		h.respondError(c, caseID, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"current": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"current": entry})
}

// fullHistory handles GET /api/v1/cases/:id/transitions
func (h *Handler) fullHistory(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case ID"})
		return
	}

	history, err := h.service.FullHistory(c.Request.Context(), caseID)
	if err != nil {
		h.respondError(c, caseID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": history, "count": len(history)})
}

// listStates handles GET /api/v1/states
func (h *Handler) listStates(c *gin.Context) {
	type stateView struct {
		State     catalog.State    `json:"state"`
		Label     string           `json:"label"`
		Category  catalog.Category `json:"category"`
		Reachable []catalog.State  `json:"reachable"`
	}
	out := make([]stateView, 0, len(catalog.All()))
	for _, s := range catalog.All() {
		out = append(out, stateView{
			State:     s,
			Label:     catalog.Label(s),
			Category:  catalog.CategoryOf(s),
			Reachable: catalog.ReachableFrom(s),
		})
	}
	c.JSON(http.StatusOK, gin.H{"states": out})
}

// respondError maps the ledger error taxonomy to HTTP statuses so the
// dashboard can distinguish "case is finalized" from generic failures.
func (h *Handler) respondError(c *gin.Context, caseID uuid.UUID, err error) {
	switch {
	case errors.Is(err, ErrCaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
	case errors.Is(err, ErrTerminalState):
		c.JSON(http.StatusConflict, gin.H{"error": "case is finalized and can no longer change state"})
	case errors.Is(err, ErrAlreadyInitialized):
		c.JSON(http.StatusConflict, gin.H{"error": "case ledger already initialized"})
	case errors.Is(err, ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": "a concurrent status change won; reload and retry"})
	case errors.Is(err, ErrUnknownState), errors.Is(err, ErrEmptyActor):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Ledger operation failed",
			zap.String("case_id", caseID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
