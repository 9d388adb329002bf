package cases

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/auth"
	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

// Handler handles HTTP requests for case CRUD.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new cases handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers case routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/cases")
	{
		group.POST("", h.createCase)
		group.GET("", h.listCases)
		group.GET("/:id", h.getCase)
		group.PUT("/:id", h.updateCase)
		group.DELETE("/:id", h.deleteCase)
	}
}

// createCase handles POST /api/v1/cases
func (h *Handler) createCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if operator, ok := auth.Operator(c); ok {
		req.CreatedBy = operator
	}
	if req.CreatedBy == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "created_by is required"})
		return
	}

	created, err := h.service.CreateCase(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownState) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to create case", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// listCases handles GET /api/v1/cases
func (h *Handler) listCases(c *gin.Context) {
	filter := CaseFilter{Limit: 100}
	if closed := c.Query("closed"); closed != "" {
		v := closed == "true"
		filter.Closed = &v
	}
	if plate := c.Query("vehicle_plate"); plate != "" {
		filter.VehiclePlate = &plate
	}

	out, err := h.service.ListCases(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list cases", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": out, "count": len(out)})
}

// getCase handles GET /api/v1/cases/:id
func (h *Handler) getCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case ID"})
		return
	}

	found, err := h.service.GetCase(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
			return
		}
		h.logger.Error("Failed to get case", zap.Error(err), zap.String("case_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, found)
}

// updateCase handles PUT /api/v1/cases/:id
func (h *Handler) updateCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case ID"})
		return
	}

	var req UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateCase(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
			return
		}
		h.logger.Error("Failed to update case", zap.Error(err), zap.String("case_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// deleteCase handles DELETE /api/v1/cases/:id
func (h *Handler) deleteCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case ID"})
		return
	}

	if err := h.service.DeleteCase(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
			return
		}
		h.logger.Error("Failed to delete case", zap.Error(err), zap.String("case_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
