package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"retention_backend/internal/lifecycle/domain"
	"retention_backend/internal/lifecycle/service"
	"retention_backend/internal/lifecycle/transport"
	"retention_backend/platform/httpkit"
	"retention_backend/platform/validator"
)

// Handler handles HTTP requests for the lifecycle status engine.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest    = "invalid request"
	msgValidationFailed  = "validation failed"
	msgInvalidCustomerID = "invalid customer ID"
)

// New creates a new lifecycle handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// TriggerSweep forces a full-population sweep, optionally scoped to one
// business, and returns the aggregate counters.
// POST /api/v1/admin/lifecycle/sweep
func (h *Handler) TriggerSweep(c *gin.Context) {
	var req transport.SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}

	result, err := h.svc.Sweep(c.Request.Context(), req.BusinessID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.SweepResponse{
		Processed: result.Processed,
		Updated:   result.Updated,
		New:       result.New,
		Active:    result.Active,
		AtRisk:    result.AtRisk,
		Lost:      result.Lost,
		Recovered: result.Recovered,
		Errors:    result.Errors,
	})
}

// RecentChanges returns realized transitions within the last N hours for the
// caller's business.
// GET /api/v1/lifecycle/changes?hours=24
func (h *Handler) RecentChanges(c *gin.Context) {
	var req transport.RecentChangesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	businessID, ok := httpkit.MustGetBusinessID(c, identity)
	if !ok {
		return
	}

	result, err := h.svc.RecentChanges(c.Request.Context(), &businessID, req.Hours)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetRelationship returns the current status of one relationship.
// GET /api/v1/lifecycle/relationships/:customerId
func (h *Handler) GetRelationship(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("customerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCustomerID, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	businessID, ok := httpkit.MustGetBusinessID(c, identity)
	if !ok {
		return
	}

	result, err := h.svc.GetRelationship(c.Request.Context(), customerID, businessID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListRelationships returns the caller's relationships, optionally filtered
// to one status.
// GET /api/v1/lifecycle/relationships?status=at_risk
func (h *Handler) ListRelationships(c *gin.Context) {
	var req transport.ListRelationshipsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	businessID, ok := httpkit.MustGetBusinessID(c, identity)
	if !ok {
		return
	}

	var status *domain.Status
	if req.Status != "" {
		s := domain.Status(req.Status)
		status = &s
	}

	result, err := h.svc.ListRelationships(c.Request.Context(), businessID, status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// History returns the full audit trail for one relationship.
// GET /api/v1/lifecycle/relationships/:customerId/history
func (h *Handler) History(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("customerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCustomerID, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	businessID, ok := httpkit.MustGetBusinessID(c, identity)
	if !ok {
		return
	}

	result, err := h.svc.History(c.Request.Context(), customerID, businessID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// StatusCounts returns the current population counts by status for the
// caller's business.
// GET /api/v1/lifecycle/status-counts
func (h *Handler) StatusCounts(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	businessID, ok := httpkit.MustGetBusinessID(c, identity)
	if !ok {
		return
	}

	result, err := h.svc.StatusCounts(c.Request.Context(), &businessID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
