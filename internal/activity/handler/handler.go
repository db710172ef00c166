package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retention_backend/internal/activity/service"
	"retention_backend/internal/activity/transport"
	"retention_backend/platform/httpkit"
	"retention_backend/platform/validator"
)

// Handler handles HTTP requests for activity ingestion.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new activity handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RecordPayment records one payment for the caller's business.
// POST /api/v1/activities/payments
func (h *Handler) RecordPayment(c *gin.Context) {
	var req transport.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	result, err := h.svc.RecordPayment(c.Request.Context(), businessID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// RecordAppointment records one appointment touch for the caller's business.
// POST /api/v1/activities/appointments
func (h *Handler) RecordAppointment(c *gin.Context) {
	var req transport.RecordAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	result, err := h.svc.RecordAppointment(c.Request.Context(), businessID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
