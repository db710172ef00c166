// Package activity provides the activity ingestion bounded context: payment
// and appointment touches that feed the lifecycle engine.
package activity

import (
	"retention_backend/internal/activity/handler"
	"retention_backend/internal/activity/repository"
	"retention_backend/internal/activity/service"
	"retention_backend/internal/events"
	apphttp "retention_backend/internal/http"
	"retention_backend/platform/logger"
	"retention_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the activity bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the activity module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts activity ingestion routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/activities/payments", m.handler.RecordPayment)
	ctx.Protected.POST("/activities/appointments", m.handler.RecordAppointment)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
