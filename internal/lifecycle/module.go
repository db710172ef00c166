// Package lifecycle provides the customer lifecycle bounded context: the
// adaptive status engine that classifies every customer-business
// relationship as new, active, at_risk, lost or recovered.
package lifecycle

import (
	"context"

	"retention_backend/internal/events"
	apphttp "retention_backend/internal/http"
	"retention_backend/internal/lifecycle/domain"
	"retention_backend/internal/lifecycle/handler"
	"retention_backend/internal/lifecycle/repository"
	"retention_backend/internal/lifecycle/service"
	"retention_backend/platform/config"
	"retention_backend/platform/logger"
	"retention_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the lifecycle bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
	log     *logger.Logger
}

// NewModule creates and initializes the lifecycle module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, cfg config.LifecycleConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	defaults := domain.ThresholdDefaults{
		AtRiskDays: cfg.GetAtRiskDefaultDays(),
		LostDays:   cfg.GetLostDefaultDays(),
	}
	svc := service.New(repo, bus, defaults, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "lifecycle"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lifecycle routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Business-scoped read-only surface
	ctx.Protected.GET("/lifecycle/changes", m.handler.RecentChanges)
	ctx.Protected.GET("/lifecycle/relationships", m.handler.ListRelationships)
	ctx.Protected.GET("/lifecycle/relationships/:customerId", m.handler.GetRelationship)
	ctx.Protected.GET("/lifecycle/relationships/:customerId/history", m.handler.History)
	ctx.Protected.GET("/lifecycle/status-counts", m.handler.StatusCounts)

	// Manual full-population sweep (admin only, rate limited)
	ctx.Admin.POST("/lifecycle/sweep", ctx.SweepRateLimiter.RateLimit(), m.handler.TriggerSweep)
}

// RegisterHandlers subscribes to domain events that trigger inline
// evaluations.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.PaymentRecorded{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PaymentRecorded:
		// Inline trigger: re-evaluate the affected relationship right after
		// a successful payment lands.
		_, err := m.service.Evaluate(ctx, e.CustomerID, e.BusinessID)
		return err
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
