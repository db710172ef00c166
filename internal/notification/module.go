// Package notification delivers retention alerts to business owners over
// WhatsApp in response to lifecycle status changes. It subscribes to events
// and inverts the dependency: the lifecycle engine never needs to know how
// alerts are delivered.
package notification

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"retention_backend/internal/events"
	apphttp "retention_backend/internal/http"
	"retention_backend/internal/lifecycle/domain"
	"retention_backend/internal/notification/repository"
	"retention_backend/platform/logger"
)

// Sender delivers one alert payload to a phone number. *whatsapp.Client
// satisfies this; a nil client is a valid no-op sender.
type Sender interface {
	SendAlert(ctx context.Context, phoneNumber string, payload any) error
}

// AlertPayload is the wire format of one retention alert. Field names match
// the gateway's template variables.
type AlertPayload struct {
	CustomerName       string  `json:"customer_name"`
	CustomerPhone      string  `json:"customer_phone"`
	BusinessName       string  `json:"business_name"`
	BusinessType       *string `json:"business_type,omitempty"`
	CustomerService    *string `json:"customer_service,omitempty"`
	BusinessOwnerPhone string  `json:"business_owner_phone"`
	LastVisitDate      *string `json:"last_visit_date,omitempty"`
	WhatsAppPhone      *string `json:"whatsapp_phone,omitempty"`
	TriggerType        string  `json:"trigger_type"`
	PreviousStatus     string  `json:"previous_status,omitempty"`
	FutureAppointment  *string `json:"future_appointment,omitempty"`
}

// sendTimeout bounds one outbound alert call end to end.
const sendTimeout = 10 * time.Second

// Module is the notification bounded context module. It exposes no HTTP
// routes; its whole surface is the event subscription.
type Module struct {
	repo   repository.Repository
	sender Sender
	log    *logger.Logger
}

// NewModule creates and initializes the notification module.
func NewModule(pool *pgxpool.Pool, sender Sender, log *logger.Logger) *Module {
	return &Module{
		repo:   repository.New(pool),
		sender: sender,
		log:    log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes is a no-op; this module has no HTTP surface.
func (m *Module) RegisterRoutes(_ *apphttp.RouterContext) {}

// RegisterHandlers subscribes to lifecycle events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.RelationshipStatusChanged{}.EventName(), m)
}

// Handle routes events to the appropriate handler method. Delivery errors
// are logged and swallowed: a failed alert never fails the status change
// that triggered it.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.RelationshipStatusChanged:
		m.dispatch(ctx, e)
	}
	return nil
}

func (m *Module) dispatch(ctx context.Context, e events.RelationshipStatusChanged) {
	if !domain.Status(e.NewStatus).IsNotifiable() {
		return
	}

	active, err := m.repo.HasActiveSubscription(ctx, e.BusinessID)
	if err != nil {
		m.log.Error("subscription check failed, skipping alert",
			"error", err, "business_id", e.BusinessID)
		return
	}
	if !active {
		// Defined silent skip: the status write and audit entry stand.
		return
	}

	ac, err := m.repo.AlertContext(ctx, e.CustomerID, e.BusinessID)
	if err != nil {
		m.log.Error("alert context load failed, skipping alert",
			"error", err, "customer_id", e.CustomerID, "business_id", e.BusinessID)
		return
	}

	payload := buildPayload(ac, e)

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := m.sender.SendAlert(sendCtx, ac.BusinessOwnerPhone, payload); err != nil {
		m.log.Error("retention alert delivery failed",
			"error", err,
			"customer_id", e.CustomerID,
			"business_id", e.BusinessID,
			"trigger_type", e.NewStatus)
		return
	}

	m.log.Info("retention alert delivered",
		"customer_id", e.CustomerID,
		"business_id", e.BusinessID,
		"trigger_type", e.NewStatus)
}

func buildPayload(ac repository.AlertContext, e events.RelationshipStatusChanged) AlertPayload {
	return AlertPayload{
		CustomerName:       ac.CustomerName,
		CustomerPhone:      ac.CustomerPhone,
		BusinessName:       ac.BusinessName,
		BusinessType:       ac.BusinessType,
		CustomerService:    ac.CustomerService,
		BusinessOwnerPhone: ac.BusinessOwnerPhone,
		LastVisitDate:      formatDate(ac.LastVisitDate),
		WhatsAppPhone:      ac.WhatsAppPhone,
		TriggerType:        e.NewStatus,
		PreviousStatus:     e.OldStatus,
		FutureAppointment:  formatDate(ac.FutureAppointment),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
