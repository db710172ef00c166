// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"retention_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Activity Domain Events
// =============================================================================

// PaymentRecorded is published after a successful payment is persisted for a
// customer-business relationship. The lifecycle module reacts by running an
// inline evaluation for that relationship.
type PaymentRecorded struct {
	BaseEvent
	CustomerID uuid.UUID `json:"customerId"`
	BusinessID uuid.UUID `json:"businessId"`
	PaidAt     time.Time `json:"paidAt"`
	Activated  bool      `json:"activated"` // true when this payment moved the relationship new -> active
}

func (e PaymentRecorded) EventName() string { return "activity.payment.recorded" }

// AppointmentTouched is published when an appointment is created or updated
// for a relationship.
type AppointmentTouched struct {
	BaseEvent
	CustomerID uuid.UUID `json:"customerId"`
	BusinessID uuid.UUID `json:"businessId"`
	TouchedAt  time.Time `json:"touchedAt"`
}

func (e AppointmentTouched) EventName() string { return "activity.appointment.touched" }

// =============================================================================
// Lifecycle Domain Events
// =============================================================================

// RelationshipStatusChanged is published for every realized lifecycle status
// transition. It is never published when an evaluation is a no-op.
type RelationshipStatusChanged struct {
	BaseEvent
	CustomerID        uuid.UUID `json:"customerId"`
	BusinessID        uuid.UUID `json:"businessId"`
	OldStatus         string    `json:"oldStatus"`
	NewStatus         string    `json:"newStatus"`
	Reason            string    `json:"reason"`
	DaysSinceActivity *int      `json:"daysSinceActivity,omitempty"`
}

func (e RelationshipStatusChanged) EventName() string { return "lifecycle.relationship.status_changed" }

// Ensure all events satisfy the Event interface.
var (
	_ Event = PaymentRecorded{}
	_ Event = AppointmentTouched{}
	_ Event = RelationshipStatusChanged{}
)
