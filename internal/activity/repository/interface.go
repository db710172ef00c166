package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentParams describes one payment activity row.
type PaymentParams struct {
	CustomerID  uuid.UUID
	BusinessID  uuid.UUID
	AmountCents int64
	Succeeded   bool
	PaidAt      time.Time
}

// Repository is the persistence boundary for activity ingestion.
type Repository interface {
	// EnsureRelationship creates the relationship on first contact with
	// status new; existing relationships are untouched.
	EnsureRelationship(ctx context.Context, customerID, businessID uuid.UUID) error

	// RecordPayment appends one payment activity row.
	RecordPayment(ctx context.Context, p PaymentParams) error

	// RecordAppointment appends one appointment touch row.
	RecordAppointment(ctx context.Context, customerID, businessID uuid.UUID, touchedAt time.Time) error

	// ActivateRelationship moves a new relationship to active after its
	// first successful payment. Returns false when it was not new.
	ActivateRelationship(ctx context.Context, customerID, businessID uuid.UUID) (bool, error)
}
