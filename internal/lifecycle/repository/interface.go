package repository

import (
	"context"
	"time"

	"retention_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

// Repository is the persistence boundary of the lifecycle engine.
type Repository interface {
	// GetRelationship loads one relationship. Soft-deleted rows are treated
	// as not found.
	GetRelationship(ctx context.Context, customerID, businessID uuid.UUID) (Relationship, error)

	// ListRelationships returns refs for every non-soft-deleted relationship,
	// optionally scoped to one business, for sweep iteration.
	ListRelationships(ctx context.Context, businessID *uuid.UUID) ([]RelationshipRef, error)

	// ListByStatus returns one business's live relationships, optionally
	// filtered to a single status, newest first.
	ListByStatus(ctx context.Context, businessID uuid.UUID, status *domain.Status) ([]Relationship, error)

	// TransitionStatus atomically applies a conditional status update and, on
	// success, appends the audit entry in the same transaction. It returns
	// false without error when the stored status no longer equals From,
	// meaning a concurrent evaluation already applied a transition.
	TransitionStatus(ctx context.Context, p TransitionParams) (bool, error)

	// CountByStatus returns the current population counts, optionally scoped
	// to one business.
	CountByStatus(ctx context.Context, businessID *uuid.UUID) (StatusCounts, error)

	// LastSuccessfulPayment returns the timestamp of the most recent
	// successful payment, or nil when none exists.
	LastSuccessfulPayment(ctx context.Context, customerID, businessID uuid.UUID) (*time.Time, error)

	// LastAppointmentActivity returns the most recent appointment touch, or
	// nil when none exists.
	LastAppointmentActivity(ctx context.Context, customerID, businessID uuid.UUID) (*time.Time, error)

	// PaymentHistory returns all successful-payment timestamps in ascending
	// order.
	PaymentHistory(ctx context.Context, customerID, businessID uuid.UUID) ([]time.Time, error)

	// RecentChanges returns audit entries newer than since, most recent
	// first, optionally scoped to one business.
	RecentChanges(ctx context.Context, since time.Time, businessID *uuid.UUID) ([]StatusChangeEntry, error)

	// History returns the full audit trail for one relationship, most recent
	// first.
	History(ctx context.Context, customerID, businessID uuid.UUID) ([]StatusChangeEntry, error)
}
