package repository

import (
	"time"

	"retention_backend/internal/lifecycle/domain"

	"github.com/google/uuid"
)

// Relationship is one customer-business pairing and its lifecycle status.
type Relationship struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	BusinessID uuid.UUID
	Status     domain.Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RelationshipRef identifies a relationship for sweep iteration without
// loading the full row.
type RelationshipRef struct {
	CustomerID uuid.UUID
	BusinessID uuid.UUID
	Status     domain.Status
}

// TransitionParams describes one conditional status transition. The update
// only applies while the stored status still equals From.
type TransitionParams struct {
	CustomerID        uuid.UUID
	BusinessID        uuid.UUID
	From              domain.Status
	To                domain.Status
	Reason            string
	DaysSinceActivity *int
}

// StatusChangeEntry is one immutable audit record of a realized transition.
type StatusChangeEntry struct {
	ID                uuid.UUID
	CustomerID        uuid.UUID
	BusinessID        uuid.UUID
	OldStatus         domain.Status
	NewStatus         domain.Status
	Reason            string
	DaysSinceActivity *int
	ChangedAt         time.Time
}

// StatusCounts is the current population breakdown by status.
type StatusCounts struct {
	New       int
	Active    int
	AtRisk    int
	Lost      int
	Recovered int
}

// Total returns the number of counted relationships.
func (c StatusCounts) Total() int {
	return c.New + c.Active + c.AtRisk + c.Lost + c.Recovered
}
