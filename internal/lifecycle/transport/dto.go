package transport

import "github.com/google/uuid"

// SweepRequest triggers a manual sweep, optionally scoped to one business.
type SweepRequest struct {
	BusinessID *uuid.UUID `json:"businessId,omitempty" validate:"omitempty"`
}

// SweepResponse returns the aggregate counters of one sweep.
type SweepResponse struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	New       int `json:"new"`
	Active    int `json:"active"`
	AtRisk    int `json:"atRisk"`
	Lost      int `json:"lost"`
	Recovered int `json:"recovered"`
	Errors    int `json:"errors"`
}

// RecentChangesRequest bounds the recent-changes query to a time window.
type RecentChangesRequest struct {
	Hours int `form:"hours" validate:"omitempty,min=1,max=720"`
}

// StatusChangeResponse is one audit entry in API responses.
type StatusChangeResponse struct {
	ID                uuid.UUID `json:"id"`
	CustomerID        uuid.UUID `json:"customerId"`
	BusinessID        uuid.UUID `json:"businessId"`
	OldStatus         string    `json:"oldStatus"`
	NewStatus         string    `json:"newStatus"`
	Reason            string    `json:"reason"`
	DaysSinceActivity *int      `json:"daysSinceActivity,omitempty"`
	ChangedAt         string    `json:"changedAt"`
}

// StatusChangeListResponse wraps a list of audit entries.
type StatusChangeListResponse struct {
	Items []StatusChangeResponse `json:"items"`
	Total int                    `json:"total"`
}

// RelationshipResponse is one customer relationship in API responses.
type RelationshipResponse struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customerId"`
	BusinessID uuid.UUID `json:"businessId"`
	Status     string    `json:"status"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
}

// ListRelationshipsRequest optionally narrows the relationship list to one
// status.
type ListRelationshipsRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=new active at_risk lost recovered"`
}

// RelationshipListResponse wraps a list of relationships.
type RelationshipListResponse struct {
	Items []RelationshipResponse `json:"items"`
	Total int                    `json:"total"`
}

// StatusCountsResponse is the current population breakdown by status.
type StatusCountsResponse struct {
	New       int `json:"new"`
	Active    int `json:"active"`
	AtRisk    int `json:"atRisk"`
	Lost      int `json:"lost"`
	Recovered int `json:"recovered"`
	Total     int `json:"total"`
}
