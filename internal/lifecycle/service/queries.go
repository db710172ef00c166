package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"retention_backend/internal/lifecycle/domain"
	"retention_backend/internal/lifecycle/repository"
	"retention_backend/internal/lifecycle/transport"
)

// GetRelationship returns one relationship with its current status.
func (s *Service) GetRelationship(ctx context.Context, customerID, businessID uuid.UUID) (transport.RelationshipResponse, error) {
	rel, err := s.repo.GetRelationship(ctx, customerID, businessID)
	if err != nil {
		return transport.RelationshipResponse{}, err
	}
	return toRelationshipResponse(rel), nil
}

// ListRelationships returns one business's relationships, optionally
// filtered to a single status.
func (s *Service) ListRelationships(ctx context.Context, businessID uuid.UUID, status *domain.Status) (transport.RelationshipListResponse, error) {
	rels, err := s.repo.ListByStatus(ctx, businessID, status)
	if err != nil {
		return transport.RelationshipListResponse{}, err
	}

	items := make([]transport.RelationshipResponse, 0, len(rels))
	for _, rel := range rels {
		items = append(items, toRelationshipResponse(rel))
	}
	return transport.RelationshipListResponse{Items: items, Total: len(items)}, nil
}

// RecentChanges returns realized transitions within the last N hours,
// most recent first.
func (s *Service) RecentChanges(ctx context.Context, businessID *uuid.UUID, hours int) (transport.StatusChangeListResponse, error) {
	if hours < 1 {
		hours = 24
	}
	since := s.now().Add(-time.Duration(hours) * time.Hour)

	entries, err := s.repo.RecentChanges(ctx, since, businessID)
	if err != nil {
		return transport.StatusChangeListResponse{}, err
	}
	return toChangeListResponse(entries), nil
}

// History returns the full audit trail for one relationship, most recent first.
func (s *Service) History(ctx context.Context, customerID, businessID uuid.UUID) (transport.StatusChangeListResponse, error) {
	// Resolve first so an unknown pair yields not-found instead of an
	// empty history.
	if _, err := s.repo.GetRelationship(ctx, customerID, businessID); err != nil {
		return transport.StatusChangeListResponse{}, err
	}

	entries, err := s.repo.History(ctx, customerID, businessID)
	if err != nil {
		return transport.StatusChangeListResponse{}, err
	}
	return toChangeListResponse(entries), nil
}

// StatusCounts returns the current population counts by status.
func (s *Service) StatusCounts(ctx context.Context, businessID *uuid.UUID) (transport.StatusCountsResponse, error) {
	counts, err := s.repo.CountByStatus(ctx, businessID)
	if err != nil {
		return transport.StatusCountsResponse{}, err
	}
	return transport.StatusCountsResponse{
		New:       counts.New,
		Active:    counts.Active,
		AtRisk:    counts.AtRisk,
		Lost:      counts.Lost,
		Recovered: counts.Recovered,
		Total:     counts.Total(),
	}, nil
}

func toRelationshipResponse(rel repository.Relationship) transport.RelationshipResponse {
	return transport.RelationshipResponse{
		ID:         rel.ID,
		CustomerID: rel.CustomerID,
		BusinessID: rel.BusinessID,
		Status:     string(rel.Status),
		CreatedAt:  rel.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  rel.UpdatedAt.Format(time.RFC3339),
	}
}

func toChangeListResponse(entries []repository.StatusChangeEntry) transport.StatusChangeListResponse {
	items := make([]transport.StatusChangeResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, transport.StatusChangeResponse{
			ID:                e.ID,
			CustomerID:        e.CustomerID,
			BusinessID:        e.BusinessID,
			OldStatus:         string(e.OldStatus),
			NewStatus:         string(e.NewStatus),
			Reason:            e.Reason,
			DaysSinceActivity: e.DaysSinceActivity,
			ChangedAt:         e.ChangedAt.Format(time.RFC3339),
		})
	}
	return transport.StatusChangeListResponse{Items: items, Total: len(items)}
}
