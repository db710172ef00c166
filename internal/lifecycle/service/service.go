// Package service orchestrates lifecycle status evaluations: it resolves
// activity, computes thresholds, runs the transition engine, persists
// realized transitions and publishes their events.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"retention_backend/internal/events"
	"retention_backend/internal/lifecycle/domain"
	"retention_backend/internal/lifecycle/repository"
	"retention_backend/platform/logger"
)

// Service is the per-relationship status update coordinator.
type Service struct {
	repo     repository.Repository
	bus      events.Bus
	log      *logger.Logger
	defaults domain.ThresholdDefaults

	// group collapses concurrent inline evaluations of the same
	// relationship; the conditional update in the repository remains the
	// real guard for callers in other processes.
	group singleflight.Group

	// now is replaceable in tests.
	now func() time.Time
}

// New creates the lifecycle service.
func New(repo repository.Repository, bus events.Bus, defaults domain.ThresholdDefaults, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		bus:      bus,
		log:      log,
		defaults: defaults,
		now:      time.Now,
	}
}

// EvaluationResult reports the outcome of one idempotent evaluation.
type EvaluationResult struct {
	Changed           bool
	OldStatus         domain.Status
	NewStatus         domain.Status
	DaysSinceActivity *int
	Reason            string
}

// Evaluate runs one lifecycle check for a relationship. It is idempotent:
// when the recomputed status equals the stored one, nothing is written, no
// audit entry is produced and no event is published.
//
// Evaluate returns an error only when the relationship itself cannot be
// resolved or a store call fails; a conditional-update conflict is not an
// error, it reports Changed=false as if this caller's work was already done.
func (s *Service) Evaluate(ctx context.Context, customerID, businessID uuid.UUID) (EvaluationResult, error) {
	key := customerID.String() + "|" + businessID.String()
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.evaluate(ctx, customerID, businessID)
	})
	if err != nil {
		return EvaluationResult{}, err
	}
	return value.(EvaluationResult), nil
}

func (s *Service) evaluate(ctx context.Context, customerID, businessID uuid.UUID) (EvaluationResult, error) {
	rel, err := s.repo.GetRelationship(ctx, customerID, businessID)
	if err != nil {
		return EvaluationResult{}, err
	}

	// A new relationship is frozen for the engine. Only payment ingestion
	// may move it to active.
	if rel.Status == domain.StatusNew {
		return EvaluationResult{OldStatus: rel.Status, NewStatus: rel.Status}, nil
	}

	lastActivity, err := s.resolveLastActivity(ctx, customerID, businessID)
	if err != nil {
		return EvaluationResult{}, err
	}
	if lastActivity == nil {
		// No activity recorded at all. Not an error; there is nothing to
		// judge yet.
		return EvaluationResult{OldStatus: rel.Status, NewStatus: rel.Status}, nil
	}

	days := domain.DaysSince(*lastActivity, s.now())

	history, err := s.repo.PaymentHistory(ctx, customerID, businessID)
	if err != nil {
		return EvaluationResult{}, err
	}
	thresholds := domain.CalculateThresholds(history, s.defaults)

	next := domain.NextStatus(rel.Status, &days, thresholds)
	if next == rel.Status {
		return EvaluationResult{OldStatus: rel.Status, NewStatus: rel.Status, DaysSinceActivity: &days}, nil
	}

	reason := transitionReason(rel.Status, next, days, thresholds)

	applied, err := s.repo.TransitionStatus(ctx, repository.TransitionParams{
		CustomerID:        customerID,
		BusinessID:        businessID,
		From:              rel.Status,
		To:                next,
		Reason:            reason,
		DaysSinceActivity: &days,
	})
	if err != nil {
		return EvaluationResult{}, err
	}
	if !applied {
		// A concurrent evaluation won the conditional update. Treat the
		// transition as already applied rather than retrying.
		return EvaluationResult{OldStatus: rel.Status, NewStatus: rel.Status, DaysSinceActivity: &days}, nil
	}

	s.log.StatusTransition(customerID.String(), businessID.String(), string(rel.Status), string(next), reason)

	if s.bus != nil {
		s.bus.Publish(ctx, events.RelationshipStatusChanged{
			BaseEvent:         events.NewBaseEvent(),
			CustomerID:        customerID,
			BusinessID:        businessID,
			OldStatus:         string(rel.Status),
			NewStatus:         string(next),
			Reason:            reason,
			DaysSinceActivity: &days,
		})
	}

	return EvaluationResult{
		Changed:           true,
		OldStatus:         rel.Status,
		NewStatus:         next,
		DaysSinceActivity: &days,
		Reason:            reason,
	}, nil
}

// resolveLastActivity picks the authoritative activity date. A successful
// payment always wins, even when an appointment touch is more recent; the
// appointment date is consulted only when the customer has never paid.
func (s *Service) resolveLastActivity(ctx context.Context, customerID, businessID uuid.UUID) (*time.Time, error) {
	payment, err := s.repo.LastSuccessfulPayment(ctx, customerID, businessID)
	if err != nil {
		return nil, err
	}
	if payment != nil {
		return payment, nil
	}

	appointment, err := s.repo.LastAppointmentActivity(ctx, customerID, businessID)
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

func transitionReason(from, to domain.Status, days int, t domain.Thresholds) string {
	switch to {
	case domain.StatusAtRisk:
		return fmt.Sprintf("No activity for %d days (threshold: %.0f days)", days, t.AtRiskDays)
	case domain.StatusLost:
		return fmt.Sprintf("No activity for %d days (lost threshold: %.0f days)", days, t.LostDays)
	case domain.StatusRecovered:
		return fmt.Sprintf("Customer returned with activity after being %s", from)
	default:
		return fmt.Sprintf("Status changed from %s to %s", from, to)
	}
}
