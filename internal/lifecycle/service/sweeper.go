package service

import (
	"context"

	"github.com/google/uuid"

	"retention_backend/internal/lifecycle/domain"
)

// SweepResult aggregates the counters of one full sweep.
type SweepResult struct {
	Processed int
	Updated   int
	New       int
	Active    int
	AtRisk    int
	Lost      int
	Recovered int
	Errors    int
}

// Sweep evaluates every live relationship, optionally scoped to one
// business, one at a time. A failure on one relationship is counted and
// skipped; it never aborts the rest of the sweep. Only a failure to list
// the population at all is returned as an error.
func (s *Service) Sweep(ctx context.Context, businessID *uuid.UUID) (SweepResult, error) {
	refs, err := s.repo.ListRelationships(ctx, businessID)
	if err != nil {
		return SweepResult{}, err
	}

	var result SweepResult
	for _, ref := range refs {
		if ctx.Err() != nil {
			s.log.Warn("sweep interrupted", "processed", result.Processed, "remaining", len(refs)-result.Processed)
			break
		}

		eval, err := s.Evaluate(ctx, ref.CustomerID, ref.BusinessID)
		if err != nil {
			result.Errors++
			s.log.Warn("relationship evaluation failed",
				"customer_id", ref.CustomerID, "business_id", ref.BusinessID, "error", err)
			continue
		}

		result.Processed++
		if eval.Changed {
			result.Updated++
		}
		result.countStatus(eval.NewStatus)
	}

	s.log.Info("lifecycle sweep complete",
		"processed", result.Processed,
		"updated", result.Updated,
		"at_risk", result.AtRisk,
		"lost", result.Lost,
		"recovered", result.Recovered,
		"errors", result.Errors,
	)

	return result, nil
}

func (r *SweepResult) countStatus(status domain.Status) {
	switch status {
	case domain.StatusNew:
		r.New++
	case domain.StatusActive:
		r.Active++
	case domain.StatusAtRisk:
		r.AtRisk++
	case domain.StatusLost:
		r.Lost++
	case domain.StatusRecovered:
		r.Recovered++
	}
}
