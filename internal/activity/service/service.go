// Package service records payment and appointment activity, activates new
// relationships on their first successful payment and publishes the events
// that trigger inline lifecycle evaluations.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"retention_backend/internal/activity/repository"
	"retention_backend/internal/activity/transport"
	"retention_backend/internal/events"
	"retention_backend/platform/logger"
)

// Service provides business logic for activity ingestion.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a new activity service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, now: time.Now}
}

// RecordPayment persists one payment. A successful payment on a new
// relationship activates it, and every successful payment publishes the
// event that triggers an inline lifecycle evaluation.
func (s *Service) RecordPayment(ctx context.Context, businessID uuid.UUID, req transport.RecordPaymentRequest) (transport.RecordActivityResponse, error) {
	paidAt := s.now()
	if req.OccurredAt != nil {
		paidAt = *req.OccurredAt
	}
	succeeded := true
	if req.Succeeded != nil {
		succeeded = *req.Succeeded
	}

	if err := s.repo.EnsureRelationship(ctx, req.CustomerID, businessID); err != nil {
		return transport.RecordActivityResponse{}, err
	}

	if err := s.repo.RecordPayment(ctx, repository.PaymentParams{
		CustomerID:  req.CustomerID,
		BusinessID:  businessID,
		AmountCents: req.AmountCents,
		Succeeded:   succeeded,
		PaidAt:      paidAt,
	}); err != nil {
		return transport.RecordActivityResponse{}, err
	}

	var activated bool
	if succeeded {
		var err error
		activated, err = s.repo.ActivateRelationship(ctx, req.CustomerID, businessID)
		if err != nil {
			return transport.RecordActivityResponse{}, err
		}
		if activated {
			s.log.Info("relationship activated by first payment",
				"customer_id", req.CustomerID, "business_id", businessID)
		}

		if s.bus != nil {
			s.bus.Publish(ctx, events.PaymentRecorded{
				BaseEvent:  events.NewBaseEvent(),
				CustomerID: req.CustomerID,
				BusinessID: businessID,
				PaidAt:     paidAt,
				Activated:  activated,
			})
		}
	}

	return transport.RecordActivityResponse{
		CustomerID: req.CustomerID,
		BusinessID: businessID,
		OccurredAt: paidAt.Format(time.RFC3339),
		Activated:  activated,
	}, nil
}

// RecordAppointment persists one appointment touch.
func (s *Service) RecordAppointment(ctx context.Context, businessID uuid.UUID, req transport.RecordAppointmentRequest) (transport.RecordActivityResponse, error) {
	touchedAt := s.now()
	if req.OccurredAt != nil {
		touchedAt = *req.OccurredAt
	}

	if err := s.repo.EnsureRelationship(ctx, req.CustomerID, businessID); err != nil {
		return transport.RecordActivityResponse{}, err
	}

	if err := s.repo.RecordAppointment(ctx, req.CustomerID, businessID, touchedAt); err != nil {
		return transport.RecordActivityResponse{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.AppointmentTouched{
			BaseEvent:  events.NewBaseEvent(),
			CustomerID: req.CustomerID,
			BusinessID: businessID,
			TouchedAt:  touchedAt,
		})
	}

	return transport.RecordActivityResponse{
		CustomerID: req.CustomerID,
		BusinessID: businessID,
		OccurredAt: touchedAt.Format(time.RFC3339),
	}, nil
}
