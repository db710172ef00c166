// Package repository reads the context needed to build retention alerts:
// customer and business display data, visit history and the subscription
// gate. All reads, no writes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"retention_backend/platform/apperr"
)

// AlertContext is everything the dispatcher needs to address and fill one
// retention alert.
type AlertContext struct {
	CustomerName       string
	CustomerPhone      string
	CustomerService    *string
	BusinessName       string
	BusinessType       *string
	BusinessOwnerPhone string
	WhatsAppPhone      *string
	LastVisitDate      *time.Time
	FutureAppointment  *time.Time
}

// Repository is the read boundary for alert dispatch.
type Repository interface {
	// AlertContext assembles the alert payload data for one relationship.
	AlertContext(ctx context.Context, customerID, businessID uuid.UUID) (AlertContext, error)

	// HasActiveSubscription reports whether the business is currently
	// entitled to outbound alerts.
	HasActiveSubscription(ctx context.Context, businessID uuid.UUID) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// New creates a pgx-backed notification repository.
func New(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) AlertContext(ctx context.Context, customerID, businessID uuid.UUID) (AlertContext, error) {
	var ac AlertContext

	err := r.pool.QueryRow(ctx, `
		SELECT c.full_name, c.phone, c.service,
		       b.name, b.business_type, b.owner_phone, b.whatsapp_phone
		FROM customers c
		CROSS JOIN businesses b
		WHERE c.id = $1 AND b.id = $2`,
		customerID, businessID,
	).Scan(
		&ac.CustomerName, &ac.CustomerPhone, &ac.CustomerService,
		&ac.BusinessName, &ac.BusinessType, &ac.BusinessOwnerPhone, &ac.WhatsAppPhone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AlertContext{}, apperr.NotFound("customer or business not found")
		}
		return AlertContext{}, fmt.Errorf("load alert context: %w", err)
	}

	// Last visit is the most recent payment or past appointment touch.
	err = r.pool.QueryRow(ctx, `
		SELECT GREATEST(
			(SELECT MAX(paid_at) FROM payment_activity
			 WHERE customer_id = $1 AND business_id = $2 AND succeeded = TRUE),
			(SELECT MAX(touched_at) FROM appointment_activity
			 WHERE customer_id = $1 AND business_id = $2 AND touched_at <= NOW())
		)`,
		customerID, businessID,
	).Scan(&ac.LastVisitDate)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return AlertContext{}, fmt.Errorf("load last visit: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT MIN(touched_at) FROM appointment_activity
		WHERE customer_id = $1 AND business_id = $2 AND touched_at > NOW()`,
		customerID, businessID,
	).Scan(&ac.FutureAppointment)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return AlertContext{}, fmt.Errorf("load future appointment: %w", err)
	}

	return ac, nil
}

func (r *pgRepository) HasActiveSubscription(ctx context.Context, businessID uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM business_subscriptions
			WHERE business_id = $1
			  AND status = 'active'
			  AND (expires_at IS NULL OR expires_at > NOW())
		)`,
		businessID,
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}

	return active, nil
}
