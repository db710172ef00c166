// Package repository provides PostgreSQL persistence for activity ingestion.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// firstPaymentReason is the audit reason for the new -> active activation.
const firstPaymentReason = "First successful payment received"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new activity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// EnsureRelationship creates the customer-business relationship on first
// contact with status new. Existing relationships are left untouched.
func (r *Repo) EnsureRelationship(ctx context.Context, customerID, businessID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customer_relationships (customer_id, business_id, status)
		VALUES ($1, $2, 'new')
		ON CONFLICT (customer_id, business_id) DO NOTHING`,
		customerID, businessID,
	)
	if err != nil {
		return fmt.Errorf("ensure relationship: %w", err)
	}
	return nil
}

// RecordPayment appends one payment activity row.
func (r *Repo) RecordPayment(ctx context.Context, p PaymentParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_activity (customer_id, business_id, amount_cents, succeeded, paid_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.CustomerID, p.BusinessID, p.AmountCents, p.Succeeded, p.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	return nil
}

// RecordAppointment appends one appointment touch row.
func (r *Repo) RecordAppointment(ctx context.Context, customerID, businessID uuid.UUID, touchedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_activity (customer_id, business_id, touched_at)
		VALUES ($1, $2, $3)`,
		customerID, businessID, touchedAt,
	)
	if err != nil {
		return fmt.Errorf("record appointment: %w", err)
	}
	return nil
}

// ActivateRelationship moves a new relationship to active after its first
// successful payment, writing the audit entry in the same transaction.
// Returns false when the relationship was not in status new.
func (r *Repo) ActivateRelationship(ctx context.Context, customerID, businessID uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin activation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE customer_relationships
		SET status = 'active', updated_at = now()
		WHERE customer_id = $1 AND business_id = $2 AND status = 'new' AND deleted_at IS NULL`,
		customerID, businessID,
	)
	if err != nil {
		return false, fmt.Errorf("activate relationship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO status_change_log (customer_id, business_id, old_status, new_status, reason)
		VALUES ($1, $2, 'new', 'active', $3)`,
		customerID, businessID, firstPaymentReason,
	)
	if err != nil {
		return false, fmt.Errorf("insert activation log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit activation: %w", err)
	}

	return true, nil
}
