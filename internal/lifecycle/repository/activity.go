package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LastSuccessfulPayment returns the most recent successful payment date for
// the relationship, or nil when the customer has never paid.
func (r *Repo) LastSuccessfulPayment(ctx context.Context, customerID, businessID uuid.UUID) (*time.Time, error) {
	query := `
		SELECT paid_at
		FROM payment_activity
		WHERE customer_id = $1 AND business_id = $2 AND succeeded = true
		ORDER BY paid_at DESC
		LIMIT 1`

	var paidAt time.Time
	err := r.pool.QueryRow(ctx, query, customerID, businessID).Scan(&paidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last successful payment: %w", err)
	}

	return &paidAt, nil
}

// LastAppointmentActivity returns the most recent appointment touch for the
// relationship, or nil when no appointment was ever recorded.
func (r *Repo) LastAppointmentActivity(ctx context.Context, customerID, businessID uuid.UUID) (*time.Time, error) {
	query := `
		SELECT touched_at
		FROM appointment_activity
		WHERE customer_id = $1 AND business_id = $2
		ORDER BY touched_at DESC
		LIMIT 1`

	var touchedAt time.Time
	err := r.pool.QueryRow(ctx, query, customerID, businessID).Scan(&touchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last appointment activity: %w", err)
	}

	return &touchedAt, nil
}

// PaymentHistory returns every successful-payment timestamp in ascending
// order, the sole input to threshold computation.
func (r *Repo) PaymentHistory(ctx context.Context, customerID, businessID uuid.UUID) ([]time.Time, error) {
	query := `
		SELECT paid_at
		FROM payment_activity
		WHERE customer_id = $1 AND business_id = $2 AND succeeded = true
		ORDER BY paid_at ASC`

	rows, err := r.pool.Query(ctx, query, customerID, businessID)
	if err != nil {
		return nil, fmt.Errorf("payment history: %w", err)
	}
	defer rows.Close()

	var history []time.Time
	for rows.Next() {
		var paidAt time.Time
		if err := rows.Scan(&paidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		history = append(history, paidAt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment history: %w", err)
	}

	return history, nil
}
