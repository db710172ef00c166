package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"retention_backend/internal/lifecycle/domain"
)

const statusLogColumns = `id, customer_id, business_id, old_status, new_status, reason, days_since_activity, changed_at`

// RecentChanges returns audit entries newer than since, most recent first.
func (r *Repo) RecentChanges(ctx context.Context, since time.Time, businessID *uuid.UUID) ([]StatusChangeEntry, error) {
	query := `
		SELECT ` + statusLogColumns + `
		FROM status_change_log
		WHERE changed_at >= $1 AND ($2::uuid IS NULL OR business_id = $2)
		ORDER BY changed_at DESC`

	rows, err := r.pool.Query(ctx, query, since, businessID)
	if err != nil {
		return nil, fmt.Errorf("recent status changes: %w", err)
	}
	defer rows.Close()

	return scanStatusChanges(rows)
}

// History returns the full audit trail for one relationship, most recent first.
func (r *Repo) History(ctx context.Context, customerID, businessID uuid.UUID) ([]StatusChangeEntry, error) {
	query := `
		SELECT ` + statusLogColumns + `
		FROM status_change_log
		WHERE customer_id = $1 AND business_id = $2
		ORDER BY changed_at DESC`

	rows, err := r.pool.Query(ctx, query, customerID, businessID)
	if err != nil {
		return nil, fmt.Errorf("status history: %w", err)
	}
	defer rows.Close()

	return scanStatusChanges(rows)
}

func scanStatusChanges(rows pgx.Rows) ([]StatusChangeEntry, error) {
	var entries []StatusChangeEntry
	for rows.Next() {
		var e StatusChangeEntry
		var oldStatus, newStatus string
		if err := rows.Scan(
			&e.ID, &e.CustomerID, &e.BusinessID, &oldStatus, &newStatus,
			&e.Reason, &e.DaysSinceActivity, &e.ChangedAt,
		); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		e.OldStatus = domain.Status(oldStatus)
		e.NewStatus = domain.Status(newStatus)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan status changes: %w", err)
	}

	return entries, nil
}
