// Package repository provides PostgreSQL persistence for the lifecycle
// bounded context.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"retention_backend/internal/lifecycle/domain"
	"retention_backend/platform/apperr"
)

const relationshipNotFoundMessage = "customer relationship not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new lifecycle repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetRelationship loads one relationship by its customer-business pair.
func (r *Repo) GetRelationship(ctx context.Context, customerID, businessID uuid.UUID) (Relationship, error) {
	query := `
		SELECT id, customer_id, business_id, status, created_at, updated_at
		FROM customer_relationships
		WHERE customer_id = $1 AND business_id = $2 AND deleted_at IS NULL`

	var rel Relationship
	var status string

	err := r.pool.QueryRow(ctx, query, customerID, businessID).Scan(
		&rel.ID, &rel.CustomerID, &rel.BusinessID, &status, &rel.CreatedAt, &rel.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Relationship{}, apperr.NotFound(relationshipNotFoundMessage)
		}
		return Relationship{}, fmt.Errorf("get relationship: %w", err)
	}

	parsed, ok := domain.ParseStatus(status)
	if !ok {
		return Relationship{}, fmt.Errorf("relationship %s has unknown status %q", rel.ID, status)
	}
	rel.Status = parsed

	return rel, nil
}

// ListRelationships returns sweep refs for every live relationship,
// optionally scoped to one business.
func (r *Repo) ListRelationships(ctx context.Context, businessID *uuid.UUID) ([]RelationshipRef, error) {
	query := `
		SELECT customer_id, business_id, status
		FROM customer_relationships
		WHERE deleted_at IS NULL AND ($1::uuid IS NULL OR business_id = $1)
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var refs []RelationshipRef
	for rows.Next() {
		var ref RelationshipRef
		var status string
		if err := rows.Scan(&ref.CustomerID, &ref.BusinessID, &status); err != nil {
			return nil, fmt.Errorf("scan relationship ref: %w", err)
		}
		ref.Status = domain.Status(status)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}

	return refs, nil
}

// ListByStatus returns one business's live relationships, optionally
// filtered to a single status, newest first.
func (r *Repo) ListByStatus(ctx context.Context, businessID uuid.UUID, status *domain.Status) ([]Relationship, error) {
	query := `
		SELECT id, customer_id, business_id, status, created_at, updated_at
		FROM customer_relationships
		WHERE deleted_at IS NULL AND business_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY updated_at DESC`

	var filter *string
	if status != nil {
		s := string(*status)
		filter = &s
	}

	rows, err := r.pool.Query(ctx, query, businessID, filter)
	if err != nil {
		return nil, fmt.Errorf("list relationships by status: %w", err)
	}
	defer rows.Close()

	var rels []Relationship
	for rows.Next() {
		var rel Relationship
		var raw string
		if err := rows.Scan(&rel.ID, &rel.CustomerID, &rel.BusinessID, &raw, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rel.Status = domain.Status(raw)
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list relationships by status: %w", err)
	}

	return rels, nil
}

// TransitionStatus applies the conditional update and audit insert in one
// transaction. The WHERE status = $from clause is the concurrency guard: of
// two racing evaluations that observed the same stored status, exactly one
// update matches a row, so exactly one audit entry is written.
func (r *Repo) TransitionStatus(ctx context.Context, p TransitionParams) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE customer_relationships
		SET status = $1, updated_at = now()
		WHERE customer_id = $2 AND business_id = $3 AND status = $4 AND deleted_at IS NULL`,
		string(p.To), p.CustomerID, p.BusinessID, string(p.From),
	)
	if err != nil {
		return false, fmt.Errorf("transition status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race (or the row vanished). The winner already wrote the
		// transition and its audit entry; nothing more to do here.
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO status_change_log (customer_id, business_id, old_status, new_status, reason, days_since_activity)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.CustomerID, p.BusinessID, string(p.From), string(p.To), p.Reason, p.DaysSinceActivity,
	)
	if err != nil {
		return false, fmt.Errorf("insert status change log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transition: %w", err)
	}

	return true, nil
}

// CountByStatus returns the live population breakdown.
func (r *Repo) CountByStatus(ctx context.Context, businessID *uuid.UUID) (StatusCounts, error) {
	query := `
		SELECT status, COUNT(*)
		FROM customer_relationships
		WHERE deleted_at IS NULL AND ($1::uuid IS NULL OR business_id = $1)
		GROUP BY status`

	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	var counts StatusCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return StatusCounts{}, fmt.Errorf("scan status count: %w", err)
		}
		switch domain.Status(status) {
		case domain.StatusNew:
			counts.New = n
		case domain.StatusActive:
			counts.Active = n
		case domain.StatusAtRisk:
			counts.AtRisk = n
		case domain.StatusLost:
			counts.Lost = n
		case domain.StatusRecovered:
			counts.Recovered = n
		}
	}
	if err := rows.Err(); err != nil {
		return StatusCounts{}, fmt.Errorf("count by status: %w", err)
	}

	return counts, nil
}
