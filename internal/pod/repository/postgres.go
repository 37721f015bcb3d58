package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"podnotes/backend/internal/platform/rbac"
	"podnotes/backend/internal/pod/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a pod repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const podColumns = `id, name, description, created_by, created_at, updated_at`

// GetByID returns the pod for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Pod, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+podColumns+` FROM pods WHERE id = $1`, id)
	var p domain.Pod
	var desc sql.NullString
	err := row.Scan(&p.ID, &p.Name, &desc, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Description = desc.String
	return &p, nil
}

// ListByUser returns the pods the user is a member of, each with the user's role, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PodWithRole, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.description, p.created_by, p.created_at, p.updated_at, m.role
		 FROM pods p JOIN pod_members m ON m.pod_id = p.id
		 WHERE m.user_id = $1
		 ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PodWithRole
	for rows.Next() {
		var p domain.PodWithRole
		var desc sql.NullString
		var role string
		if err := rows.Scan(&p.ID, &p.Name, &desc, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &role); err != nil {
			return nil, err
		}
		p.Description = desc.String
		p.Role = rbac.Role(role)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Create persists the pod and the creator's membership in one transaction.
// The pod must have ID and CreatedBy set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Pod) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pods (id, name, description, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, sql.NullString{String: p.Description, Valid: p.Description != ""},
		p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO pod_members (id, pod_id, user_id, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), p.ID, p.CreatedBy, string(rbac.RoleCreator), p.CreatedAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the pod. Memberships, notes, and history cascade via foreign keys.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pods WHERE id = $1`, id)
	return err
}
