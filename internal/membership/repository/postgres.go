package repository

import (
	"context"
	"database/sql"
	"errors"

	"podnotes/backend/internal/membership/domain"
	"podnotes/backend/internal/platform/rbac"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByPodAndUser returns the membership for the given pod and user, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByPodAndUser(ctx context.Context, podID, userID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, pod_id, user_id, role, created_at FROM pod_members WHERE pod_id = $1 AND user_id = $2`,
		podID, userID)
	var m domain.Membership
	var role string
	err := row.Scan(&m.ID, &m.PodID, &m.UserID, &role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Role = rbac.Role(role)
	return &m, nil
}

// GetPodRole resolves the user's role in a pod; ok is false when the user is not a member.
func (r *PostgresRepository) GetPodRole(ctx context.Context, userID, podID string) (rbac.Role, bool, error) {
	m, err := r.GetByPodAndUser(ctx, podID, userID)
	if err != nil {
		return "", false, err
	}
	if m == nil {
		return "", false, nil
	}
	return m.Role, true, nil
}

// ListMembers returns memberships joined with user profiles, ordered by
// privilege rank then join time. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListMembers(ctx context.Context, podID string) ([]*domain.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.user_id, u.username, u.avatar_url, m.role, m.created_at
		 FROM pod_members m JOIN users u ON u.id = m.user_id
		 WHERE m.pod_id = $1
		 ORDER BY CASE m.role
			WHEN 'creator' THEN 0 WHEN 'admin' THEN 1 WHEN 'editor' THEN 2 ELSE 3
		 END, m.created_at`, podID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Member
	for rows.Next() {
		var m domain.Member
		var avatar sql.NullString
		var role string
		if err := rows.Scan(&m.UserID, &m.Username, &avatar, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.AvatarURL = avatar.String
		m.Role = rbac.Role(role)
		m.RoleLabel = rbac.Label(m.Role)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Create persists the membership to the database. The membership must have ID set.
// The (pod_id, user_id) unique constraint rejects duplicate memberships.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pod_members (id, pod_id, user_id, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.PodID, m.UserID, string(m.Role), m.CreatedAt,
	)
	return err
}

// Delete removes the membership for the given pod and user.
func (r *PostgresRepository) Delete(ctx context.Context, podID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pod_members WHERE pod_id = $1 AND user_id = $2`, podID, userID)
	return err
}

// UpdateRole sets the member's role for the given pod and user.
func (r *PostgresRepository) UpdateRole(ctx context.Context, podID, userID string, role rbac.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pod_members SET role = $3 WHERE pod_id = $1 AND user_id = $2`,
		podID, userID, string(role))
	return err
}
