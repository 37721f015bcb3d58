package repository

import (
	"context"
	"database/sql"

	"podnotes/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an activity repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the activity entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Activity) error {
	podID := sql.NullString{String: a.PodID, Valid: a.PodID != ""}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity (id, pod_id, user_id, action, subject, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, podID, a.UserID, a.Action, a.Subject, meta, a.CreatedAt,
	)
	return err
}

// ListByPod returns the pod's activity entries, newest first, paginated by
// limit and offset. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByPod(ctx context.Context, podID string, limit, offset int32) ([]*domain.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pod_id, user_id, action, subject, metadata, created_at
		FROM activity
		WHERE pod_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		podID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Activity
	for rows.Next() {
		var a domain.Activity
		var pod, meta sql.NullString
		if err := rows.Scan(&a.ID, &pod, &a.UserID, &a.Action, &a.Subject, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.PodID = pod.String
		a.Metadata = meta.String
		out = append(out, &a)
	}
	return out, rows.Err()
}
