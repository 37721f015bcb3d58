package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"podnotes/backend/internal/note/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a note repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const noteColumns = `id, title, content, pod_id, owner_id, created_at, updated_at`

// GetByID returns the note for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	return scanNote(row)
}

// ListByPod returns the pod's notes ordered by updated_at descending.
func (r *PostgresRepository) ListByPod(ctx context.Context, podID string) ([]*domain.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE pod_id = $1 ORDER BY updated_at DESC`, podID)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows)
}

// ListPersonal returns the user's notes outside any pod, updated_at descending.
func (r *PostgresRepository) ListPersonal(ctx context.Context, ownerID string) ([]*domain.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = $1 AND pod_id IS NULL ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows)
}

// Create persists the note to the database. The note must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, n *domain.Note) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, content, pod_id, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.Title, n.Content, sql.NullString{String: n.PodID, Valid: n.PodID != ""},
		n.OwnerID, n.CreatedAt, n.UpdatedAt,
	)
	return err
}

// UpdateWithHistory snapshots the pre-update content into note_history and
// applies the patch in one transaction. Returns the updated note, or nil if
// the id no longer exists.
func (r *PostgresRepository) UpdateWithHistory(ctx context.Context, id, editorID string, patch domain.Patch) (*domain.Note, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the row so the snapshot and the update see the same content.
	row := tx.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1 FOR UPDATE`, id)
	current, err := scanNote(row)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	// History first: the update must never commit without its snapshot.
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO note_history (id, note_id, edited_by, content_snapshot, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), id, editorID, current.Content, now,
	)
	if err != nil {
		return nil, err
	}

	updated := *current
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Content != nil {
		updated.Content = *patch.Content
	}
	updated.UpdatedAt = now
	_, err = tx.ExecContext(ctx,
		`UPDATE notes SET title = $2, content = $3, updated_at = $4 WHERE id = $1`,
		id, updated.Title, updated.Content, updated.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the note. History entries cascade via foreign key.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	return err
}

// ListHistory returns the note's snapshots, newest first.
func (r *PostgresRepository) ListHistory(ctx context.Context, noteID string) ([]*domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, note_id, edited_by, content_snapshot, created_at
		 FROM note_history WHERE note_id = $1 ORDER BY created_at DESC`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		if err := rows.Scan(&h.ID, &h.NoteID, &h.EditedBy, &h.ContentSnapshot, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

func scanNote(row *sql.Row) (*domain.Note, error) {
	var n domain.Note
	var podID sql.NullString
	err := row.Scan(&n.ID, &n.Title, &n.Content, &podID, &n.OwnerID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	n.PodID = podID.String
	return &n, nil
}

func collectNotes(rows *sql.Rows) ([]*domain.Note, error) {
	defer rows.Close()
	var out []*domain.Note
	for rows.Next() {
		var n domain.Note
		var podID sql.NullString
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &podID, &n.OwnerID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		n.PodID = podID.String
		out = append(out, &n)
	}
	return out, rows.Err()
}
