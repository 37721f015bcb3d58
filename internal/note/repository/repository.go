package repository

import (
	"context"

	"podnotes/backend/internal/note/domain"
)

// Repository defines persistence for notes and their edit history.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	// ListByPod returns the pod's notes ordered by updated_at descending.
	ListByPod(ctx context.Context, podID string) ([]*domain.Note, error)
	// ListPersonal returns the user's notes outside any pod, updated_at descending.
	ListPersonal(ctx context.Context, ownerID string) ([]*domain.Note, error)
	Create(ctx context.Context, n *domain.Note) error
	// UpdateWithHistory snapshots the pre-update content into note_history and
	// applies the patch in one transaction. The history insert commits only if
	// the update does, and the update is never applied without its snapshot.
	// Returns the updated note, or nil if the id no longer exists.
	UpdateWithHistory(ctx context.Context, id, editorID string, patch domain.Patch) (*domain.Note, error)
	Delete(ctx context.Context, id string) error
	// ListHistory returns the note's snapshots, newest first.
	ListHistory(ctx context.Context, noteID string) ([]*domain.HistoryEntry, error)
}
