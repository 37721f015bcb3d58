package domain

import (
	"errors"
	"time"
)

// Note is a single document. PodID is empty for personal notes outside any
// pod. UpdatedAt is the authoritative ordering key for "most recent" listings.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	PodID     string    `json:"pod_id,omitempty"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate validates the note for persistence. Returns an error describing the first validation failure.
func (n *Note) Validate() error {
	if n.Title == "" {
		return errors.New("title is required")
	}
	if n.OwnerID == "" {
		return errors.New("owner_id is required")
	}
	return nil
}

// HistoryEntry is one append-only snapshot of a note's content taken before an
// edit was applied. The history log is never missing an entry for an applied edit.
type HistoryEntry struct {
	ID              string    `json:"id"`
	NoteID          string    `json:"note_id"`
	EditedBy        string    `json:"edited_by"`
	ContentSnapshot string    `json:"content_snapshot"`
	CreatedAt       time.Time `json:"created_at"`
}

// Patch carries the fields an update may change. Nil fields are left untouched.
type Patch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}
