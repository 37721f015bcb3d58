// Package service implements note CRUD with server-side permission
// enforcement. Client-side role checks are UX only; this layer is the final
// authority on who may touch a note.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"podnotes/backend/internal/audit"
	"podnotes/backend/internal/note/domain"
	noterepo "podnotes/backend/internal/note/repository"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/platform/rbac"
	"podnotes/backend/internal/realtime"
	"podnotes/backend/internal/server/middleware"
)

// Service manages notes for pod and personal scopes.
type Service struct {
	notes    noterepo.Repository
	roles    rbac.PodRoleGetter
	events   realtime.Publisher
	activity audit.ActivityLogger
}

// NewService returns a note service. events and activity may be nil.
func NewService(notes noterepo.Repository, roles rbac.PodRoleGetter, events realtime.Publisher, activity audit.ActivityLogger) *Service {
	return &Service{notes: notes, roles: roles, events: events, activity: activity}
}

// ListForPod returns the pod's notes, updated_at descending. Any member may read.
func (s *Service) ListForPod(ctx context.Context, podID string) ([]*domain.Note, error) {
	if _, _, err := rbac.RequirePodMember(ctx, s.roles, podID); err != nil {
		return nil, err
	}
	return s.notes.ListByPod(ctx, podID)
}

// ListPersonal returns the caller's notes outside any pod, updated_at descending.
func (s *Service) ListPersonal(ctx context.Context) ([]*domain.Note, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrAuth, "user context required")
	}
	return s.notes.ListPersonal(ctx, userID)
}

// Create inserts a note. podID may be empty for a personal note; pod-scoped
// creation requires editor privilege or higher. Returns the canonical
// persisted note with server-assigned id and timestamps.
func (s *Service) Create(ctx context.Context, podID, title, content string) (*domain.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Wrap(apperr.ErrValidation, "title is required")
	}
	var ownerID string
	if podID != "" {
		uid, _, err := rbac.RequirePodEditor(ctx, s.roles, podID)
		if err != nil {
			return nil, err
		}
		ownerID = uid
	} else {
		uid, ok := middleware.GetUserID(ctx)
		if !ok {
			return nil, apperr.Wrap(apperr.ErrAuth, "user context required")
		}
		ownerID = uid
	}
	now := time.Now().UTC()
	n := &domain.Note{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		PodID:     podID,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.Publish(realtime.TableNotes, realtime.OpInsert, nil, n)
	}
	if s.activity != nil {
		s.activity.Record(ctx, podID, ownerID, "note_created", n.ID, title)
	}
	return n, nil
}

// Update applies the patch to the note after snapshotting its current content
// to history. Pod notes require editor privilege; personal notes require
// ownership. Returns the canonical updated note.
func (s *Service) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Note, error) {
	current, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, "note not found")
	}
	editorID, err := s.requireEditAccess(ctx, current)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperr.Wrap(apperr.ErrValidation, "title cannot be blank")
	}
	updated, err := s.notes.UpdateWithHistory(ctx, id, editorID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, "note not found")
	}
	if s.events != nil {
		s.events.Publish(realtime.TableNotes, realtime.OpUpdate, current, updated)
	}
	if s.activity != nil {
		s.activity.Record(ctx, updated.PodID, editorID, "note_updated", updated.ID, updated.Title)
	}
	return updated, nil
}

// Delete removes the note under the same permission as Update.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.Wrap(apperr.ErrNotFound, "note not found")
	}
	callerID, err := s.requireEditAccess(ctx, current)
	if err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		return err
	}
	if s.events != nil {
		s.events.Publish(realtime.TableNotes, realtime.OpDelete, current, nil)
	}
	if s.activity != nil {
		s.activity.Record(ctx, current.PodID, callerID, "note_deleted", current.ID, current.Title)
	}
	return nil
}

// History returns the note's snapshots, newest first. Any pod member may read
// a pod note's history; personal history requires ownership.
func (s *Service) History(ctx context.Context, id string) ([]*domain.HistoryEntry, error) {
	current, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, "note not found")
	}
	if current.PodID != "" {
		if _, _, err := rbac.RequirePodMember(ctx, s.roles, current.PodID); err != nil {
			return nil, err
		}
	} else if err := s.requireOwner(ctx, current); err != nil {
		return nil, err
	}
	return s.notes.ListHistory(ctx, id)
}

// requireEditAccess returns the caller's user id if they may mutate the note.
func (s *Service) requireEditAccess(ctx context.Context, n *domain.Note) (string, error) {
	if n.PodID != "" {
		userID, _, err := rbac.RequirePodEditor(ctx, s.roles, n.PodID)
		return userID, err
	}
	if err := s.requireOwner(ctx, n); err != nil {
		return "", err
	}
	userID, _ := middleware.GetUserID(ctx)
	return userID, nil
}

func (s *Service) requireOwner(ctx context.Context, n *domain.Note) error {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return apperr.Wrap(apperr.ErrAuth, "user context required")
	}
	if n.OwnerID != userID {
		return apperr.Wrap(apperr.ErrPermission, "not the owner of this note")
	}
	return nil
}
