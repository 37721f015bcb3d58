// Package service implements pod lifecycle: create with automatic creator
// membership, listing with the caller's role, and admin-gated deletion.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"podnotes/backend/internal/audit"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/platform/rbac"
	"podnotes/backend/internal/pod/domain"
	podrepo "podnotes/backend/internal/pod/repository"
	"podnotes/backend/internal/server/middleware"
)

// Service manages pods.
type Service struct {
	pods     podrepo.Repository
	roles    rbac.PodRoleGetter
	activity audit.ActivityLogger
}

// NewService returns a pod service. activity may be nil.
func NewService(pods podrepo.Repository, roles rbac.PodRoleGetter, activity audit.ActivityLogger) *Service {
	return &Service{pods: pods, roles: roles, activity: activity}
}

// Create makes a new pod owned by the caller. The repository inserts the
// creator membership in the same transaction.
func (s *Service) Create(ctx context.Context, name, description string) (*domain.Pod, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrAuth, "user context required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Wrap(apperr.ErrValidation, "pod name is required")
	}
	now := time.Now().UTC()
	p := &domain.Pod{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.pods.Create(ctx, p); err != nil {
		return nil, err
	}
	if s.activity != nil {
		s.activity.Record(ctx, p.ID, userID, "pod_created", p.ID, name)
	}
	return p, nil
}

// List returns the caller's pods with their role in each, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.PodWithRole, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrAuth, "user context required")
	}
	return s.pods.ListByUser(ctx, userID)
}

// Get returns one pod. Any member may read it.
func (s *Service) Get(ctx context.Context, podID string) (*domain.Pod, error) {
	if _, _, err := rbac.RequirePodMember(ctx, s.roles, podID); err != nil {
		return nil, err
	}
	p, err := s.pods.GetByID(ctx, podID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, "pod not found")
	}
	return p, nil
}

// Delete removes the pod and, via cascade, its memberships, notes, and
// history. Requires admin or creator.
func (s *Service) Delete(ctx context.Context, podID string) error {
	userID, _, err := rbac.RequirePodAdmin(ctx, s.roles, podID)
	if err != nil {
		return err
	}
	p, err := s.pods.GetByID(ctx, podID)
	if err != nil {
		return err
	}
	if p == nil {
		return apperr.Wrap(apperr.ErrNotFound, "pod not found")
	}
	if err := s.pods.Delete(ctx, podID); err != nil {
		return err
	}
	if s.activity != nil {
		s.activity.Record(ctx, podID, userID, "pod_deleted", podID, p.Name)
	}
	return nil
}
