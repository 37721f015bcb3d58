package repository

import (
	"context"

	"podnotes/backend/internal/membership/domain"
	"podnotes/backend/internal/platform/rbac"
)

// Repository defines persistence for pod memberships.
type Repository interface {
	GetByPodAndUser(ctx context.Context, podID, userID string) (*domain.Membership, error)
	// GetPodRole resolves the user's role in a pod; ok is false when the user
	// is not a member. Satisfies rbac.PodRoleGetter.
	GetPodRole(ctx context.Context, userID, podID string) (rbac.Role, bool, error)
	// ListMembers returns memberships joined with user profiles, creator first.
	ListMembers(ctx context.Context, podID string) ([]*domain.Member, error)
	Create(ctx context.Context, m *domain.Membership) error
	Delete(ctx context.Context, podID, userID string) error
	UpdateRole(ctx context.Context, podID, userID string, role rbac.Role) error
}
