package repository

import (
	"context"

	"podnotes/backend/internal/pod/domain"
)

// Repository defines persistence for pods.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Pod, error)
	// ListByUser returns the pods the user is a member of, each with the
	// user's role, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.PodWithRole, error)
	// Create persists the pod and the creator's membership in one transaction,
	// so a pod can never exist without its creator member.
	Create(ctx context.Context, p *domain.Pod) error
	Delete(ctx context.Context, id string) error
}
