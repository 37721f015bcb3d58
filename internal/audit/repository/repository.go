package repository

import (
	"context"

	"podnotes/backend/internal/audit/domain"
)

// Repository defines persistence for pod activity entries.
type Repository interface {
	Create(ctx context.Context, a *domain.Activity) error
	ListByPod(ctx context.Context, podID string, limit, offset int32) ([]*domain.Activity, error)
}
