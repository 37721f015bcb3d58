package repository

import (
	"context"

	"podnotes/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByUsername resolves the public handle used for pod invites.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// UpdateAvatarURL sets the user's avatar URL and bumps updated_at.
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error
}
