// Package service implements profile reads and avatar upload.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/server/middleware"
	"podnotes/backend/internal/storage"
	"podnotes/backend/internal/user/domain"
	userrepo "podnotes/backend/internal/user/repository"
)

// maxAvatarBytes caps an avatar upload at 2 MiB.
const maxAvatarBytes = 2 << 20

var avatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// Service manages user profiles.
type Service struct {
	users   userrepo.Repository
	objects storage.ObjectStore
}

// NewService returns a user service. objects may be nil to disable avatar upload.
func NewService(users userrepo.Repository, objects storage.ObjectStore) *Service {
	return &Service{users: users, objects: objects}
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context) (*domain.Profile, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrAuth, "user context required")
	}
	return s.GetProfile(ctx, userID)
}

// GetProfile returns the public profile for userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.Wrap(apperr.ErrNotFound, "user not found")
	}
	p := u.Profile()
	return &p, nil
}

// UploadAvatar stores the caller's avatar image and updates their profile with
// its public URL. Content type must be png, jpeg, or webp.
func (s *Service) UploadAvatar(ctx context.Context, contentType string, r io.Reader) (string, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return "", apperr.Wrap(apperr.ErrAuth, "user context required")
	}
	if s.objects == nil {
		return "", apperr.Wrap(apperr.ErrRemote, "avatar storage is not configured")
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := avatarTypes[contentType]
	if !ok {
		return "", apperr.Wrapf(apperr.ErrValidation, "unsupported avatar type %q", contentType)
	}
	path := fmt.Sprintf("avatars/%s%s", userID, ext)
	if err := s.objects.Upload(ctx, path, contentType, io.LimitReader(r, maxAvatarBytes)); err != nil {
		return "", apperr.Wrapf(apperr.ErrRemote, "store avatar: %v", err)
	}
	url := s.objects.PublicURL(path)
	if err := s.users.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}
