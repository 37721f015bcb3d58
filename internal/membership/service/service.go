// Package service implements pod membership management: invites by username,
// role changes, and removal, under the creator-immutability rule.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"podnotes/backend/internal/audit"
	"podnotes/backend/internal/membership/domain"
	membershiprepo "podnotes/backend/internal/membership/repository"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/platform/rbac"
	"podnotes/backend/internal/realtime"
	userdomain "podnotes/backend/internal/user/domain"
)

// UserLookup is the minimal user repository needed by the membership service.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
}

// Service manages pod memberships. Role checks on the caller happen in the
// handler via rbac guards; Service enforces the rules about the target member.
type Service struct {
	memberships membershiprepo.Repository
	users       UserLookup
	events      realtime.Publisher
	activity    audit.ActivityLogger
}

// NewService returns a membership service. events and activity may be nil.
func NewService(memberships membershiprepo.Repository, users UserLookup, events realtime.Publisher, activity audit.ActivityLogger) *Service {
	return &Service{memberships: memberships, users: users, events: events, activity: activity}
}

// ListMembers returns the pod's members joined with their profiles.
func (s *Service) ListMembers(ctx context.Context, podID string) ([]*domain.Member, error) {
	return s.memberships.ListMembers(ctx, podID)
}

// AddMemberByUsername invites the user with the given username into the pod.
// role defaults to read_only; creator is never assignable. Returns
// apperr.ErrNotFound when no such user exists and apperr.ErrDuplicate when the
// user is already a member, both checked before any insert is attempted.
func (s *Service) AddMemberByUsername(ctx context.Context, podID, inviterID, username string, role rbac.Role) (*domain.Membership, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Wrap(apperr.ErrValidation, "username is required")
	}
	if role == "" {
		role = rbac.RoleReadOnly
	}
	if _, ok := rbac.Rank(role); !ok || rbac.IsCreator(role) {
		return nil, apperr.Wrapf(apperr.ErrValidation, "role %q is not assignable", role)
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.Wrapf(apperr.ErrNotFound, "no user with username %q", username)
	}
	existing, err := s.memberships.GetByPodAndUser(ctx, podID, u.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Wrapf(apperr.ErrDuplicate, "%q is already a member", username)
	}
	m := &domain.Membership{
		ID:        uuid.New().String(),
		PodID:     podID,
		UserID:    u.ID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.Publish(realtime.TableMembers, realtime.OpInsert, nil, m)
	}
	if s.activity != nil {
		s.activity.Record(ctx, podID, inviterID, "member_added", username, string(role))
	}
	return m, nil
}

// RemoveMember removes the target user's membership from the pod. The creator's
// membership cannot be removed; that is rejected before any store call.
func (s *Service) RemoveMember(ctx context.Context, podID, callerID, targetUserID string) error {
	m, err := s.memberships.GetByPodAndUser(ctx, podID, targetUserID)
	if err != nil {
		return err
	}
	if m == nil {
		return apperr.Wrap(apperr.ErrNotFound, "membership not found")
	}
	if rbac.IsCreator(m.Role) {
		return apperr.Wrap(apperr.ErrPermission, "the pod creator cannot be removed")
	}
	if err := s.memberships.Delete(ctx, podID, targetUserID); err != nil {
		return err
	}
	if s.events != nil {
		s.events.Publish(realtime.TableMembers, realtime.OpDelete, m, nil)
	}
	if s.activity != nil {
		s.activity.Record(ctx, podID, callerID, "member_removed", targetUserID, "")
	}
	return nil
}

// UpdateMemberRole changes the target member's role. The creator's role is
// immutable, and creator is never assignable.
func (s *Service) UpdateMemberRole(ctx context.Context, podID, callerID, targetUserID string, role rbac.Role) error {
	if _, ok := rbac.Rank(role); !ok || rbac.IsCreator(role) {
		return apperr.Wrapf(apperr.ErrValidation, "role %q is not assignable", role)
	}
	m, err := s.memberships.GetByPodAndUser(ctx, podID, targetUserID)
	if err != nil {
		return err
	}
	if m == nil {
		return apperr.Wrap(apperr.ErrNotFound, "membership not found")
	}
	if rbac.IsCreator(m.Role) {
		return apperr.Wrap(apperr.ErrPermission, "the pod creator's role is immutable")
	}
	if err := s.memberships.UpdateRole(ctx, podID, targetUserID, role); err != nil {
		return err
	}
	updated := *m
	updated.Role = role
	if s.events != nil {
		s.events.Publish(realtime.TableMembers, realtime.OpUpdate, m, &updated)
	}
	if s.activity != nil {
		s.activity.Record(ctx, podID, callerID, "member_role_changed", targetUserID, string(role))
	}
	return nil
}
