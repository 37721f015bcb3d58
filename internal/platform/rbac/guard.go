package rbac

import (
	"context"

	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/server/middleware"
)

// PodRoleGetter resolves the caller's role in a pod. Implemented by the
// membership repository; returns ok=false when the user is not a member.
type PodRoleGetter interface {
	GetPodRole(ctx context.Context, userID, podID string) (Role, bool, error)
}

// RequirePodMember ensures the caller is authenticated and a member of podID (any role).
// Returns (userID, role, nil) on success; apperr.ErrAuth or apperr.ErrPermission on failure.
func RequirePodMember(ctx context.Context, getter PodRoleGetter, podID string) (string, Role, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok || userID == "" || podID == "" {
		return "", "", apperr.Wrap(apperr.ErrAuth, "user and pod context required")
	}
	role, member, err := getter.GetPodRole(ctx, userID, podID)
	if err != nil {
		return "", "", apperr.Wrap(apperr.ErrRemote, "failed to resolve membership")
	}
	if !member {
		return "", "", apperr.Wrap(apperr.ErrPermission, "not a member of this pod")
	}
	return userID, role, nil
}

// RequirePodEditor ensures the caller is a member of podID with at least editor privilege.
func RequirePodEditor(ctx context.Context, getter PodRoleGetter, podID string) (string, Role, error) {
	userID, role, err := RequirePodMember(ctx, getter, podID)
	if err != nil {
		return "", "", err
	}
	if !CanEditContent(role) {
		return "", "", apperr.Wrap(apperr.ErrPermission, "editor role or higher required")
	}
	return userID, role, nil
}

// RequirePodAdmin ensures the caller is a member of podID with at least admin privilege.
func RequirePodAdmin(ctx context.Context, getter PodRoleGetter, podID string) (string, Role, error) {
	userID, role, err := RequirePodMember(ctx, getter, podID)
	if err != nil {
		return "", "", err
	}
	if !CanManageMembers(role) {
		return "", "", apperr.Wrap(apperr.ErrPermission, "pod admin or creator required")
	}
	return userID, role, nil
}
