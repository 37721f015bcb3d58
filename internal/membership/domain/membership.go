package domain

import (
	"time"

	"podnotes/backend/internal/platform/rbac"
)

// Membership links a user to a pod with a role. Unique per (pod, user) pair.
// Exactly one membership per pod holds rbac.RoleCreator; it is immutable.
type Membership struct {
	ID        string
	PodID     string
	UserID    string
	Role      rbac.Role
	CreatedAt time.Time
}

// Member is a membership joined with the user's public profile, as shown in
// the member manager.
type Member struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      rbac.Role `json:"role"`
	RoleLabel string    `json:"role_label"`
	JoinedAt  time.Time `json:"joined_at"`
}
