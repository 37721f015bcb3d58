package domain

import (
	"errors"
	"time"

	"podnotes/backend/internal/platform/rbac"
)

// Pod is a shared workspace containing notes and memberships.
type Pod struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate validates the pod for persistence. Returns an error describing the first validation failure.
func (p *Pod) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.CreatedBy == "" {
		return errors.New("created_by is required")
	}
	return nil
}

// PodWithRole is a pod joined with the viewing member's role, as listed on a
// user's dashboard.
type PodWithRole struct {
	Pod
	Role rbac.Role `json:"role"`
}
