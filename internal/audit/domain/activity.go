package domain

import "time"

// Activity represents one recorded action inside a pod, shown in the pod's
// activity feed. PodID is empty for actions outside any pod.
type Activity struct {
	ID        string    `json:"id"`
	PodID     string    `json:"pod_id,omitempty"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
