// Package realtime delivers INSERT/UPDATE/DELETE change notifications for
// subscribed tables, scoped to a pod or to a user's personal notes. The broker
// fans events out in-process; the websocket handler and client carry the same
// events across the wire.
package realtime

import "encoding/json"

// Op is the kind of change an event describes.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Tables that emit change events.
const (
	TableNotes   = "notes"
	TableMembers = "pod_members"
)

// ChangeEvent is one change notification. Old carries the pre-change row for
// UPDATE and DELETE; New carries the post-change row for INSERT and UPDATE.
// Rows are raw JSON so the stream stays table-agnostic; consumers decode and
// validate at the point the row crosses into their cache.
type ChangeEvent struct {
	Op    Op              `json:"op"`
	Table string          `json:"table"`
	Old   json.RawMessage `json:"old,omitempty"`
	New   json.RawMessage `json:"new,omitempty"`
}

// rowScope is the subset of row fields used for subscription matching.
type rowScope struct {
	PodID   string `json:"pod_id"`
	OwnerID string `json:"owner_id"`
}

// scope returns the pod and owner the event belongs to, preferring the new row.
func (e *ChangeEvent) scope() rowScope {
	var s rowScope
	if len(e.New) > 0 && json.Unmarshal(e.New, &s) == nil && (s.PodID != "" || s.OwnerID != "") {
		return s
	}
	if len(e.Old) > 0 {
		_ = json.Unmarshal(e.Old, &s)
	}
	return s
}

// Publisher is implemented by the broker and consumed by services that emit
// change events after successful writes. oldRow and newRow may be nil and are
// marshalled to JSON; rows that fail to marshal are dropped with a log entry.
type Publisher interface {
	Publish(table string, op Op, oldRow, newRow any)
}
