// Package notestore maintains a locally observable snapshot of the notes
// visible in one scope (a single pod, or the current user's personal notes).
// The snapshot is populated by an explicit fetch, mutated through CRUD calls
// against a remote store, and reconciled against an asynchronous change feed
// so concurrent edits from other collaborators appear without a reload.
package notestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"podnotes/backend/internal/note/domain"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/platform/rbac"
	"podnotes/backend/internal/realtime"
)

// State is the lifecycle phase of a store instance.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Scope selects which notes the store tracks. A non-empty PodID tracks that
// pod's notes; otherwise OwnerID tracks the user's personal notes.
type Scope struct {
	PodID   string
	OwnerID string
}

func (s Scope) filter() realtime.Filter {
	if s.PodID != "" {
		return realtime.Filter{PodID: s.PodID}
	}
	return realtime.Filter{OwnerID: s.OwnerID}
}

// ErrClosed is returned when an operation is attempted on a closed store.
var ErrClosed = errors.New("notestore: store is closed")

// FetchError wraps a failed full fetch so callers can distinguish a degraded
// view from a mutation failure.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch failed: %v", e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// Remote is the request/response side of the remote store.
type Remote interface {
	ListNotes(ctx context.Context, scope Scope) ([]*domain.Note, error)
	CreateNote(ctx context.Context, scope Scope, title, content string) (*domain.Note, error)
	UpdateNote(ctx context.Context, id string, patch domain.Patch) (*domain.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Feed is the change-notification side. Both realtime.LocalFeed and
// realtime.Client satisfy it.
type Feed interface {
	Subscribe(table string, f realtime.Filter) (*realtime.Subscription, error)
}

// Store tracks one scope's notes. Create a Store per scope; switching scope
// means closing the old store and building a new one so the old subscription
// cannot leak events into the new cache.
type Store struct {
	remote Remote
	feed   Feed
	scope  Scope
	role   rbac.Role
	log    *logrus.Logger

	mu     sync.Mutex
	state  State
	err    error
	notes  []*domain.Note
	sub    *realtime.Subscription
	closed bool
}

// New returns an uninitialized store. role is the caller's role in the scoped
// pod and gates mutations before any network dispatch; for a personal scope
// pass rbac.RoleCreator. feed may be nil to disable reconciliation.
func New(remote Remote, feed Feed, scope Scope, role rbac.Role, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{remote: remote, feed: feed, scope: scope, role: role, log: log}
}

// State returns the current lifecycle phase and, in StateError, the cause.
func (s *Store) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

// Snapshot returns a copy of the cached notes in display order.
func (s *Store) Snapshot() []*domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Load fetches the full collection for the scope, ordered updated_at
// descending, and replaces the cache with it. On failure the cache is cleared
// and the store enters StateError; the view degrades to empty rather than
// showing stale rows. The change subscription is established on the first
// successful load.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.state = StateLoading
	s.mu.Unlock()

	notes, err := s.remote.ListNotes(ctx, s.scope)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err != nil {
		s.notes = nil
		s.state = StateError
		s.err = &FetchError{Err: err}
		return s.err
	}
	s.notes = notes
	s.state = StateReady
	s.err = nil
	if s.sub == nil && s.feed != nil {
		sub, serr := s.feed.Subscribe(realtime.TableNotes, s.scope.filter())
		if serr != nil {
			s.log.WithError(serr).Warn("notestore: change subscription failed, cache will not reconcile")
		} else {
			s.sub = sub
			go s.reconcile(sub)
		}
	}
	return nil
}

// Create inserts a note through the remote store and places the returned
// canonical row at the head of the cache. The realtime echo of this insert is
// discarded by id, so the row appears exactly once.
func (s *Store) Create(ctx context.Context, title, content string) (*domain.Note, error) {
	if err := s.requireEdit(); err != nil {
		return nil, err
	}
	n, err := s.remote.CreateNote(ctx, s.scope, title, content)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.indexOf(n.ID) < 0 {
		s.notes = append([]*domain.Note{n}, s.notes...)
	}
	return n, nil
}

// Update patches a note remotely and replaces the cached entry with the
// canonical result, moving it to the head since its updated_at is now newest.
// The cache is untouched on failure.
func (s *Store) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Note, error) {
	if err := s.requireEdit(); err != nil {
		return nil, err
	}
	n, err := s.remote.UpdateNote(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.replaceAtHead(n)
	}
	return n, nil
}

// Remove deletes a note remotely and drops it from the cache. The cache is
// untouched on failure.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.requireEdit(); err != nil {
		return err
	}
	if err := s.remote.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.deleteByID(id)
	}
	return nil
}

// Close cancels the change subscription and discards any late results from
// in-flight calls. A closed store never mutates its cache again.
func (s *Store) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.closed = true
	s.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// requireEdit gates mutations on the caller's role before any network
// dispatch. The server enforces the same rule; this check only saves the
// round trip.
func (s *Store) requireEdit() error {
	if !rbac.CanEditContent(s.role) {
		return apperr.Wrapf(apperr.ErrPermission, "role %q cannot edit notes", s.role)
	}
	return nil
}

// reconcile drains the subscription, applying events in delivery order until
// the channel closes.
func (s *Store) reconcile(sub *realtime.Subscription) {
	for ev := range sub.C {
		s.apply(ev)
	}
}

// apply merges one change event into the cache. INSERT inserts at head if the
// id is absent, UPDATE replaces a present entry and moves it to head, DELETE
// removes a present entry. Events for absent ids are no-ops, which makes the
// merge idempotent against the echoes of this store's own mutations.
func (s *Store) apply(ev realtime.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	switch ev.Op {
	case realtime.OpInsert:
		n := decodeNote(ev.New)
		if n == nil {
			return
		}
		if s.indexOf(n.ID) < 0 {
			s.notes = append([]*domain.Note{n}, s.notes...)
		}
	case realtime.OpUpdate:
		n := decodeNote(ev.New)
		if n == nil {
			return
		}
		if s.indexOf(n.ID) >= 0 {
			s.replaceAtHead(n)
		}
	case realtime.OpDelete:
		n := decodeNote(ev.Old)
		if n == nil {
			return
		}
		s.deleteByID(n.ID)
	}
}

// indexOf and the helpers below assume s.mu is held.

func (s *Store) indexOf(id string) int {
	for i, n := range s.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) replaceAtHead(n *domain.Note) {
	s.deleteByID(n.ID)
	s.notes = append([]*domain.Note{n}, s.notes...)
}

func (s *Store) deleteByID(id string) {
	if i := s.indexOf(id); i >= 0 {
		s.notes = append(s.notes[:i], s.notes[i+1:]...)
	}
}

// decodeNote rejects malformed rows at the boundary instead of letting blank
// fields into the cache.
func decodeNote(raw json.RawMessage) *domain.Note {
	if len(raw) == 0 {
		return nil
	}
	var n domain.Note
	if err := json.Unmarshal(raw, &n); err != nil || n.ID == "" {
		return nil
	}
	return &n
}
