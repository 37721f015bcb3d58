package notestore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"podnotes/backend/internal/note/domain"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/platform/rbac"
	"podnotes/backend/internal/realtime"
)

// fakeRemote implements Remote in memory and counts dispatches so tests can
// assert a rejected call never reached the network.
type fakeRemote struct {
	notes    []*domain.Note
	calls    int
	listErr  error
	writeErr error
}

func (f *fakeRemote) ListNotes(ctx context.Context, scope Scope) ([]*domain.Note, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Note, len(f.notes))
	copy(out, f.notes)
	return out, nil
}

func (f *fakeRemote) CreateNote(ctx context.Context, scope Scope, title, content string) (*domain.Note, error) {
	f.calls++
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	now := time.Now().UTC()
	n := &domain.Note{
		ID: uuid.New().String(), Title: title, Content: content,
		PodID: scope.PodID, OwnerID: scope.OwnerID,
		CreatedAt: now, UpdatedAt: now,
	}
	f.notes = append(f.notes, n)
	return n, nil
}

func (f *fakeRemote) UpdateNote(ctx context.Context, id string, patch domain.Patch) (*domain.Note, error) {
	f.calls++
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	for _, n := range f.notes {
		if n.ID == id {
			cp := *n
			if patch.Title != nil {
				cp.Title = *patch.Title
			}
			if patch.Content != nil {
				cp.Content = *patch.Content
			}
			cp.UpdatedAt = time.Now().UTC()
			return &cp, nil
		}
	}
	return nil, apperr.Wrap(apperr.ErrNotFound, "note not found")
}

func (f *fakeRemote) DeleteNote(ctx context.Context, id string) error {
	f.calls++
	return f.writeErr
}

func mustRaw(t *testing.T, n *domain.Note) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal note: %v", err)
	}
	return b
}

func TestStore_Load_PopulatesAndReady(t *testing.T) {
	remote := &fakeRemote{notes: []*domain.Note{
		{ID: "n1", Title: "first", PodID: "pod-1"},
		{ID: "n2", Title: "second", PodID: "pod-1"},
	}}
	s := New(remote, nil, Scope{PodID: "pod-1"}, rbac.RoleEditor, nil)

	if st, _ := s.State(); st != StateUninitialized {
		t.Fatalf("state = %v, want uninitialized", st)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st, _ := s.State(); st != StateReady {
		t.Fatalf("state = %v, want ready", st)
	}
	if got := len(s.Snapshot()); got != 2 {
		t.Fatalf("snapshot len = %d, want 2", got)
	}
}

func TestStore_Load_FailureClearsCache(t *testing.T) {
	remote := &fakeRemote{notes: []*domain.Note{{ID: "n1", Title: "first"}}}
	s := New(remote, nil, Scope{OwnerID: "u1"}, rbac.RoleCreator, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	remote.listErr = errors.New("connection refused")
	err := s.Load(context.Background())
	if err == nil {
		t.Fatal("expected error from failed load")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if st, serr := s.State(); st != StateError || serr == nil {
		t.Fatalf("state = %v err = %v, want error state with cause", st, serr)
	}
	if got := len(s.Snapshot()); got != 0 {
		t.Fatalf("cache not cleared after failed load, len = %d", got)
	}

	// Error -> Loading -> Ready on retry.
	remote.listErr = nil
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("retry Load: %v", err)
	}
	if st, _ := s.State(); st != StateReady {
		t.Fatalf("state after retry = %v, want ready", st)
	}
}

func TestStore_Create_PrependsCanonicalRow(t *testing.T) {
	remote := &fakeRemote{notes: []*domain.Note{{ID: "old", Title: "older"}}}
	s := New(remote, nil, Scope{PodID: "pod-1"}, rbac.RoleEditor, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	n, err := s.Create(context.Background(), "Todo", "buy milk")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.ID == "" {
		t.Fatal("canonical row has no id")
	}
	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}
	if snap[0].ID != n.ID || snap[0].Title != "Todo" || snap[0].Content != "buy milk" {
		t.Fatalf("head = %+v, want created note first", snap[0])
	}

	// A subsequent full load still contains the created id.
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	found := false
	for _, got := range s.Snapshot() {
		if got.ID == n.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("created note missing after reload")
	}
}

func TestStore_Create_ReadOnlyRejectedBeforeDispatch(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, nil, Scope{PodID: "pod-1"}, rbac.RoleReadOnly, nil)

	_, err := s.Create(context.Background(), "Todo", "buy milk")
	if !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("error = %v, want ErrPermission", err)
	}
	if remote.calls != 0 {
		t.Fatalf("remote dispatched %d times, want 0", remote.calls)
	}
	if got := len(s.Snapshot()); got != 0 {
		t.Fatalf("cache mutated on rejected create, len = %d", got)
	}
}

func TestStore_Apply_InsertIdempotentAgainstEcho(t *testing.T) {
	remote := &fakeRemote{}
	s := New(remote, nil, Scope{PodID: "pod-1"}, rbac.RoleEditor, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	n, err := s.Create(context.Background(), "Todo", "buy milk")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The realtime echo of our own insert arrives after the optimistic prepend.
	s.apply(realtime.ChangeEvent{Op: realtime.OpInsert, Table: realtime.TableNotes, New: mustRaw(t, n)})

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot len = %d, want exactly 1 entry for id %s", len(snap), n.ID)
	}
	if snap[0].Content != "buy milk" {
		t.Fatalf("content changed by echo: %q", snap[0].Content)
	}
}

func TestStore_Apply_InsertFromPeerPrepends(t *testing.T) {
	remote := &fakeRemote{notes: []*domain.Note{{ID: "n1", Title: "mine"}}}
	s := New(remote, nil, Scope{PodID: "pod-1"}, rbac.RoleEditor, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	peer := &domain.Note{ID: "n2", Title: "theirs", PodID: "pod-1"}
	s.apply(realtime.ChangeEvent{Op: realtime.OpInsert, Table: realtime.TableNotes, New: mustRaw(t, peer)})

	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].ID != "n2" {
		t.Fatalf("snapshot = %+v, want peer note at head", snap)
	}
}

func TestStore_Apply_UpdateAndDeleteOnAbsentIDAreNoOps(t *testing.T) {
	remote := &fakeRemote{notes: []*domain.Note{{ID: "n1", Title: "keep"}}}
	s := New(remote, nil, Scope{PodID: "pod-1"}, rbac.RoleEditor, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ghost := &domain.Note{ID: "ghost", Title: "gone"}
	s.apply(realtime.ChangeEvent{Op: realtime.OpUpdate, Table: realtime.TableNotes, New: mustRaw(t, ghost)})
	s.apply(realtime.ChangeEvent{Op: realtime.OpDelete, Table: realtime.TableNotes, Old: mustRaw(t, ghost)})

	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].ID != "n1" || snap[0].Title != "keep" {
		t.Fatalf("cache changed by events for absent id: %+v", snap)
	}
}

func TestStore_Apply_UpdateMovesEntryToHead(t *testing.T) {
	remote := &fakeRemote{notes: []*domain.Note{
		{ID: "n1", Title: "newest"},
		{ID: "n2", Title: "oldest"},
	}}
	s := New(remote, nil, Scope{PodID: "pod-1"}, rbac.RoleEditor, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	edited := &domain.Note{ID: "n2", Title: "edited"}
	s.apply(realtime.ChangeEvent{Op: realtime.OpUpdate, Table: realtime.TableNotes, New: mustRaw(t, edited)})

	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].ID != "n2" || snap[0].Title != "edited" {
		t.Fatalf("snapshot = %+v, want edited n2 at head", snap)
	}
}

func TestStore_Apply_MalformedRowIgnored(t *testing.T) {
	remote := &fakeRemote{notes: []*domain.Note{{ID: "n1"}}}
	s := New(remote, nil, Scope{PodID: "pod-1"}, rbac.RoleEditor, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	s.apply(realtime.ChangeEvent{Op: realtime.OpInsert, Table: realtime.TableNotes, New: json.RawMessage(`{"title":"no id"}`)})
	s.apply(realtime.ChangeEvent{Op: realtime.OpInsert, Table: realtime.TableNotes, New: json.RawMessage(`not json`)})

	if got := len(s.Snapshot()); got != 1 {
		t.Fatalf("snapshot len = %d, want 1", got)
	}
}

func TestStore_WriteErrorLeavesCacheUntouched(t *testing.T) {
	remote := &fakeRemote{notes: []*domain.Note{{ID: "n1", Title: "keep", Content: "body"}}}
	s := New(remote, nil, Scope{PodID: "pod-1"}, rbac.RoleAdmin, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	remote.writeErr = apperr.Wrap(apperr.ErrRemote, "backend down")
	title := "changed"
	if _, err := s.Update(context.Background(), "n1", domain.Patch{Title: &title}); err == nil {
		t.Fatal("expected update error")
	}
	if err := s.Remove(context.Background(), "n1"); err == nil {
		t.Fatal("expected remove error")
	}

	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].Title != "keep" {
		t.Fatalf("cache mutated on failed writes: %+v", snap)
	}
}

func TestStore_ClosedStoreDropsLateEvents(t *testing.T) {
	broker := realtime.NewBroker()
	remote := &fakeRemote{}
	s := New(remote, realtime.LocalFeed{Broker: broker}, Scope{PodID: "pod-1"}, rbac.RoleEditor, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Close()

	late := &domain.Note{ID: "late", PodID: "pod-1"}
	s.apply(realtime.ChangeEvent{Op: realtime.OpInsert, Table: realtime.TableNotes, New: mustRaw(t, late)})
	if got := len(s.Snapshot()); got != 0 {
		t.Fatalf("closed store accepted event, len = %d", got)
	}
	if err := s.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Load on closed store: got %v, want ErrClosed", err)
	}
}

func TestStore_ReconcilesThroughBroker(t *testing.T) {
	broker := realtime.NewBroker()
	remote := &fakeRemote{}
	s := New(remote, realtime.LocalFeed{Broker: broker}, Scope{PodID: "pod-1"}, rbac.RoleEditor, nil)
	defer s.Close()
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	peer := &domain.Note{ID: "n9", Title: "from peer", PodID: "pod-1"}
	broker.Publish(realtime.TableNotes, realtime.OpInsert, nil, peer)

	deadline := time.After(2 * time.Second)
	for {
		snap := s.Snapshot()
		if len(snap) == 1 && snap[0].ID == "n9" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("event never reconciled, snapshot = %+v", snap)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
