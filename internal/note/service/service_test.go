package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"podnotes/backend/internal/note/domain"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/platform/rbac"
	"podnotes/backend/internal/realtime"
	"podnotes/backend/internal/server/middleware"
)

type fakeNoteRepo struct {
	mu        sync.Mutex
	notes     map[string]*domain.Note
	history   map[string][]*domain.HistoryEntry
	updateErr error
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{
		notes:   make(map[string]*domain.Note),
		history: make(map[string][]*domain.HistoryEntry),
	}
}

func (r *fakeNoteRepo) GetByID(_ context.Context, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNoteRepo) ListByPod(_ context.Context, podID string) ([]*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Note
	for _, n := range r.notes {
		if n.PodID == podID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeNoteRepo) ListPersonal(_ context.Context, ownerID string) ([]*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Note
	for _, n := range r.notes {
		if n.PodID == "" && n.OwnerID == ownerID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeNoteRepo) Create(_ context.Context, n *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.notes[n.ID] = &cp
	return nil
}

func (r *fakeNoteRepo) UpdateWithHistory(_ context.Context, id, editorID string, patch domain.Patch) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	r.history[id] = append([]*domain.HistoryEntry{{
		ID:              "h-" + id,
		NoteID:          id,
		EditedBy:        editorID,
		ContentSnapshot: n.Content,
	}}, r.history[id]...)
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNoteRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notes, id)
	return nil
}

func (r *fakeNoteRepo) ListHistory(_ context.Context, noteID string) ([]*domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.HistoryEntry(nil), r.history[noteID]...), nil
}

type publishedEvent struct {
	table  string
	op     realtime.Op
	oldRow any
	newRow any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(table string, op realtime.Op, oldRow, newRow any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{table, op, oldRow, newRow})
}

func (p *fakePublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

// staticRoles maps "userID/podID" to a role.
type staticRoles map[string]rbac.Role

func (s staticRoles) GetPodRole(_ context.Context, userID, podID string) (rbac.Role, bool, error) {
	role, ok := s[userID+"/"+podID]
	return role, ok, nil
}

func authedCtx(userID string) context.Context {
	return middleware.WithIdentity(context.Background(), userID, "session-"+userID)
}

func newTestService() (*Service, *fakeNoteRepo, *fakePublisher) {
	repo := newFakeNoteRepo()
	pub := &fakePublisher{}
	roles := staticRoles{
		"alice/pod-1": rbac.RoleCreator,
		"bob/pod-1":   rbac.RoleEditor,
		"carol/pod-1": rbac.RoleReadOnly,
	}
	return NewService(repo, roles, pub, nil), repo, pub
}

func TestCreate_PodNoteRequiresEditor(t *testing.T) {
	svc, repo, _ := newTestService()

	if _, err := svc.Create(authedCtx("carol"), "pod-1", "Draft", "body"); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("read_only create: got %v, want ErrPermission", err)
	}
	repo.mu.Lock()
	count := len(repo.notes)
	repo.mu.Unlock()
	if count != 0 {
		t.Fatalf("rejected create persisted %d notes", count)
	}

	n, err := svc.Create(authedCtx("bob"), "pod-1", "Draft", "body")
	if err != nil {
		t.Fatalf("editor create: %v", err)
	}
	if n.ID == "" || n.OwnerID != "bob" || n.PodID != "pod-1" {
		t.Fatalf("unexpected note %+v", n)
	}
}

func TestCreate_PersonalNoteNeedsNoMembership(t *testing.T) {
	svc, _, pub := newTestService()

	n, err := svc.Create(authedCtx("dave"), "", "Scratch", "body")
	if err != nil {
		t.Fatalf("personal create: %v", err)
	}
	if n.PodID != "" || n.OwnerID != "dave" {
		t.Fatalf("unexpected note %+v", n)
	}
	events := pub.all()
	if len(events) != 1 || events[0].op != realtime.OpInsert {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestCreate_BlankTitleRejected(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Create(authedCtx("bob"), "pod-1", "   ", "body"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestUpdate_SnapshotsHistoryBeforeApplying(t *testing.T) {
	svc, _, pub := newTestService()

	created, err := svc.Create(authedCtx("alice"), "pod-1", "Plan", "v1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	content := "v2"
	updated, err := svc.Update(authedCtx("bob"), created.ID, domain.Patch{Content: &content})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "v2" {
		t.Fatalf("content = %q, want v2", updated.Content)
	}

	hist, err := svc.History(authedCtx("carol"), created.ID)
	if err != nil {
		t.Fatalf("history as member: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("history entries = %d, want 1", len(hist))
	}
	if hist[0].ContentSnapshot != "v1" {
		t.Fatalf("snapshot = %q, want the pre-update content", hist[0].ContentSnapshot)
	}
	if hist[0].EditedBy != "bob" {
		t.Fatalf("edited_by = %q, want bob", hist[0].EditedBy)
	}

	events := pub.all()
	last := events[len(events)-1]
	if last.op != realtime.OpUpdate {
		t.Fatalf("last event op = %q, want UPDATE", last.op)
	}
	oldNote, ok := last.oldRow.(*domain.Note)
	if !ok || oldNote.Content != "v1" {
		t.Fatalf("update event old row = %+v, want pre-update note", last.oldRow)
	}
}

func TestUpdate_FailedSnapshotAppliesNothing(t *testing.T) {
	svc, repo, pub := newTestService()
	created, err := svc.Create(authedCtx("alice"), "pod-1", "Plan", "v1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	eventsBefore := len(pub.all())

	// The repository writes the history snapshot and the patch in one
	// transaction; a snapshot failure must surface the error and leave the
	// note untouched.
	repo.updateErr = errors.New("history insert failed")
	content := "v2"
	if _, err := svc.Update(authedCtx("bob"), created.ID, domain.Patch{Content: &content}); err == nil {
		t.Fatal("expected update to surface the repository error")
	}

	if got := pub.all(); len(got) != eventsBefore {
		t.Fatalf("failed update published %d extra events", len(got)-eventsBefore)
	}
	n, _ := repo.GetByID(context.Background(), created.ID)
	if n == nil || n.Content != "v1" {
		t.Fatalf("note after failed update = %+v, want content v1", n)
	}
	hist, err := repo.ListHistory(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("history entries = %d, want 0", len(hist))
	}
}

func TestUpdate_ReadOnlyRejected(t *testing.T) {
	svc, _, _ := newTestService()
	created, err := svc.Create(authedCtx("alice"), "pod-1", "Plan", "v1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	title := "hijacked"
	if _, err := svc.Update(authedCtx("carol"), created.ID, domain.Patch{Title: &title}); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("got %v, want ErrPermission", err)
	}
}

func TestUpdate_MissingNoteIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	title := "x"
	if _, err := svc.Update(authedCtx("bob"), "nope", domain.Patch{Title: &title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdate_BlankTitlePatchRejected(t *testing.T) {
	svc, _, _ := newTestService()
	created, err := svc.Create(authedCtx("bob"), "pod-1", "Plan", "v1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	blank := "  "
	if _, err := svc.Update(authedCtx("bob"), created.ID, domain.Patch{Title: &blank}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestDelete_PublishesOldRow(t *testing.T) {
	svc, repo, pub := newTestService()
	created, err := svc.Create(authedCtx("alice"), "pod-1", "Plan", "v1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(authedCtx("bob"), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := repo.GetByID(context.Background(), created.ID); n != nil {
		t.Fatal("note still present after delete")
	}

	events := pub.all()
	last := events[len(events)-1]
	if last.op != realtime.OpDelete || last.newRow != nil {
		t.Fatalf("unexpected delete event %+v", last)
	}
	oldNote, ok := last.oldRow.(*domain.Note)
	if !ok || oldNote.ID != created.ID {
		t.Fatalf("delete event old row = %+v", last.oldRow)
	}
}

func TestDelete_ReadOnlyRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	created, err := svc.Create(authedCtx("alice"), "pod-1", "Plan", "v1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(authedCtx("carol"), created.ID); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("got %v, want ErrPermission", err)
	}
	if n, _ := repo.GetByID(context.Background(), created.ID); n == nil {
		t.Fatal("rejected delete removed the note")
	}
}

func TestHistory_PersonalNoteRequiresOwnership(t *testing.T) {
	svc, _, _ := newTestService()
	created, err := svc.Create(authedCtx("dave"), "", "Scratch", "v1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.History(authedCtx("bob"), created.ID); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("got %v, want ErrPermission", err)
	}
	if _, err := svc.History(authedCtx("dave"), created.ID); err != nil {
		t.Fatalf("owner history: %v", err)
	}
}

func TestListForPod_NonMemberRejected(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.ListForPod(authedCtx("dave"), "pod-1"); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("got %v, want ErrPermission", err)
	}
}
