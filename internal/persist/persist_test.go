package persist

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func testLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := OpenLocal(filepath.Join(t.TempDir(), "invitio.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLocalPutGet(t *testing.T) {
	s := testLocal(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); err != ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	if err := s.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("get = %q, %v", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); err != ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot after delete, got %v", err)
	}
}

type fakeRemote struct {
	mu      sync.Mutex
	saved   [][]byte
	updated map[string][][]byte
	nextID  string
	missing map[string]bool
	fail    error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{updated: map[string][][]byte{}, missing: map[string]bool{}, nextID: "proj_1"}
}

func (r *fakeRemote) SaveProject(ctx context.Context, payload []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return "", r.fail
	}
	r.saved = append(r.saved, payload)
	return r.nextID, nil
}

func (r *fakeRemote) UpdateProject(ctx context.Context, id string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if r.missing[id] {
		return ErrRemoteNotFound
	}
	r.updated[id] = append(r.updated[id], payload)
	return nil
}

func TestSaverCreatesThenUpdates(t *testing.T) {
	remote := newFakeRemote()
	s := NewSaver(testLocal(t), remote, nil)

	s.Schedule([]byte(`{"v":1}`))
	s.Flush()
	if s.ProjectID() != "proj_1" {
		t.Fatalf("id not adopted: %q", s.ProjectID())
	}

	s.Schedule([]byte(`{"v":2}`))
	s.Flush()
	if len(remote.updated["proj_1"]) != 1 {
		t.Fatalf("update count = %d", len(remote.updated["proj_1"]))
	}
	if len(remote.saved) != 1 {
		t.Fatalf("save count = %d", len(remote.saved))
	}
}

func TestSaverDebounceKeepsLatest(t *testing.T) {
	remote := newFakeRemote()
	s := NewSaver(testLocal(t), remote, nil)

	s.Schedule([]byte(`{"v":1}`))
	s.Schedule([]byte(`{"v":2}`))
	s.Schedule([]byte(`{"v":3}`))
	s.Flush()

	if len(remote.saved) != 1 || !bytes.Equal(remote.saved[0], []byte(`{"v":3}`)) {
		t.Fatalf("saved = %q", remote.saved)
	}
}

func TestSaverRecreatesVanishedProject(t *testing.T) {
	remote := newFakeRemote()
	remote.missing["proj_gone"] = true
	s := NewSaver(testLocal(t), remote, nil)
	s.SetProjectID("proj_gone")

	s.Schedule([]byte(`{"v":1}`))
	s.Flush()

	if s.ProjectID() != "proj_1" {
		t.Fatalf("id after re-create = %q", s.ProjectID())
	}
	if len(remote.saved) != 1 {
		t.Fatalf("save count = %d", len(remote.saved))
	}
}

func TestSaverRemoteFailureKeepsLocalCopy(t *testing.T) {
	remote := newFakeRemote()
	remote.fail = errors.New("backend down")
	s := NewSaver(testLocal(t), remote, nil)

	s.Schedule([]byte(`{"v":1}`))
	s.Flush()

	got, err := s.LoadLocal(context.Background())
	if err != nil || !bytes.Equal(got, []byte(`{"v":1}`)) {
		t.Fatalf("local copy = %q, %v", got, err)
	}
	if s.ProjectID() != "" {
		t.Fatalf("id adopted despite failure: %q", s.ProjectID())
	}
}

func TestSaverWithoutRemote(t *testing.T) {
	s := NewSaver(testLocal(t), nil, nil)
	s.Schedule([]byte(`{"v":1}`))
	s.Flush()

	got, err := s.LoadLocal(context.Background())
	if err != nil || !bytes.Equal(got, []byte(`{"v":1}`)) {
		t.Fatalf("local copy = %q, %v", got, err)
	}
}
