package persist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/invitio/invitio/backend-go/internal/document"
)

// SaveDebounce coalesces rapid edits into one save.
const SaveDebounce = 300 * time.Millisecond

// ErrRemoteNotFound signals that the remote project id no longer exists; the
// saver then re-creates the project and adopts the new id.
var ErrRemoteNotFound = errors.New("persist: remote project not found")

// Remote is the backend side of persistence.
type Remote interface {
	SaveProject(ctx context.Context, payload []byte) (id string, err error)
	UpdateProject(ctx context.Context, id string, payload []byte) error
}

// Saver debounces snapshots and writes them to the local store and, when a
// remote is configured, to the backend. Remote failures are silent apart from
// a log line; the local copy is the safety net.
type Saver struct {
	local  *LocalStore
	remote Remote
	logger *slog.Logger

	mu        sync.Mutex
	projectID string
	pending   []byte
	timer     *time.Timer
	saving    bool
	queued    []byte
}

func NewSaver(local *LocalStore, remote Remote, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{local: local, remote: remote, logger: logger}
}

// SetProjectID installs a known backend id, e.g. after loading a project.
func (s *Saver) SetProjectID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = id
}

// ProjectID returns the backend id adopted by the last save, if any.
func (s *Saver) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

// Schedule queues the snapshot; the debounce window restarts on every call
// and only the latest snapshot survives.
func (s *Saver) Schedule(snapshot []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = snapshot
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(SaveDebounce, s.flushPending)
}

// Flush cancels the debounce and saves any pending snapshot now.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.flushPending()
}

func (s *Saver) flushPending() {
	s.mu.Lock()
	snapshot := s.pending
	s.pending = nil
	s.mu.Unlock()
	if snapshot != nil {
		s.save(snapshot)
	}
}

// save serializes overlapping saves: a save arriving while one is in flight
// parks in a single slot and runs when the first finishes. Intermediate
// snapshots are dropped.
func (s *Saver) save(snapshot []byte) {
	s.mu.Lock()
	if s.saving {
		s.queued = snapshot
		s.mu.Unlock()
		return
	}
	s.saving = true
	s.mu.Unlock()

	for snapshot != nil {
		s.persist(snapshot)
		s.mu.Lock()
		snapshot = s.queued
		s.queued = nil
		if snapshot == nil {
			s.saving = false
		}
		s.mu.Unlock()
	}
}

func (s *Saver) persist(snapshot []byte) {
	ctx := context.Background()

	if s.local != nil {
		if err := s.local.Put(ctx, document.LocalStorageKey, snapshot); err != nil {
			s.logger.Error("local save failed", "error", err)
		}
	}
	if s.remote == nil {
		return
	}

	s.mu.Lock()
	id := s.projectID
	s.mu.Unlock()

	if id != "" {
		err := s.remote.UpdateProject(ctx, id, snapshot)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrRemoteNotFound) {
			s.logger.Warn("remote update failed", "projectId", id, "error", err)
			return
		}
		// The project vanished server-side; fall through and re-create it.
		s.mu.Lock()
		s.projectID = ""
		s.mu.Unlock()
	}

	newID, err := s.remote.SaveProject(ctx, snapshot)
	if err != nil {
		s.logger.Warn("remote save failed", "error", err)
		return
	}
	s.mu.Lock()
	s.projectID = newID
	s.mu.Unlock()
}

// LoadLocal restores the last locally saved snapshot.
func (s *Saver) LoadLocal(ctx context.Context) ([]byte, error) {
	if s.local == nil {
		return nil, ErrNoSnapshot
	}
	return s.local.Get(ctx, document.LocalStorageKey)
}
