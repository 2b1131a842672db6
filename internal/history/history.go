// Package history keeps a bounded stack of JSON project snapshots for
// undo/redo. The lock flag suppresses pushes during programmatic loads
// (viewer bootstrap, remote load, undo/redo application).
package history

import (
	"bytes"
	"sync"
	"time"
)

const (
	// MaxEntries bounds the stack; the oldest snapshot is evicted first.
	MaxEntries = 50

	// DebounceInterval coalesces rapid mutations into one history entry.
	DebounceInterval = 350 * time.Millisecond
)

type Log struct {
	mu     sync.Mutex
	snaps  [][]byte
	pos    int
	locked bool
	max    int

	timer *time.Timer
}

func NewLog() *Log {
	return &Log{pos: -1, max: MaxEntries}
}

// Initialize seeds the stack with a single snapshot at index 0.
func (l *Log) Initialize(snap []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelTimerLocked()
	l.snaps = [][]byte{clone(snap)}
	l.pos = 0
}

// Lock toggles the lock flag. While locked every push is a no-op.
func (l *Log) Lock(locked bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = locked
}

// Locked reports the lock state.
func (l *Log) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

// Push records a snapshot. If the pointer is not at the top the future tail
// is truncated first; when the stack exceeds the bound the oldest entry is
// evicted. Consecutive identical snapshots are collapsed.
func (l *Log) Push(snap []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pushLocked(snap)
}

func (l *Log) pushLocked(snap []byte) {
	if l.locked {
		return
	}
	if l.pos >= 0 && l.pos < len(l.snaps) && bytes.Equal(l.snaps[l.pos], snap) {
		return
	}
	if l.pos < len(l.snaps)-1 {
		l.snaps = l.snaps[:l.pos+1]
	}
	l.snaps = append(l.snaps, clone(snap))
	l.pos = len(l.snaps) - 1
	if len(l.snaps) > l.max {
		over := len(l.snaps) - l.max
		l.snaps = l.snaps[over:]
		l.pos -= over
	}
}

// PushDebounced schedules a push of whatever capture() returns once the
// debounce window closes. Later calls reset the window.
func (l *Log) PushDebounced(capture func() []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelTimerLocked()
	l.timer = time.AfterFunc(DebounceInterval, func() {
		l.Push(capture())
	})
}

// FlushDebounced cancels a pending debounce and pushes immediately.
func (l *Log) FlushDebounced(capture func() []byte) {
	l.mu.Lock()
	l.cancelTimerLocked()
	l.mu.Unlock()
	l.Push(capture())
}

func (l *Log) cancelTimerLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// Undo moves the pointer back and returns that snapshot. Callers lock the
// log, apply the snapshot, and unlock, so the application itself records
// nothing.
func (l *Log) Undo() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pos <= 0 {
		return nil, false
	}
	l.pos--
	return clone(l.snaps[l.pos]), true
}

// Redo moves the pointer forward and returns that snapshot.
func (l *Log) Redo() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pos < 0 || l.pos >= len(l.snaps)-1 {
		return nil, false
	}
	l.pos++
	return clone(l.snaps[l.pos]), true
}

// CanUndo reports whether an older snapshot exists.
func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pos > 0
}

// CanRedo reports whether a truncatable future exists.
func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pos >= 0 && l.pos < len(l.snaps)-1
}

// Len returns the number of stored snapshots.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.snaps)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
