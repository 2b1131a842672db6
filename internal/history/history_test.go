package history

import (
	"bytes"
	"fmt"
	"testing"
)

func snap(i int) []byte {
	return []byte(fmt.Sprintf(`{"version":63,"activeIndex":%d}`, i))
}

func TestInitializeSeedsStack(t *testing.T) {
	l := NewLog()
	l.Initialize(snap(0))
	if l.Len() != 1 || l.CanUndo() || l.CanRedo() {
		t.Fatalf("len=%d canUndo=%v canRedo=%v", l.Len(), l.CanUndo(), l.CanRedo())
	}
}

func TestUndoRedo(t *testing.T) {
	l := NewLog()
	l.Initialize(snap(0))
	l.Push(snap(1))
	l.Push(snap(2))

	got, ok := l.Undo()
	if !ok || !bytes.Equal(got, snap(1)) {
		t.Fatalf("undo = %s ok=%v", got, ok)
	}
	got, ok = l.Undo()
	if !ok || !bytes.Equal(got, snap(0)) {
		t.Fatalf("undo = %s ok=%v", got, ok)
	}
	if _, ok := l.Undo(); ok {
		t.Fatal("undo past the bottom succeeded")
	}

	got, ok = l.Redo()
	if !ok || !bytes.Equal(got, snap(1)) {
		t.Fatalf("redo = %s ok=%v", got, ok)
	}
}

func TestPushTruncatesFuture(t *testing.T) {
	l := NewLog()
	l.Initialize(snap(0))
	l.Push(snap(1))
	l.Push(snap(2))
	l.Undo()
	l.Push(snap(3))

	if l.CanRedo() {
		t.Fatal("redo available after divergent push")
	}
	got, _ := l.Undo()
	if !bytes.Equal(got, snap(1)) {
		t.Fatalf("undo after truncate = %s", got)
	}
}

func TestBoundedEviction(t *testing.T) {
	l := NewLog()
	l.Initialize(snap(0))
	for i := 1; i <= MaxEntries+10; i++ {
		l.Push(snap(i))
	}
	if l.Len() != MaxEntries {
		t.Fatalf("len = %d, want %d", l.Len(), MaxEntries)
	}

	// Walk all the way back; the oldest surviving snapshot is not snap(0).
	var last []byte
	for {
		got, ok := l.Undo()
		if !ok {
			break
		}
		last = got
	}
	if bytes.Equal(last, snap(0)) {
		t.Fatal("oldest entry was not evicted")
	}
}

func TestLockSuppressesPush(t *testing.T) {
	l := NewLog()
	l.Initialize(snap(0))
	l.Lock(true)
	l.Push(snap(1))
	if l.Len() != 1 {
		t.Fatalf("push recorded while locked, len=%d", l.Len())
	}
	l.Lock(false)
	l.Push(snap(1))
	if l.Len() != 2 {
		t.Fatalf("push after unlock, len=%d", l.Len())
	}
}

func TestDuplicateSnapshotCollapsed(t *testing.T) {
	l := NewLog()
	l.Initialize(snap(0))
	l.Push(snap(0))
	if l.Len() != 1 {
		t.Fatalf("duplicate snapshot recorded, len=%d", l.Len())
	}
}
