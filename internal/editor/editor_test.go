package editor

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/invitio/invitio/backend-go/internal/document"
)

type fakeSaver struct {
	scheduled [][]byte
	flushed   int
}

func (s *fakeSaver) Schedule(snap []byte) { s.scheduled = append(s.scheduled, snap) }
func (s *fakeSaver) Flush()               { s.flushed++ }

func newContext(t *testing.T) *Context {
	t.Helper()
	return New(document.Size{Width: 500, Height: 500}, nil)
}

func TestBuildApplyRoundTrip(t *testing.T) {
	c := newContext(t)
	c.UploadImage("blob:a", "", 200, 100)
	c.AddTextLayer("hello")
	c.FlushPending()

	before := c.Snapshot()
	c.ApplyJSON(before)
	after := c.Snapshot()
	if !bytes.Equal(before, after) {
		t.Fatalf("apply(build(p)) changed the project:\n%s\n%s", before, after)
	}
}

func TestUndoRedoRestoresExactState(t *testing.T) {
	c := newContext(t)
	c.UploadImage("blob:a", "", 200, 100)
	c.FlushPending()
	withImage := c.Snapshot()

	c.Engine().SetCenter(100, 120)
	c.CommitInteraction()
	c.FlushPending()
	moved := c.Snapshot()

	if !c.Undo() {
		t.Fatal("undo failed")
	}
	if got := c.Snapshot(); !bytes.Equal(got, withImage) {
		t.Fatalf("undo state mismatch:\n%s\n%s", got, withImage)
	}

	if !c.Redo() {
		t.Fatal("redo failed")
	}
	if got := c.Snapshot(); !bytes.Equal(got, moved) {
		t.Fatalf("redo state mismatch:\n%s\n%s", got, moved)
	}
}

func TestUndoDoesNotRecordItself(t *testing.T) {
	c := newContext(t)
	c.AddTextLayer("one")
	c.FlushPending()
	lenBefore := c.History().Len()

	c.Undo()
	c.FlushPending()
	if c.History().Len() != lenBefore {
		t.Fatalf("undo grew history: %d -> %d", lenBefore, c.History().Len())
	}
}

func TestSlideOperations(t *testing.T) {
	c := newContext(t)
	c.AddSlide()
	if c.SlideCount() != 2 || c.ActiveIndex() != 1 {
		t.Fatalf("add: count=%d active=%d", c.SlideCount(), c.ActiveIndex())
	}

	c.AddTextLayer("dup me")
	c.DuplicateSlide()
	if c.SlideCount() != 3 || c.ActiveIndex() != 2 {
		t.Fatalf("dup: count=%d active=%d", c.SlideCount(), c.ActiveIndex())
	}
	p := c.BuildProject()
	if len(p.Slides[2].Layers) != 1 || p.Slides[2].Layers[0].Text != "dup me" {
		t.Fatalf("duplicate missing layer: %+v", p.Slides[2])
	}

	if err := c.DeleteSlide(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if c.SlideCount() != 2 || c.ActiveIndex() != 1 {
		t.Fatalf("delete: count=%d active=%d", c.SlideCount(), c.ActiveIndex())
	}
}

func TestUndoWalkAcrossSlideOperations(t *testing.T) {
	c := newContext(t)
	c.FlushPending()
	initial := c.Snapshot()

	c.AddSlide()
	c.FlushPending()
	c.AddTextLayer("Hello")
	c.FlushPending()
	c.DuplicateSlide()
	c.FlushPending()
	duplicated := c.Snapshot()
	if err := c.DeleteSlide(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	c.FlushPending()

	for i := 0; i < 4; i++ {
		if !c.Undo() {
			t.Fatalf("undo %d failed", i+1)
		}
	}
	if got := c.Snapshot(); !bytes.Equal(got, initial) {
		t.Fatalf("undo walk did not restore the initial project:\n%s\n%s", got, initial)
	}
	if c.SlideCount() != 1 {
		t.Fatalf("count = %d", c.SlideCount())
	}

	for i := 0; i < 3; i++ {
		if !c.Redo() {
			t.Fatalf("redo %d failed", i+1)
		}
	}
	if got := c.Snapshot(); !bytes.Equal(got, duplicated) {
		t.Fatalf("redo walk did not restore the duplicated state:\n%s\n%s", got, duplicated)
	}
}

func TestDeleteLastSlideRefused(t *testing.T) {
	c := newContext(t)
	if err := c.DeleteSlide(); err != ErrLastSlide {
		t.Fatalf("expected ErrLastSlide, got %v", err)
	}
}

func TestSlideSwitchWritesBackTransform(t *testing.T) {
	c := newContext(t)
	c.UploadImage("blob:a", "", 100, 100)
	c.Engine().SetCenter(111, 222)
	c.AddSlide()

	p := c.BuildProject()
	img := p.Slides[0].Image
	if img == nil || !img.HasPercent() {
		t.Fatalf("slide 0 image not written back: %+v", img)
	}
	if math.Abs(*img.CXPercent-22.2) > 1e-9 || math.Abs(*img.CYPercent-44.4) > 1e-9 {
		t.Fatalf("percent position = %v,%v", *img.CXPercent, *img.CYPercent)
	}
}

func TestSaverReceivesSnapshots(t *testing.T) {
	c := newContext(t)
	s := &fakeSaver{}
	c.SetSaver(s)

	c.AddTextLayer("x")
	if len(s.scheduled) == 0 {
		t.Fatal("mutation did not schedule a save")
	}
	var p document.Project
	if err := json.Unmarshal(s.scheduled[len(s.scheduled)-1], &p); err != nil {
		t.Fatalf("scheduled snapshot not valid JSON: %v", err)
	}
	if len(p.Slides[0].Layers) != 1 {
		t.Fatalf("snapshot missing layer: %+v", p.Slides[0])
	}
}

func TestFlushPendingLandsDebouncedWork(t *testing.T) {
	c := newContext(t)
	s := &fakeSaver{}
	c.SetSaver(s)

	c.AddTextLayer("closing time")
	lenBefore := c.History().Len()

	// The final best-effort save on page close must not wait out the
	// debounce windows.
	c.FlushPending()
	if s.flushed != 1 {
		t.Fatalf("saver flushed %d times", s.flushed)
	}
	if c.History().Len() != lenBefore+1 {
		t.Fatalf("history len = %d, want %d", c.History().Len(), lenBefore+1)
	}
	if !c.History().CanUndo() {
		t.Fatal("flushed mutation is not undoable")
	}
}

func TestStaleUploadTokenDropped(t *testing.T) {
	c := newContext(t)
	token := c.UploadImage("blob:a", "", 100, 100)
	c.AddSlide() // bumps the switch token

	if c.AttachBackendImage(token, "img_1", "/assets/img_1", "") {
		t.Fatal("stale token accepted")
	}
}

func TestApplyBrokenPayloadFailSoft(t *testing.T) {
	c := newContext(t)
	// Missing slides and out-of-range activeIndex must normalize, not panic.
	if err := c.ApplyJSON([]byte(`{"version":1,"activeIndex":9}`)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.SlideCount() != 1 || c.ActiveIndex() != 0 {
		t.Fatalf("normalize failed: count=%d active=%d", c.SlideCount(), c.ActiveIndex())
	}
}
