package playback

import (
	"math"
	"testing"
	"time"

	"github.com/invitio/invitio/backend-go/internal/document"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func twoSlideProject() []document.Slide {
	work := document.Size{Width: 1000, Height: 1000}
	s1 := document.NewSlide(work)
	s1.DurationMs = 1000
	s1.Layers = append(s1.Layers, document.TextLayer{Text: "one", FadeInMs: 200, FadeOutMs: 200})
	s2 := document.NewSlide(work)
	s2.DurationMs = 2000
	s2.Layers = append(s2.Layers, document.TextLayer{Text: "two", FadeInMs: 200, FadeOutMs: 200})
	return []document.Slide{s1, s2}
}

func startPlayer(t *testing.T) (*Player, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewPlayer()
	p.SetClock(clock.now)
	p.Start(twoSlideProject(), 0)
	return p, clock
}

func TestEaseInOutEndpoints(t *testing.T) {
	if easeInOut(0) != 0 || easeInOut(1) != 1 {
		t.Fatalf("ease endpoints: %v, %v", easeInOut(0), easeInOut(1))
	}
	if got := easeInOut(0.5); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("ease midpoint = %v, want 0.5", got)
	}
	if easeInOut(-2) != 0 || easeInOut(3) != 1 {
		t.Fatal("ease input not clamped")
	}
}

func TestTwoSlidePlayback(t *testing.T) {
	p, clock := startPlayer(t)

	// t=100ms: halfway through the 200ms fade-in, opacity ~0.5.
	clock.advance(100 * time.Millisecond)
	f, ok := p.Tick()
	if !ok || f.SlideIndex != 0 {
		t.Fatalf("frame at 100ms: %+v ok=%v", f, ok)
	}
	if math.Abs(f.Texts[0].Opacity-0.5) > 1e-9 {
		t.Fatalf("fade-in opacity %v, want 0.5", f.Texts[0].Opacity)
	}

	// t=900ms: halfway through the trailing 200ms fade-out.
	clock.advance(800 * time.Millisecond)
	f, _ = p.Tick()
	if math.Abs(f.Texts[0].Opacity-0.5) > 1e-9 {
		t.Fatalf("fade-out opacity %v, want 0.5", f.Texts[0].Opacity)
	}

	// t=1000ms: advance to slide 2.
	clock.advance(100 * time.Millisecond)
	f, _ = p.Tick()
	if f.SlideIndex != 1 || !f.SlideChanged {
		t.Fatalf("expected slide switch, got %+v", f)
	}

	// t=3000ms: slide 2's 2000ms elapse, wrap to slide 1.
	clock.advance(2 * time.Second)
	f, _ = p.Tick()
	if f.SlideIndex != 0 || !f.SlideChanged {
		t.Fatalf("expected wrap to slide 0, got %+v", f)
	}
}

func TestSlideAdvanceCarriesOvershoot(t *testing.T) {
	p, clock := startPlayer(t)

	// The frame lands 16ms past the slide boundary; the overshoot belongs
	// to the next slide, not to a restarted clock.
	clock.advance(1016 * time.Millisecond)
	f, ok := p.Tick()
	if !ok || f.SlideIndex != 1 || !f.SlideChanged {
		t.Fatalf("frame: %+v ok=%v", f, ok)
	}
	if math.Abs(f.ElapsedMs-16) > 1e-9 {
		t.Fatalf("elapsed = %v, want 16", f.ElapsedMs)
	}

	// Slide 2 was entered at the t=1000 boundary, so its 2000ms end stays
	// pinned at t=3000 regardless of where frames landed.
	clock.advance(1992 * time.Millisecond)
	f, _ = p.Tick()
	if f.SlideIndex != 0 || !f.SlideChanged {
		t.Fatalf("expected wrap, got %+v", f)
	}
	if math.Abs(f.ElapsedMs-8) > 1e-9 {
		t.Fatalf("elapsed = %v, want 8", f.ElapsedMs)
	}
}

func TestLongStallResynchronizes(t *testing.T) {
	p, clock := startPlayer(t)

	// A stall longer than the next slide must not fast-forward through it.
	clock.advance(3500 * time.Millisecond)
	f, _ := p.Tick()
	if f.SlideIndex != 1 || !f.SlideChanged {
		t.Fatalf("frame: %+v", f)
	}
	if f.ElapsedMs != 0 {
		t.Fatalf("elapsed = %v, want 0", f.ElapsedMs)
	}
}

func TestFrameStyleBounds(t *testing.T) {
	work := document.Size{Width: 100, Height: 100}
	s := document.NewSlide(work)
	s.DurationMs = 1000
	s.Image = &document.ImageLayer{NatW: 10, NatH: 10, Scale: 1, SignX: 1, SignY: 1,
		FadeInMs: 300, FadeOutMs: 300, ZoomInMs: 300, ZoomOutMs: 300}
	s.Layers = append(s.Layers, document.TextLayer{Text: "x", FadeInMs: 100, ZoomOutMs: 500})

	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewPlayer()
	p.SetClock(clock.now)
	p.Start([]document.Slide{s}, 0)

	for i := 0; i < 100; i++ {
		clock.advance(10 * time.Millisecond)
		f, ok := p.Tick()
		if !ok {
			t.Fatal("player stopped unexpectedly")
		}
		frames := append([]LayerFrame{*f.Image}, f.Texts...)
		for _, lf := range frames {
			if lf.Opacity < 0 || lf.Opacity > 1 {
				t.Fatalf("opacity out of range: %v", lf.Opacity)
			}
			if lf.Scale < ZoomMin || lf.Scale > ZoomMax {
				t.Fatalf("scale out of range: %v", lf.Scale)
			}
		}
	}
}

func TestZoomWindows(t *testing.T) {
	if got := zoomAt(0, 1000, 400, 0); got != ZoomMin {
		t.Fatalf("zoom-in start %v, want %v", got, ZoomMin)
	}
	if got := zoomAt(500, 1000, 400, 0); got != 1 {
		t.Fatalf("mid-slide zoom %v, want 1", got)
	}
	if got := zoomAt(1000, 1000, 0, 400); math.Abs(got-ZoomMax) > 1e-9 {
		t.Fatalf("zoom-out end %v, want %v", got, ZoomMax)
	}
}

func TestStopRestoresRestingStyle(t *testing.T) {
	p, clock := startPlayer(t)
	clock.advance(100 * time.Millisecond)
	p.Tick()

	tokenBefore := p.Token()
	f := p.Stop()
	if p.Playing() {
		t.Fatal("still playing after Stop")
	}
	if f.Token <= tokenBefore {
		t.Fatal("Stop did not invalidate outstanding frames")
	}
	for _, lf := range f.Texts {
		if lf.Opacity != 1 || lf.Scale != 1 {
			t.Fatalf("resting frame not restored: %+v", lf)
		}
	}

	if _, ok := p.Tick(); ok {
		t.Fatal("Tick produced a frame while idle")
	}
}

func TestToggle(t *testing.T) {
	p := NewPlayer()
	slides := twoSlideProject()
	p.Toggle(slides, 0)
	if !p.Playing() {
		t.Fatal("toggle did not start playback")
	}
	p.Toggle(slides, 0)
	if p.Playing() {
		t.Fatal("toggle did not stop playback")
	}
}

func TestSlideChangeCallbackTokens(t *testing.T) {
	p, clock := startPlayer(t)
	var tokens []uint64
	p.OnSlideChange(func(index int, token uint64) {
		tokens = append(tokens, token)
	})

	clock.advance(1100 * time.Millisecond)
	p.Tick()
	if len(tokens) != 1 {
		t.Fatalf("expected one slide-change callback, got %d", len(tokens))
	}
	if tokens[0] != p.Token() {
		t.Fatalf("callback token %d != current %d", tokens[0], p.Token())
	}
}

func TestIllFormedTimingsStayDefined(t *testing.T) {
	// fadeIn+fadeOut > duration: opacity must stay within [0,1] throughout.
	for elapsed := 0.0; elapsed <= 1000; elapsed += 50 {
		o := opacityAt(elapsed, 1000, 800, 800)
		if o < 0 || o > 1 {
			t.Fatalf("opacity %v at %vms", o, elapsed)
		}
	}
}
