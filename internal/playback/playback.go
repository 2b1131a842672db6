// Package playback drives per-frame opacity and zoom for slide layers. The
// player reads the slides it was started with and the clock; it never writes
// to the scene model. Each tick yields transient per-layer style only.
package playback

import (
	"time"

	"github.com/invitio/invitio/backend-go/internal/document"
)

const (
	// ZoomMin and ZoomMax bound the eased zoom applied during the zoom-in
	// and zoom-out windows.
	ZoomMin = 0.8
	ZoomMax = 1.2
)

// LayerFrame is the transient style computed for one layer on one frame.
type LayerFrame struct {
	Opacity float64 `json:"opacity"`
	Scale   float64 `json:"scale"`
}

// Frame is the output of one tick.
type Frame struct {
	SlideIndex int          `json:"slideIndex"`
	Token      uint64       `json:"token"`
	ElapsedMs  float64      `json:"elapsedMs"`
	Image      *LayerFrame  `json:"image,omitempty"`
	Texts      []LayerFrame `json:"texts"`
	// SlideChanged is set on the tick that entered a new slide (including
	// the wrap back to the first).
	SlideChanged bool `json:"slideChanged"`
}

// Player runs the cooperative playback loop. The caller drives Tick once per
// animation frame; Stop, a slide switch, or teardown invalidates outstanding
// work through the token.
type Player struct {
	slides     []document.Slide
	index      int
	playing    bool
	slideStart time.Time
	token      uint64
	now        func() time.Time

	onSlide func(index int, token uint64)
}

func NewPlayer() *Player {
	return &Player{now: time.Now}
}

// SetClock replaces the wall clock, for tests.
func (p *Player) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// OnSlideChange registers the callback invoked whenever playback enters a
// slide; the editor uses it to load the slide's image.
func (p *Player) OnSlideChange(fn func(index int, token uint64)) {
	p.onSlide = fn
}

// Playing reports the loop state.
func (p *Player) Playing() bool {
	return p.playing
}

// Token identifies the current slide entry; frames carrying an older token
// are stale and must be dropped.
func (p *Player) Token() uint64 {
	return p.token
}

// Start enters the playing state from the given slide. The slides slice is
// read-only for the whole run.
func (p *Player) Start(slides []document.Slide, startIndex int) {
	if len(slides) == 0 {
		return
	}
	if startIndex < 0 || startIndex >= len(slides) {
		startIndex = 0
	}
	p.slides = slides
	p.index = startIndex
	p.playing = true
	p.enterSlide(startIndex)
}

// Stop leaves the playing state. The returned frame restores every layer to
// opacity 1 with no zoom postfix.
func (p *Player) Stop() Frame {
	p.playing = false
	p.token++
	return p.restingFrame()
}

// Toggle flips between idle and playing.
func (p *Player) Toggle(slides []document.Slide, startIndex int) {
	if p.playing {
		p.Stop()
		return
	}
	p.Start(slides, startIndex)
}

func (p *Player) enterSlide(index int) {
	p.enterSlideAt(index, p.now())
}

func (p *Player) enterSlideAt(index int, start time.Time) {
	p.index = index
	p.slideStart = start
	p.token++
	if p.onSlide != nil {
		p.onSlide(index, p.token)
	}
}

func (p *Player) restingFrame() Frame {
	f := Frame{SlideIndex: p.index, Token: p.token, Texts: []LayerFrame{}}
	if p.index >= 0 && p.index < len(p.slides) {
		slide := &p.slides[p.index]
		if slide.Image != nil {
			f.Image = &LayerFrame{Opacity: 1, Scale: 1}
		}
		for range slide.Layers {
			f.Texts = append(f.Texts, LayerFrame{Opacity: 1, Scale: 1})
		}
	}
	return f
}

// Tick computes the frame for the current instant. It returns false when the
// player is idle. Crossing a slide's duration advances to the next slide and
// wraps at the end.
func (p *Player) Tick() (Frame, bool) {
	if !p.playing || p.index >= len(p.slides) {
		return Frame{}, false
	}

	slide := &p.slides[p.index]
	duration := float64(slide.EffectiveDurationMs())
	elapsed := float64(p.now().Sub(p.slideStart)) / float64(time.Millisecond)

	if elapsed >= duration {
		// Carry the overshoot into the next slide so transitions do not
		// drift by a frame interval per loop.
		next := (p.index + 1) % len(p.slides)
		p.enterSlideAt(next, p.slideStart.Add(time.Duration(duration*float64(time.Millisecond))))
		slide = &p.slides[next]
		duration = float64(slide.EffectiveDurationMs())
		elapsed = float64(p.now().Sub(p.slideStart)) / float64(time.Millisecond)

		// A stall longer than the whole slide resynchronizes to the clock
		// instead of fast-forwarding through it.
		if elapsed >= duration {
			p.slideStart = p.now()
			elapsed = 0
		}

		f := p.frameAt(slide, elapsed, duration)
		f.SlideChanged = true
		return f, true
	}

	return p.frameAt(slide, elapsed, duration), true
}

func (p *Player) frameAt(slide *document.Slide, elapsed, duration float64) Frame {
	f := Frame{
		SlideIndex: p.index,
		Token:      p.token,
		ElapsedMs:  elapsed,
		Texts:      make([]LayerFrame, 0, len(slide.Layers)),
	}
	if slide.Image != nil {
		f.Image = &LayerFrame{
			Opacity: opacityAt(elapsed, duration, float64(slide.Image.FadeInMs), float64(slide.Image.FadeOutMs)),
			Scale:   zoomAt(elapsed, duration, float64(slide.Image.ZoomInMs), float64(slide.Image.ZoomOutMs)),
		}
	}
	for i := range slide.Layers {
		layer := &slide.Layers[i]
		f.Texts = append(f.Texts, LayerFrame{
			Opacity: opacityAt(elapsed, duration, float64(layer.FadeInMs), float64(layer.FadeOutMs)),
			Scale:   zoomAt(elapsed, duration, float64(layer.ZoomInMs), float64(layer.ZoomOutMs)),
		})
	}
	return f
}
