// Package editor is the orchestration layer between the document model, the
// transform engine, history, and playback. Every mutation funnels through the
// Context so write-back, persistence, and history stay consistent.
package editor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/invitio/invitio/backend-go/internal/document"
	"github.com/invitio/invitio/backend-go/internal/engine"
	"github.com/invitio/invitio/backend-go/internal/history"
	"github.com/invitio/invitio/backend-go/internal/playback"
)

var ErrLastSlide = errors.New("editor: cannot delete the last slide")

// Saver receives serialized project snapshots after each mutation. The
// persistence adapter debounces and fans out to local and remote storage.
type Saver interface {
	Schedule(snapshot []byte)
	Flush()
}

// Context holds the live editing session for one project.
type Context struct {
	mu      sync.Mutex
	project *document.Project
	work    document.Size
	engine  *engine.Engine
	history *history.Log
	player  *playback.Player
	saver   Saver
	logger  *slog.Logger

	// onApplied fires after a project replaces the session state, with the
	// compiled render state of the active slide.
	onApplied func(*engine.RenderState)
}

func New(work document.Size, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Context{
		project: document.NewEmptyProject(work),
		work:    work,
		engine:  engine.New(work.Width, work.Height, logger),
		history: history.NewLog(),
		player:  playback.NewPlayer(),
		logger:  logger,
	}
	c.engine.LoadSlide(c.activeSlide())
	c.history.Initialize(c.snapshotLocked())
	c.player.OnSlideChange(func(index int, token uint64) {
		c.switchSlideForPlayback(index)
	})
	return c
}

// SetSaver installs the persistence adapter.
func (c *Context) SetSaver(s Saver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saver = s
}

// OnApplied registers the callback fired whenever a whole project is applied
// (load, undo, redo, remote fetch).
func (c *Context) OnApplied(fn func(*engine.RenderState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onApplied = fn
}

// Engine exposes the transform engine for interaction handlers. Mutations
// made through it must be committed with CommitInteraction.
func (c *Context) Engine() *engine.Engine { return c.engine }

// Player exposes the playback loop.
func (c *Context) Player() *playback.Player { return c.player }

// History exposes the undo log, mainly for CanUndo/CanRedo UI state.
func (c *Context) History() *history.Log { return c.history }

func (c *Context) activeSlide() *document.Slide {
	if c.project.ActiveIndex < 0 || c.project.ActiveIndex >= len(c.project.Slides) {
		return nil
	}
	return &c.project.Slides[c.project.ActiveIndex]
}

// ActiveIndex returns the index of the slide being edited.
func (c *Context) ActiveIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.project.ActiveIndex
}

// SlideCount returns the number of slides.
func (c *Context) SlideCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.project.Slides)
}

// Render compiles the active slide without mutating anything.
func (c *Context) Render() *engine.RenderState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Compile(c.activeSlide())
}

// BuildProject writes the canonical transform back onto the active slide and
// returns a deep copy of the full project.
func (c *Context) BuildProject() *document.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildProjectLocked()
}

func (c *Context) buildProjectLocked() *document.Project {
	c.engine.SetTransforms(c.activeSlide(), true)
	return c.project.Clone()
}

// Snapshot serializes the current project, active-slide transform included.
func (c *Context) Snapshot() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() []byte {
	data, err := json.Marshal(c.buildProjectLocked())
	if err != nil {
		c.logger.Error("snapshot failed", "error", err)
		return nil
	}
	return data
}

// ApplyProject replaces the session state with the given project. The input
// is normalized fail-soft, so partially broken payloads still load.
func (c *Context) ApplyProject(p *document.Project) {
	if p == nil {
		return
	}
	c.mu.Lock()
	p = p.Clone()
	p.Normalize(c.work)
	c.project = p
	c.engine.LoadSlide(c.activeSlide())
	rs := c.engine.SetTransforms(c.activeSlide(), true)
	fn := c.onApplied
	c.mu.Unlock()
	if fn != nil {
		fn(rs)
	}
}

// ApplyJSON decodes and applies a serialized project.
func (c *Context) ApplyJSON(data []byte) error {
	var p document.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	c.ApplyProject(&p)
	return nil
}

// LoadInitial applies a project and reseeds history without recording the
// load itself as an undoable step.
func (c *Context) LoadInitial(p *document.Project) {
	c.history.Lock(true)
	c.ApplyProject(p)
	c.history.Lock(false)
	c.history.Initialize(c.Snapshot())
}

// SetActiveIndex switches the slide being edited. The outgoing slide's
// transform is written back first.
func (c *Context) SetActiveIndex(index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.project.Slides) || index == c.project.ActiveIndex {
		c.mu.Unlock()
		return
	}
	c.engine.SetTransforms(c.activeSlide(), true)
	c.project.ActiveIndex = index
	c.engine.LoadSlide(c.activeSlide())
	c.mu.Unlock()
	c.recordChange()
}

// switchSlideForPlayback follows the player across slides without recording
// history for each hop.
func (c *Context) switchSlideForPlayback(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.project.Slides) || index == c.project.ActiveIndex {
		return
	}
	c.engine.SetTransforms(c.activeSlide(), true)
	c.project.ActiveIndex = index
	c.engine.LoadSlide(c.activeSlide())
}

// AddSlide appends an empty slide and makes it active.
func (c *Context) AddSlide() {
	c.mu.Lock()
	c.engine.SetTransforms(c.activeSlide(), true)
	c.project.Slides = append(c.project.Slides, document.NewSlide(c.work))
	c.project.ActiveIndex = len(c.project.Slides) - 1
	c.engine.LoadSlide(c.activeSlide())
	c.mu.Unlock()
	c.recordChange()
}

// DuplicateSlide deep-copies the active slide and makes the copy active.
func (c *Context) DuplicateSlide() {
	c.mu.Lock()
	c.engine.SetTransforms(c.activeSlide(), true)
	src := c.project.Slides[c.project.ActiveIndex]
	data, err := json.Marshal(src)
	if err != nil {
		c.mu.Unlock()
		return
	}
	var dup document.Slide
	if err := json.Unmarshal(data, &dup); err != nil {
		c.mu.Unlock()
		return
	}
	at := c.project.ActiveIndex + 1
	c.project.Slides = append(c.project.Slides[:at], append([]document.Slide{dup}, c.project.Slides[at:]...)...)
	c.project.ActiveIndex = at
	c.engine.LoadSlide(c.activeSlide())
	c.mu.Unlock()
	c.recordChange()
}

// DeleteSlide removes the active slide. The last remaining slide cannot be
// deleted.
func (c *Context) DeleteSlide() error {
	c.mu.Lock()
	if len(c.project.Slides) <= 1 {
		c.mu.Unlock()
		return ErrLastSlide
	}
	i := c.project.ActiveIndex
	c.project.Slides = append(c.project.Slides[:i], c.project.Slides[i+1:]...)
	if c.project.ActiveIndex >= len(c.project.Slides) {
		c.project.ActiveIndex = len(c.project.Slides) - 1
	}
	c.engine.LoadSlide(c.activeSlide())
	c.mu.Unlock()
	c.recordChange()
	return nil
}

// CommitInteraction finalizes a gesture made directly against the engine:
// bounds are enforced, the transform is written back, and the change is
// recorded.
func (c *Context) CommitInteraction() *engine.RenderState {
	c.mu.Lock()
	c.engine.EnforceImageBounds()
	rs := c.engine.SetTransforms(c.activeSlide(), true)
	c.mu.Unlock()
	c.recordChange()
	return rs
}

// UploadImage installs a new background image on the active slide.
func (c *Context) UploadImage(src, thumb string, natW, natH int) uint64 {
	c.mu.Lock()
	token := c.engine.ApplyUploadedImage(src, thumb, natW, natH)
	c.engine.SetTransforms(c.activeSlide(), true)
	c.mu.Unlock()
	c.recordChange()
	return token
}

// AttachBackendImage records the server-side asset handles for the current
// image, typically after an async upload finishes.
func (c *Context) AttachBackendImage(token uint64, id, url, thumbURL string) bool {
	c.mu.Lock()
	if token != c.engine.Token() {
		c.mu.Unlock()
		return false
	}
	c.engine.SetBackendImage(id, url, thumbURL)
	c.engine.SetTransforms(c.activeSlide(), true)
	c.mu.Unlock()
	c.recordChange()
	return true
}

// RemoveImage drops the active slide's background image.
func (c *Context) RemoveImage() {
	c.mu.Lock()
	c.engine.DropImage()
	c.engine.SetTransforms(c.activeSlide(), true)
	c.mu.Unlock()
	c.recordChange()
}

// AddTextLayer appends a text layer styled from the project defaults.
func (c *Context) AddTextLayer(text string) int {
	c.mu.Lock()
	slide := c.activeSlide()
	layer := document.TextLayer{
		Text:       text,
		Left:       c.work.Width / 2,
		Top:        c.work.Height / 2,
		FontFamily: c.project.Defaults.FontFamily,
		FontSize:   c.project.Defaults.FontSize,
		Color:      c.project.Defaults.FontColor,
	}
	slide.Layers = append(slide.Layers, layer)
	index := len(slide.Layers) - 1
	c.mu.Unlock()
	c.recordChange()
	return index
}

// UpdateTextLayer replaces the layer at index on the active slide.
func (c *Context) UpdateTextLayer(index int, layer document.TextLayer) bool {
	c.mu.Lock()
	slide := c.activeSlide()
	if slide == nil || index < 0 || index >= len(slide.Layers) {
		c.mu.Unlock()
		return false
	}
	slide.Layers[index] = layer
	c.mu.Unlock()
	c.recordChange()
	return true
}

// RemoveTextLayer deletes the layer at index on the active slide.
func (c *Context) RemoveTextLayer(index int) bool {
	c.mu.Lock()
	slide := c.activeSlide()
	if slide == nil || index < 0 || index >= len(slide.Layers) {
		c.mu.Unlock()
		return false
	}
	slide.Layers = append(slide.Layers[:index], slide.Layers[index+1:]...)
	c.mu.Unlock()
	c.recordChange()
	return true
}

// SetSlideDuration sets the playback duration of the active slide.
func (c *Context) SetSlideDuration(ms int) {
	c.mu.Lock()
	if s := c.activeSlide(); s != nil && ms >= 0 {
		s.DurationMs = ms
	}
	c.mu.Unlock()
	c.recordChange()
}

// SetImageTimings sets the fade and zoom windows of the active slide's image.
func (c *Context) SetImageTimings(fadeIn, fadeOut, zoomIn, zoomOut int) {
	c.mu.Lock()
	s := c.activeSlide()
	if s == nil || s.Image == nil {
		c.mu.Unlock()
		return
	}
	s.Image.FadeInMs = fadeIn
	s.Image.FadeOutMs = fadeOut
	s.Image.ZoomInMs = zoomIn
	s.Image.ZoomOutMs = zoomOut
	c.mu.Unlock()
	c.recordChange()
}

// SetImageFilter stores per-image filter values, clamped to their ranges.
func (c *Context) SetImageFilter(f document.FilterValues) {
	c.mu.Lock()
	s := c.activeSlide()
	if s == nil || s.Image == nil {
		c.mu.Unlock()
		return
	}
	clamped := engine.ClampFilter(f)
	s.Image.Filter = &clamped
	c.mu.Unlock()
	c.recordChange()
}

// SetRSVP updates the invitation's RSVP choice.
func (c *Context) SetRSVP(choice document.RSVPChoice) {
	c.mu.Lock()
	c.project.RSVP = choice
	c.mu.Unlock()
	c.recordChange()
}

// SetMapQuery updates the venue map query.
func (c *Context) SetMapQuery(q string) {
	c.mu.Lock()
	c.project.MapQuery = q
	c.mu.Unlock()
	c.recordChange()
}

// Resize updates the work rect and reloads the active slide so percentage
// coordinates re-resolve against the new surface.
func (c *Context) Resize(work document.Size) {
	c.mu.Lock()
	if work.Width <= 0 || work.Height <= 0 {
		c.mu.Unlock()
		return
	}
	c.engine.SetTransforms(c.activeSlide(), true)
	c.work = work
	c.project.WorkDimensions = &document.Size{Width: work.Width, Height: work.Height}
	c.engine.SetWorkRect(work.Width, work.Height)
	c.engine.LoadSlide(c.activeSlide())
	c.mu.Unlock()
}

// Undo steps back one snapshot. The history lock suppresses the re-recording
// that applying the snapshot would otherwise trigger.
func (c *Context) Undo() bool {
	snap, ok := c.history.Undo()
	if !ok {
		return false
	}
	c.applySnapshot(snap)
	return true
}

// Redo steps forward one snapshot.
func (c *Context) Redo() bool {
	snap, ok := c.history.Redo()
	if !ok {
		return false
	}
	c.applySnapshot(snap)
	return true
}

func (c *Context) applySnapshot(snap []byte) {
	c.history.Lock(true)
	defer c.history.Lock(false)
	if err := c.ApplyJSON(snap); err != nil {
		c.logger.Error("history snapshot failed to apply", "error", err)
		return
	}
	if c.saver != nil {
		c.saver.Schedule(snap)
	}
}

// TogglePlay starts or stops playback over the current slides.
func (c *Context) TogglePlay() bool {
	p := c.BuildProject()
	c.player.Toggle(p.Slides, p.ActiveIndex)
	return c.player.Playing()
}

// TickPlayback advances the player one frame.
func (c *Context) TickPlayback() (playback.Frame, bool) {
	return c.player.Tick()
}

// SafeProjectForShare returns the sanitized, percentage-canonical form used
// for share payloads.
func (c *Context) SafeProjectForShare() *document.Project {
	return document.SafeForShare(c.BuildProject())
}

// recordChange schedules debounced persistence and a debounced history entry
// after any mutation.
func (c *Context) recordChange() {
	if c.history.Locked() {
		return
	}
	snap := c.Snapshot()
	if snap == nil {
		return
	}
	c.mu.Lock()
	saver := c.saver
	c.mu.Unlock()
	if saver != nil {
		saver.Schedule(snap)
	}
	c.history.PushDebounced(c.Snapshot)
}

// FlushPending forces any debounced history entry and save to land now, for
// teardown and tests.
func (c *Context) FlushPending() {
	c.history.FlushDebounced(c.Snapshot)
	c.mu.Lock()
	saver := c.saver
	c.mu.Unlock()
	if saver != nil {
		saver.Flush()
	}
}
