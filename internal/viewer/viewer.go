// Package viewer renders a decoded share payload read-only. It never touches
// persistence or history; the stage is a 16:9 composition surface contained
// in whatever viewport the recipient opens.
package viewer

import (
	"log/slog"
	"math"

	"github.com/invitio/invitio/backend-go/internal/document"
	"github.com/invitio/invitio/backend-go/internal/engine"
	"github.com/invitio/invitio/backend-go/internal/playback"
	"github.com/invitio/invitio/backend-go/internal/share"
)

// StageRatio is the composition aspect of viewer mode.
const StageRatio = 16.0 / 9.0

// Stage is the 16:9 surface centered in the viewport.
type Stage struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
}

// ComputeStage contains a 16:9 stage within the available viewport and
// centers it.
func ComputeStage(availW, availH float64) Stage {
	if availW <= 0 || availH <= 0 {
		return Stage{}
	}
	w := availW
	h := w / StageRatio
	if h > availH {
		h = availH
		w = h * StageRatio
	}
	return Stage{
		Width:  w,
		Height: h,
		Left:   (availW - w) / 2,
		Top:    (availH - h) / 2,
	}
}

// SlideView is one slide rendered to stage coordinates.
type SlideView struct {
	Stage Stage               `json:"stage"`
	Image *engine.ImageRender `json:"image,omitempty"`
	Texts []engine.TextRender `json:"texts"`
}

// Viewer holds one decoded project and renders its slides onto the stage.
type Viewer struct {
	project *document.Project
	stage   Stage
	engine  *engine.Engine
	player  *playback.Player
	logger  *slog.Logger

	// decodeErr is surfaced inline instead of breaking the page.
	decodeErr error
}

func New(logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{
		engine: engine.New(0, 0, logger),
		player: playback.NewPlayer(),
		logger: logger,
	}
}

// LoadPayload decodes a share payload and adopts it. Decode failures are
// stored for inline display and leave the viewer empty.
func (v *Viewer) LoadPayload(payload string, availW, availH float64) error {
	v.stage = ComputeStage(availW, availH)
	v.engine.SetWorkRect(v.stage.Width, v.stage.Height)

	p, err := share.DecodeState(payload)
	if err != nil {
		v.logger.Warn("share payload rejected", "error", err)
		v.decodeErr = err
		v.project = nil
		return err
	}
	p.Normalize(document.Size{Width: v.stage.Width, Height: v.stage.Height})
	v.project = p
	v.decodeErr = nil
	return nil
}

// Err returns the decode error to render inline, if any.
func (v *Viewer) Err() error { return v.decodeErr }

// Project returns the decoded project, nil when decode failed.
func (v *Viewer) Project() *document.Project { return v.project }

// Stage returns the current composition stage.
func (v *Viewer) Stage() Stage { return v.stage }

// Player exposes the playback loop for autoplay.
func (v *Viewer) Player() *playback.Player { return v.player }

// Resize recomputes the stage and re-resolves the active slide against it.
func (v *Viewer) Resize(availW, availH float64) {
	v.stage = ComputeStage(availW, availH)
	v.engine.SetWorkRect(v.stage.Width, v.stage.Height)
}

// RenderActive renders the project's active slide.
func (v *Viewer) RenderActive() *SlideView {
	if v.project == nil {
		return &SlideView{Stage: v.stage, Texts: []engine.TextRender{}}
	}
	return v.RenderSlide(v.project.ActiveIndex)
}

// RenderSlide renders one slide to stage coordinates. The image follows the
// percentage path with its stored scale unchanged; text positions scale with
// the stage relative to the authoring surface, and font size follows the
// smaller axis.
func (v *Viewer) RenderSlide(index int) *SlideView {
	view := &SlideView{Stage: v.stage, Texts: []engine.TextRender{}}
	if v.project == nil || index < 0 || index >= len(v.project.Slides) {
		return view
	}
	slide := &v.project.Slides[index]

	v.engine.LoadSlide(slide)
	rs := v.engine.Compile(slide)
	view.Image = rs.Image

	scaleX, scaleY := v.textScale(slide)
	fontScale := math.Min(scaleX, scaleY)
	for _, tr := range rs.Texts {
		tr.Left *= scaleX
		tr.Top *= scaleY
		tr.FontSize *= fontScale
		if tr.Width != nil {
			w := *tr.Width * scaleX
			tr.Width = &w
		}
		view.Texts = append(view.Texts, tr)
	}
	return view
}

// textScale maps authoring coordinates to stage coordinates. Text layers keep
// absolute positions from the authoring surface, so they scale by the stage
// to work-dimensions ratio.
func (v *Viewer) textScale(slide *document.Slide) (sx, sy float64) {
	work := slide.WorkSize
	if v.project.WorkDimensions != nil && v.project.WorkDimensions.Width > 0 && v.project.WorkDimensions.Height > 0 {
		work = *v.project.WorkDimensions
	}
	if work.Width <= 0 || work.Height <= 0 || v.stage.Width <= 0 || v.stage.Height <= 0 {
		return 1, 1
	}
	return v.stage.Width / work.Width, v.stage.Height / work.Height
}

// SetActiveIndex moves the viewer to another slide.
func (v *Viewer) SetActiveIndex(index int) {
	if v.project == nil || index < 0 || index >= len(v.project.Slides) {
		return
	}
	v.project.ActiveIndex = index
}

// StartPlayback begins autoplay over the decoded slides.
func (v *Viewer) StartPlayback() {
	if v.project == nil {
		return
	}
	v.player.OnSlideChange(func(index int, token uint64) {
		v.project.ActiveIndex = index
	})
	v.player.Start(v.project.Slides, v.project.ActiveIndex)
}
