// Package engine owns the canonical background-image transform for the
// active slide and turns slide state into render-ready output. Only this
// package mutates the transform; interaction and playback go through its
// operations.
package engine

import (
	"log/slog"
	"math"

	"github.com/invitio/invitio/backend-go/internal/document"
	"github.com/invitio/invitio/backend-go/internal/geometry"
)

// defaultFXScale caps the default fit applied to a freshly loaded image.
const defaultFXScale = 1.0

// ImageTransform is the canonical, in-memory state of the background image
// while a slide is active. It is written back onto the slide's ImageLayer on
// every mutating action and on slide switch.
type ImageTransform struct {
	Has  bool
	NatW int
	NatH int

	CX     float64
	CY     float64
	Scale  float64
	Angle  float64
	ShearX float64
	ShearY float64
	SignX  int
	SignY  int
	Flip   bool

	Src   string
	Thumb string

	BackendImageID      string
	BackendImageURL     string
	BackendThumbnailURL string
}

// EffectiveSignX folds the convenience flip into the x sign.
func (t ImageTransform) EffectiveSignX() float64 {
	s := float64(t.SignX)
	if t.Flip {
		s = -s
	}
	return s
}

// EffectiveSignY returns the y sign as a float factor.
func (t ImageTransform) EffectiveSignY() float64 {
	return float64(t.SignY)
}

// Matrix returns the composed affine transform of the image about its center.
func (t ImageTransform) Matrix() geometry.Matrix2D {
	return geometry.ImageMatrix(
		t.CX, t.CY,
		float64(t.NatW), float64(t.NatH),
		t.Scale, t.Angle, t.ShearX, t.ShearY,
		t.EffectiveSignX(), t.EffectiveSignY(),
	)
}

// AABB returns the rotated axis-aligned bounding box of the image.
func (t ImageTransform) AABB() geometry.Rect {
	return geometry.ImageAABB(
		t.CX, t.CY,
		float64(t.NatW), float64(t.NatH),
		t.Scale, t.Angle, t.ShearX, t.ShearY,
		t.EffectiveSignX(), t.EffectiveSignY(),
	)
}

// Engine renders slides and holds the canonical image transform. It runs on
// the editor's single cooperative loop; the switch token lets late async
// work detect that it is stale.
type Engine struct {
	workW  float64
	workH  float64
	t      ImageTransform
	filter document.FilterValues
	token  uint64
	logger *slog.Logger
}

func New(workW, workH float64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		workW:  workW,
		workH:  workH,
		t:      emptyTransform(),
		filter: DefaultFilter(),
		logger: logger,
	}
}

func emptyTransform() ImageTransform {
	return ImageTransform{Scale: 1, SignX: 1, SignY: 1}
}

// WorkRect returns the current work area dimensions.
func (e *Engine) WorkRect() (w, h float64) {
	return e.workW, e.workH
}

// SetWorkRect resizes the work area. Positioning state is untouched; callers
// reload the active slide afterwards so percentage coordinates re-resolve.
func (e *Engine) SetWorkRect(w, h float64) {
	if w > 0 && h > 0 {
		e.workW, e.workH = w, h
	}
}

// Transform returns a copy of the canonical image transform.
func (e *Engine) Transform() ImageTransform {
	return e.t
}

// Token returns the current switch token. Async work captures it before
// suspending and drops its result if the token has moved on.
func (e *Engine) Token() uint64 {
	return e.token
}

func (e *Engine) bumpToken() uint64 {
	e.token++
	return e.token
}

// SetCenter moves the image center within the work rect.
func (e *Engine) SetCenter(cx, cy float64) {
	if !e.t.Has {
		return
	}
	e.t.CX, e.t.CY = cx, cy
}

// SetScale sets the image scale, clamped to the canonical range.
func (e *Engine) SetScale(scale float64) {
	if !e.t.Has {
		return
	}
	e.t.Scale = geometry.Clamp(scale, document.MinImageScale, document.MaxImageScale)
}

// SetAngle sets the rotation in radians.
func (e *Engine) SetAngle(angle float64) {
	if !e.t.Has {
		return
	}
	e.t.Angle = angle
}

// SetShear sets both shear angles in radians.
func (e *Engine) SetShear(shearX, shearY float64) {
	if !e.t.Has {
		return
	}
	e.t.ShearX, e.t.ShearY = shearX, shearY
}

// SetSigns sets the axis mirror flags; zero values are ignored.
func (e *Engine) SetSigns(signX, signY int) {
	if !e.t.Has {
		return
	}
	if signX == 1 || signX == -1 {
		e.t.SignX = signX
	}
	if signY == 1 || signY == -1 {
		e.t.SignY = signY
	}
}

// SetFlip sets the horizontal convenience flip.
func (e *Engine) SetFlip(flip bool) {
	if !e.t.Has {
		return
	}
	e.t.Flip = flip
}

// EnforceImageBounds clamps the image center so its rotated bounding box
// stays within the work rect. Oversize images keep their center so the
// editor composition matches the viewer.
func (e *Engine) EnforceImageBounds() {
	if !e.t.Has {
		return
	}
	box := e.t.AABB()
	work := geometry.Rect{Width: e.workW, Height: e.workH}
	if !box.FitsIn(work) {
		return
	}

	halfW := box.Width / 2
	halfH := box.Height / 2
	e.t.CX = geometry.Clamp(e.t.CX, halfW, e.workW-halfW)
	e.t.CY = geometry.Clamp(e.t.CY, halfH, e.workH-halfH)
}

// writeBack copies the canonical transform onto the slide's image layer in
// both absolute and percentage forms. Timings and filter values stay on the
// scene model and are not touched.
func (e *Engine) writeBack(slide *document.Slide) {
	if slide == nil {
		return
	}
	if !e.t.Has {
		slide.Image = nil
		return
	}

	img := slide.Image
	if img == nil {
		img = &document.ImageLayer{}
		slide.Image = img
	}

	img.Src = e.t.Src
	img.Thumb = e.t.Thumb
	img.NatW = e.t.NatW
	img.NatH = e.t.NatH
	img.Scale = e.t.Scale
	img.Angle = e.t.Angle
	img.ShearX = e.t.ShearX
	img.ShearY = e.t.ShearY
	img.SignX = e.t.SignX
	img.SignY = e.t.SignY
	img.Flip = e.t.Flip
	img.BackendImageID = e.t.BackendImageID
	img.BackendImageURL = e.t.BackendImageURL
	img.BackendThumbnailURL = e.t.BackendThumbnailURL

	if e.workW > 0 && e.workH > 0 {
		img.SetPercentPosition(
			e.t.CX/e.workW*100,
			e.t.CY/e.workH*100,
			e.workW,
			e.workH,
		)
		// The absolute form rides along for v<=62 readers.
		cx, cy := e.t.CX, e.t.CY
		img.CX = &cx
		img.CY = &cy
	} else {
		img.SetAbsolutePosition(e.t.CX, e.t.CY)
	}
	slide.WorkSize = document.Size{Width: e.workW, Height: e.workH}
}

// recenter resets the image to the middle of the work rect at the given
// scale. It is the defined recovery for NaN/Inf coordinates and unknown
// legacy work sizes.
func (e *Engine) recenter(scale float64) {
	e.t.CX = e.workW / 2
	e.t.CY = e.workH / 2
	e.t.Scale = geometry.Clamp(scale, document.MinImageScale, document.MaxImageScale)
}

func invalid(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
