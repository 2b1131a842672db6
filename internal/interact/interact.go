// Package interact turns pointer gestures into engine operations. A gesture
// captures its start state on pointer-down and derives every later position
// from that start plus the current pointer, so frames can be dropped without
// drift.
package interact

import (
	"math"

	"github.com/invitio/invitio/backend-go/internal/document"
	"github.com/invitio/invitio/backend-go/internal/engine"
)

// SnapThreshold is the capture distance for text alignment guides, in work
// rect pixels.
const SnapThreshold = 8.0

// minHandleScale keeps resize handles from collapsing the image, whatever
// scale the gesture started from.
const minHandleScale = 0.1

// ImageDrag pans the background image.
type ImageDrag struct {
	eng              *engine.Engine
	startX, startY   float64
	startCX, startCY float64
}

// BeginImageDrag captures the pointer and image centers at pointer-down. The
// pointer position is in work rect coordinates.
func BeginImageDrag(eng *engine.Engine, px, py float64) *ImageDrag {
	t := eng.Transform()
	return &ImageDrag{eng: eng, startX: px, startY: py, startCX: t.CX, startCY: t.CY}
}

// Move repositions the image from the captured start, then clamps it to the
// work rect.
func (d *ImageDrag) Move(px, py float64) {
	d.eng.SetCenter(d.startCX+(px-d.startX), d.startCY+(py-d.startY))
	d.eng.EnforceImageBounds()
}

// SnapGuides reports which alignment guides captured the drag this frame.
type SnapGuides struct {
	CenterX bool `json:"centerX"`
	CenterY bool `json:"centerY"`
}

// TextDrag moves a text layer with center-axis snapping.
type TextDrag struct {
	work               document.Size
	startX, startY     float64
	startLeft, startTop float64
}

func BeginTextDrag(work document.Size, layer document.TextLayer, px, py float64) *TextDrag {
	return &TextDrag{
		work:      work,
		startX:    px,
		startY:    py,
		startLeft: layer.Left,
		startTop:  layer.Top,
	}
}

// Move returns the new layer position. When the position comes within the
// snap threshold of a work-rect center axis it locks onto that axis.
func (d *TextDrag) Move(px, py float64) (left, top float64, guides SnapGuides) {
	left = d.startLeft + (px - d.startX)
	top = d.startTop + (py - d.startY)

	if cx := d.work.Width / 2; math.Abs(left-cx) <= SnapThreshold {
		left = cx
		guides.CenterX = true
	}
	if cy := d.work.Height / 2; math.Abs(top-cy) <= SnapThreshold {
		top = cy
		guides.CenterY = true
	}
	return left, top, guides
}

// HandleRole identifies which selection handle a gesture grabbed.
type HandleRole string

const (
	HandleNW     HandleRole = "nw"
	HandleN      HandleRole = "n"
	HandleNE     HandleRole = "ne"
	HandleE      HandleRole = "e"
	HandleSE     HandleRole = "se"
	HandleS      HandleRole = "s"
	HandleSW     HandleRole = "sw"
	HandleW      HandleRole = "w"
	HandleRotate HandleRole = "rotate"
)

func (r HandleRole) horizontal() bool { return r == HandleE || r == HandleW }
func (r HandleRole) vertical() bool   { return r == HandleN || r == HandleS }

// HandleDrag resizes, rotates, or shears the image through a selection
// handle.
type HandleDrag struct {
	eng  *engine.Engine
	role HandleRole

	cx, cy      float64
	startAngle  float64
	startScale  float64
	startShearX float64
	startShearY float64
	startSignX  int
	startSignY  int

	// start pointer offset from the image center; the reference axis for
	// projection-based scaling.
	u0x, u0y float64
	u0len    float64
	startPtrAngle float64
}

// BeginHandleDrag captures the transform and the pointer offset from the
// image center at pointer-down.
func BeginHandleDrag(eng *engine.Engine, role HandleRole, px, py float64) *HandleDrag {
	t := eng.Transform()
	ux, uy := px-t.CX, py-t.CY
	return &HandleDrag{
		eng:           eng,
		role:          role,
		cx:            t.CX,
		cy:            t.CY,
		startAngle:    t.Angle,
		startScale:    t.Scale,
		startShearX:   t.ShearX,
		startShearY:   t.ShearY,
		startSignX:    t.SignX,
		startSignY:    t.SignY,
		u0x:           ux,
		u0y:           uy,
		u0len:         math.Hypot(ux, uy),
		startPtrAngle: math.Atan2(uy, ux),
	}
}

// Move applies the gesture for the current pointer position. With shift held
// the handle shears along its dominant axis instead of scaling.
func (d *HandleDrag) Move(px, py float64, shift bool) {
	if d.role == HandleRotate {
		ang := math.Atan2(py-d.cy, px-d.cx)
		d.eng.SetAngle(d.startAngle + (ang - d.startPtrAngle))
		return
	}
	if d.u0len == 0 {
		return
	}

	ux, uy := px-d.cx, py-d.cy

	if shift {
		d.shear(ux, uy)
		return
	}

	// Signed projection of the pointer onto the start axis. Negative means
	// the pointer crossed the center, which mirrors the image.
	factor := (ux*d.u0x + uy*d.u0y) / (d.u0len * d.u0len)

	signX, signY := d.startSignX, d.startSignY
	if factor < 0 {
		if d.role.horizontal() {
			signX = -signX
		} else if d.role.vertical() {
			signY = -signY
		} else {
			signX, signY = -signX, -signY
		}
	}
	d.eng.SetSigns(signX, signY)

	scale := d.startScale * math.Abs(factor)
	if scale < minHandleScale {
		scale = minHandleScale
	}
	d.eng.SetScale(scale)
}

// shear converts the pointer's perpendicular displacement into a shear angle
// on the handle's dominant axis. The scale is left at its start value.
func (d *HandleDrag) shear(ux, uy float64) {
	// Perpendicular component relative to the start axis, normalized.
	perp := (d.u0x*uy - d.u0y*ux) / (d.u0len * d.u0len)
	delta := math.Atan(perp)

	shearX, shearY := d.startShearX, d.startShearY
	if math.Abs(d.u0x) >= math.Abs(d.u0y) {
		shearX = d.startShearX + delta
	} else {
		shearY = d.startShearY + delta
	}
	d.eng.SetShear(shearX, shearY)
	d.eng.SetScale(d.startScale)
}

// Registry collects teardown callbacks registered while wiring a gesture and
// runs them all on cleanup, last-in first-out.
type Registry struct {
	removes []func()
}

func (r *Registry) Add(remove func()) {
	if remove != nil {
		r.removes = append(r.removes, remove)
	}
}

func (r *Registry) Cleanup() {
	for i := len(r.removes) - 1; i >= 0; i-- {
		r.removes[i]()
	}
	r.removes = nil
}
