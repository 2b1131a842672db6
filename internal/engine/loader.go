package engine

import (
	"github.com/invitio/invitio/backend-go/internal/document"
	"github.com/invitio/invitio/backend-go/internal/geometry"
)

// legacyWorkSizes are the authoring surfaces that shipped absolute image
// coordinates before percentage positioning became canonical (v<=62).
var legacyWorkSizes = []document.Size{
	{Width: 360, Height: 640},
	{Width: 375, Height: 667},
	{Width: 390, Height: 844},
	{Width: 414, Height: 896},
	{Width: 768, Height: 1024},
	{Width: 1080, Height: 1920},
	{Width: 1000, Height: 1000},
}

// legacyScoreThreshold: a candidate work size is only trusted when the
// implied percentage point sits this close to the unit square.
const legacyScoreThreshold = 0.5

// LoadSlide restores the canonical transform from a slide. Restore priority:
// percentage form, then legacy absolute form (converted when a known source
// work size matches, re-centered otherwise), then a centered default fit.
// Returns the new switch token; async continuations compare it against
// Token() before applying results.
func (e *Engine) LoadSlide(slide *document.Slide) uint64 {
	token := e.bumpToken()

	if slide == nil || slide.Image == nil {
		e.t = emptyTransform()
		return token
	}

	img := slide.Image
	e.t = ImageTransform{
		Has:                 true,
		NatW:                img.NatW,
		NatH:                img.NatH,
		Scale:               geometry.Clamp(img.Scale, document.MinImageScale, document.MaxImageScale),
		Angle:               img.Angle,
		ShearX:              img.ShearX,
		ShearY:              img.ShearY,
		SignX:               nonZeroSign(img.SignX),
		SignY:               nonZeroSign(img.SignY),
		Flip:                img.Flip,
		Src:                 img.Src,
		Thumb:               img.Thumb,
		BackendImageID:      img.BackendImageID,
		BackendImageURL:     img.BackendImageURL,
		BackendThumbnailURL: img.BackendThumbnailURL,
	}
	if img.NatW <= 0 || img.NatH <= 0 {
		e.logger.Warn("image layer missing natural size, dropping image")
		e.t = emptyTransform()
		return token
	}

	switch {
	case img.HasPercent():
		e.t.CX = *img.CXPercent / 100 * e.workW
		e.t.CY = *img.CYPercent / 100 * e.workH

	case img.HasAbsolute():
		e.restoreLegacyAbsolute(slide, *img.CX, *img.CY)

	default:
		e.recenter(e.defaultFitScale())
	}

	if invalid(e.t.CX, e.t.CY, e.t.Scale, e.t.Angle, e.t.ShearX, e.t.ShearY) {
		e.logger.Warn("invalid image transform, recentering", "src", img.Src)
		e.t.Angle = 0
		e.t.ShearX, e.t.ShearY = 0, 0
		e.recenter(1)
	}

	return token
}

// restoreLegacyAbsolute converts legacy pixel coordinates to the current
// work rect. The stored slide work size is tried first, then the known
// candidate list; when nothing scores under the threshold the image is
// re-centered.
func (e *Engine) restoreLegacyAbsolute(slide *document.Slide, cx, cy float64) {
	candidates := legacyWorkSizes
	if slide.WorkSize.Width > 0 && slide.WorkSize.Height > 0 {
		candidates = append([]document.Size{slide.WorkSize}, candidates...)
	}

	bestScore := legacyScoreThreshold
	found := false
	var bestPX, bestPY float64
	for _, cand := range candidates {
		px := cx / cand.Width
		py := cy / cand.Height
		score := centeringScore(px, py)
		if score < bestScore {
			bestScore = score
			bestPX, bestPY = px, py
			found = true
		}
	}

	if !found {
		e.logger.Warn("no plausible legacy work size, recentering", "cx", cx, "cy", cy)
		e.recenter(e.t.Scale)
		return
	}

	e.t.CX = geometry.Clamp(bestPX, 0, 1) * e.workW
	e.t.CY = geometry.Clamp(bestPY, 0, 1) * e.workH
}

// centeringScore is the normalized distance of the implied percentage point
// from the unit square; 0 means the point lands inside the source rect.
func centeringScore(px, py float64) float64 {
	dx := 0.0
	if px < 0 {
		dx = -px
	} else if px > 1 {
		dx = px - 1
	}
	dy := 0.0
	if py < 0 {
		dy = -py
	} else if py > 1 {
		dy = py - 1
	}
	if dx > dy {
		return dx
	}
	return dy
}

// ApplyUploadedImage installs a freshly uploaded image with the default fit:
// contain-scaled (capped), centered, rotation and flip reset, shears kept.
func (e *Engine) ApplyUploadedImage(src, thumb string, natW, natH int) uint64 {
	token := e.bumpToken()
	if natW <= 0 || natH <= 0 {
		return token
	}

	shearX, shearY := e.t.ShearX, e.t.ShearY
	e.t = emptyTransform()
	e.t.Has = true
	e.t.Src = src
	e.t.Thumb = thumb
	e.t.NatW = natW
	e.t.NatH = natH
	e.t.ShearX, e.t.ShearY = shearX, shearY
	e.recenter(e.defaultFitScale())
	return token
}

// SetBackendImage attaches server-side handles to the current image.
func (e *Engine) SetBackendImage(id, url, thumbURL string) {
	if !e.t.Has {
		return
	}
	e.t.BackendImageID = id
	e.t.BackendImageURL = url
	e.t.BackendThumbnailURL = thumbURL
	if url != "" {
		e.t.Src = url
	}
	if thumbURL != "" {
		e.t.Thumb = thumbURL
	}
}

// DropImage clears the canonical transform, used when every image source has
// failed to load.
func (e *Engine) DropImage() {
	e.t = emptyTransform()
}

func (e *Engine) defaultFitScale() float64 {
	contain := geometry.ContainScale(e.workW, e.workH, float64(e.t.NatW), float64(e.t.NatH))
	if contain < defaultFXScale {
		return contain
	}
	return defaultFXScale
}

func nonZeroSign(s int) int {
	if s == -1 {
		return -1
	}
	return 1
}
