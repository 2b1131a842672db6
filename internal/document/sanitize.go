package document

import (
	"math"
	"strings"
)

const (
	// MinImageScale and MaxImageScale bound the background image scale
	// everywhere it is written.
	MinImageScale = 0.05
	MaxImageScale = 10
)

// SafeForShare produces a sanitized copy of the project suitable for URL
// encoding: percentage coordinates preferred, numeric fields rounded (scale
// 3dp, angle 2dp, shear 3dp, percentages 2dp), data: image sources dropped,
// timings preserved.
func SafeForShare(p *Project) *Project {
	out := p.Clone()
	if out == nil {
		return nil
	}
	out.Normalize(workSizeOf(out))
	out.Version = CurrentVersion

	for i := range out.Slides {
		s := &out.Slides[i]
		img := s.Image
		if img == nil {
			continue
		}

		if !img.HasPercent() && img.HasAbsolute() && s.WorkSize.Width > 0 && s.WorkSize.Height > 0 {
			img.SetPercentPosition(
				*img.CX/s.WorkSize.Width*100,
				*img.CY/s.WorkSize.Height*100,
				s.WorkSize.Width,
				s.WorkSize.Height,
			)
		}
		if img.HasPercent() {
			cx := roundTo(clampPercent(*img.CXPercent), 2)
			cy := roundTo(clampPercent(*img.CYPercent), 2)
			img.CXPercent = &cx
			img.CYPercent = &cy
			img.CX = nil
			img.CY = nil
		}

		img.Scale = roundTo(clampScale(img.Scale), 3)
		img.Angle = roundTo(img.Angle, 2)
		img.ShearX = roundTo(img.ShearX, 3)
		img.ShearY = roundTo(img.ShearY, 3)

		// Inline image bytes never travel in a URL; the thumb (if any
		// remote one exists) is the viewer's fallback.
		if isDataURL(img.Src) {
			img.Src = ""
		}
		if isDataURL(img.Thumb) {
			img.Thumb = ""
		}
	}

	return out
}

func workSizeOf(p *Project) Size {
	if p.WorkDimensions != nil && p.WorkDimensions.Width > 0 && p.WorkDimensions.Height > 0 {
		return *p.WorkDimensions
	}
	for _, s := range p.Slides {
		if s.WorkSize.Width > 0 && s.WorkSize.Height > 0 {
			return s.WorkSize
		}
	}
	return Size{Width: 1000, Height: 1000}
}

func isDataURL(s string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "data:")
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampScale(v float64) float64 {
	if v < MinImageScale {
		return MinImageScale
	}
	if v > MaxImageScale {
		return MaxImageScale
	}
	return v
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow10(places)
	return math.Round(v*pow) / pow
}
