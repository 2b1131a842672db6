package geometry

// FitMode selects how a source rect is fitted into a viewport.
type FitMode string

const (
	FitContain FitMode = "contain"
	FitCover   FitMode = "cover"
)

// ViewportScale is the result of fitting srcW x srcH into curW x curH.
// Scale is the uniform ratio (min for contain, max for cover); ScaleX and
// ScaleY are the independent per-axis ratios used for text placement.
type ViewportScale struct {
	Scale  float64
	ScaleX float64
	ScaleY float64
}

// CalculateViewportScale fits a source rect into the current viewport.
// Zero or negative source dimensions yield the identity scale.
func CalculateViewportScale(curW, curH, srcW, srcH float64, mode FitMode) ViewportScale {
	if srcW <= 0 || srcH <= 0 || curW <= 0 || curH <= 0 {
		return ViewportScale{Scale: 1, ScaleX: 1, ScaleY: 1}
	}
	sx := curW / srcW
	sy := curH / srcH
	s := min(sx, sy)
	if mode == FitCover {
		s = max(sx, sy)
	}
	return ViewportScale{Scale: s, ScaleX: sx, ScaleY: sy}
}

// ContainScale returns the uniform contain ratio for fitting src into cur.
func ContainScale(curW, curH, srcW, srcH float64) float64 {
	return CalculateViewportScale(curW, curH, srcW, srcH, FitContain).Scale
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
