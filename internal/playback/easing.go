package playback

import "math"

// easeInOut is the sinusoidal ease used by every fade and zoom window.
func easeInOut(t float64) float64 {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return -(math.Cos(math.Pi*t) - 1) / 2
}

// opacityAt computes a layer's opacity for the given elapsed time. With no
// fade windows the layer is fully opaque. During the fade-in window opacity
// eases 0 to 1; during the trailing fade-out window it eases 1 to 0. The
// result is defined even for ill-formed timings (fadeIn+fadeOut > duration):
// fade-in wins while both windows overlap.
func opacityAt(elapsed, duration, fadeIn, fadeOut float64) float64 {
	if fadeIn <= 0 && fadeOut <= 0 {
		return 1
	}
	if fadeIn > 0 && elapsed < fadeIn {
		return easeInOut(elapsed / fadeIn)
	}
	if fadeOut > 0 && duration > 0 && elapsed >= duration-fadeOut {
		progress := (elapsed - (duration - fadeOut)) / fadeOut
		return 1 - easeInOut(progress)
	}
	return 1
}

// zoomAt computes the transient zoom postfix: ZoomMin to 1 during the
// zoom-in window, 1 to ZoomMax during the trailing zoom-out window, 1
// otherwise.
func zoomAt(elapsed, duration, zoomIn, zoomOut float64) float64 {
	if zoomIn > 0 && elapsed < zoomIn {
		return ZoomMin + (1-ZoomMin)*easeInOut(elapsed/zoomIn)
	}
	if zoomOut > 0 && duration > 0 && elapsed >= duration-zoomOut {
		progress := (elapsed - (duration - zoomOut)) / zoomOut
		return 1 + (ZoomMax-1)*easeInOut(progress)
	}
	return 1
}
