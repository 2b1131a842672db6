package engine

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/invitio/invitio/backend-go/internal/document"
	"github.com/invitio/invitio/backend-go/internal/geometry"
)

//go:embed presets.yaml
var presetsYAML []byte

var filterPresets = mustLoadPresets()

func mustLoadPresets() map[string]document.FilterValues {
	var presets map[string]document.FilterValues
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		panic(fmt.Sprintf("engine: bad embedded filter presets: %v", err))
	}
	return presets
}

// DefaultFilter returns the identity filter ("none").
func DefaultFilter() document.FilterValues {
	return filterPresets["none"]
}

// ClampFilter snaps every channel into its legal range.
func ClampFilter(f document.FilterValues) document.FilterValues {
	return document.FilterValues{
		Blur:       geometry.Clamp(f.Blur, 0, 20),
		Brightness: geometry.Clamp(f.Brightness, 0, 200),
		Contrast:   geometry.Clamp(f.Contrast, 0, 200),
		Grayscale:  geometry.Clamp(f.Grayscale, 0, 100),
		HueRotate:  geometry.Clamp(f.HueRotate, 0, 360),
		Invert:     geometry.Clamp(f.Invert, 0, 100),
		Saturate:   geometry.Clamp(f.Saturate, 0, 300),
		Sepia:      geometry.Clamp(f.Sepia, 0, 100),
		Opacity:    geometry.Clamp(f.Opacity, 0, 100),
	}
}

// FilterString composes the CSS filter value for the given channels. The
// identity filter yields "none".
func FilterString(f document.FilterValues) string {
	f = ClampFilter(f)
	var parts []string
	if f.Blur > 0 {
		parts = append(parts, fmt.Sprintf("blur(%gpx)", f.Blur))
	}
	if f.Brightness != 100 {
		parts = append(parts, fmt.Sprintf("brightness(%g%%)", f.Brightness))
	}
	if f.Contrast != 100 {
		parts = append(parts, fmt.Sprintf("contrast(%g%%)", f.Contrast))
	}
	if f.Grayscale > 0 {
		parts = append(parts, fmt.Sprintf("grayscale(%g%%)", f.Grayscale))
	}
	if f.HueRotate != 0 {
		parts = append(parts, fmt.Sprintf("hue-rotate(%gdeg)", f.HueRotate))
	}
	if f.Invert > 0 {
		parts = append(parts, fmt.Sprintf("invert(%g%%)", f.Invert))
	}
	if f.Saturate != 100 {
		parts = append(parts, fmt.Sprintf("saturate(%g%%)", f.Saturate))
	}
	if f.Sepia > 0 {
		parts = append(parts, fmt.Sprintf("sepia(%g%%)", f.Sepia))
	}
	if f.Opacity != 100 {
		parts = append(parts, fmt.Sprintf("opacity(%g%%)", f.Opacity))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// Preset looks up a named preset.
func Preset(name string) (document.FilterValues, bool) {
	f, ok := filterPresets[name]
	return f, ok
}

// PresetNames lists the available presets in stable order.
func PresetNames() []string {
	names := make([]string, 0, len(filterPresets))
	for name := range filterPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter returns the engine's current filter channels.
func (e *Engine) Filter() document.FilterValues {
	return e.filter
}

// SetFilter replaces the filter channels, clamped.
func (e *Engine) SetFilter(f document.FilterValues) {
	e.filter = ClampFilter(f)
}

// ApplyPreset sets the filter from a named preset.
func (e *Engine) ApplyPreset(name string) error {
	f, ok := Preset(name)
	if !ok {
		return fmt.Errorf("unknown filter preset %q", name)
	}
	e.filter = f
	return nil
}
