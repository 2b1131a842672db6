package engine

import (
	"fmt"

	"github.com/invitio/invitio/backend-go/internal/document"
	"github.com/invitio/invitio/backend-go/internal/geometry"
)

// RenderState is the compiled, render-ready form of one slide. The frontend
// applies it verbatim to the work surface; compiling the same slide twice
// yields an identical value, so re-renders are idempotent.
type RenderState struct {
	WorkWidth  float64      `json:"workWidth"`
	WorkHeight float64      `json:"workHeight"`
	Image      *ImageRender `json:"image,omitempty"`
	Texts      []TextRender `json:"texts"`
}

// ImageRender places the background image. Left/Top is the center point; the
// frontend anchors the element there and applies Transform about the center.
type ImageRender struct {
	Src       string    `json:"src,omitempty"`
	Thumb     string    `json:"thumb,omitempty"`
	Left      float64   `json:"left"`
	Top       float64   `json:"top"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Transform string    `json:"transform"`
	Matrix    []float64 `json:"matrix"`
	Filter    string    `json:"filter"`
	Opacity   float64   `json:"opacity"`
}

type TextRender struct {
	Text           string   `json:"text"`
	Left           float64  `json:"left"`
	Top            float64  `json:"top"`
	Width          *float64 `json:"width,omitempty"`
	FontFamily     string   `json:"fontFamily,omitempty"`
	FontSize       float64  `json:"fontSize,omitempty"`
	FontWeight     string   `json:"fontWeight,omitempty"`
	FontStyle      string   `json:"fontStyle,omitempty"`
	Color          string   `json:"color,omitempty"`
	TextAlign      string   `json:"textAlign,omitempty"`
	TextDecoration string   `json:"textDecoration,omitempty"`
	TextShadow     string   `json:"textShadow,omitempty"`
	LetterSpacing  float64  `json:"letterSpacing,omitempty"`
	LineHeight     float64  `json:"lineHeight,omitempty"`
	Opacity        float64  `json:"opacity"`
}

// SetTransforms rebuilds the render state for the slide from the canonical
// transform. When sync is true the engine state is also written back onto
// the slide's ImageLayer in both coordinate forms.
func (e *Engine) SetTransforms(slide *document.Slide, sync bool) *RenderState {
	if sync {
		e.writeBack(slide)
	}
	return e.Compile(slide)
}

// Compile produces the render state for a slide at the engine's work rect
// without touching any state.
func (e *Engine) Compile(slide *document.Slide) *RenderState {
	rs := &RenderState{
		WorkWidth:  e.workW,
		WorkHeight: e.workH,
		Texts:      []TextRender{},
	}
	if slide == nil {
		return rs
	}

	if e.t.Has {
		var filter document.FilterValues
		if slide.Image != nil && slide.Image.Filter != nil {
			filter = *slide.Image.Filter
		} else {
			filter = e.filter
		}
		rs.Image = &ImageRender{
			Src:       e.t.Src,
			Thumb:     e.t.Thumb,
			Left:      e.t.CX,
			Top:       e.t.CY,
			Width:     float64(e.t.NatW),
			Height:    float64(e.t.NatH),
			Transform: e.cssTransform(),
			Matrix:    e.t.Matrix().ToSlice(),
			Filter:    FilterString(filter),
			Opacity:   1,
		}
	}

	for _, layer := range slide.Layers {
		rs.Texts = append(rs.Texts, TextRender{
			Text:           layer.Text,
			Left:           layer.Left,
			Top:            layer.Top,
			Width:          layer.Width,
			FontFamily:     layer.FontFamily,
			FontSize:       layer.FontSize,
			FontWeight:     layer.FontWeight,
			FontStyle:      layer.FontStyle,
			Color:          layer.Color,
			TextAlign:      layer.TextAlign,
			TextDecoration: layer.TextDecoration,
			TextShadow:     layer.TextShadow,
			LetterSpacing:  layer.LetterSpacing,
			LineHeight:     layer.LineHeight,
			Opacity:        1,
		})
	}

	return rs
}

// cssTransform builds the style-sheet form of the canonical transform:
// translate(-50%,-50%) rotate(a) skew(sx, sy) scale(scale*sxEff, scale*sy).
func (e *Engine) cssTransform() string {
	sx := e.t.Scale * e.t.EffectiveSignX()
	sy := e.t.Scale * e.t.EffectiveSignY()
	return fmt.Sprintf(
		"translate(-50%%, -50%%) rotate(%grad) skew(%grad, %grad) scale(%g, %g)",
		e.t.Angle, e.t.ShearX, e.t.ShearY, sx, sy,
	)
}

// PercentPosition reports the canonical center as percentages of the work
// rect; parity with the viewer depends on this value alone.
func (e *Engine) PercentPosition() (cxPercent, cyPercent float64, ok bool) {
	if !e.t.Has || e.workW <= 0 || e.workH <= 0 {
		return 0, 0, false
	}
	return e.t.CX / e.workW * 100, e.t.CY / e.workH * 100, true
}

// ResolvePercent converts a percentage center to work-rect pixels.
func (e *Engine) ResolvePercent(cxPercent, cyPercent float64) (float64, float64) {
	return geometry.Clamp(cxPercent, 0, 100) / 100 * e.workW,
		geometry.Clamp(cyPercent, 0, 100) / 100 * e.workH
}
