package document

import (
	"encoding/json"
	"testing"
)

func TestNormalizeRepairsBrokenProject(t *testing.T) {
	work := Size{Width: 1000, Height: 1000}
	p := &Project{
		Version:     0,
		Slides:      nil,
		ActiveIndex: 5,
	}
	p.Normalize(work)

	if p.Version != CurrentVersion {
		t.Fatalf("version = %d", p.Version)
	}
	if len(p.Slides) != 1 {
		t.Fatalf("slides = %d", len(p.Slides))
	}
	if p.ActiveIndex != 0 {
		t.Fatalf("activeIndex = %d", p.ActiveIndex)
	}
	if p.WorkDimensions == nil || p.WorkDimensions.Width != 1000 {
		t.Fatalf("workDimensions = %+v", p.WorkDimensions)
	}
	if p.RSVP != RSVPNone {
		t.Fatalf("rsvp = %q", p.RSVP)
	}
}

func TestNormalizeClampsActiveIndexIntoRange(t *testing.T) {
	work := Size{Width: 500, Height: 500}
	p := &Project{
		Slides:      []Slide{NewSlide(work), NewSlide(work)},
		ActiveIndex: 9,
	}
	p.Normalize(work)
	if p.ActiveIndex != 1 {
		t.Fatalf("activeIndex = %d", p.ActiveIndex)
	}

	p.ActiveIndex = -3
	p.Normalize(work)
	if p.ActiveIndex != 0 {
		t.Fatalf("activeIndex = %d", p.ActiveIndex)
	}
}

func TestNormalizeImageDefaults(t *testing.T) {
	work := Size{Width: 500, Height: 500}
	slide := NewSlide(work)
	slide.Image = &ImageLayer{Scale: 0}
	p := &Project{Slides: []Slide{slide}}
	p.Normalize(work)

	img := p.Slides[0].Image
	if img.SignX != 1 || img.SignY != 1 {
		t.Fatalf("signs = %d,%d", img.SignX, img.SignY)
	}
	if img.Scale != 1 {
		t.Fatalf("scale = %v", img.Scale)
	}
}

func TestNormalizePercentWinsOverAbsolute(t *testing.T) {
	work := Size{Width: 500, Height: 500}
	slide := NewSlide(work)
	img := &ImageLayer{Scale: 1}
	img.SetPercentPosition(50, 50, 500, 500)
	// Simulate a partial write that left the legacy form behind.
	cx, cy := 250.0, 250.0
	img.CX = &cx
	img.CY = &cy
	slide.Image = img

	p := &Project{Slides: []Slide{slide}}
	p.Normalize(work)

	got := p.Slides[0].Image
	if !got.HasPercent() {
		t.Fatal("percentage position dropped")
	}
	if got.HasAbsolute() {
		t.Fatal("legacy absolute position kept alongside percentage")
	}
}

func TestNormalizeAcceptsLegacyAbsoluteOnly(t *testing.T) {
	work := Size{Width: 500, Height: 500}
	raw := `{"version":62,"activeIndex":0,"slides":[{"workSize":{"width":500,"height":500},"durationMs":3000,"image":{"cx":100,"cy":200,"scale":1,"natW":800,"natH":600},"layers":[]}]}`

	var p Project
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	p.Normalize(work)

	img := p.Slides[0].Image
	if !img.HasAbsolute() || img.HasPercent() {
		t.Fatalf("position forms = abs:%v pct:%v", img.HasAbsolute(), img.HasPercent())
	}
	if *img.CX != 100 || *img.CY != 200 {
		t.Fatalf("cx,cy = %v,%v", *img.CX, *img.CY)
	}
}

func TestSetPercentPositionDropsAbsolute(t *testing.T) {
	img := &ImageLayer{}
	img.SetAbsolutePosition(10, 20)
	img.SetPercentPosition(25, 75, 500, 500)

	if img.CX != nil || img.CY != nil {
		t.Fatal("absolute form survived SetPercentPosition")
	}
	if *img.CXPercent != 25 || *img.CYPercent != 75 {
		t.Fatalf("percent = %v,%v", *img.CXPercent, *img.CYPercent)
	}
	if img.OriginalWidth != 500 || img.OriginalHeight != 500 {
		t.Fatalf("original = %v,%v", img.OriginalWidth, img.OriginalHeight)
	}
}

func TestCloneIsDeep(t *testing.T) {
	work := Size{Width: 500, Height: 500}
	p := NewSampleProject(work)
	clone := p.Clone()

	clone.Slides[0].Layers[0].Text = "changed"
	if p.Slides[0].Layers[0].Text == "changed" {
		t.Fatal("clone shares layer storage with the original")
	}

	clone.Slides[0].Image = &ImageLayer{Scale: 2}
	if p.Slides[0].Image != nil {
		t.Fatal("clone shares image storage with the original")
	}
}

func TestEffectiveDurationMs(t *testing.T) {
	s := Slide{DurationMs: 0}
	if got := s.EffectiveDurationMs(); got != DefaultSlideDurationMs {
		t.Fatalf("zero duration = %d", got)
	}
	s.DurationMs = 1500
	if got := s.EffectiveDurationMs(); got != 1500 {
		t.Fatalf("explicit duration = %d", got)
	}
}
