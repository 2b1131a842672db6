package document

// NewSampleProject builds the two-slide demo invitation shown before a user
// loads or creates anything.
func NewSampleProject(work Size) *Project {
	p := NewEmptyProject(work)

	title := TextLayer{
		Text:       "You're invited!",
		Left:       work.Width * 0.5,
		Top:        work.Height * 0.3,
		FontFamily: p.Defaults.FontFamily,
		FontSize:   48,
		FontWeight: "bold",
		Color:      p.Defaults.FontColor,
		TextAlign:  "center",
		FadeInMs:   400,
		FadeOutMs:  400,
	}
	p.Slides[0].Layers = append(p.Slides[0].Layers, title)

	second := NewSlide(work)
	second.DurationMs = 4000
	second.Layers = append(second.Layers, TextLayer{
		Text:       "Save the date",
		Left:       work.Width * 0.5,
		Top:        work.Height * 0.5,
		FontFamily: p.Defaults.FontFamily,
		FontSize:   36,
		Color:      p.Defaults.FontColor,
		TextAlign:  "center",
		ZoomInMs:   600,
	})
	p.Slides = append(p.Slides, second)

	return p
}
