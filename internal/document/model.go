package document

import "encoding/json"

const (
	// CurrentVersion is the project format version written by this build.
	CurrentVersion = 63

	// DefaultSlideDurationMs is used during playback when a slide carries
	// no duration.
	DefaultSlideDurationMs = 3000

	// LocalStorageKey is the snapshot key used by the persistence adapter.
	LocalStorageKey = "invitationMaker_project"
)

// RSVPChoice is carried through the project untouched; the editor core does
// not interpret it.
type RSVPChoice string

const (
	RSVPNone  RSVPChoice = "none"
	RSVPYes   RSVPChoice = "yes"
	RSVPNo    RSVPChoice = "no"
	RSVPMaybe RSVPChoice = "maybe"
)

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type TextDefaults struct {
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontColor  string  `json:"fontColor"`
}

// Project is the serializable invitation document. Everything in it is plain
// JSON so history snapshots, share payloads, and server storage all use the
// same encoding.
type Project struct {
	Version        int          `json:"version"`
	Slides         []Slide      `json:"slides"`
	ActiveIndex    int          `json:"activeIndex"`
	Defaults       TextDefaults `json:"defaults"`
	RSVP           RSVPChoice   `json:"rsvp,omitempty"`
	MapQuery       string       `json:"mapQuery,omitempty"`
	WorkDimensions *Size        `json:"workDimensions,omitempty"`
}

type Slide struct {
	WorkSize   Size        `json:"workSize"`
	DurationMs int         `json:"durationMs"`
	Image      *ImageLayer `json:"image"`
	Layers     []TextLayer `json:"layers"`
}

// ImageLayer is the slide background. Exactly one position form should be
// present: percentage (canonical for new data) or absolute pixels of the
// capture work size (legacy, v<=62).
type ImageLayer struct {
	Src   string `json:"src,omitempty"`
	Thumb string `json:"thumb,omitempty"`
	NatW  int    `json:"natW"`
	NatH  int    `json:"natH"`

	// Percentage position: image center as a fraction of the capture rect.
	CXPercent      *float64 `json:"cxPercent,omitempty"`
	CYPercent      *float64 `json:"cyPercent,omitempty"`
	OriginalWidth  float64  `json:"originalWidth,omitempty"`
	OriginalHeight float64  `json:"originalHeight,omitempty"`

	// Legacy absolute position in pixels of WorkSize.
	CX *float64 `json:"cx,omitempty"`
	CY *float64 `json:"cy,omitempty"`

	Scale  float64 `json:"scale"`
	Angle  float64 `json:"angle"`
	ShearX float64 `json:"shearX"`
	ShearY float64 `json:"shearY"`
	SignX  int     `json:"signX"`
	SignY  int     `json:"signY"`
	Flip   bool    `json:"flip"`

	FadeInMs  int `json:"fadeInMs"`
	FadeOutMs int `json:"fadeOutMs"`
	ZoomInMs  int `json:"zoomInMs"`
	ZoomOutMs int `json:"zoomOutMs"`

	Filter *FilterValues `json:"filter,omitempty"`

	BackendImageID      string `json:"backendImageId,omitempty"`
	BackendImageURL     string `json:"backendImageUrl,omitempty"`
	BackendThumbnailURL string `json:"backendThumbnailUrl,omitempty"`
}

// FilterValues are the nine numeric filter channels. Range enforcement and
// preset lookup live in the engine; the document only stores values.
type FilterValues struct {
	Blur       float64 `json:"blur" yaml:"blur"`
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
	Grayscale  float64 `json:"grayscale" yaml:"grayscale"`
	HueRotate  float64 `json:"hueRotate" yaml:"hueRotate"`
	Invert     float64 `json:"invert" yaml:"invert"`
	Saturate   float64 `json:"saturate" yaml:"saturate"`
	Sepia      float64 `json:"sepia" yaml:"sepia"`
	Opacity    float64 `json:"opacity" yaml:"opacity"`
}

type TextLayer struct {
	Text string `json:"text"`

	Left  float64  `json:"left"`
	Top   float64  `json:"top"`
	Width *float64 `json:"width,omitempty"`

	FontFamily     string  `json:"fontFamily,omitempty"`
	FontSize       float64 `json:"fontSize,omitempty"`
	FontWeight     string  `json:"fontWeight,omitempty"`
	FontStyle      string  `json:"fontStyle,omitempty"`
	Color          string  `json:"color,omitempty"`
	TextAlign      string  `json:"textAlign,omitempty"`
	TextDecoration string  `json:"textDecoration,omitempty"`
	TextShadow     string  `json:"textShadow,omitempty"`
	LetterSpacing  float64 `json:"letterSpacing,omitempty"`
	LineHeight     float64 `json:"lineHeight,omitempty"`

	FadeInMs  int `json:"fadeInMs"`
	FadeOutMs int `json:"fadeOutMs"`
	ZoomInMs  int `json:"zoomInMs"`
	ZoomOutMs int `json:"zoomOutMs"`
}

// NewEmptyProject creates a one-slide project for the given work rect.
func NewEmptyProject(work Size) *Project {
	return &Project{
		Version:     CurrentVersion,
		Slides:      []Slide{NewSlide(work)},
		ActiveIndex: 0,
		Defaults: TextDefaults{
			FontFamily: "Georgia, serif",
			FontSize:   32,
			FontColor:  "#ffffff",
		},
		RSVP:           RSVPNone,
		WorkDimensions: &Size{Width: work.Width, Height: work.Height},
	}
}

// NewSlide creates an empty slide against the given work rect.
func NewSlide(work Size) Slide {
	return Slide{
		WorkSize:   work,
		DurationMs: DefaultSlideDurationMs,
		Layers:     []TextLayer{},
	}
}

// EffectiveDurationMs returns the playback duration for the slide.
func (s *Slide) EffectiveDurationMs() int {
	if s.DurationMs <= 0 {
		return DefaultSlideDurationMs
	}
	return s.DurationMs
}

// HasPercent reports whether the canonical percentage position is present.
func (l *ImageLayer) HasPercent() bool {
	return l != nil && l.CXPercent != nil && l.CYPercent != nil
}

// HasAbsolute reports whether the legacy absolute position is present.
func (l *ImageLayer) HasAbsolute() bool {
	return l != nil && l.CX != nil && l.CY != nil
}

// SetPercentPosition stores the percentage form and drops the absolute one.
// Writers prefer percentage; only one form may be present.
func (l *ImageLayer) SetPercentPosition(cxPercent, cyPercent, originalW, originalH float64) {
	cx, cy := cxPercent, cyPercent
	l.CXPercent = &cx
	l.CYPercent = &cy
	l.OriginalWidth = originalW
	l.OriginalHeight = originalH
	l.CX = nil
	l.CY = nil
}

// SetAbsolutePosition stores the legacy absolute form and drops the
// percentage one. Used by the read-side adapter and tests.
func (l *ImageLayer) SetAbsolutePosition(cx, cy float64) {
	x, y := cx, cy
	l.CX = &x
	l.CY = &y
	l.CXPercent = nil
	l.CYPercent = nil
}

// Normalize repairs a project in place so the core invariants hold: at least
// one slide, activeIndex in range, sign flags resolved, version stamped. It
// accepts v<=62 data with absent workDimensions and absolute image
// coordinates.
func (p *Project) Normalize(work Size) {
	if p.Version <= 0 {
		p.Version = CurrentVersion
	}
	if len(p.Slides) == 0 {
		p.Slides = []Slide{NewSlide(work)}
	}
	if p.ActiveIndex < 0 {
		p.ActiveIndex = 0
	}
	if p.ActiveIndex >= len(p.Slides) {
		p.ActiveIndex = len(p.Slides) - 1
	}
	if p.WorkDimensions == nil {
		p.WorkDimensions = &Size{Width: work.Width, Height: work.Height}
	}
	if p.RSVP == "" {
		p.RSVP = RSVPNone
	}
	for i := range p.Slides {
		s := &p.Slides[i]
		if s.WorkSize.Width <= 0 || s.WorkSize.Height <= 0 {
			s.WorkSize = work
		}
		if s.DurationMs < 0 {
			s.DurationMs = 0
		}
		if s.Layers == nil {
			s.Layers = []TextLayer{}
		}
		if s.Image != nil {
			s.Image.normalize()
		}
	}
}

func (l *ImageLayer) normalize() {
	if l.SignX == 0 {
		l.SignX = 1
	}
	if l.SignY == 0 {
		l.SignY = 1
	}
	if l.Scale <= 0 {
		l.Scale = 1
	}
	// Percentage wins when both forms survived a partial write.
	if l.HasPercent() && l.HasAbsolute() {
		l.CX = nil
		l.CY = nil
	}
}

// Clone deep-copies the project through JSON, the same representation used
// for history snapshots and share payloads.
func (p *Project) Clone() *Project {
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var out Project
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}
