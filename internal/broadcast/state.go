package broadcast

// Slide is one unit of presentable content.
type Slide struct {
	Content string `json:"content"`
	Notes   string `json:"notes,omitempty"`
	Label   string `json:"label,omitempty"`
}

// Formatting carries the visual styling applied when rendering a slide.
// Zero values mean "use the renderer's default".
type Formatting struct {
	BackgroundColor string `json:"background_color,omitempty"`
	FontColor       string `json:"font_color,omitempty"`
	FontFamily      string `json:"font_family,omitempty"`
	FontSize        int    `json:"font_size,omitempty"`
}

// State is the canonical snapshot of what is being shown. There is exactly
// one State per process, owned by the Store; renderers only ever see copies.
type State struct {
	CurrentSlide      *Slide     `json:"current_slide,omitempty"`
	NextSlide         *Slide     `json:"next_slide,omitempty"`
	Formatting        Formatting `json:"formatting"`
	IsBlacked         bool       `json:"is_blacked"`
	IsCleared         bool       `json:"is_cleared"`
	OverlayMessage    string     `json:"overlay_message,omitempty"`
	LogoURL           string     `json:"logo_url,omitempty"`
	PresentationTitle string     `json:"presentation_title,omitempty"`
	SlideIndex        int        `json:"slide_index"`
	TotalSlides       int        `json:"total_slides"`
	IsLive            bool       `json:"is_live"`
}

// Clone returns a copy of the state with its own slide values, so a caller
// holding a snapshot can never see later mutations.
func (s State) Clone() State {
	out := s
	if s.CurrentSlide != nil {
		cur := *s.CurrentSlide
		out.CurrentSlide = &cur
	}
	if s.NextSlide != nil {
		next := *s.NextSlide
		out.NextSlide = &next
	}
	return out
}

// SlideUpdate is the wholesale slide-change merge applied by ApplyUpdate.
// It deliberately excludes the overlay fields, which only ApplyOverlay touches.
type SlideUpdate struct {
	CurrentSlide      *Slide
	NextSlide         *Slide
	Formatting        Formatting
	IsBlacked         bool
	IsCleared         bool
	PresentationTitle string
	SlideIndex        int
	TotalSlides       int
	IsLive            bool
}

// OverlayUpdate merges only the overlay message and logo URL. Nil fields are
// left untouched.
type OverlayUpdate struct {
	Message *string
	LogoURL *string
}
