package render

import "github.com/stagecast/stagecast/internal/broadcast"

// Formatting defaults for the main output.
const (
	DefaultBackground = "#000000"
	DefaultFontColor  = "#ffffff"
	DefaultFontSize   = 48
)

// Update handles of the main output skeleton.
const (
	MainRoot        = "main.root"
	MainSlide       = "main.slide"
	MainPlaceholder = "main.placeholder"
	MainLogo        = "main.logo"
	MainMessage     = "main.message"
)

const mainPlaceholderText = "No slide selected"

// MainSkeleton builds the audience-facing surface structure: a single
// full-area text region, plus a fixed-corner logo element and a bottom
// overlay banner, both hidden until their fields are set.
func MainSkeleton() *Skeleton {
	return &Skeleton{
		Title: "Main Output",
		Root: &Node{
			ID:   MainRoot,
			Kind: KindContainer,
			Children: []*Node{
				{ID: MainSlide, Kind: KindText, Class: "slide-content"},
				{ID: MainPlaceholder, Kind: KindText, Class: "no-content"},
				{ID: MainLogo, Kind: KindImage, Class: "logo"},
				{ID: MainMessage, Kind: KindText, Class: "overlay-message"},
			},
		},
	}
}

// MainPatch computes the audience-facing render of the state. Blackout and
// clear suppress slide content; blackout also forces a black background.
// With no slide and no flags set, a neutral placeholder shows instead of a
// blank frame.
func MainPatch(st broadcast.State) Patch {
	content := ""
	if !st.IsBlacked && !st.IsCleared && st.CurrentSlide != nil {
		content = st.CurrentSlide.Content
	}

	background := st.Formatting.BackgroundColor
	if background == "" {
		background = DefaultBackground
	}
	if st.IsBlacked {
		background = DefaultBackground
	}

	color := st.Formatting.FontColor
	if color == "" {
		color = DefaultFontColor
	}
	size := st.Formatting.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}

	placeholder := content == "" && !st.IsBlacked && !st.IsCleared

	p := Patch{
		MainRoot: {
			Background: str(background),
			Color:      str(color),
			FontFamily: str(st.Formatting.FontFamily),
			FontSize:   num(size),
		},
		MainSlide: {Text: str(content)},
		MainPlaceholder: {
			Text:    str(mainPlaceholderText),
			Visible: vis(placeholder),
		},
	}

	if st.LogoURL != "" {
		p[MainLogo] = Update{Src: str(st.LogoURL), Visible: vis(true)}
	} else {
		p[MainLogo] = Update{Visible: vis(false)}
	}

	if st.OverlayMessage != "" {
		p[MainMessage] = Update{Text: str(st.OverlayMessage), Visible: vis(true)}
	} else {
		p[MainMessage] = Update{Visible: vis(false)}
	}

	return p
}
