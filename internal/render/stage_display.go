package render

import (
	"fmt"

	"github.com/stagecast/stagecast/internal/broadcast"
)

// Update handles of the stage display skeleton.
const (
	StageTitle      = "stage.title"
	StagePosition   = "stage.position"
	StageClock      = "stage.clock"
	StageTimer      = "stage.timer"
	StageCurrentBox = "stage.current_box"
	StageCurrent    = "stage.current"
	StageNext       = "stage.next"
	StageNotes      = "stage.notes"
	StageLabel      = "stage.label"
)

// Performer-facing fallback texts.
const (
	stageNoCurrentText = "No current slide"
	stageNoNextText    = "End of presentation"
	stageNoNotesText   = "No notes for this slide"
	stageNoLabelText   = "Slide"
	stageDefaultTitle  = "Stagecast"
)

// StageSkeleton builds the performer-facing surface structure: a header with
// title, slide position, wall clock and timer readout; a two-panel body with
// the current slide at two-thirds width and the de-emphasized next-slide
// preview beside it; and a footer carrying notes and the slide label.
func StageSkeleton() *Skeleton {
	return &Skeleton{
		Title: "Stage Display",
		Root: &Node{
			Kind: KindContainer,
			Children: []*Node{
				{
					Kind:  KindContainer,
					Class: "header",
					Children: []*Node{
						{ID: StageTitle, Kind: KindText, Class: "title"},
						{ID: StagePosition, Kind: KindText, Class: "slide-position"},
						{ID: StageClock, Kind: KindText, Class: "clock"},
						{ID: StageTimer, Kind: KindText, Class: "timer"},
					},
				},
				{
					Kind:  KindContainer,
					Class: "body",
					Children: []*Node{
						{
							ID:    StageCurrentBox,
							Kind:  KindContainer,
							Class: "current-panel",
							Children: []*Node{
								{ID: StageCurrent, Kind: KindText, Class: "current-text"},
							},
						},
						{
							Kind:  KindContainer,
							Class: "next-panel",
							Children: []*Node{
								{ID: StageNext, Kind: KindText, Class: "next-text"},
							},
						},
					},
				},
				{
					Kind:  KindContainer,
					Class: "footer",
					Children: []*Node{
						{ID: StageNotes, Kind: KindText, Class: "notes"},
						{ID: StageLabel, Kind: KindText, Class: "slide-label"},
					},
				},
			},
		},
	}
}

// StagePatch computes the performer-facing render. timerReadout is the
// already-formatted HH:MM:SS value for the configured timer mode; clock
// supplies the header wall clock.
func StagePatch(st broadcast.State, timerReadout string, clock Clock) Patch {
	current := stageNoCurrentText
	notes := stageNoNotesText
	label := stageNoLabelText
	if st.CurrentSlide != nil {
		if st.CurrentSlide.Content != "" {
			current = st.CurrentSlide.Content
		}
		if st.CurrentSlide.Notes != "" {
			notes = st.CurrentSlide.Notes
		}
		if st.CurrentSlide.Label != "" {
			label = st.CurrentSlide.Label
		}
	}

	next := stageNoNextText
	if st.NextSlide != nil && st.NextSlide.Content != "" {
		next = st.NextSlide.Content
	}

	title := st.PresentationTitle
	if title == "" {
		title = stageDefaultTitle
	}

	position := fmt.Sprintf("%d", st.SlideIndex+1)
	if st.TotalSlides > 0 {
		position = fmt.Sprintf("%d/%d", st.SlideIndex+1, st.TotalSlides)
	}
	if st.IsLive {
		position += " LIVE"
	}

	background := st.Formatting.BackgroundColor
	if background == "" {
		background = DefaultBackground
	}
	color := st.Formatting.FontColor
	if color == "" {
		color = DefaultFontColor
	}

	return Patch{
		StageTitle:    {Text: str(title)},
		StagePosition: {Text: str(position)},
		StageClock:    {Text: str(clock.Now().Format("15:04:05"))},
		StageTimer:    {Text: str(timerReadout)},
		StageCurrentBox: {
			Background: str(background),
		},
		StageCurrent: {
			Text:       str(current),
			Color:      str(color),
			FontFamily: str(st.Formatting.FontFamily),
		},
		StageNext:  {Text: str(next), FontFamily: str(st.Formatting.FontFamily)},
		StageNotes: {Text: str(notes)},
		StageLabel: {Text: str(label)},
	}
}
