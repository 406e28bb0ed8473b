package events

import (
	"encoding/json"
	"fmt"
)

// Event types carried on the output bus. Editor-side collaborators publish
// these; the output engine is the consumer.
type Type string

const (
	TypeSlideChanged     Type = "slide_changed"
	TypeOverlayMessage   Type = "overlay_message"
	TypeOverlayLogo      Type = "overlay_logo"
	TypeFullscreenToggle Type = "fullscreen_toggle"
)

// Event is the envelope published on the bus. Payload is the JSON encoding of
// the payload struct matching Type.
type Event struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SlidePayload mirrors a slide as carried on the wire.
type SlidePayload struct {
	Content string `json:"content"`
	Notes   string `json:"notes,omitempty"`
	Label   string `json:"label,omitempty"`
}

// FormattingPayload mirrors slide formatting as carried on the wire.
type FormattingPayload struct {
	BackgroundColor string `json:"background_color,omitempty"`
	FontColor       string `json:"font_color,omitempty"`
	FontFamily      string `json:"font_family,omitempty"`
	FontSize        int    `json:"font_size,omitempty"`
}

// SlideChangedPayload is the payload for a SlideChanged event. It is merged
// wholesale into the broadcast state.
type SlideChangedPayload struct {
	CurrentSlide      *SlidePayload     `json:"current_slide,omitempty"`
	NextSlide         *SlidePayload     `json:"next_slide,omitempty"`
	Formatting        FormattingPayload `json:"formatting"`
	IsBlacked         bool              `json:"is_blacked"`
	IsCleared         bool              `json:"is_cleared"`
	PresentationTitle string            `json:"presentation_title"`
	SlideIndex        int               `json:"slide_index"`
	TotalSlides       int               `json:"total_slides"`
	IsLive            bool              `json:"is_live"`
}

// OverlayMessagePayload is the payload for an OverlayMessage event.
type OverlayMessagePayload struct {
	Message string `json:"message"`
}

// OverlayLogoPayload is the payload for an OverlayLogo event.
type OverlayLogoPayload struct {
	URL string `json:"url"`
}

// FullscreenTogglePayload is the payload for a FullscreenToggle request.
// An empty Target defaults to the main output.
type FullscreenTogglePayload struct {
	Target string `json:"target,omitempty"`
}

// New builds an event envelope from a typed payload.
func New(t Type, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{Type: t, Payload: data}, nil
}

// ParsePayload decodes the payload struct matching the event's type.
func ParsePayload(e Event) (any, error) {
	switch e.Type {
	case TypeSlideChanged:
		var p SlideChangedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("parse slide_changed payload: %w", err)
		}
		return p, nil
	case TypeOverlayMessage:
		var p OverlayMessagePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("parse overlay_message payload: %w", err)
		}
		return p, nil
	case TypeOverlayLogo:
		var p OverlayLogoPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("parse overlay_logo payload: %w", err)
		}
		return p, nil
	case TypeFullscreenToggle:
		var p FullscreenTogglePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("parse fullscreen_toggle payload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", e.Type)
	}
}
