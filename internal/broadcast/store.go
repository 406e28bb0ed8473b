package broadcast

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Store owns the canonical BroadcastState. All mutation goes through
// ApplyUpdate / ApplyOverlay / Reset; every mutation notifies subscribers
// synchronously with the same snapshot, so all active roles rendered from one
// update observe identical state.
type Store struct {
	// applyMu is held across a mutation and its notification, so the renders
	// of back-to-back updates are delivered in event order. mu alone only
	// protects the state fields; releasing it before notify would let a
	// second mutator deliver its snapshot first.
	applyMu sync.Mutex

	mu    sync.RWMutex
	state State

	subMu sync.RWMutex
	subs  []func(State)
}

// NewStore creates a store holding empty defaults.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers fn to be called after every mutation with a snapshot of
// the new state. Callbacks run synchronously in registration order on the
// mutating goroutine, which is what gives back-to-back updates their event
// ordering.
func (s *Store) Subscribe(fn func(State)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ApplyUpdate merges a slide-change wholesale into the state. Overlay fields
// are never touched here.
func (s *Store) ApplyUpdate(u SlideUpdate) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	s.state.CurrentSlide = u.CurrentSlide
	s.state.NextSlide = u.NextSlide
	s.state.Formatting = u.Formatting
	s.state.IsBlacked = u.IsBlacked
	s.state.IsCleared = u.IsCleared
	s.state.PresentationTitle = u.PresentationTitle
	s.state.SlideIndex = u.SlideIndex
	s.state.TotalSlides = u.TotalSlides
	s.state.IsLive = u.IsLive
	snap := s.state.Clone()
	s.mu.Unlock()

	log.Debug().
		Int("slide_index", snap.SlideIndex).
		Int("total_slides", snap.TotalSlides).
		Bool("is_live", snap.IsLive).
		Msg("broadcast state updated")

	s.notify(snap)
}

// ApplySlides merges only the slide pair and formatting, leaving blackout,
// clear, title and position fields as they are. This is the editor-side
// broadcast operation.
func (s *Store) ApplySlides(current, next *Slide, f Formatting) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	s.state.CurrentSlide = current
	s.state.NextSlide = next
	s.state.Formatting = f
	snap := s.state.Clone()
	s.mu.Unlock()

	s.notify(snap)
}

// ApplyOverlay merges only the overlay message and logo URL; slide and
// formatting fields are untouched so overlay updates never perturb slide
// rendering.
func (s *Store) ApplyOverlay(u OverlayUpdate) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if u.Message != nil {
		s.state.OverlayMessage = *u.Message
	}
	if u.LogoURL != nil {
		s.state.LogoURL = *u.LogoURL
	}
	snap := s.state.Clone()
	s.mu.Unlock()

	s.notify(snap)
}

// Reset restores the empty defaults. This is the only wholesale replacement
// of the state.
func (s *Store) Reset() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	s.state = State{}
	snap := s.state
	s.mu.Unlock()

	log.Debug().Msg("broadcast state reset")
	s.notify(snap)
}

func (s *Store) notify(snap State) {
	s.subMu.RLock()
	subs := s.subs
	s.subMu.RUnlock()
	for _, fn := range subs {
		fn(snap)
	}
}
