package output

import "github.com/rs/zerolog/log"

// Relay issues best-effort fullscreen and focus requests against a role's
// current surface. Both are no-ops for inactive roles, and a refusal by the
// hosting environment never propagates to the caller; each surface keeps its
// own in-surface fullscreen affordance as the reliable fallback.
type Relay struct {
	registry *Registry
}

// NewRelay creates a relay over the registry.
func NewRelay(registry *Registry) *Relay {
	return &Relay{registry: registry}
}

// RequestFullscreen asks the role's surface to go fullscreen.
func (r *Relay) RequestFullscreen(role Role) {
	surface := r.registry.SurfaceFor(role)
	if surface == nil {
		return
	}
	if err := surface.Fullscreen(); err != nil {
		// Fullscreen requests often require a direct user gesture.
		log.Debug().
			Err(err).
			Str("role", string(role)).
			Msg("fullscreen request refused")
	}
}

// Focus brings the role's surface to the foreground.
func (r *Relay) Focus(role Role) {
	surface := r.registry.SurfaceFor(role)
	if surface == nil {
		return
	}
	if err := surface.Focus(); err != nil {
		log.Debug().
			Err(err).
			Str("role", string(role)).
			Msg("focus request failed")
	}
}
