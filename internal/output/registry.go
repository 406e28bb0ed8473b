package output

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/stagecast/stagecast/internal/config"
)

// DefaultPollInterval bounds how stale the registry can be after a surface
// disappears out-of-band.
const DefaultPollInterval = 500 * time.Millisecond

// target is one role's registry entry. Entries are created on first
// activation and kept across activate/deactivate cycles; only the surface
// handle is nulled on deactivation.
type target struct {
	surface     Surface
	active      bool
	initialized bool
	stopMonitor context.CancelFunc
}

// Registry tracks which roles are active and holds the opaque handle to each
// surface. Toggle is the sole activation entry point; the registry mutex
// serializes toggles per role and keeps active == (handle != nil) invariant.
type Registry struct {
	mu           sync.Mutex
	opener       Opener
	clock        clockwork.Clock
	pollInterval time.Duration
	targets      map[Role]*target
}

// NewRegistry creates a registry that opens surfaces through the opener and
// schedules lifecycle polls on the given clock.
func NewRegistry(opener Opener, clock clockwork.Clock) *Registry {
	return &Registry{
		opener:       opener,
		clock:        clock,
		pollInterval: DefaultPollInterval,
		targets:      make(map[Role]*target),
	}
}

// SetPollInterval overrides the lifecycle poll interval. Intended for wiring,
// not mid-flight changes.
func (r *Registry) SetPollInterval(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.pollInterval = d
	}
}

// Toggle flips the role's activation. Inactive roles request a surface and,
// on success, become active with a running lifecycle monitor; active roles
// tear down. A failed activation is silent: the registry stays inactive and
// the new state is simply reported back.
func (r *Registry) Toggle(role Role, mode config.DisplayMode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tgt := r.ensureTargetLocked(role)
	if tgt.active {
		r.deactivateLocked(role, tgt)
		return false
	}

	surface, err := r.opener.Open(role, mode)
	if err != nil || surface == nil {
		log.Debug().
			Err(err).
			Str("role", string(role)).
			Msg("surface activation failed; output stays inactive")
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	tgt.surface = surface
	tgt.active = true
	tgt.initialized = false
	tgt.stopMonitor = cancel
	go r.monitor(ctx, role, surface, r.pollInterval)

	log.Info().
		Str("role", string(role)).
		Str("surface_id", surface.ID()).
		Str("mode", string(mode)).
		Msg("output activated")
	return true
}

// IsActive reports whether the role currently holds a live surface handle.
func (r *Registry) IsActive(role Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	tgt := r.targets[role]
	return tgt != nil && tgt.active
}

// SurfaceFor returns the role's current handle, or nil when inactive.
func (r *Registry) SurfaceFor(role Role) Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	tgt := r.targets[role]
	if tgt == nil || !tgt.active {
		return nil
	}
	return tgt.surface
}

// AcquireForRender returns the surface to render to along with whether this
// render must construct the skeleton first. The initialized flag flips
// atomically with the lookup, so each activation sees exactly one skeleton
// construction no matter how renders interleave.
func (r *Registry) AcquireForRender(role Role) (Surface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tgt := r.targets[role]
	if tgt == nil || !tgt.active {
		return nil, false
	}
	if !tgt.initialized {
		tgt.initialized = true
		return tgt.surface, true
	}
	return tgt.surface, false
}

func (r *Registry) ensureTargetLocked(role Role) *target {
	tgt := r.targets[role]
	if tgt == nil {
		tgt = &target{}
		r.targets[role] = tgt
	}
	return tgt
}

// deactivateLocked performs the shared teardown of explicit toggles and
// monitor-detected disappearance: cancel the poll loop, close and null the
// handle, clear the flags.
func (r *Registry) deactivateLocked(role Role, tgt *target) {
	if tgt.stopMonitor != nil {
		tgt.stopMonitor()
		tgt.stopMonitor = nil
	}
	if tgt.surface != nil {
		if err := tgt.surface.Close(); err != nil {
			log.Debug().Err(err).Str("role", string(role)).Msg("surface close failed")
		}
	}
	tgt.surface = nil
	tgt.active = false
	tgt.initialized = false

	log.Info().Str("role", string(role)).Msg("output deactivated")
}

// monitor polls the surface for unexpected disappearance. One instance runs
// per activation; deactivation cancels it immediately so no further polls
// fire for that role.
func (r *Registry) monitor(ctx context.Context, role Role, surface Surface, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if surface.Alive() {
				continue
			}

			log.Info().
				Str("role", string(role)).
				Str("surface_id", surface.ID()).
				Msg("surface disappeared; reconciling registry")

			r.mu.Lock()
			tgt := r.targets[role]
			// Tear down only our own activation; a newer surface for
			// this role belongs to a newer monitor.
			if tgt != nil && tgt.active && tgt.surface == surface {
				r.deactivateLocked(role, tgt)
			}
			r.mu.Unlock()
			return
		}
	}
}
