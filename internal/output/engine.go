package output

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/stagecast/stagecast/internal/broadcast"
	"github.com/stagecast/stagecast/internal/bus"
	"github.com/stagecast/stagecast/internal/config"
	"github.com/stagecast/stagecast/internal/events"
	"github.com/stagecast/stagecast/internal/render"
	"github.com/stagecast/stagecast/internal/timer"
)

// Engine composes the broadcast store, shared timer, registry, relay and
// renderers into the output surface-synchronization core. Store mutations
// re-render every active role synchronously; the 1Hz timer tick re-renders
// the time-sensitive role (today: stage display only).
type Engine struct {
	store    *broadcast.Store
	timer    *timer.Timer
	registry *Registry
	relay    *Relay
	cfgStore *config.Store
	clock    clockwork.Clock

	cfgMu sync.RWMutex
	cfg   config.ScreenConfig
}

// NewEngine wires the engine and subscribes it to store mutations. A
// malformed persisted configuration degrades to defaults with a warning, per
// policy nothing here is fatal.
func NewEngine(store *broadcast.Store, tm *timer.Timer, registry *Registry, relay *Relay, cfgStore *config.Store, clock clockwork.Clock) *Engine {
	cfg, err := cfgStore.Load()
	if err != nil {
		log.Warn().Err(err).Msg("screen settings could not be read; reset to defaults")
	}

	e := &Engine{
		store:    store,
		timer:    tm,
		registry: registry,
		relay:    relay,
		cfgStore: cfgStore,
		clock:    clock,
		cfg:      cfg,
	}
	store.Subscribe(e.renderAll)
	return e
}

// AttachBus subscribes the engine to the inbound editor event channel.
func (e *Engine) AttachBus(b *bus.Bus) {
	for _, t := range []events.Type{
		events.TypeSlideChanged,
		events.TypeOverlayMessage,
		events.TypeOverlayLogo,
		events.TypeFullscreenToggle,
	} {
		b.Subscribe(t, e.HandleEvent)
	}
}

// Run drives the timer tick loop until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.timer.Run(ctx, e.tick)
}

// Toggle flips a role's activation. The first successful activation of any
// role starts the shared timer; a freshly activated surface gets its initial
// render (and with it the one-time skeleton construction) immediately.
func (e *Engine) Toggle(role Role) bool {
	if !e.registry.IsActive(role) {
		enabled, mode := e.roleSettings(role)
		if !enabled {
			log.Debug().Str("role", string(role)).Msg("role disabled in screen settings")
			return false
		}
		if !e.registry.Toggle(role, mode) {
			return false
		}
		e.timer.Start()
		e.renderRole(role, e.store.Snapshot())
		return true
	}
	return e.registry.Toggle(role, "")
}

// IsActive reports whether the role currently holds a live surface.
func (e *Engine) IsActive(role Role) bool {
	return e.registry.IsActive(role)
}

// Broadcast publishes a slide pair and formatting to every active surface.
func (e *Engine) Broadcast(current, next *broadcast.Slide, f broadcast.Formatting) {
	e.store.ApplySlides(current, next, f)
}

// SetOverlayMessage shows (or, with an empty string, hides) the overlay
// banner without touching slide rendering.
func (e *Engine) SetOverlayMessage(message string) {
	e.store.ApplyOverlay(broadcast.OverlayUpdate{Message: &message})
}

// SetLogoURL shows (or, with an empty string, hides) the persistent logo.
func (e *Engine) SetLogoURL(url string) {
	e.store.ApplyOverlay(broadcast.OverlayUpdate{LogoURL: &url})
}

// RequestFullscreen relays a best-effort fullscreen request to the role.
func (e *Engine) RequestFullscreen(role Role) {
	e.relay.RequestFullscreen(role)
}

// Focus relays a best-effort focus request to the role.
func (e *Engine) Focus(role Role) {
	e.relay.Focus(role)
}

// Config returns the current screen settings, the data behind the configure
// dialog.
func (e *Engine) Config() config.ScreenConfig {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

// SaveConfig persists new screen settings and re-renders active roles so a
// changed stage timer mode takes effect immediately.
func (e *Engine) SaveConfig(cfg config.ScreenConfig) error {
	cfg.Normalize()
	if err := e.cfgStore.Save(cfg); err != nil {
		return err
	}

	e.cfgMu.Lock()
	e.cfg = cfg
	e.cfgMu.Unlock()

	e.renderAll(e.store.Snapshot())
	return nil
}

// ResetState restores the broadcast state to its empty defaults.
func (e *Engine) ResetState() {
	e.store.Reset()
}

// ResetTimer restarts the shared timer from zero.
func (e *Engine) ResetTimer() {
	e.timer.Reset()
	e.renderRole(RoleStage, e.store.Snapshot())
}

// HandleEvent routes one inbound editor event.
func (e *Engine) HandleEvent(ev events.Event) {
	payload, err := events.ParsePayload(ev)
	if err != nil {
		log.Warn().Err(err).Str("type", string(ev.Type)).Msg("dropping malformed event")
		return
	}

	switch p := payload.(type) {
	case events.SlideChangedPayload:
		e.store.ApplyUpdate(toSlideUpdate(p))
	case events.OverlayMessagePayload:
		e.SetOverlayMessage(p.Message)
	case events.OverlayLogoPayload:
		e.SetLogoURL(p.URL)
	case events.FullscreenTogglePayload:
		role := RoleMain
		if Role(p.Target).Valid() {
			role = Role(p.Target)
		}
		e.RequestFullscreen(role)
	}
}

func (e *Engine) roleSettings(role Role) (bool, config.DisplayMode) {
	cfg := e.Config()
	if role == RoleStage {
		return cfg.Stage.Enabled, cfg.Stage.DisplayMode
	}
	return cfg.Main.Enabled, cfg.Main.DisplayMode
}

// tick runs once per second and refreshes the roles whose displayed value
// depends on time.
func (e *Engine) tick() {
	if !e.registry.IsActive(RoleStage) {
		return
	}
	e.renderRole(RoleStage, e.store.Snapshot())
}

// renderAll refreshes every active role from one snapshot, so no surface can
// observe a partially-applied update another surface missed.
func (e *Engine) renderAll(st broadcast.State) {
	for _, role := range Roles {
		e.renderRole(role, st)
	}
}

func (e *Engine) renderRole(role Role, st broadcast.State) {
	surface, needInit := e.registry.AcquireForRender(role)
	if surface == nil {
		return
	}

	if needInit {
		skel := render.MainSkeleton()
		if role == RoleStage {
			skel = render.StageSkeleton()
		}
		if err := surface.Init(skel); err != nil {
			// Stale handle; the lifecycle monitor reconciles it.
			log.Debug().Err(err).Str("role", string(role)).Msg("skeleton init skipped")
			return
		}
	}

	var patch render.Patch
	switch role {
	case RoleStage:
		cfg := e.Config()
		readout := e.timer.Readout(timer.Mode(cfg.Stage.TimerMode), cfg.Stage.CountdownSeconds)
		patch = render.StagePatch(st, readout, e.clock)
	default:
		patch = render.MainPatch(st)
	}

	if err := surface.Apply(patch); err != nil {
		log.Debug().Err(err).Str("role", string(role)).Msg("render skipped, surface unreachable")
	}
}

func toSlide(p *events.SlidePayload) *broadcast.Slide {
	if p == nil {
		return nil
	}
	return &broadcast.Slide{Content: p.Content, Notes: p.Notes, Label: p.Label}
}

func toSlideUpdate(p events.SlideChangedPayload) broadcast.SlideUpdate {
	return broadcast.SlideUpdate{
		CurrentSlide: toSlide(p.CurrentSlide),
		NextSlide:    toSlide(p.NextSlide),
		Formatting: broadcast.Formatting{
			BackgroundColor: p.Formatting.BackgroundColor,
			FontColor:       p.Formatting.FontColor,
			FontFamily:      p.Formatting.FontFamily,
			FontSize:        p.Formatting.FontSize,
		},
		IsBlacked:         p.IsBlacked,
		IsCleared:         p.IsCleared,
		PresentationTitle: p.PresentationTitle,
		SlideIndex:        p.SlideIndex,
		TotalSlides:       p.TotalSlides,
		IsLive:            p.IsLive,
	}
}
