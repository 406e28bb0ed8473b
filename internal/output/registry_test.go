package output

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/stagecast/stagecast/internal/config"
	"github.com/stagecast/stagecast/internal/render"
)

// fakeSurface records every call so tests can count skeleton constructions
// and field updates.
type fakeSurface struct {
	mu          sync.Mutex
	id          string
	alive       bool
	inits       int
	applies     int
	lastPatch   render.Patch
	closes      int
	fullscreens int
	focuses     int
	failOps     bool
}

func newFakeSurface(id string) *fakeSurface {
	return &fakeSurface{id: id, alive: true}
}

func (f *fakeSurface) ID() string { return f.id }

func (f *fakeSurface) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeSurface) setAlive(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive = v
}

func (f *fakeSurface) Init(skel *render.Skeleton) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOps {
		return fmt.Errorf("surface %s gone", f.id)
	}
	f.inits++
	return nil
}

func (f *fakeSurface) Apply(patch render.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOps {
		return fmt.Errorf("surface %s gone", f.id)
	}
	f.applies++
	f.lastPatch = patch
	return nil
}

func (f *fakeSurface) Fullscreen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOps {
		return fmt.Errorf("fullscreen refused")
	}
	f.fullscreens++
	return nil
}

func (f *fakeSurface) Focus() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focuses++
	return nil
}

func (f *fakeSurface) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeSurface) counts() (inits, applies, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inits, f.applies, f.closes
}

// fakeOpener hands out queued surfaces per role; an empty queue is an
// activation failure.
type fakeOpener struct {
	mu     sync.Mutex
	queued map[Role][]*fakeSurface
	opens  int
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{queued: make(map[Role][]*fakeSurface)}
}

func (o *fakeOpener) queue(role Role, s *fakeSurface) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queued[role] = append(o.queued[role], s)
}

func (o *fakeOpener) Open(role Role, mode config.DisplayMode) (Surface, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pool := o.queued[role]
	if len(pool) == 0 {
		return nil, fmt.Errorf("no surface available for %s", role)
	}
	o.opens++
	s := pool[0]
	o.queued[role] = pool[1:]
	return s, nil
}

// waitFor polls cond until it holds or the deadline passes, so monitor tests
// never hang.
func waitFor(t *testing.T, within time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", within)
}

func TestRegistry_ToggleRoundTrip(t *testing.T) {
	fc := clockwork.NewFakeClock()
	opener := newFakeOpener()
	surface := newFakeSurface("s1")
	opener.queue(RoleMain, surface)

	reg := NewRegistry(opener, fc)

	if !reg.Toggle(RoleMain, config.DisplayModeWindowed) {
		t.Fatal("first toggle should activate")
	}
	if !reg.IsActive(RoleMain) {
		t.Fatal("role should be active after activation")
	}

	if reg.Toggle(RoleMain, config.DisplayModeWindowed) {
		t.Fatal("second toggle should deactivate")
	}
	if reg.IsActive(RoleMain) {
		t.Fatal("role should be inactive after round trip")
	}
	if _, _, closes := surface.counts(); closes != 1 {
		t.Fatalf("surface closed %d times, want 1", closes)
	}
	if reg.SurfaceFor(RoleMain) != nil {
		t.Fatal("handle must be nulled on deactivation")
	}
}

func TestRegistry_ActivationFailureIsSilent(t *testing.T) {
	fc := clockwork.NewFakeClock()
	reg := NewRegistry(newFakeOpener(), fc) // nothing queued

	if reg.Toggle(RoleStage, config.DisplayModeWindowed) {
		t.Fatal("activation with no surface available must report inactive")
	}
	if reg.IsActive(RoleStage) {
		t.Fatal("registry must stay inactive after failed activation")
	}

	surface, needInit := reg.AcquireForRender(RoleStage)
	if surface != nil || needInit {
		t.Fatal("no render target after failed activation")
	}
}

func TestRegistry_SingleHandlePerRoleAcrossCycles(t *testing.T) {
	fc := clockwork.NewFakeClock()
	opener := newFakeOpener()
	first := newFakeSurface("s1")
	second := newFakeSurface("s2")
	opener.queue(RoleMain, first)
	opener.queue(RoleMain, second)

	reg := NewRegistry(opener, fc)

	reg.Toggle(RoleMain, config.DisplayModeWindowed)
	reg.Toggle(RoleMain, config.DisplayModeWindowed) // deactivate
	reg.Toggle(RoleMain, config.DisplayModeWindowed) // reactivate

	if got := reg.SurfaceFor(RoleMain); got != second {
		t.Fatalf("expected second surface after reactivation, got %v", got)
	}
	if _, _, closes := first.counts(); closes != 1 {
		t.Fatalf("first surface should be closed exactly once, got %d", closes)
	}
}

func TestRegistry_MonitorDetectsDisappearance(t *testing.T) {
	fc := clockwork.NewFakeClock()
	opener := newFakeOpener()
	surface := newFakeSurface("s1")
	opener.queue(RoleMain, surface)

	reg := NewRegistry(opener, fc)
	reg.Toggle(RoleMain, config.DisplayModeWindowed)

	fc.BlockUntil(1) // monitor ticker is armed

	// One poll with a live surface keeps the activation.
	fc.Advance(DefaultPollInterval)
	time.Sleep(20 * time.Millisecond)
	if !reg.IsActive(RoleMain) {
		t.Fatal("live surface must stay active")
	}

	// The operator closes the surface out-of-band.
	surface.setAlive(false)
	fc.Advance(DefaultPollInterval)

	waitFor(t, time.Second, func() bool { return !reg.IsActive(RoleMain) })

	if s, _ := reg.AcquireForRender(RoleMain); s != nil {
		t.Fatal("renders must be skipped after detected disappearance")
	}
}

func TestRegistry_ConfiguredPollIntervalDrivesMonitor(t *testing.T) {
	fc := clockwork.NewFakeClock()
	opener := newFakeOpener()
	surface := newFakeSurface("s1")
	opener.queue(RoleMain, surface)

	reg := NewRegistry(opener, fc)
	reg.SetPollInterval(50 * time.Millisecond)
	reg.Toggle(RoleMain, config.DisplayModeWindowed)

	fc.BlockUntil(1)
	surface.setAlive(false)
	fc.Advance(50 * time.Millisecond)

	waitFor(t, time.Second, func() bool { return !reg.IsActive(RoleMain) })
}

func TestRegistry_DeactivationStopsMonitor(t *testing.T) {
	fc := clockwork.NewFakeClock()
	opener := newFakeOpener()
	surface := newFakeSurface("s1")
	opener.queue(RoleMain, surface)

	reg := NewRegistry(opener, fc)
	reg.Toggle(RoleMain, config.DisplayModeWindowed)
	fc.BlockUntil(1)
	reg.Toggle(RoleMain, config.DisplayModeWindowed) // deactivate, cancels monitor

	// Even many poll intervals later, the dead monitor must not tear down
	// anything again.
	surface.setAlive(false)
	fc.Advance(10 * DefaultPollInterval)
	time.Sleep(20 * time.Millisecond)

	if _, _, closes := surface.counts(); closes != 1 {
		t.Fatalf("surface closed %d times, want exactly 1", closes)
	}
	if reg.IsActive(RoleMain) {
		t.Fatal("role must remain inactive")
	}
}

func TestRegistry_AcquireForRenderInitOncePerActivation(t *testing.T) {
	fc := clockwork.NewFakeClock()
	opener := newFakeOpener()
	opener.queue(RoleStage, newFakeSurface("s1"))
	opener.queue(RoleStage, newFakeSurface("s2"))

	reg := NewRegistry(opener, fc)
	reg.Toggle(RoleStage, config.DisplayModeWindowed)

	if _, needInit := reg.AcquireForRender(RoleStage); !needInit {
		t.Fatal("first render of an activation must construct the skeleton")
	}
	if _, needInit := reg.AcquireForRender(RoleStage); needInit {
		t.Fatal("second render must only patch fields")
	}

	// A fresh activation gets a fresh skeleton.
	reg.Toggle(RoleStage, config.DisplayModeWindowed)
	reg.Toggle(RoleStage, config.DisplayModeWindowed)
	if _, needInit := reg.AcquireForRender(RoleStage); !needInit {
		t.Fatal("reactivation must construct the skeleton again")
	}
}
