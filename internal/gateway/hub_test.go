package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stagecast/stagecast/internal/config"
	"github.com/stagecast/stagecast/internal/output"
	"github.com/stagecast/stagecast/internal/render"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(DefaultConnConfig())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/surface", hub.HandleSurface)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/surface"
	return hub, wsURL
}

func dialSurface(t *testing.T, wsURL string, role output.Role) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?role="+string(role), nil)
	if err != nil {
		t.Fatalf("failed to dial surface: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForWaiting(t *testing.T, hub *Hub, role output.Role, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Stats()[string(role)] == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("waiting pool for %s never reached %d (stats: %v)", role, want, hub.Stats())
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return f
}

func TestHub_OpenPopsWaitingClientAndDeliversFrames(t *testing.T) {
	hub, wsURL := newTestHub(t)
	client := dialSurface(t, wsURL, output.RoleMain)
	waitForWaiting(t, hub, output.RoleMain, 1)

	surface, err := hub.Open(output.RoleMain, config.DisplayModeWindowed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !surface.Alive() {
		t.Fatal("freshly opened surface must be alive")
	}

	if err := surface.Init(render.MainSkeleton()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	f := readFrame(t, client)
	if f.Type != frameInit || f.Skeleton == nil {
		t.Fatalf("first frame = %+v, want init with skeleton", f)
	}

	text := "Amazing Grace"
	if err := surface.Apply(render.Patch{render.MainSlide: render.Update{Text: &text}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	f = readFrame(t, client)
	if f.Type != framePatch {
		t.Fatalf("second frame type = %q, want patch", f.Type)
	}
	u, ok := f.Patch[render.MainSlide]
	if !ok || u.Text == nil || *u.Text != text {
		t.Fatalf("patch frame = %+v, want slide text %q", f.Patch, text)
	}
}

func TestHub_OpenWithoutWaitingClientFails(t *testing.T) {
	hub, wsURL := newTestHub(t)

	if _, err := hub.Open(output.RoleStage, config.DisplayModeWindowed); err == nil {
		t.Fatal("Open with an empty waiting pool must fail")
	}

	// A main client does not satisfy a stage activation.
	dialSurface(t, wsURL, output.RoleMain)
	waitForWaiting(t, hub, output.RoleMain, 1)
	if _, err := hub.Open(output.RoleStage, config.DisplayModeWindowed); err == nil {
		t.Fatal("waiting pools must be per-role")
	}
}

func TestHub_OpenPrunesDeadClients(t *testing.T) {
	hub, wsURL := newTestHub(t)

	first := dialSurface(t, wsURL, output.RoleMain)
	waitForWaiting(t, hub, output.RoleMain, 1)
	second := dialSurface(t, wsURL, output.RoleMain)
	waitForWaiting(t, hub, output.RoleMain, 2)

	// The first client disconnects while still waiting.
	first.Close()
	waitForWaiting(t, hub, output.RoleMain, 1)

	surface, err := hub.Open(output.RoleMain, config.DisplayModeWindowed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Frames must land on the surviving client.
	if err := surface.Init(render.MainSkeleton()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if f := readFrame(t, second); f.Type != frameInit {
		t.Fatalf("surviving client got frame type %q, want init", f.Type)
	}
}

func TestHub_AttachPrunesDeadWaitingClients(t *testing.T) {
	hub, wsURL := newTestHub(t)

	first := dialSurface(t, wsURL, output.RoleMain)
	waitForWaiting(t, hub, output.RoleMain, 1)
	first.Close()

	// Wait for the server side to notice the disconnect.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.Lock()
		dead := len(hub.waiting[output.RoleMain]) == 1 && !hub.waiting[output.RoleMain][0].Alive()
		hub.mu.Unlock()
		if dead {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	dialSurface(t, wsURL, output.RoleMain)
	waitForWaiting(t, hub, output.RoleMain, 1)

	hub.mu.Lock()
	poolLen := len(hub.waiting[output.RoleMain])
	hub.mu.Unlock()
	if poolLen != 1 {
		t.Fatalf("waiting pool holds %d entries, want dead client pruned to 1", poolLen)
	}
}

func TestHub_FullscreenModeSendsControlFrame(t *testing.T) {
	hub, wsURL := newTestHub(t)
	client := dialSurface(t, wsURL, output.RoleMain)
	waitForWaiting(t, hub, output.RoleMain, 1)

	if _, err := hub.Open(output.RoleMain, config.DisplayModeFullscreen); err != nil {
		t.Fatalf("Open: %v", err)
	}

	f := readFrame(t, client)
	if f.Type != frameControl || f.Action != ControlFullscreen {
		t.Fatalf("frame = %+v, want fullscreen control", f)
	}
}

func TestHub_ClientDisconnectMarksSurfaceDead(t *testing.T) {
	hub, wsURL := newTestHub(t)
	client := dialSurface(t, wsURL, output.RoleMain)
	waitForWaiting(t, hub, output.RoleMain, 1)

	surface, err := hub.Open(output.RoleMain, config.DisplayModeWindowed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for surface.Alive() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if surface.Alive() {
		t.Fatal("surface must report dead after the client disconnects")
	}
}
