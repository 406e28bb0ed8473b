package gateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/stagecast/stagecast/internal/config"
	"github.com/stagecast/stagecast/internal/output"
)

// ConnConfig holds the WebSocket tuning for surface connections.
type ConnConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	SendBufferSize  int
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnConfig returns the default surface connection tuning.
func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		SendBufferSize:  64,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Surfaces attach from operator-controlled pages; restrict in
			// production deployments.
			return true
		},
	}
}

// Hub accepts display surface clients over WebSocket and parks them in
// per-role waiting pools. Activating a role pops the oldest live waiting
// client, making it that role's surface handle. The hub is the registry's
// Opener: no waiting client means activation fails, which the registry
// treats as the normal inactive outcome.
type Hub struct {
	upgrader websocket.Upgrader
	cfg      ConnConfig

	mu      sync.Mutex
	waiting map[output.Role][]*SurfaceConn
}

// NewHub creates a hub with the given connection tuning.
func NewHub(cfg ConnConfig) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		cfg:     cfg,
		waiting: make(map[output.Role][]*SurfaceConn),
	}
}

// HandleSurface upgrades an HTTP request to a waiting surface connection.
// Route: GET /ws/surface?role=main|stage.
func (h *Hub) HandleSurface(w http.ResponseWriter, r *http.Request) {
	role := output.Role(r.URL.Query().Get("role"))
	if !role.Valid() {
		http.Error(w, "role must be main or stage", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade surface connection")
		return
	}

	sc := &SurfaceConn{
		id:          uuid.New().String(),
		role:        role,
		conn:        conn,
		send:        make(chan []byte, h.cfg.SendBufferSize),
		cfg:         h.cfg,
		closed:      make(chan struct{}),
		connectedAt: time.Now(),
	}

	go sc.writePump()
	go sc.readPump()

	h.mu.Lock()
	// A burst of connect-then-disconnect clients would otherwise pile up
	// dead entries until the next activation for this role.
	live := h.waiting[role][:0]
	for _, c := range h.waiting[role] {
		if c.Alive() {
			live = append(live, c)
		}
	}
	h.waiting[role] = append(live, sc)
	h.mu.Unlock()

	log.Info().
		Str("surface_id", sc.id).
		Str("role", string(role)).
		Msg("surface client attached, waiting for activation")
}

// Open pops the oldest live waiting client for the role. Dead clients found
// along the way are pruned. A fullscreen display mode is forwarded as a
// best-effort control frame right away.
func (h *Hub) Open(role output.Role, mode config.DisplayMode) (output.Surface, error) {
	sc := h.popWaiting(role)
	if sc == nil {
		return nil, fmt.Errorf("no surface client attached for role %s", role)
	}

	if mode == config.DisplayModeFullscreen {
		if err := sc.Fullscreen(); err != nil {
			log.Debug().Err(err).Str("surface_id", sc.id).Msg("initial fullscreen request failed")
		}
	}
	return sc, nil
}

func (h *Hub) popWaiting(role output.Role) *SurfaceConn {
	h.mu.Lock()
	defer h.mu.Unlock()

	pool := h.waiting[role]
	for len(pool) > 0 {
		sc := pool[0]
		pool = pool[1:]
		if sc.Alive() {
			h.waiting[role] = pool
			return sc
		}
	}
	h.waiting[role] = pool
	return nil
}

// Stats reports waiting client counts per role.
func (h *Hub) Stats() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := make(map[string]int, len(h.waiting))
	for role, pool := range h.waiting {
		live := 0
		for _, sc := range pool {
			if sc.Alive() {
				live++
			}
		}
		stats[string(role)] = live
	}
	return stats
}
