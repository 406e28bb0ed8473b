package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/stagecast/stagecast/internal/output"
	"github.com/stagecast/stagecast/internal/render"
)

// Frame types sent to surface clients.
const (
	frameInit    = "init"
	framePatch   = "patch"
	frameControl = "control"
)

// Control actions a surface client may honor. Both are best-effort; a client
// that cannot (or will not) act on them simply ignores the frame and keeps
// its own in-surface fullscreen button as the fallback.
const (
	ControlFullscreen = "fullscreen"
	ControlFocus      = "focus"
)

var errSurfaceClosed = errors.New("surface connection closed")

// frame is the wire envelope pushed to a surface client.
type frame struct {
	Type     string           `json:"type"`
	Skeleton *render.Skeleton `json:"skeleton,omitempty"`
	Patch    render.Patch     `json:"patch,omitempty"`
	Action   string           `json:"action,omitempty"`
}

// SurfaceConn is one WebSocket-attached display surface. It satisfies
// output.Surface: frames go out through a buffered send channel drained by
// the write pump, and liveness is the connection's ping/pong health.
type SurfaceConn struct {
	id   string
	role output.Role
	conn *websocket.Conn
	send chan []byte
	cfg  ConnConfig

	closeOnce sync.Once
	closed    chan struct{}

	connectedAt time.Time
}

// ID returns the surface connection identity.
func (s *SurfaceConn) ID() string { return s.id }

// Alive reports whether the connection still denotes a live surface.
func (s *SurfaceConn) Alive() bool {
	select {
	case <-s.closed:
		return false
	default:
		return true
	}
}

// Init sends the one-time skeleton frame.
func (s *SurfaceConn) Init(skel *render.Skeleton) error {
	return s.enqueue(frame{Type: frameInit, Skeleton: skel})
}

// Apply sends a field-update frame.
func (s *SurfaceConn) Apply(patch render.Patch) error {
	return s.enqueue(frame{Type: framePatch, Patch: patch})
}

// Fullscreen asks the client to enter fullscreen.
func (s *SurfaceConn) Fullscreen() error {
	return s.enqueue(frame{Type: frameControl, Action: ControlFullscreen})
}

// Focus asks the client to bring itself to the foreground.
func (s *SurfaceConn) Focus() error {
	return s.enqueue(frame{Type: frameControl, Action: ControlFocus})
}

// Close tears the connection down. Safe to call more than once.
func (s *SurfaceConn) Close() error {
	s.markClosed()
	return nil
}

func (s *SurfaceConn) markClosed() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

func (s *SurfaceConn) enqueue(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", f.Type, err)
	}

	select {
	case <-s.closed:
		return errSurfaceClosed
	default:
	}

	select {
	case s.send <- data:
		return nil
	default:
		// Surface is too slow to keep a consistent rendering; drop it and
		// let the lifecycle monitor reconcile.
		log.Warn().
			Str("surface_id", s.id).
			Str("role", string(s.role)).
			Msg("surface send buffer full, closing connection")
		s.markClosed()
		return errSurfaceClosed
	}
}

// writePump drains the send channel onto the connection and keeps the
// ping/pong heartbeat going.
func (s *SurfaceConn) writePump() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.markClosed()
	}()

	for {
		select {
		case <-s.closed:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().
					Err(err).
					Str("surface_id", s.id).
					Msg("failed to write frame to surface")
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes the connection until it dies. Surface clients send
// nothing meaningful today; the pump exists to process pongs and to notice
// closure promptly.
func (s *SurfaceConn) readPump() {
	defer s.markClosed()

	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().
					Err(err).
					Str("surface_id", s.id).
					Msg("surface connection closed unexpectedly")
			}
			return
		}
	}
}
