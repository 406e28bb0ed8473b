package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/stagecast/stagecast/internal/broadcast"
	"github.com/stagecast/stagecast/internal/config"
	"github.com/stagecast/stagecast/internal/output"
)

// API exposes the operator-facing operations over HTTP JSON, alongside the
// surface attach endpoint.
type API struct {
	engine *output.Engine
	hub    *Hub
}

// NewAPI creates the operator API.
func NewAPI(engine *output.Engine, hub *Hub) *API {
	return &API{engine: engine, hub: hub}
}

// RegisterRoutes registers all routes on the mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/surface", a.hub.HandleSurface)

	mux.HandleFunc("GET /api/outputs", a.handleOutputs)
	mux.HandleFunc("POST /api/outputs/{role}/toggle", a.handleToggle)
	mux.HandleFunc("POST /api/outputs/{role}/fullscreen", a.handleFullscreen)
	mux.HandleFunc("POST /api/outputs/{role}/focus", a.handleFocus)

	mux.HandleFunc("GET /api/config", a.handleGetConfig)
	mux.HandleFunc("PUT /api/config", a.handleSaveConfig)

	mux.HandleFunc("POST /api/overlay/message", a.handleOverlayMessage)
	mux.HandleFunc("POST /api/overlay/logo", a.handleOverlayLogo)
	mux.HandleFunc("POST /api/broadcast", a.handleBroadcast)
	mux.HandleFunc("POST /api/broadcast/reset", a.handleBroadcastReset)

	mux.HandleFunc("POST /api/timer/reset", a.handleTimerReset)
	mux.HandleFunc("GET /api/stats", a.handleStats)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Info().Msg("output gateway routes registered")
}

func (a *API) handleOutputs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"main":  map[string]bool{"active": a.engine.IsActive(output.RoleMain)},
		"stage": map[string]bool{"active": a.engine.IsActive(output.RoleStage)},
	})
}

func (a *API) handleToggle(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	active := a.engine.Toggle(role)
	writeJSON(w, http.StatusOK, map[string]any{"role": role, "active": active})
}

func (a *API) handleFullscreen(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	a.engine.RequestFullscreen(role)
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) handleFocus(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	a.engine.Focus(role)
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Config())
}

func (a *API) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.ScreenConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}
	if err := a.engine.SaveConfig(cfg); err != nil {
		log.Error().Err(err).Msg("failed to save screen config")
		http.Error(w, "failed to save configuration", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, a.engine.Config())
}

func (a *API) handleOverlayMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	a.engine.SetOverlayMessage(body.Message)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleOverlayLogo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	a.engine.SetLogoURL(body.URL)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentSlide *broadcast.Slide     `json:"current_slide"`
		NextSlide    *broadcast.Slide     `json:"next_slide"`
		Formatting   broadcast.Formatting `json:"formatting"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	a.engine.Broadcast(body.CurrentSlide, body.NextSlide, body.Formatting)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleBroadcastReset(w http.ResponseWriter, r *http.Request) {
	a.engine.ResetState()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleTimerReset(w http.ResponseWriter, r *http.Request) {
	a.engine.ResetTimer()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"waiting_surfaces": a.hub.Stats(),
		"main_active":      a.engine.IsActive(output.RoleMain),
		"stage_active":     a.engine.IsActive(output.RoleStage),
	})
}

func pathRole(w http.ResponseWriter, r *http.Request) (output.Role, bool) {
	role := output.Role(r.PathValue("role"))
	if !role.Valid() {
		http.Error(w, "role must be main or stage", http.StatusBadRequest)
		return "", false
	}
	return role, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
