// Package debugserver exposes a running collision space over HTTP.
package debugserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/setanarut/cspace"
)

// RouterConfig holds the dependencies of the debug router.
type RouterConfig struct {
	Space *cspace.CollisionSpace
	// Lock serializes access to Space with the code mutating the scene.
	Lock     sync.Locker
	Gatherer prometheus.Gatherer
	Hub      *Hub

	CORSOrigins []string
}

type routerHandlers struct {
	space *cspace.CollisionSpace
	lock  sync.Locker
}

// NewRouter creates the debug router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{space: cfg.Space, lock: cfg.Lock}

	r.Get("/healthz", h.handleHealth)
	r.Get("/bodies", h.handleBodies)
	r.Get("/debug", h.handleDebug)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}
	return r
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *routerHandlers) handleBodies(w http.ResponseWriter, r *http.Request) {
	h.lock.Lock()
	bodies := Snapshot(h.space)
	h.lock.Unlock()
	writeJSON(w, bodies)
}

func (h *routerHandlers) handleDebug(w http.ResponseWriter, r *http.Request) {
	h.lock.Lock()
	info := cspace.DebugInfo(h.space)
	h.lock.Unlock()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(info))
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
