package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/AbheyTiwari/Maitri/internal/engine"
	"github.com/AbheyTiwari/Maitri/internal/observability"
	"github.com/AbheyTiwari/Maitri/internal/store"
	"github.com/AbheyTiwari/Maitri/internal/vision"
)

// Server is the maitri HTTP and websocket API server.
type Server struct {
	db       *store.DB
	engine   *engine.Engine
	vision   vision.Analyzer // nil when no sidecar is configured
	metrics  *observability.Metrics
	router   chi.Router
	version  string
	started  time.Time
	upgrader websocket.Upgrader
}

// New creates a Server. analyzer and metrics may be nil.
func New(db *store.DB, eng *engine.Engine, analyzer vision.Analyzer, metrics *observability.Metrics, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		vision:  analyzer,
		metrics: metrics,
		version: version,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Local companion, UI is served from anywhere (file://, Electron).
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/", s.handleIndex)
	r.Get("/metrics", observability.Handler().ServeHTTP)
	r.Get("/ws/{userID}", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/games", s.handleGames)
		r.Post("/turns", s.handleTurn)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/facts", s.handleFacts)
			r.Get("/recall", s.handleRecall)
			r.Get("/engagement", s.handleEngagement)
			r.Get("/suggestions", s.handleSuggestions)
			r.Get("/turns", s.handleTurns)
			r.Post("/import", s.handleImport)
			r.Delete("/", s.handleErase)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"version":  s.version,
		"uptime":   time.Since(s.started).Seconds(),
		"db":       dbOK,
		"db_path":  s.db.Path,
		"embedder": s.engine.Embedder.Model(),
		"vision":   s.vision != nil,
	})
}
