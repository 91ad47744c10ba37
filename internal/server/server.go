// Package server exposes the Safe Dialog REST API: masking, demasking,
// dictionary CRUD, system prompt management and the dashboard event stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/safedialog/safedialog/internal/cache"
	"github.com/safedialog/safedialog/internal/config"
	"github.com/safedialog/safedialog/internal/dictionary"
	"github.com/safedialog/safedialog/internal/logger"
	"github.com/safedialog/safedialog/internal/masker"
	"github.com/safedialog/safedialog/internal/prompt"
	"github.com/safedialog/safedialog/internal/responder"
	"github.com/safedialog/safedialog/internal/websocket"
)

// Version is reported by /info.
const Version = "1.0.0"

// Deps are the service components the server routes requests to. Responder
// may be nil when no API key is configured; /api/process then returns 503.
// Cache may be nil when the detection cache is disabled; /api/cache then
// returns 503 and /info omits cache statistics.
type Deps struct {
	Masker    *masker.Masker
	Store     dictionary.Store
	Prompt    *prompt.Store
	Responder *responder.Client
	Cache     *cache.DetectionCache
}

// Server is the Safe Dialog HTTP server.
type Server struct {
	config *config.Config
	logger *logger.Logger
	deps   Deps
	router *mux.Router
	server *http.Server
	wsHub  *websocket.Hub
}

// New creates the HTTP server over the given components.
func New(cfg *config.Config, deps Deps, log *logger.Logger) *Server {
	wsHub := websocket.NewHub(&websocket.HubConfig{
		BroadcastMaskings:    true,
		BroadcastDictionary:  true,
		BroadcastSystem:      true,
		BroadcastConnections: true,
	}, log.WithComponent("websocket").Logger)

	s := &Server{
		config: cfg,
		logger: log.WithComponent("server"),
		deps:   deps,
		router: mux.NewRouter(),
		wsHub:  wsHub,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.handleWebSocket).Methods("GET")
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/mask-text", s.handleMaskText).Methods("POST")
	api.HandleFunc("/demask-text", s.handleDemaskText).Methods("POST")
	api.HandleFunc("/process", s.handleProcess).Methods("POST")

	api.HandleFunc("/sensitive-entities", s.handleListEntities).Methods("GET")
	api.HandleFunc("/sensitive-entities", s.handleAddEntity).Methods("POST")
	api.HandleFunc("/sensitive-entities/{id}", s.handleUpdateEntity).Methods("PUT")
	api.HandleFunc("/sensitive-entities/{id}", s.handleDeleteEntity).Methods("DELETE")

	api.HandleFunc("/system-prompt", s.handleGetSystemPrompt).Methods("GET")
	api.HandleFunc("/system-prompt", s.handlePutSystemPrompt).Methods("PUT")

	api.HandleFunc("/cache", s.handleClearCache).Methods("DELETE")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting Safe Dialog server",
		zap.Int("port", s.config.Server.Port),
		zap.String("detector", s.config.Detector.Provider),
		zap.String("dictionary", s.config.Dictionary.Driver),
	)

	go s.wsHub.Run()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping Safe Dialog server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
	})
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	hubStats := s.wsHub.GetStats()
	info := map[string]interface{}{
		"name":             "safedialog",
		"version":          Version,
		"detector":         s.config.Detector.Provider,
		"dictionaryDriver": s.config.Dictionary.Driver,
		"cacheEnabled":     s.config.Cache.Enabled,
		"responderModel":   s.config.Responder.Model,
		"websocket": map[string]interface{}{
			"activeConnections": hubStats.ActiveConnections,
			"totalConnections":  hubStats.TotalConnections,
			"totalBroadcasts":   hubStats.TotalBroadcasts,
		},
	}

	if s.deps.Cache != nil {
		if stats, err := s.deps.Cache.GetStats(r.Context()); err != nil {
			s.logger.Warn("Failed to read cache stats", zap.Error(err))
		} else {
			info["cache"] = stats
		}
	}

	writeJSON(w, http.StatusOK, info)
}

// handleClearCache flushes the detection cache. Dictionary mutations change
// encoding output without changing detector verdicts, so cached spans stay
// valid; this is for operators invalidating stale detections wholesale.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if s.deps.Cache == nil {
		writeError(w, http.StatusServiceUnavailable, "detection cache is not configured")
		return
	}

	if err := s.deps.Cache.Clear(r.Context()); err != nil {
		s.logger.Error("Failed to clear detection cache", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear detection cache")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "detection cache cleared"})
}

// handleWebSocket handles WebSocket connections for the dashboard
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}

// Hub returns the WebSocket hub for broadcasting events
func (s *Server) Hub() *websocket.Hub {
	return s.wsHub
}
