package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/metahead-arena/headball/pkg/log"
	"github.com/metahead-arena/headball/pkg/network"
	"github.com/metahead-arena/headball/pkg/state"
)

// Server exposes a local debug surface: connection health and the latest
// simulation snapshot. It is meant to be bound to localhost.
type Server struct {
	server *http.Server
}

// NewServerOptions contains options for creating a new telemetry Server.
type NewServerOptions struct {
	Addr           string
	ConnectionInfo func() network.Health
	StateManager   state.StateManager
}

// NewServer creates a new telemetry server.
func NewServer(opts NewServerOptions) *Server {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", handleHealth(opts.ConnectionInfo)).Methods(http.MethodGet)
	router.HandleFunc("/state", handleState(opts.StateManager)).Methods(http.MethodGet)

	return &Server{
		server: &http.Server{
			Addr:    opts.Addr,
			Handler: router,
		},
	}
}

// Start starts the telemetry server.
func (s *Server) Start() {
	log.Info("Telemetry server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("Telemetry server closed")
			return
		}
		log.Error("Telemetry server error: %v", err)
	}
}

// Stop stops the telemetry server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func handleHealth(connectionInfo func() network.Health) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, connectionInfo())
	}
}

func handleState(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, gameState)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode telemetry response: %v", err)
	}
}
