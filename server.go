package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// dashboardHTML is the single-page dashboard.  It polls /status every
// second and drives /gate from its buttons.
//
//go:embed web/dashboard.html
var dashboardHTML []byte

const invalidActionMsg = "Invalid action. Use /gate?action=open or /gate?action=close"

// Server exposes the controller over HTTP.  Handlers never touch spot state
// themselves; every request is executed by the controller's loop.
type Server struct {
	ctrl   *Controller
	port   int
	logger *EventLogger
}

// NewServer constructs a Server for ctrl listening on port.
func NewServer(ctrl *Controller, port int, logger *EventLogger) *Server {
	return &Server{ctrl: ctrl, port: port, logger: logger}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/gate", s.handleGate)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start launches the HTTP server.  It blocks until the server fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("HTTP server started on http://0.0.0.0%s\n", addr)
	return srv.ListenAndServe()
}

// handleDashboard serves the static dashboard at / only.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(dashboardHTML)
}

// handleStatus samples the sensors and returns a JSON snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st, err := s.ctrl.Status(r.Context())
	if err != nil {
		http.Error(w, "controller unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		s.logger.Log("status: encode: %v", err)
	}
}

// handleGate moves the gate according to the action query parameter and
// replies once it has settled.
func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	action := GateAction(r.URL.Query().Get("action"))
	err := s.ctrl.Command(r.Context(), action)
	switch {
	case errors.Is(err, ErrInvalidAction):
		writeText(w, http.StatusBadRequest, invalidActionMsg)
	case err != nil:
		http.Error(w, "controller unavailable", http.StatusServiceUnavailable)
	case action == GateOpen:
		writeText(w, http.StatusOK, "Gate opened.")
	default:
		writeText(w, http.StatusOK, "Gate closed.")
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
