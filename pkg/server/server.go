package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/kadirpekel/debaterag/pkg/config"
	"github.com/kadirpekel/debaterag/pkg/debate"
)

//go:embed static/index.html
var indexHTML []byte

// Server exposes the debate engine over HTTP and WebSocket.
type Server struct {
	cfg      config.ServerConfig
	engine   *debate.Engine
	server   *http.Server
	upgrader websocket.Upgrader
}

// New creates a server around the given engine.
func New(cfg config.ServerConfig, engine *debate.Engine) *Server {
	cfg.SetDefaults()
	s := &Server{
		cfg:    cfg,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The demo UI is served from the same origin; cross-origin
			// clients are allowed for API use.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Post("/api/debate", s.handleDebate)
	r.Get("/ws/debate", s.handleDebateWS)

	return r
}

// ListenAndServe starts the server and blocks until ctx is cancelled or the
// listener fails, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// DebateRequest is the request payload for both transports.
type DebateRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
	Rounds    int      `json:"rounds,omitempty"`
}

func (r DebateRequest) options() debate.Options {
	return debate.Options{
		Model:  r.Model,
		TopK:   r.TopK,
		Rounds: r.Rounds,
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDebate drains the full pipeline and responds with the batched result.
func (s *Server) handleDebate(w http.ResponseWriter, r *http.Request) {
	var req DebateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON body"})
		return
	}

	result, err := s.engine.Run(r.Context(), req.Documents, req.Query, req.options())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, debate.ErrInput) {
			status = http.StatusBadRequest
		}
		slog.Error("debate request failed", "error", err)
		writeJSON(w, status, errorResponse{Detail: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
