package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kadirpekel/debaterag/pkg/debate"
)

// handleDebateWS streams pipeline events over a websocket. Protocol: the
// client sends the JSON request within the handshake window, the server
// acknowledges with a single {"event":"ready"}, then relays every pipeline
// event in production order, ending with exactly one "done" or "error"
// event before closing.
func (s *Server) handleDebateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	log := slog.With("session", session)

	handshake := time.Duration(s.cfg.HandshakeTimeout) * time.Second
	_ = conn.SetReadDeadline(time.Now().Add(handshake))

	var req DebateRequest
	if err := conn.ReadJSON(&req); err != nil {
		detail := "Invalid request payload. Send JSON after connecting."
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			detail = "No payload received. Send JSON after connecting."
		}
		_ = conn.WriteJSON(debate.Event{
			Event:  debate.EventError,
			Detail: detail,
		})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	if err := conn.WriteJSON(map[string]string{"event": "ready"}); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, err := s.engine.Stream(ctx, req.Documents, req.Query, req.options())
	if err != nil {
		_ = conn.WriteJSON(debate.Event{Event: debate.EventError, Detail: err.Error()})
		return
	}

	// Read pump: the client sends nothing after the request, so any read
	// result signals a disconnect (or a close frame). Cancelling stops the
	// producer from relaying further events; an in-flight completion call
	// runs to completion and its result is discarded.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	log.Info("debate stream started", "documents", len(req.Documents))

	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			log.Info("client disconnected mid-stream")
			cancel()
			for range events {
				// Drain until the producer observes cancellation.
			}
			return
		}
	}

	log.Info("debate stream finished")
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
