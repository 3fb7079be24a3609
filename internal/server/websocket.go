package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/serranog/altair/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local demo server, no origin policy
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
	Args    string `json:"args,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Verify session exists
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	// Upgrade to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Get or create active session
	as, err := s.sessions.GetOrCreate(r.Context(), sess, s.cfg, s.store, s.registry)
	if err != nil {
		wsWriteJSON(conn, wsOutgoing{Type: "error", Content: "initializing agent: " + err.Error()})
		return
	}

	// Read loop
	for {
		var msg wsIncoming
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			slog.Warn("websocket read failed", "error", err)
			return
		}

		if msg.Type != "message" || msg.Content == "" {
			wsWriteJSON(conn, wsOutgoing{Type: "error", Content: "invalid message"})
			continue
		}

		s.processWebSocketMessage(conn, as, sess, msg.Content)
	}
}

func (s *Server) processWebSocketMessage(conn *websocket.Conn, as *ActiveSession, sess *storage.Session, content string) {
	// Ensure one exchange at a time
	as.mu.Lock()
	defer as.mu.Unlock()

	// Mutex for thread-safe writes to the WebSocket connection
	var wsMu sync.Mutex

	// Auto-generate title from first message
	if sess.Title == "" {
		sess.Title = generateTitle(content)
		s.store.UpdateSession(context.Background(), sess)
	}

	// Cancellable context, cancelled on client disconnect
	ctx, cancel := context.WithCancel(context.Background())
	as.Cancel = cancel
	defer func() {
		cancel()
		as.Cancel = nil
	}()

	// Wire agent observers to WebSocket events
	as.Agent.OnTextDelta = func(delta string) {
		wsMu.Lock()
		wsWriteJSON(conn, wsOutgoing{Type: "text_delta", Content: delta})
		wsMu.Unlock()
	}
	as.Agent.OnToolCall = func(name, args string) {
		wsMu.Lock()
		wsWriteJSON(conn, wsOutgoing{Type: "tool_call", Name: name, Args: args})
		wsMu.Unlock()
	}
	as.Agent.OnToolResult = func(name, result string) {
		wsMu.Lock()
		wsWriteJSON(conn, wsOutgoing{Type: "tool_result", Name: name, Content: result})
		wsMu.Unlock()
	}

	reply, err := as.Agent.AdvanceStream(ctx, content)

	if err == nil {
		if saveErr := s.store.SaveTurns(context.Background(), sess.ID, as.Agent.Conversation().Turns()); saveErr != nil {
			slog.Error("saving turns failed", "session_id", sess.ID, "error", saveErr)
		}
	}

	wsMu.Lock()
	defer wsMu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			wsWriteJSON(conn, wsOutgoing{Type: "error", Content: "interrupted"})
		} else {
			wsWriteJSON(conn, wsOutgoing{Type: "error", Content: err.Error()})
		}
		return
	}

	wsWriteJSON(conn, wsOutgoing{Type: "done", Content: reply})
}

func wsWriteJSON(conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Warn("websocket write failed", "error", err)
	}
}
