package server

import (
	"encoding/base64"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/AbheyTiwari/Maitri/internal/engine"
	"github.com/AbheyTiwari/Maitri/internal/transcript"
)

const (
	historyKeep   = 20
	historyBudget = 2000
)

// wsIn is a client-to-server websocket message.
type wsIn struct {
	Type    string `json:"type"` // "chat", "frame", "ping"
	Text    string `json:"text,omitempty"`
	Emotion string `json:"emotion,omitempty"`
	Frame   string `json:"frame,omitempty"` // base64 image
}

// wsSession is one realtime chat connection. The read loop is the only
// reader; writes go through send which serializes on the mutex.
type wsSession struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	userID string

	history        []transcript.Line
	pendingEmotion string // set by the latest frame, consumed by the next chat
}

func (sess *wsSession) send(v any) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.conn.WriteJSON(v); err != nil {
		log.Printf("ws: write to %s failed: %v", sess.userID, err)
	}
}

func (sess *wsSession) remember(role, text string) {
	sess.history = append(sess.history, transcript.Line{Role: role, Text: text})
	if len(sess.history) > historyKeep {
		sess.history = sess.history[len(sess.history)-historyKeep:]
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "user id required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	sess := &wsSession{conn: conn, userID: userID}
	for {
		var msg wsIn
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws: %s read: %v", userID, err)
			}
			return
		}

		switch msg.Type {
		case "ping":
			sess.send(map[string]any{"type": "pong"})
		case "frame":
			s.handleFrame(r, sess, msg)
		case "chat":
			s.handleChat(r, sess, msg)
		default:
			sess.send(map[string]any{"type": "error", "error": "unknown message type: " + msg.Type})
		}
	}
}

func (s *Server) handleFrame(r *http.Request, sess *wsSession, msg wsIn) {
	if s.vision == nil {
		sess.send(map[string]any{"type": "error", "error": "vision not configured"})
		return
	}

	frame, err := base64.StdEncoding.DecodeString(msg.Frame)
	if err != nil || len(frame) == 0 {
		sess.send(map[string]any{"type": "error", "error": "frame must be base64 image data"})
		return
	}

	res, err := s.vision.Analyze(r.Context(), frame)
	if err != nil {
		log.Printf("ws: frame analysis for %s: %v", sess.userID, err)
		sess.send(map[string]any{"type": "error", "error": "frame analysis failed"})
		return
	}

	sess.pendingEmotion = res.Emotion
	sess.send(map[string]any{"type": "emotion", "emotion": res.Emotion, "scores": res.Scores})
}

func (s *Server) handleChat(r *http.Request, sess *wsSession, msg wsIn) {
	emotion := msg.Emotion
	if emotion == "" {
		emotion = sess.pendingEmotion
	}
	sess.pendingEmotion = ""

	in := engine.TurnInput{UserID: sess.userID, Text: msg.Text, Emotion: emotion}
	res, err := s.engine.ProcessTurn(r.Context(), in)
	if err != nil {
		sess.send(map[string]any{"type": "error", "error": err.Error()})
		return
	}

	history := transcript.Condense(sess.history, historyBudget)
	reply := s.engine.Respond(r.Context(), in, res, history)

	sess.remember("them", msg.Text)
	sess.remember("maitri", reply)

	sess.send(map[string]any{
		"type":    "reply",
		"turn_id": res.TurnID,
		"text":    reply,
		"emotion": emotion,
		"stress":  res.Stress,
	})

	if res.Suggestion != nil {
		sess.send(map[string]any{
			"type":   "suggestion",
			"kind":   res.Suggestion.Kind,
			"reason": res.Suggestion.Reason,
			"prompt": s.engine.GamePrompt(res.Suggestion.Kind),
		})
	}
}
