package server

import (
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AbheyTiwari/Maitri/internal/vision"
)

func wsDial(t *testing.T, srv *Server, userID string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func wsRead(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWSPing(t *testing.T) {
	conn := wsDial(t, testServer(t), "u1")

	conn.WriteJSON(map[string]string{"type": "ping"})
	msg := wsRead(t, conn)
	if msg["type"] != "pong" {
		t.Errorf("type = %v, want pong", msg["type"])
	}
}

func TestWSChat(t *testing.T) {
	conn := wsDial(t, testServer(t), "asha")

	conn.WriteJSON(map[string]string{"type": "chat", "text": "My name is Asha", "emotion": "happy"})
	msg := wsRead(t, conn)

	if msg["type"] != "reply" {
		t.Fatalf("type = %v, want reply", msg["type"])
	}
	if msg["text"] == "" {
		t.Error("reply text empty")
	}
	if msg["turn_id"] == "" {
		t.Error("missing turn_id")
	}
	if stress := msg["stress"].(float64); stress < 26.9 || stress > 27.1 {
		t.Errorf("stress = %v, want 27", stress)
	}
}

func TestWSUnknownType(t *testing.T) {
	conn := wsDial(t, testServer(t), "u1")

	conn.WriteJSON(map[string]string{"type": "bogus"})
	msg := wsRead(t, conn)
	if msg["type"] != "error" {
		t.Errorf("type = %v, want error", msg["type"])
	}
}

func TestWSFrameWithoutVision(t *testing.T) {
	conn := wsDial(t, testServer(t), "u1")

	conn.WriteJSON(map[string]string{"type": "frame", "frame": base64.StdEncoding.EncodeToString([]byte{1, 2, 3})})
	msg := wsRead(t, conn)
	if msg["type"] != "error" {
		t.Errorf("type = %v, want error when vision is not configured", msg["type"])
	}
}

func TestWSFrameSetsEmotion(t *testing.T) {
	analyzer := &vision.MockAnalyzer{Result: &vision.Result{
		Emotion: "sad",
		Scores:  map[string]float64{"sad": 0.88},
	}}
	conn := wsDial(t, testServerWithVision(t, analyzer), "u1")

	conn.WriteJSON(map[string]string{"type": "frame", "frame": base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8})})
	msg := wsRead(t, conn)
	if msg["type"] != "emotion" {
		t.Fatalf("type = %v, want emotion", msg["type"])
	}
	if msg["emotion"] != "sad" {
		t.Errorf("emotion = %v, want sad", msg["emotion"])
	}

	// The pending frame emotion applies to the next chat turn.
	conn.WriteJSON(map[string]string{"type": "chat", "text": "I do not want to talk about it"})
	msg = wsRead(t, conn)
	if msg["type"] != "reply" {
		t.Fatalf("type = %v, want reply", msg["type"])
	}
	if msg["emotion"] != "sad" {
		t.Errorf("reply emotion = %v, want sad from frame", msg["emotion"])
	}
	if stress := msg["stress"].(float64); stress < 44.9 || stress > 45.1 {
		t.Errorf("stress = %v, want 45 after one sad sample", stress)
	}
	if analyzer.Calls != 1 {
		t.Errorf("analyzer calls = %d, want 1", analyzer.Calls)
	}
}

func TestWSSuggestionDelivery(t *testing.T) {
	conn := wsDial(t, testServer(t), "u1")

	for i := 0; i < 3; i++ {
		conn.WriteJSON(map[string]string{"type": "chat", "text": "I am really scared about everything right now", "emotion": "fearful"})
		msg := wsRead(t, conn)
		if msg["type"] != "reply" {
			t.Fatalf("turn %d: type = %v, want reply", i+1, msg["type"])
		}
	}

	// The third fearful turn crosses the stress threshold; the suggestion
	// arrives as its own message after the reply.
	msg := wsRead(t, conn)
	if msg["type"] != "suggestion" {
		t.Fatalf("type = %v, want suggestion", msg["type"])
	}
	if msg["reason"] != "high-stress" {
		t.Errorf("reason = %v, want high-stress", msg["reason"])
	}
	if msg["kind"] == "" || msg["prompt"] == "" {
		t.Errorf("suggestion incomplete: %v", msg)
	}
}
