package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPAnalyzer(t *testing.T) {
	frame := []byte{0xff, 0xd8, 0xff, 0xe0} // jpeg magic

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("path = %q, want /analyze", r.URL.Path)
		}
		var req struct {
			Image string `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			t.Fatalf("image not base64: %v", err)
		}
		if string(decoded) != string(frame) {
			t.Errorf("frame bytes mismatch")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"dominant_emotion": "Happy",
			"emotions":         map[string]float64{"happy": 0.92, "neutral": 0.05},
		})
	}))
	defer srv.Close()

	a := NewHTTPAnalyzer(srv.URL)
	res, err := a.Analyze(context.Background(), frame)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Emotion != "happy" {
		t.Errorf("Emotion = %q, want lowercased happy", res.Emotion)
	}
	if res.Scores["happy"] != 0.92 {
		t.Errorf("Scores[happy] = %g", res.Scores["happy"])
	}
}

func TestHTTPAnalyzerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no face found", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	a := NewHTTPAnalyzer(srv.URL)
	if _, err := a.Analyze(context.Background(), []byte{1}); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestHTTPAnalyzerEmptyEmotion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"emotions":{}}`))
	}))
	defer srv.Close()

	a := NewHTTPAnalyzer(srv.URL)
	if _, err := a.Analyze(context.Background(), []byte{1}); err == nil {
		t.Error("expected error when no emotion returned")
	}
}

func TestMockAnalyzer(t *testing.T) {
	m := &MockAnalyzer{Result: &Result{Emotion: "sad"}}
	res, err := m.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Emotion != "sad" {
		t.Errorf("Emotion = %q, want sad", res.Emotion)
	}
	if m.Calls != 1 {
		t.Errorf("Calls = %d, want 1", m.Calls)
	}
}
