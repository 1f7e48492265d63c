package engine

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// failEmbedder always errors, standing in for an unreachable provider.
type failEmbedder struct{}

func (failEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, fmt.Errorf("provider unreachable")
}
func (failEmbedder) Model() string   { return "fail" }
func (failEmbedder) Dimensions() int { return 3 }

func TestHashEmbedderDeterministic(t *testing.T) {
	h := NewHashEmbedder(256)

	a, err := h.Embed(context.Background(), "I had a rough day at work")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := h.Embed(context.Background(), "I had a rough day at work")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same text produced different vectors")
	}
}

func TestHashEmbedderDimensions(t *testing.T) {
	h := NewHashEmbedder(64)
	vec, err := h.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 64 {
		t.Errorf("len(vec) = %d, want 64", len(vec))
	}
	if h.Dimensions() != 64 {
		t.Errorf("Dimensions = %d, want 64", h.Dimensions())
	}
	if h.Model() != "hash" {
		t.Errorf("Model = %q, want hash", h.Model())
	}

	if d := NewHashEmbedder(0).Dimensions(); d != 256 {
		t.Errorf("default dimensions = %d, want 256", d)
	}
}

func TestHashEmbedderNormalized(t *testing.T) {
	h := NewHashEmbedder(256)
	vec, err := h.Embed(context.Background(), "the quick brown fox jumps over the lazy dog")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("squared norm = %v, want 1", norm)
	}
}

func TestHashEmbedderSimilarity(t *testing.T) {
	h := NewHashEmbedder(256)
	ctx := context.Background()

	full, _ := h.Embed(ctx, "I had a rough day at work")
	near, _ := h.Embed(ctx, "rough day at work")
	far, _ := h.Embed(ctx, "the garden is blooming nicely")

	if sim := CosineSimilarity(full, near); sim < 0.85 {
		t.Errorf("overlapping texts: sim = %v, want > 0.85", sim)
	}
	if sim := CosineSimilarity(full, far); sim > 0.3 {
		t.Errorf("unrelated texts: sim = %v, want < 0.3", sim)
	}
}

func TestHashEmbedderEmptyText(t *testing.T) {
	h := NewHashEmbedder(16)
	vec, err := h.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatalf("empty text produced non-zero vector: %v", vec)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"length mismatch", []float64{1, 0}, []float64{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}
	for _, tt := range tests {
		if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: CosineSimilarity = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCachedEmbedder(t *testing.T) {
	var hits, misses int
	cached, err := NewCachedEmbedder(NewHashEmbedder(64), 100, func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})
	if err != nil {
		t.Fatalf("NewCachedEmbedder: %v", err)
	}

	ctx := context.Background()
	first, err := cached.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	cached.cache.Wait() // flush the async admission buffer

	second, err := cached.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("cached vector differs from original")
	}
	if misses != 1 || hits != 1 {
		t.Errorf("hits=%d misses=%d, want 1 and 1", hits, misses)
	}

	if cached.Model() != "hash" {
		t.Errorf("Model = %q, want hash (pass-through)", cached.Model())
	}
	if cached.Dimensions() != 64 {
		t.Errorf("Dimensions = %d, want 64 (pass-through)", cached.Dimensions())
	}
}

func TestCachedEmbedderErrorNotCached(t *testing.T) {
	cached, err := NewCachedEmbedder(failEmbedder{}, 100, nil)
	if err != nil {
		t.Fatalf("NewCachedEmbedder: %v", err)
	}

	if _, err := cached.Embed(context.Background(), "anything"); err == nil {
		t.Error("expected inner embedder error to propagate")
	}
}

func TestOllamaEmbedder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %s, want /api/embed", r.URL.Path)
		}
		w.Write([]byte(`{"embeddings": [[0.1, 0.2, 0.3]]}`))
	}))
	defer ts.Close()

	o := NewOllamaEmbedder(ts.URL, "nomic-embed-text", 768)
	vec, err := o.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("len(vec) = %d, want 3", len(vec))
	}
	// Dimensions track what the model actually returned.
	if o.Dimensions() != 3 {
		t.Errorf("Dimensions = %d, want 3", o.Dimensions())
	}
	if o.Model() != "ollama:nomic-embed-text" {
		t.Errorf("Model = %q, want ollama:nomic-embed-text", o.Model())
	}
}

func TestOllamaEmbedderErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	o := NewOllamaEmbedder(ts.URL, "missing", 0)
	if _, err := o.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected error on non-200 response")
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings": []}`))
	}))
	defer empty.Close()

	o = NewOllamaEmbedder(empty.URL, "m", 0)
	if _, err := o.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected error on empty embeddings")
	}
}

func TestProbeOllama(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings": [[0.1]]}`))
	}))
	defer up.Close()

	if !ProbeOllama(up.URL, "m") {
		t.Error("ProbeOllama = false for a healthy server")
	}
	if ProbeOllama("http://127.0.0.1:1", "m") {
		t.Error("ProbeOllama = true for an unreachable server")
	}
}
