package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is one analyzed camera frame.
type Result struct {
	Emotion string             `json:"emotion"`
	Scores  map[string]float64 `json:"scores,omitempty"`
}

// Analyzer turns a camera frame into an emotion label.
type Analyzer interface {
	Analyze(ctx context.Context, frame []byte) (*Result, error)
}

// HTTPAnalyzer posts frames to the emotion detection sidecar.
type HTTPAnalyzer struct {
	url    string
	client *http.Client
}

// NewHTTPAnalyzer creates a client for the sidecar at url.
func NewHTTPAnalyzer(url string) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Analyze sends one frame and returns the dominant emotion.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, frame []byte) (*Result, error) {
	reqBody := map[string]string{
		"image": base64.StdEncoding.EncodeToString(frame),
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.url+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision api status %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		DominantEmotion string             `json:"dominant_emotion"`
		Emotions        map[string]float64 `json:"emotions"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.DominantEmotion == "" {
		return nil, fmt.Errorf("vision api returned no emotion")
	}

	return &Result{
		Emotion: strings.ToLower(result.DominantEmotion),
		Scores:  result.Emotions,
	}, nil
}

// MockAnalyzer is a test double for the Analyzer interface.
type MockAnalyzer struct {
	Result *Result
	Err    error
	Calls  int
}

func (m *MockAnalyzer) Analyze(ctx context.Context, frame []byte) (*Result, error) {
	m.Calls++
	return m.Result, m.Err
}
