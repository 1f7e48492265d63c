package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/AbheyTiwari/Maitri/internal/config"
)

func TestNewClientOllama(t *testing.T) {
	cfg := config.LLMConfig{Provider: "ollama", ChatModel: "phi3:mini"}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, ok := client.(*Ollama); !ok {
		t.Errorf("expected *Ollama, got %T", client)
	}
}

func TestNewClientAnthropic(t *testing.T) {
	cfg := config.LLMConfig{Provider: "anthropic", AnthropicKey: "test-key", ChatModel: "claude-haiku-4-5-20251001"}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, ok := client.(*Anthropic); !ok {
		t.Errorf("expected *Anthropic, got %T", client)
	}
}

func TestNewClientAnthropicMissingKey(t *testing.T) {
	cfg := config.LLMConfig{Provider: "anthropic"}
	_, err := NewClient(cfg)
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNewClientMock(t *testing.T) {
	cfg := config.LLMConfig{Provider: "mock"}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, ok := client.(*MockClient); !ok {
		t.Errorf("expected *MockClient, got %T", client)
	}
}

func TestNewClientUnknown(t *testing.T) {
	cfg := config.LLMConfig{Provider: "gpt"}
	_, err := NewClient(cfg)
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestReplyPromptIncludesContext(t *testing.T) {
	prompt := ReplyPrompt(ReplyContext{
		UserText: "I had a rough day at work",
		Emotion:  "sad",
		Facts:    []string{"name: asha", "job: teacher"},
		Memories: []string{"Last week the school inspection stressed me out"},
		History:  []string{"user: hi", "maitri: hey, good to see you"},
	})

	for _, want := range []string{
		"name: asha",
		"job: teacher",
		"school inspection",
		"good to see you",
		"rough day at work",
		"seem sad",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestReplyPromptEmptyContext(t *testing.T) {
	prompt := ReplyPrompt(ReplyContext{UserText: "hello"})
	if strings.Contains(prompt, "WHAT YOU KNOW") {
		t.Error("facts section should be omitted when empty")
	}
	if strings.Contains(prompt, "THEY SAID BEFORE") {
		t.Error("memories section should be omitted when empty")
	}
	if !strings.Contains(prompt, "seem neutral") {
		t.Error("missing emotion should default to neutral")
	}
}

func TestReplyPromptUnknownEmotion(t *testing.T) {
	prompt := ReplyPrompt(ReplyContext{UserText: "hm", Emotion: "confused"})
	if !strings.Contains(prompt, emotionTone["neutral"]) {
		t.Error("unknown emotion should fall back to neutral tone")
	}
}

func TestMockClient(t *testing.T) {
	mock := &MockClient{
		Response: &Response{Content: "test response", Provider: "mock"},
	}

	resp, err := mock.Complete(context.Background(), "test prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "test response" {
		t.Errorf("content = %q, want %q", resp.Content, "test response")
	}
	if len(mock.Calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(mock.Calls))
	}
	if mock.Calls[0] != "test prompt" {
		t.Errorf("call[0] = %q, want %q", mock.Calls[0], "test prompt")
	}
}
