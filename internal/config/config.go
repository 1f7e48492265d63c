package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all maitri configuration, loaded from MAITRI_* environment
// variables with defaults suitable for a local single-user install.
type Config struct {
	Addr   string // listen address
	DBPath string // empty means store.DefaultDBPath() at runtime
	LLM    LLMConfig
	Vision VisionConfig
	Tuning TuningConfig
}

type LLMConfig struct {
	Provider     string // "ollama", "anthropic", "mock"
	ChatModel    string // e.g. "phi3:mini"
	EmbedModel   string // e.g. "nomic-embed-text"
	OllamaURL    string
	AnthropicKey string
}

// VisionConfig points at the optional facial-emotion sidecar.
// An empty URL disables frame analysis.
type VisionConfig struct {
	URL string
}

// TuningConfig exposes the recall and engagement knobs. Defaults here
// mirror engine.DefaultParams.
type TuningConfig struct {
	MinSimilarity   float64
	RecallLimit     int
	HalfLife        time.Duration
	ThemeBoost      float64
	StressAlpha     float64
	StressBaseline  float64
	StressHigh      float64
	IdleGap         time.Duration
	LongSession     int
	LowContentTurns int
	CooldownTurns   int
	CooldownGap     time.Duration
	FactStaleness   time.Duration
	Retention       time.Duration
	EmbedTimeout    time.Duration
	LLMTimeout      time.Duration
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Addr:   envOrDefault("MAITRI_ADDR", ":8990"),
		DBPath: os.Getenv("MAITRI_DB"),
		LLM: LLMConfig{
			Provider:     envOrDefault("MAITRI_LLM_PROVIDER", "ollama"),
			ChatModel:    envOrDefault("MAITRI_CHAT_MODEL", "phi3:mini"),
			EmbedModel:   envOrDefault("MAITRI_EMBED_MODEL", "nomic-embed-text"),
			OllamaURL:    envOrDefault("MAITRI_OLLAMA_URL", "http://localhost:11434"),
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		Vision: VisionConfig{
			URL: os.Getenv("MAITRI_VISION_URL"),
		},
		Tuning: TuningConfig{
			MinSimilarity:   floatFromEnv("MAITRI_MIN_SIMILARITY", 0.3),
			RecallLimit:     intFromEnv("MAITRI_RECALL_LIMIT", 3),
			HalfLife:        durationFromEnv("MAITRI_RECENCY_HALF_LIFE", 168*time.Hour),
			ThemeBoost:      floatFromEnv("MAITRI_THEME_BOOST", 0.25),
			StressAlpha:     floatFromEnv("MAITRI_STRESS_ALPHA", 0.3),
			StressBaseline:  floatFromEnv("MAITRI_STRESS_BASELINE", 30),
			StressHigh:      floatFromEnv("MAITRI_STRESS_HIGH", 75),
			IdleGap:         durationFromEnv("MAITRI_SESSION_IDLE_GAP", time.Hour),
			LongSession:     intFromEnv("MAITRI_LONG_SESSION_TURNS", 10),
			LowContentTurns: intFromEnv("MAITRI_LOW_CONTENT_TURNS", 3),
			CooldownTurns:   intFromEnv("MAITRI_COOLDOWN_TURNS", 8),
			CooldownGap:     durationFromEnv("MAITRI_COOLDOWN_GAP", 10*time.Minute),
			FactStaleness:   durationFromEnv("MAITRI_FACT_STALENESS", 720*time.Hour),
			Retention:       durationFromEnv("MAITRI_RETENTION", 2160*time.Hour),
			EmbedTimeout:    durationFromEnv("MAITRI_EMBED_TIMEOUT", 10*time.Second),
			LLMTimeout:      durationFromEnv("MAITRI_LLM_TIMEOUT", 30*time.Second),
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is empty")
	}
	switch c.LLM.Provider {
	case "ollama", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.LLM.Provider)
	}
	t := c.Tuning
	if t.MinSimilarity < 0 || t.MinSimilarity >= 1 {
		return fmt.Errorf("min similarity %.2f outside [0, 1)", t.MinSimilarity)
	}
	if t.StressAlpha <= 0 || t.StressAlpha > 1 {
		return fmt.Errorf("stress alpha %.2f outside (0, 1]", t.StressAlpha)
	}
	if t.StressHigh <= 0 || t.StressHigh > 100 {
		return fmt.Errorf("stress threshold %.1f outside (0, 100]", t.StressHigh)
	}
	if t.RecallLimit < 1 {
		return fmt.Errorf("recall limit %d < 1", t.RecallLimit)
	}
	if t.HalfLife <= 0 || t.Retention <= 0 || t.IdleGap <= 0 {
		return fmt.Errorf("half-life, retention and idle gap must be positive")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func floatFromEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: %s=%q is not a number, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}
