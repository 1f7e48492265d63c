package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AbheyTiwari/Maitri/internal/config"
	"github.com/AbheyTiwari/Maitri/internal/engine"
	"github.com/AbheyTiwari/Maitri/internal/llm"
	"github.com/AbheyTiwari/Maitri/internal/observability"
	"github.com/AbheyTiwari/Maitri/internal/server"
	"github.com/AbheyTiwari/Maitri/internal/store"
	"github.com/AbheyTiwari/Maitri/internal/vision"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the companion daemon",
	RunE:  runServe,
}

var (
	serveAddr   string
	serveDB     string
	serveOllama string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides MAITRI_ADDR)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "Database path (overrides MAITRI_DB)")
	serveCmd.Flags().StringVar(&serveOllama, "ollama", "", "Ollama base URL (overrides MAITRI_OLLAMA_URL)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveDB != "" {
		cfg.DBPath = serveDB
	}
	if serveOllama != "" {
		cfg.LLM.OllamaURL = serveOllama
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: LLM not configured (%v), replies degrade to canned responses\n", err)
		llmClient = nil
	}

	eng, err := engine.New(db, llmClient, tuningParams(cfg.Tuning))
	if err != nil {
		return fmt.Errorf("engine init: %w", err)
	}

	metrics := observability.New(prometheus.DefaultRegisterer, "maitri")
	eng.Metrics = metrics

	// Prefer real embeddings; fall back to deterministic hashing so recall
	// keeps working offline.
	var emb engine.Embedder
	if engine.ProbeOllama(cfg.LLM.OllamaURL, cfg.LLM.EmbedModel) {
		emb = engine.NewOllamaEmbedder(cfg.LLM.OllamaURL, cfg.LLM.EmbedModel, 768)
		fmt.Fprintf(os.Stderr, "  embedder: ollama (%s)\n", cfg.LLM.EmbedModel)
	} else {
		emb = engine.NewHashEmbedder(256)
		fmt.Fprintf(os.Stderr, "  embedder: hash (ollama unreachable)\n")
	}
	if cached, err := engine.NewCachedEmbedder(emb, 4096, metrics.EmbedLookup); err == nil {
		eng.Embedder = cached
	} else {
		fmt.Fprintf(os.Stderr, "warning: embed cache init failed: %v\n", err)
		eng.Embedder = emb
	}

	eng.StartRetentionTimer()
	defer eng.Stop()

	var analyzer vision.Analyzer
	if cfg.Vision.URL != "" {
		analyzer = vision.NewHTTPAnalyzer(cfg.Vision.URL)
		fmt.Fprintf(os.Stderr, "  vision: %s\n", cfg.Vision.URL)
	}

	srv := server.New(db, eng, analyzer, metrics, VersionString())
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "maitri serving on %s\n", cfg.Addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  llm: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.ChatModel)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

func tuningParams(t config.TuningConfig) engine.Params {
	return engine.Params{
		MinSimilarity:   t.MinSimilarity,
		RecallLimit:     t.RecallLimit,
		HalfLife:        t.HalfLife,
		ThemeBoost:      t.ThemeBoost,
		StressAlpha:     t.StressAlpha,
		StressBaseline:  t.StressBaseline,
		StressHigh:      t.StressHigh,
		IdleGap:         t.IdleGap,
		LongSession:     t.LongSession,
		LowContentTurns: t.LowContentTurns,
		CooldownTurns:   t.CooldownTurns,
		CooldownGap:     t.CooldownGap,
		FactStaleness:   t.FactStaleness,
		Retention:       t.Retention,
		EmbedTimeout:    t.EmbedTimeout,
		LLMTimeout:      t.LLMTimeout,
	}
}
