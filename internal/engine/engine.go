package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AbheyTiwari/Maitri/internal/llm"
	"github.com/AbheyTiwari/Maitri/internal/observability"
	"github.com/AbheyTiwari/Maitri/internal/store"
	"github.com/AbheyTiwari/Maitri/internal/transcript"
)

// Params holds the tunable knobs for recall and engagement.
type Params struct {
	MinSimilarity   float64       // cosine cutoff below which memories never surface
	RecallLimit     int           // max memories returned per recall
	HalfLife        time.Duration // recency decay half-life
	ThemeBoost      float64       // score multiplier bonus for shared themes
	StressAlpha     float64       // EWMA weight of the newest emotion sample
	StressBaseline  float64       // starting stress score for new users
	StressHigh      float64       // stress score at which the wellness trigger fires
	IdleGap         time.Duration // silence after which a new session begins
	LongSession     int           // session turn count that triggers a break nudge
	LowContentTurns int           // consecutive low-content turns that trigger engagement
	CooldownTurns   int           // min turns between suggestions
	CooldownGap     time.Duration // min wall-clock time between suggestions
	FactStaleness   time.Duration // unconfirmed age after which a fact loses replacement protection
	Retention       time.Duration // turn age at which memories are purged
	EmbedTimeout    time.Duration
	LLMTimeout      time.Duration
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		MinSimilarity:   0.3,
		RecallLimit:     3,
		HalfLife:        168 * time.Hour,
		ThemeBoost:      0.25,
		StressAlpha:     0.3,
		StressBaseline:  30,
		StressHigh:      75,
		IdleGap:         time.Hour,
		LongSession:     10,
		LowContentTurns: 3,
		CooldownTurns:   8,
		CooldownGap:     10 * time.Minute,
		FactStaleness:   720 * time.Hour,
		Retention:       2160 * time.Hour,
		EmbedTimeout:    10 * time.Second,
		LLMTimeout:      30 * time.Second,
	}
}

// Engine wires the memory pipeline together: theme classification, fact
// extraction, embedding, recall, engagement tracking and the suggestion
// policy. One Engine serves all users; writes for a given user are
// serialized through a per-user lock.
type Engine struct {
	DB       *store.DB
	LLM      llm.Client
	Embedder Embedder
	Metrics  *observability.Metrics
	Params   Params

	classifier *ThemeClassifier
	extractor  *FactExtractor
	catalog    *GameCatalog

	locks  userLocks
	stopCh chan struct{}
}

// New creates an Engine with the hash embedder as a fallback. Callers
// replace Embedder and set Metrics before serving traffic.
func New(db *store.DB, client llm.Client, p Params) (*Engine, error) {
	catalog, err := LoadGameCatalog()
	if err != nil {
		return nil, fmt.Errorf("load game catalog: %w", err)
	}
	return &Engine{
		DB:         db,
		LLM:        client,
		Embedder:   NewHashEmbedder(0),
		Params:     p,
		classifier: NewThemeClassifier(),
		extractor:  NewFactExtractor(),
		catalog:    catalog,
		stopCh:     make(chan struct{}),
	}, nil
}

type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (ul *userLocks) lock(userID string) func() {
	ul.mu.Lock()
	if ul.locks == nil {
		ul.locks = make(map[string]*sync.Mutex)
	}
	l, ok := ul.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		ul.locks[userID] = l
	}
	ul.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// TurnInput is one user utterance with its detected emotion.
type TurnInput struct {
	UserID  string
	Text    string
	Emotion string
}

// FactResult reports what the fact store did with one extracted candidate.
type FactResult struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Action string `json:"action"`
}

// TurnResult is everything ProcessTurn derived from one turn.
type TurnResult struct {
	TurnID     string            `json:"turn_id"`
	Themes     []string          `json:"themes,omitempty"`
	Facts      []FactResult      `json:"facts,omitempty"`
	Recalled   []RecalledMemory  `json:"recalled,omitempty"`
	Stress     float64           `json:"stress"`
	Suggestion *store.Suggestion `json:"-"`
}

// ProcessTurn runs the full pipeline for one turn: classify, embed,
// persist, extract facts, recall related memories, update engagement and
// evaluate the suggestion policy. Once a turn is accepted its writes
// complete even if the caller's context is canceled mid-flight.
func (e *Engine) ProcessTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	text, err := validateTurn(in.UserID, in.Text)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(in.UserID)
	defer unlock()

	writeCtx := context.WithoutCancel(ctx)
	turnID := uuid.NewString()
	themes := e.classifier.Classify(text)
	emotion := in.Emotion
	if emotion == "" {
		emotion = "neutral"
	}

	res := &TurnResult{TurnID: turnID, Themes: themes}

	vec, model := e.embed(writeCtx, text)

	turn := &store.Turn{ID: turnID, UserID: in.UserID, Text: text, Emotion: emotion, Themes: themes}
	if err := e.DB.InsertTurn(turn); err != nil {
		return nil, fmt.Errorf("insert turn: %w", err)
	}
	mem := &store.Memory{
		TurnID:     turnID,
		UserID:     in.UserID,
		Embedding:  vec,
		Model:      model,
		Dimensions: len(vec),
		Themes:     themes,
		Emotion:    emotion,
		CreatedAt:  turn.CreatedAt,
	}
	if err := e.DB.InsertMemory(mem); err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	facts, err := e.storeFacts(in.UserID, turnID, text)
	if err != nil {
		return nil, err
	}
	res.Facts = facts

	res.Recalled = e.recall(in.UserID, turnID, vec, themes)

	eng, err := e.DB.GetEngagement(in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load engagement: %w", err)
	}
	if eng == nil {
		eng = &store.Engagement{UserID: in.UserID, StressScore: e.Params.StressBaseline}
	}
	now := time.Now()
	UpdateEngagement(eng, emotion, text, now, e.Params)
	sugg := evaluateSuggestion(eng, e.catalog, now, e.Params)
	if err := e.DB.SaveEngagement(eng); err != nil {
		return nil, fmt.Errorf("save engagement: %w", err)
	}
	if sugg != nil {
		if err := e.DB.AddSuggestion(sugg); err != nil {
			return nil, fmt.Errorf("record suggestion: %w", err)
		}
		e.Metrics.SuggestionEmitted(sugg.Reason)
		res.Suggestion = sugg
	}
	res.Stress = eng.StressScore

	e.Metrics.TurnProcessed()
	return res, nil
}

// embed returns the vector and model tag, or (nil, "") when embedding
// fails. A failed embed degrades the turn to theme-only recall instead of
// rejecting it.
func (e *Engine) embed(ctx context.Context, text string) ([]float64, string) {
	embedCtx, cancel := context.WithTimeout(ctx, e.Params.EmbedTimeout)
	defer cancel()
	vec, err := e.Embedder.Embed(embedCtx, text)
	if err != nil {
		log.Printf("engine: embed failed: %v", err)
		e.Metrics.EmbedFailure()
		return nil, ""
	}
	return vec, e.Embedder.Model()
}

func (e *Engine) storeFacts(userID, turnID, text string) ([]FactResult, error) {
	var results []FactResult
	for _, cand := range e.extractor.Extract(text) {
		if cand.Confidence <= 0 || cand.Confidence > 1 {
			log.Printf("engine: dropping candidate %s=%q with confidence %.2f", cand.Type, cand.Value, cand.Confidence)
			continue
		}
		fact := &store.Fact{
			UserID:       userID,
			Type:         cand.Type,
			Value:        cand.Value,
			Confidence:   cand.Confidence,
			SourceTurnID: turnID,
		}
		action, err := e.DB.UpsertFact(fact, e.Params.FactStaleness)
		if err != nil {
			return nil, fmt.Errorf("store fact: %w", err)
		}
		e.Metrics.FactAction(action)
		results = append(results, FactResult{Type: cand.Type, Value: cand.Value, Action: action})
	}
	return results, nil
}

func (e *Engine) recall(userID, excludeTurnID string, vec []float64, themes []string) []RecalledMemory {
	start := time.Now()
	opts := SearchOpts{Limit: e.Params.RecallLimit, Themes: themes, ExcludeTurnID: excludeTurnID}

	var (
		found []RecalledMemory
		err   error
	)
	if len(vec) > 0 {
		opts.Model = e.Embedder.Model()
		found, err = Find(e.DB, userID, vec, opts, e.Params)
	} else {
		found, err = FindByTheme(e.DB, userID, themes, opts, e.Params)
	}
	if err != nil {
		log.Printf("engine: recall failed for %s: %v", userID, err)
		return nil
	}
	e.Metrics.ObserveRecallLatency(time.Since(start))
	return found
}

// Recall answers an explicit memory query outside the turn pipeline.
// When the query cannot be embedded it falls back to theme matching.
func (e *Engine) Recall(ctx context.Context, userID, query string) ([]RecalledMemory, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	start := time.Now()
	themes := e.classifier.Classify(query)
	opts := SearchOpts{Limit: e.Params.RecallLimit, Themes: themes}

	embedCtx, cancel := context.WithTimeout(ctx, e.Params.EmbedTimeout)
	vec, err := e.Embedder.Embed(embedCtx, query)
	cancel()
	if err != nil {
		log.Printf("engine: embed failed for recall query: %v", err)
		e.Metrics.EmbedFailure()
		return FindByTheme(e.DB, userID, themes, opts, e.Params)
	}

	opts.Model = e.Embedder.Model()
	found, err := Find(e.DB, userID, vec, opts, e.Params)
	if err != nil {
		return nil, err
	}
	e.Metrics.ObserveRecallLatency(time.Since(start))
	return found, nil
}

// ImportTurns replays past conversation entries into the memory index.
// Entries feed the turn log, embeddings and facts, but engagement state is
// left untouched so a bulk import cannot fire suggestions.
func (e *Engine) ImportTurns(ctx context.Context, userID string, entries []transcript.Entry) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	unlock := e.locks.lock(userID)
	defer unlock()

	writeCtx := context.WithoutCancel(ctx)
	imported := 0
	for _, entry := range entries {
		text, err := validateTurn(userID, entry.Text)
		if err != nil {
			continue
		}
		turnID := uuid.NewString()
		themes := e.classifier.Classify(text)
		emotion := entry.Emotion
		if emotion == "" {
			emotion = "neutral"
		}
		vec, model := e.embed(writeCtx, text)

		turn := &store.Turn{
			ID:        turnID,
			UserID:    userID,
			Text:      text,
			Emotion:   emotion,
			Themes:    themes,
			CreatedAt: entry.Timestamp,
		}
		if err := e.DB.InsertTurn(turn); err != nil {
			return imported, fmt.Errorf("insert turn: %w", err)
		}
		mem := &store.Memory{
			TurnID:     turnID,
			UserID:     userID,
			Embedding:  vec,
			Model:      model,
			Dimensions: len(vec),
			Themes:     themes,
			Emotion:    emotion,
			CreatedAt:  turn.CreatedAt,
		}
		if err := e.DB.InsertMemory(mem); err != nil {
			return imported, fmt.Errorf("insert memory: %w", err)
		}
		if _, err := e.storeFacts(userID, turnID, text); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// StartRetentionTimer purges expired turns now and then daily until Stop.
func (e *Engine) StartRetentionTimer() {
	go func() {
		e.purgeExpired()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.purgeExpired()
			case <-e.stopCh:
				return
			}
		}
	}()
}

func (e *Engine) purgeExpired() {
	cutoff := time.Now().Add(-e.Params.Retention).UnixMilli()
	n, err := e.DB.PurgeOlderThan(cutoff)
	if err != nil {
		log.Printf("retention: purge failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("retention: purged %d expired turns", n)
	}
}

// Stop halts background timers.
func (e *Engine) Stop() {
	close(e.stopCh)
}

// Games lists the activity catalog.
func (e *Engine) Games() []Game {
	return e.catalog.Games()
}

// GamePrompt returns the opening prompt for a game kind, or "".
func (e *Engine) GamePrompt(kind string) string {
	return e.catalog.Prompt(kind)
}
