package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AbheyTiwari/Maitri/internal/engine"
	"github.com/AbheyTiwari/Maitri/internal/store"
	"github.com/AbheyTiwari/Maitri/internal/transcript"
)

type suggestionJSON struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Prompt string `json:"prompt"`
}

func (s *Server) suggestionOut(sugg *store.Suggestion) *suggestionJSON {
	if sugg == nil {
		return nil
	}
	return &suggestionJSON{
		Kind:   sugg.Kind,
		Reason: sugg.Reason,
		Prompt: s.engine.GamePrompt(sugg.Kind),
	}
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"user_id"`
		Text    string `json:"text"`
		Emotion string `json:"emotion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Text == "" {
		http.Error(w, `{"error":"user_id and text required"}`, http.StatusBadRequest)
		return
	}

	in := engine.TurnInput{UserID: req.UserID, Text: req.Text, Emotion: req.Emotion}
	res, err := s.engine.ProcessTurn(r.Context(), in)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	reply := s.engine.Respond(r.Context(), in, res, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"turn_id":    res.TurnID,
		"reply":      reply,
		"themes":     res.Themes,
		"facts":      res.Facts,
		"recalled":   res.Recalled,
		"stress":     res.Stress,
		"suggestion": s.suggestionOut(res.Suggestion),
	})
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	factType := r.URL.Query().Get("type")

	facts, err := s.db.FactsForUser(userID, factType)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type factJSON struct {
		Type            string  `json:"type"`
		Value           string  `json:"value"`
		Confidence      float64 `json:"confidence"`
		FirstSeenAt     int64   `json:"first_seen_at"`
		LastConfirmedAt int64   `json:"last_confirmed_at"`
	}

	out := make([]factJSON, len(facts))
	for i, f := range facts {
		out[i] = factJSON{f.Type, f.Value, f.Confidence, f.FirstSeenAt, f.LastConfirmedAt}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id": userID,
		"count":   len(out),
		"facts":   out,
	})
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, `{"error":"q parameter required"}`, http.StatusBadRequest)
		return
	}

	results, err := s.engine.Recall(r.Context(), userID, query)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id": userID,
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleEngagement(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	eng, err := s.db.GetEngagement(userID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if eng == nil {
		eng = &store.Engagement{UserID: userID, StressScore: s.engine.Params.StressBaseline}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id":             eng.UserID,
		"stress_score":        eng.StressScore,
		"session_turn_count":  eng.SessionTurnCount,
		"turns_since_suggest": eng.TurnsSinceSuggest,
		"low_content_streak":  eng.LowContentStreak,
		"session_started_at":  eng.SessionStartedAt,
		"last_turn_at":        eng.LastTurnAt,
		"last_suggestion_at":  eng.LastSuggestionAt,
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	suggestions, err := s.db.SuggestionsForUser(userID, limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type eventJSON struct {
		ID          string `json:"id"`
		Kind        string `json:"kind"`
		Reason      string `json:"reason"`
		TriggeredAt int64  `json:"triggered_at"`
	}

	out := make([]eventJSON, len(suggestions))
	for i, sg := range suggestions {
		out[i] = eventJSON{sg.ID, sg.Kind, sg.Reason, sg.TriggeredAt}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id":     userID,
		"count":       len(out),
		"suggestions": out,
	})
}

func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	turns, err := s.db.RecentTurns(userID, limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type turnJSON struct {
		ID        string   `json:"id"`
		Text      string   `json:"text"`
		Emotion   string   `json:"emotion"`
		Themes    []string `json:"themes,omitempty"`
		CreatedAt int64    `json:"created_at"`
	}

	out := make([]turnJSON, len(turns))
	for i, t := range turns {
		out[i] = turnJSON{t.ID, t.Text, t.Emotion, t.Themes, t.CreatedAt}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id": userID,
		"count":   len(out),
		"turns":   out,
	})
}

// handleImport ingests a JSONL chat log, one {"text","emotion","timestamp"}
// object per line. Entries index into memory without touching engagement.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	entries, skipped, err := transcript.Parse(r.Body)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	if len(entries) == 0 {
		http.Error(w, `{"error":"no valid entries in body"}`, http.StatusBadRequest)
		return
	}

	imported, err := s.engine.ImportTurns(r.Context(), userID, entries)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id":  userID,
		"imported": imported,
		"skipped":  skipped,
	})
}

func (s *Server) handleErase(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	n, err := s.db.EraseUser(userID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id":      userID,
		"turns_erased": n,
	})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	games := s.engine.Games()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count": len(games),
		"games": games,
	})
}
