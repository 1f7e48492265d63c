package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/AbheyTiwari/Maitri/internal/store"
)

// evaluateSuggestion runs the per-turn suggestion policy over freshly
// updated tracker state. Nil means stay idle. When a suggestion fires the
// tracker's cooldown fields are mutated; the caller persists both the
// event and the tracker state.
func evaluateSuggestion(e *store.Engagement, catalog *GameCatalog, now time.Time, p Params) *store.Suggestion {
	reason := triggerReason(e, p)
	if reason == "" {
		return nil
	}
	if !cooldownElapsed(e, now, p) {
		return nil
	}

	e.TurnsSinceSuggest = 0
	e.LastSuggestionAt = now.UnixMilli()

	return &store.Suggestion{
		ID:          uuid.NewString(),
		UserID:      e.UserID,
		Kind:        catalog.PickForReason(reason, e.SessionTurnCount),
		Reason:      reason,
		TriggeredAt: now.UnixMilli(),
	}
}

// triggerReason reports which condition, if any, makes the user eligible.
// Stress outranks session length, which outranks low engagement.
func triggerReason(e *store.Engagement, p Params) string {
	switch {
	case e.StressScore >= p.StressHigh:
		return store.ReasonHighStress
	case e.SessionTurnCount >= p.LongSession:
		return store.ReasonLongSession
	case e.LowContentStreak >= p.LowContentTurns:
		return store.ReasonLowEngagement
	}
	return ""
}

// cooldownElapsed requires both the turn count and the wall-clock gap since
// the last suggestion. A user never suggested to is always clear.
func cooldownElapsed(e *store.Engagement, now time.Time, p Params) bool {
	if e.LastSuggestionAt == 0 {
		return true
	}
	if e.TurnsSinceSuggest < p.CooldownTurns {
		return false
	}
	return now.UnixMilli()-e.LastSuggestionAt >= p.CooldownGap.Milliseconds()
}
