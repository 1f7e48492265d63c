package engine

import (
	"strings"
	"time"

	"github.com/AbheyTiwari/Maitri/internal/store"
)

// stressContributions maps each emotion label to its fixed stress input.
var stressContributions = map[string]float64{
	"happy":     20,
	"neutral":   30,
	"surprised": 50,
	"disgusted": 60,
	"sad":       80,
	"angry":     90,
	"fearful":   100,
}

// neutralContribution is used for unknown or missing emotion labels.
const neutralContribution = 30

// minContentWords is the word count below which a turn counts as
// low-content for the engagement streak.
const minContentWords = 4

// UpdateEngagement folds one turn's signals into the tracker state.
// The stress score is an exponentially weighted moving average clamped to
// [0,100]; session counters reset when the idle gap since the previous
// turn marks a new session. Never fails.
func UpdateEngagement(e *store.Engagement, emotion, text string, now time.Time, p Params) {
	nowMs := now.UnixMilli()

	// Session boundary: a long idle gap starts a fresh session and clears
	// the cooldown-adjacent counters. The stress average carries over.
	if e.LastTurnAt > 0 && nowMs-e.LastTurnAt > p.IdleGap.Milliseconds() {
		e.SessionTurnCount = 0
		e.LowContentStreak = 0
		e.TurnsSinceSuggest = 0
		e.SessionStartedAt = nowMs
	}
	if e.SessionStartedAt == 0 {
		e.SessionStartedAt = nowMs
	}

	contribution, ok := stressContributions[emotion]
	if !ok {
		contribution = neutralContribution
	}
	e.StressScore = clampScore(p.StressAlpha*contribution + (1-p.StressAlpha)*e.StressScore)

	e.SessionTurnCount++
	e.TurnsSinceSuggest++
	if len(strings.Fields(text)) < minContentWords {
		e.LowContentStreak++
	} else {
		e.LowContentStreak = 0
	}
	e.LastTurnAt = nowMs
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
