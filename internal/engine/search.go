package engine

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/AbheyTiwari/Maitri/internal/store"
)

// RecalledMemory pairs a stored memory with its relevance score.
type RecalledMemory struct {
	TurnID     string   `json:"turn_id"`
	Text       string   `json:"text"`
	Themes     []string `json:"themes,omitempty"`
	Emotion    string   `json:"emotion,omitempty"`
	CreatedAt  int64    `json:"created_at"`
	Score      float64  `json:"score"`
	Similarity float64  `json:"similarity"`
}

// SearchOpts controls recall behavior.
type SearchOpts struct {
	Limit         int      // max results (default 3)
	Themes        []string // query themes for the boost
	Model         string   // only score records embedded by this model
	ExcludeTurnID string   // the current turn, never recalled into itself
}

func (o SearchOpts) limit() int {
	if o.Limit <= 0 {
		return 3
	}
	return o.Limit
}

// scoreEpsilon below which two relevance scores count as tied.
const scoreEpsilon = 1e-9

// Find ranks a user's memories against a query embedding.
// Score = similarity * recencyWeight * (1 + boost when themes overlap).
// Records below the similarity threshold are excluded outright; ties break
// toward the newer record. An empty result is a normal outcome.
func Find(db *store.DB, userID string, queryVec []float64, opts SearchOpts, p Params) ([]RecalledMemory, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}

	records, err := db.MemoriesForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	now := time.Now()
	var results []RecalledMemory
	for _, r := range records {
		if r.TurnID == opts.ExcludeTurnID || r.Embedding == nil {
			continue
		}
		if opts.Model != "" && r.Model != opts.Model {
			continue
		}
		if len(r.Embedding) != len(queryVec) {
			log.Printf("search: memory %d has %d dims, query has %d, skipping", r.ID, len(r.Embedding), len(queryVec))
			continue
		}

		similarity := CosineSimilarity(queryVec, r.Embedding)
		if similarity < p.MinSimilarity {
			continue
		}

		score := similarity * recencyWeight(now.Sub(time.UnixMilli(r.CreatedAt)), p.HalfLife)
		if themesIntersect(r.Themes, opts.Themes) {
			score *= 1 + p.ThemeBoost
		}

		results = append(results, RecalledMemory{
			TurnID:     r.TurnID,
			Text:       r.Text,
			Themes:     r.Themes,
			Emotion:    r.Emotion,
			CreatedAt:  r.CreatedAt,
			Score:      score,
			Similarity: similarity,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		di := results[i].Score - results[j].Score
		if di > scoreEpsilon {
			return true
		}
		if di < -scoreEpsilon {
			return false
		}
		return results[i].CreatedAt > results[j].CreatedAt
	})

	if limit := opts.limit(); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FindByTheme is the degraded recall path for when no query embedding is
// available: recent records sharing a theme with the query, newest first,
// scored by recency alone.
func FindByTheme(db *store.DB, userID string, themes []string, opts SearchOpts, p Params) ([]RecalledMemory, error) {
	if len(themes) == 0 {
		return nil, nil
	}

	records, err := db.MemoriesForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}

	now := time.Now()
	var results []RecalledMemory
	for _, r := range records {
		if r.TurnID == opts.ExcludeTurnID {
			continue
		}
		if !themesIntersect(r.Themes, themes) {
			continue
		}
		results = append(results, RecalledMemory{
			TurnID:    r.TurnID,
			Text:      r.Text,
			Themes:    r.Themes,
			Emotion:   r.Emotion,
			CreatedAt: r.CreatedAt,
			Score:     recencyWeight(now.Sub(time.UnixMilli(r.CreatedAt)), p.HalfLife),
		})
		if len(results) == opts.limit() {
			break
		}
	}
	return results, nil
}

func themesIntersect(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
