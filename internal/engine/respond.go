package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/AbheyTiwari/Maitri/internal/llm"
)

var fallbackReplies = map[string]string{
	"happy":     "That's lovely to hear! What made today a good one?",
	"sad":       "That sounds heavy. I'm here, take your time.",
	"angry":     "That would frustrate me too. Want to talk through what happened?",
	"fearful":   "Let's slow down together. Breathe in for 4, hold for 7, out for 8.",
	"surprised": "Oh! That sounds unexpected. What happened?",
	"disgusted": "That sounds unpleasant. Want to tell me about it?",
}

const fallbackDefault = "I'm listening. What's been on your mind lately?"

// Respond generates the companion reply for a processed turn. history is
// optional; when nil the recent turn log stands in. Any LLM failure
// degrades to a canned emotion-appropriate reply so the conversation never
// stalls.
func (e *Engine) Respond(ctx context.Context, in TurnInput, res *TurnResult, history []string) string {
	if e.LLM == nil {
		return fallbackReply(in.Emotion)
	}

	rc := llm.ReplyContext{
		UserText: in.Text,
		Emotion:  in.Emotion,
		History:  history,
	}

	facts, err := e.DB.FactsForUser(in.UserID, "")
	if err != nil {
		log.Printf("engine: loading facts for reply: %v", err)
	}
	for _, f := range facts {
		rc.Facts = append(rc.Facts, fmt.Sprintf("%s: %s", f.Type, f.Value))
	}

	for _, m := range res.Recalled {
		rc.Memories = append(rc.Memories, m.Text)
	}

	if rc.History == nil {
		turns, err := e.DB.RecentTurns(in.UserID, 10)
		if err != nil {
			log.Printf("engine: loading history for reply: %v", err)
		}
		for _, t := range turns {
			if t.ID == res.TurnID {
				continue
			}
			rc.History = append(rc.History, "them: "+t.Text)
		}
	}

	llmCtx, cancel := context.WithTimeout(ctx, e.Params.LLMTimeout)
	defer cancel()
	resp, err := e.LLM.Complete(llmCtx, llm.ReplyPrompt(rc))
	if err != nil {
		log.Printf("engine: reply generation failed: %v", err)
		return fallbackReply(in.Emotion)
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return fallbackReply(in.Emotion)
	}
	return reply
}

func fallbackReply(emotion string) string {
	if r, ok := fallbackReplies[emotion]; ok {
		return r
	}
	return fallbackDefault
}
