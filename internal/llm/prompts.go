package llm

import (
	"fmt"
	"strings"
)

// ReplyContext carries everything the reply prompt needs about the current
// turn. Slices may be empty; the prompt adapts.
type ReplyContext struct {
	UserText string
	Emotion  string
	Facts    []string
	Memories []string
	History  []string
}

var emotionTone = map[string]string{
	"happy":     "Match their energy. Celebrate with them.",
	"sad":       "Be gentle and validating. Don't rush to fix things.",
	"angry":     "Stay calm. Acknowledge the frustration without judging it.",
	"fearful":   "Be reassuring and grounding. Slow things down.",
	"surprised": "Share their curiosity about what happened.",
	"disgusted": "Acknowledge the reaction and help them move past it.",
	"neutral":   "Be warm and curious about their day.",
}

// ReplyPrompt builds the companion reply prompt from the turn context.
func ReplyPrompt(rc ReplyContext) string {
	var b strings.Builder

	b.WriteString(`You are Maitri, a warm and attentive companion. You remember what people
tell you and you care about how they are doing. You are not a therapist
and you never diagnose; you listen, remember, and gently engage.

`)

	if len(rc.Facts) > 0 {
		b.WriteString("WHAT YOU KNOW ABOUT THEM:\n")
		for _, f := range rc.Facts {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if len(rc.Memories) > 0 {
		b.WriteString("RELEVANT THINGS THEY SAID BEFORE:\n")
		for _, m := range rc.Memories {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		b.WriteString("\n")
	}

	if len(rc.History) > 0 {
		b.WriteString("RECENT CONVERSATION:\n")
		for _, h := range rc.History {
			fmt.Fprintf(&b, "%s\n", h)
		}
		b.WriteString("\n")
	}

	emotion := rc.Emotion
	if emotion == "" {
		emotion = "neutral"
	}
	tone, ok := emotionTone[emotion]
	if !ok {
		tone = emotionTone["neutral"]
	}
	fmt.Fprintf(&b, "They seem %s right now. %s\n\n", emotion, tone)

	fmt.Fprintf(&b, "THEY JUST SAID:\n%s\n\n", rc.UserText)

	b.WriteString(`Rules:
- Reply in 1-3 short sentences, like a text from a close friend
- Weave in what you know naturally; never recite it back as a list
- Ask at most one question
- No bullet points, no headers, no clinical language
- Reply with the message text only`)

	return b.String()
}
