package engine

import (
	"regexp"
	"strings"

	"github.com/AbheyTiwari/Maitri/internal/store"
)

// CandidateFact is one extraction produced from a turn, before conflict
// resolution in the store.
type CandidateFact struct {
	Type       string
	Value      string
	Confidence float64
}

// extractRule maps one pattern to a fact type with a static confidence.
// Capture groups are joined with a space to form the value.
type extractRule struct {
	factType   string
	re         *regexp.Regexp
	confidence float64
	reject     map[string]bool // captures to discard, nil accepts all
}

// valueEnd terminates an open-ended capture at clause or sentence
// boundaries so "i love gardening and my boss" captures only "gardening".
const valueEnd = `(?: and\b|[.,!?;:]|$)`

// nonNameWords blocks the generic "i'm X" name rule from extracting mood
// adjectives and filler as a name.
var nonNameWords = map[string]bool{
	"happy": true, "sad": true, "angry": true, "tired": true, "fine": true,
	"good": true, "okay": true, "great": true, "anxious": true, "stressed": true,
	"excited": true, "worried": true, "scared": true, "afraid": true,
	"exhausted": true, "lonely": true, "bored": true, "hungry": true,
	"sorry": true, "sure": true, "busy": true, "done": true, "ready": true,
	"back": true, "here": true, "home": true, "late": true, "early": true,
	"sick": true, "well": true, "nervous": true, "upset": true,
	"depressed": true, "overwhelmed": true, "very": true, "really": true,
	"just": true, "still": true, "always": true, "never": true,
	"also": true, "feeling": true, "getting": true, "doing": true, "going": true,
}

// extractionRules is the ordered rule table. Order is precedence: the
// first rule to match a span of text claims it, and later rules cannot
// re-extract from a claimed span. Specific patterns sit above the generic
// fallbacks at the bottom so "my name is X" always beats the bare
// "i'm X" rule.
var extractionRules = []extractRule{
	{factType: store.FactName, re: regexp.MustCompile(`(?i)\bmy name is (\w+)`), confidence: 0.95},
	{factType: store.FactName, re: regexp.MustCompile(`(?i)\bcall me (\w+)`), confidence: 0.9},

	{factType: store.FactJob, re: regexp.MustCompile(`(?i)\bi work as an? ([\w ]+?)` + valueEnd), confidence: 0.9},
	{factType: store.FactJob, re: regexp.MustCompile(`(?i)\bmy job is ([\w ]+?)` + valueEnd), confidence: 0.9},
	{factType: store.FactJob, re: regexp.MustCompile(`(?i)\bi do ([\w ]+?) for work\b`), confidence: 0.85},

	{factType: store.FactLocation, re: regexp.MustCompile(`(?i)\bi live in ([\w ]+?)` + valueEnd), confidence: 0.9},
	{factType: store.FactLocation, re: regexp.MustCompile(`(?i)\bi(?:'m| am) from ([\w ]+?)` + valueEnd), confidence: 0.85},

	{factType: store.FactRelationship, re: regexp.MustCompile(`(?i)\bmy (wife|husband|partner|spouse|mother|father|mom|dad|son|daughter|brother|sister) is (?:called |named )?(\w+)`), confidence: 0.85},

	{factType: store.FactHealth, re: regexp.MustCompile(`(?i)\bi (?:suffer from|was diagnosed with|have been diagnosed with) ([\w ]+?)` + valueEnd), confidence: 0.9},
	{factType: store.FactHealth, re: regexp.MustCompile(`(?i)\bi have trouble (sleeping|eating|focusing|concentrating)\b`), confidence: 0.8},

	{factType: store.FactPreference, re: regexp.MustCompile(`(?i)\bmy favou?rite ([\w ]+?) is ([\w ]+?)` + valueEnd), confidence: 0.8},
	{factType: store.FactPreference, re: regexp.MustCompile(`(?i)\bi (?:love|like|enjoy) ([\w ]+?)` + valueEnd), confidence: 0.75},

	{factType: store.FactOther, re: regexp.MustCompile(`(?i)\bmy goal is (?:to )?([\w ]+?)` + valueEnd), confidence: 0.8},
	{factType: store.FactOther, re: regexp.MustCompile(`(?i)\bi(?:'m| am) trying to ([\w ]+?)` + valueEnd), confidence: 0.7},
	{factType: store.FactOther, re: regexp.MustCompile(`(?i)\bi want to ([\w ]+?)` + valueEnd), confidence: 0.6},

	// Generic fallbacks. The article form marks an occupation; the bare
	// form is a weak name signal filtered against mood words.
	{factType: store.FactLocation, re: regexp.MustCompile(`(?i)\bi(?:'m| am) in ([\w ]+?)` + valueEnd), confidence: 0.6},
	{factType: store.FactJob, re: regexp.MustCompile(`(?i)\bi(?:'m| am) an? ([\w ]+?)` + valueEnd), confidence: 0.7},
	{factType: store.FactName, re: regexp.MustCompile(`(?i)\bi(?:'m| am) (\w+)\b`), confidence: 0.6, reject: nonNameWords},
}

// FactExtractor turns raw text into candidate facts via the rule table.
type FactExtractor struct {
	rules []extractRule
}

// NewFactExtractor returns an extractor over the built-in rule table.
func NewFactExtractor() *FactExtractor {
	return &FactExtractor{rules: extractionRules}
}

type span struct{ start, end int }

func overlaps(s span, claimed []span) bool {
	for _, c := range claimed {
		if s.start < c.end && c.start < s.end {
			return true
		}
	}
	return false
}

// Extract runs the rule table in order over the text. Text with no
// recognizable pattern yields nil, which is a normal outcome.
func (x *FactExtractor) Extract(text string) []CandidateFact {
	lowered := strings.ToLower(text)

	var claimed []span
	var out []CandidateFact
	for _, rule := range x.rules {
		for _, m := range rule.re.FindAllStringSubmatchIndex(lowered, -1) {
			s := span{m[0], m[1]}
			if overlaps(s, claimed) {
				continue
			}
			value := normalizeValue(captureValue(lowered, m))
			if rule.reject[value] || !validValue(value) {
				continue
			}
			claimed = append(claimed, s)
			out = append(out, CandidateFact{
				Type:       rule.factType,
				Value:      value,
				Confidence: rule.confidence,
			})
		}
	}
	return out
}

// captureValue joins a match's non-empty capture groups with a space.
func captureValue(text string, m []int) string {
	var parts []string
	for g := 1; g*2 < len(m); g++ {
		s, e := m[2*g], m[2*g+1]
		if s >= 0 && e > s {
			parts = append(parts, text[s:e])
		}
	}
	return strings.Join(parts, " ")
}
