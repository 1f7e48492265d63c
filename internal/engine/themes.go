package engine

import (
	"regexp"
	"sort"
	"strings"
)

// minThemeScore is the score a theme must reach before it is tagged.
// Strong terms qualify alone; weak terms only count in combination.
const minThemeScore = 2

type themeTerm struct {
	re     *regexp.Regexp
	weight int
}

type themeDef struct {
	name  string
	terms []themeTerm
}

// themeTaxonomy lists each theme's terms as regexp fragments, matched on
// word boundaries. Strong terms (weight 2) are unambiguous indicators;
// weak terms (weight 1) are suggestive but common in other contexts.
var themeTaxonomy = []struct {
	name   string
	strong []string
	weak   []string
}{
	{
		name:   "work",
		strong: []string{`work(?:ing|ed)?`, `jobs?`, `career`, `office`, `boss`, `colleagues?`, `deadlines?`},
		weak:   []string{`projects?`, `meetings?`, `shifts?`, `promotion`, `interview`},
	},
	{
		name:   "family",
		strong: []string{`family`, `mother`, `father`, `mom`, `dad`, `parents?`, `brothers?`, `sisters?`, `sons?`, `daughters?`},
		weak:   []string{`siblings?`, `child(?:ren)?`, `kids?`, `relatives?`, `grandmother`, `grandfather`, `cousins?`},
	},
	{
		name:   "relationship",
		strong: []string{`relationships?`, `girlfriend`, `boyfriend`, `spouse`, `breakup`, `divorce`},
		weak:   []string{`partner`, `love`, `dating`, `marriage`, `wedding`},
	},
	{
		name:   "mental_health",
		strong: []string{`anxiety`, `anxious`, `depress(?:ion|ed)`, `stress(?:ed|ful)?`, `therap(?:y|ist)`, `panic`, `overwhelm(?:ed|ing)?`, `mental health`},
		weak:   []string{`worr(?:y|ied|ies)`, `nervous`, `pressure`, `tense`},
	},
	{
		name:   "sleep",
		strong: []string{`sleep(?:ing|less)?`, `insomnia`, `nightmares?`},
		weak:   []string{`tired`, `exhaust(?:ed|ion)`, `rest(?:ed)?`, `dreams?`, `fatigue`},
	},
	{
		name:   "health",
		strong: []string{`doctor`, `hospital`, `medicines?`, `diagnos(?:is|ed)`, `illness`, `sick(?:ness)?`},
		weak:   []string{`health`, `pain`, `treatment`, `fever`, `headaches?`, `medication`},
	},
	{
		name:   "education",
		strong: []string{`exams?`, `school`, `college`, `university`, `homework`, `stud(?:y|ying|ies)`},
		weak:   []string{`class(?:es)?`, `grades?`, `degree`, `courses?`, `teacher`},
	},
	{
		name:   "finance",
		strong: []string{`money`, `debts?`, `salary`, `loans?`, `rent`},
		weak:   []string{`budget`, `savings?`, `expenses?`, `financial`, `bills?`, `afford`},
	},
	{
		name:   "social",
		strong: []string{`friends?`, `friendship`, `lonel(?:y|iness)`, `isolat(?:ed|ion)`},
		weak:   []string{`social`, `part(?:y|ies)`, `gatherings?`, `neighbors?`, `community`},
	},
	{
		name:   "hobbies",
		strong: []string{`hobb(?:y|ies)`, `music`, `gardening`, `painting`},
		weak:   []string{`art`, `reading`, `gaming`, `games?`, `sports?`, `movies?`, `cooking`, `singing`, `dancing`, `cricket`, `chess`, `interests?`},
	},
}

// ThemeClassifier tags text with coarse topical themes using weighted
// keyword taxonomies.
type ThemeClassifier struct {
	themes []themeDef
}

// NewThemeClassifier compiles the taxonomy into matchers.
func NewThemeClassifier() *ThemeClassifier {
	c := &ThemeClassifier{}
	for _, t := range themeTaxonomy {
		def := themeDef{name: t.name}
		for _, frag := range t.strong {
			def.terms = append(def.terms, themeTerm{re: compileTerm(frag), weight: 2})
		}
		for _, frag := range t.weak {
			def.terms = append(def.terms, themeTerm{re: compileTerm(frag), weight: 1})
		}
		c.themes = append(c.themes, def)
	}
	return c
}

func compileTerm(frag string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + frag + `)\b`)
}

// Classify returns every theme whose score clears the minimum, strongest
// first. Text matching no taxonomy gets no themes.
func (c *ThemeClassifier) Classify(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	type scored struct {
		name  string
		score int
	}
	var hits []scored
	for _, t := range c.themes {
		score := 0
		for _, term := range t.terms {
			if term.re.MatchString(text) {
				score += term.weight
			}
		}
		if score >= minThemeScore {
			hits = append(hits, scored{t.name, score})
		}
	}
	if len(hits) == 0 {
		return nil
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].name < hits[j].name
	})

	themes := make([]string, len(hits))
	for i, h := range hits {
		themes[i] = h.name
	}
	return themes
}
