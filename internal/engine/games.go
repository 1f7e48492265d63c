package engine

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AbheyTiwari/Maitri/internal/store"
)

//go:embed games.yaml
var gamesYAML []byte

// Riddle is one question in the riddle game, with graded hints.
type Riddle struct {
	Question string   `yaml:"question" json:"question"`
	Answer   string   `yaml:"answer" json:"answer"`
	Hints    []string `yaml:"hints" json:"hints,omitempty"`
}

// TriviaQuestion is one multiple-choice trivia entry.
type TriviaQuestion struct {
	Question string   `yaml:"question" json:"question"`
	Answer   string   `yaml:"answer" json:"answer"`
	Options  []string `yaml:"options" json:"options,omitempty"`
}

// Game is one activity the suggestion policy can offer. The content
// fields are per kind: openers and rules for antakshari, riddles,
// seeds for word association, questions for trivia.
type Game struct {
	Kind      string           `yaml:"kind" json:"kind"`
	Title     string           `yaml:"title" json:"title"`
	Tags      []string         `yaml:"tags" json:"tags"`
	Prompt    string           `yaml:"prompt" json:"prompt"`
	Rules     string           `yaml:"rules" json:"rules,omitempty"`
	Openers   []string         `yaml:"openers" json:"openers,omitempty"`
	Riddles   []Riddle         `yaml:"riddles" json:"riddles,omitempty"`
	Seeds     []string         `yaml:"seeds" json:"seeds,omitempty"`
	Questions []TriviaQuestion `yaml:"questions" json:"questions,omitempty"`
}

// GameCatalog holds the activity definitions, indexed by tag.
type GameCatalog struct {
	games []Game
	byTag map[string][]Game
}

// reasonTags maps a trigger reason to the catalog tag it draws from.
var reasonTags = map[string]string{
	store.ReasonHighStress:    "calming",
	store.ReasonLowEngagement: "icebreaker",
	store.ReasonLongSession:   "variety",
}

// LoadGameCatalog parses the embedded game manifest.
func LoadGameCatalog() (*GameCatalog, error) {
	var doc struct {
		Games []Game `yaml:"games"`
	}
	if err := yaml.Unmarshal(gamesYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse game catalog: %w", err)
	}
	if len(doc.Games) == 0 {
		return nil, fmt.Errorf("empty game catalog")
	}

	c := &GameCatalog{games: doc.Games, byTag: make(map[string][]Game)}
	for _, g := range doc.Games {
		for _, tag := range g.Tags {
			c.byTag[tag] = append(c.byTag[tag], g)
		}
	}
	return c, nil
}

// Games returns every catalog entry in manifest order.
func (c *GameCatalog) Games() []Game {
	return c.games
}

// PickForReason selects a game kind for a trigger reason. Selection
// rotates with the seed so repeat suggestions in a long session vary
// without randomness.
func (c *GameCatalog) PickForReason(reason string, seed int) string {
	pool := c.byTag[reasonTags[reason]]
	if len(pool) == 0 {
		pool = c.games
	}
	if seed < 0 {
		seed = -seed
	}
	return pool[seed%len(pool)].Kind
}

// Prompt returns the invitation text for a game kind, or empty when the
// kind is not in the catalog.
func (c *GameCatalog) Prompt(kind string) string {
	for _, g := range c.games {
		if g.Kind == kind {
			return g.Prompt
		}
	}
	return ""
}
