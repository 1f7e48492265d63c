package engine

import (
	"reflect"
	"testing"
)

func TestClassifyStrongTermAlone(t *testing.T) {
	c := NewThemeClassifier()

	tests := []struct {
		text string
		want []string
	}{
		{"I had a rough day at work", []string{"work"}},
		{"My boss was impossible today", []string{"work"}},
		{"I've been so anxious lately", []string{"mental_health"}},
		{"My insomnia is back again", []string{"sleep"}},
		{"The doctor wants more tests", []string{"health"}},
		{"My exam is on Monday", []string{"education"}},
		{"I'm drowning in debt", []string{"finance"}},
		{"I miss my friends", []string{"social"}},
	}
	for _, tt := range tests {
		got := c.Classify(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestClassifyWeakTermNeedsCompany(t *testing.T) {
	c := NewThemeClassifier()

	// A single weak term stays below the score threshold.
	if got := c.Classify("The project is due soon"); got != nil {
		t.Errorf("single weak term classified as %v, want nil", got)
	}
	// Two weak terms from the same theme qualify together.
	if got := c.Classify("The project meeting ran long"); !reflect.DeepEqual(got, []string{"work"}) {
		t.Errorf("weak pair = %v, want [work]", got)
	}
	if got := c.Classify("I'm tired and exhausted"); !reflect.DeepEqual(got, []string{"sleep"}) {
		t.Errorf("tired+exhausted = %v, want [sleep]", got)
	}
}

func TestClassifyMultipleThemesStrongestFirst(t *testing.T) {
	c := NewThemeClassifier()

	// work scores boss+work = 4, family scores mom = 2.
	got := c.Classify("My boss called my mom about work")
	want := []string{"work", "family"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify = %v, want %v", got, want)
	}
}

func TestClassifyTieBreaksAlphabetically(t *testing.T) {
	c := NewThemeClassifier()

	// boss and mom score 2 each.
	got := c.Classify("my boss and my mom")
	want := []string{"family", "work"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify = %v, want %v", got, want)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := NewThemeClassifier()

	if got := c.Classify("WORK WAS AWFUL TODAY"); !reflect.DeepEqual(got, []string{"work"}) {
		t.Errorf("Classify = %v, want [work]", got)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	c := NewThemeClassifier()

	for _, text := range []string{"", "   ", "The weather looks pleasant"} {
		if got := c.Classify(text); got != nil {
			t.Errorf("Classify(%q) = %v, want nil", text, got)
		}
	}
}

func TestClassifyWordBoundaries(t *testing.T) {
	c := NewThemeClassifier()

	// "network" must not match "work", "classic" must not match "class".
	if got := c.Classify("The network classic was on television"); got != nil {
		t.Errorf("substring matched: %v, want nil", got)
	}
}
