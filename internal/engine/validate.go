package engine

import (
	"fmt"
	"log"
	"strings"
	"unicode"
)

// Input limits for a single turn.
const (
	maxTurnChars      = 4000
	minFactValueChars = 3
	maxFactValueChars = 60
)

// validateTurn checks raw turn input before the pipeline runs.
// Oversized text is truncated rather than rejected; empty input is an error.
func validateTurn(userID, text string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("empty user id")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty turn text")
	}
	if len(text) > maxTurnChars {
		log.Printf("validate: truncating turn for %s (%d chars)", userID, len(text))
		text = truncateClean(text, maxTurnChars)
	}
	return text, nil
}

// normalizeValue canonicalizes an extracted fact value: lowercased, trimmed,
// whitespace collapsed, trailing punctuation stripped.
func normalizeValue(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.TrimRight(v, ".,!?;:")
	return strings.Join(strings.Fields(v), " ")
}

// valueStopwords rejects captures that are grammar debris, not facts.
var valueStopwords = map[string]bool{"the": true, "and": true, "but": true, "for": true}

// validValue reports whether a normalized capture is worth storing.
func validValue(v string) bool {
	if len(v) < minFactValueChars || len(v) > maxFactValueChars {
		return false
	}
	return !valueStopwords[v]
}

// truncateClean truncates a string to maxLen, cutting at the last word boundary
// to avoid mid-word breaks.
func truncateClean(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	truncated := s[:maxLen]
	if idx := strings.LastIndexFunc(truncated, unicode.IsSpace); idx > maxLen-200 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated)
}
