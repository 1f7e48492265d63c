package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Entry is one imported conversation turn.
type Entry struct {
	Text      string `json:"text"`
	Emotion   string `json:"emotion,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"` // epoch millis
}

// rawEntry tolerates the field spellings seen in exported chat logs.
type rawEntry struct {
	Text      string `json:"text"`
	Message   string `json:"message"`
	Emotion   string `json:"emotion"`
	Timestamp int64  `json:"timestamp"`
	Time      string `json:"time"`
}

// Parse reads a JSONL chat log, one JSON object per line. Malformed or
// empty lines are skipped and counted rather than failing the import.
func Parse(r io.Reader) ([]Entry, int, error) {
	var (
		entries []Entry
		skipped int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line buffer

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		entry, ok := parseLine(line)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scan transcript: %w", err)
	}
	return entries, skipped, nil
}

// ParseFile reads a JSONL chat log from disk.
func ParseFile(path string) ([]Entry, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func parseLine(line []byte) (Entry, bool) {
	var raw rawEntry
	if err := json.Unmarshal(line, &raw); err != nil {
		return Entry{}, false
	}

	text := strings.TrimSpace(raw.Text)
	if text == "" {
		text = strings.TrimSpace(raw.Message)
	}
	if text == "" {
		return Entry{}, false
	}

	ts := raw.Timestamp
	if ts == 0 && raw.Time != "" {
		if t, err := time.Parse(time.RFC3339, raw.Time); err == nil {
			ts = t.UnixMilli()
		}
	}

	return Entry{
		Text:      text,
		Emotion:   strings.ToLower(strings.TrimSpace(raw.Emotion)),
		Timestamp: ts,
	}, true
}
