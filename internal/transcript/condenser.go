package transcript

import "fmt"

// Line is one side of a live conversation kept for prompt context.
type Line struct {
	Role string // "them" or "maitri"
	Text string
}

const maxLineChars = 400

// Condense formats history lines for a prompt, newest last, dropping the
// oldest whole lines until the total fits budget characters. A single
// oversize line is truncated rather than dropped.
func Condense(lines []Line, budget int) []string {
	if len(lines) == 0 || budget <= 0 {
		return nil
	}

	formatted := make([]string, len(lines))
	total := 0
	for i, l := range lines {
		s := fmt.Sprintf("%s: %s", l.Role, l.Text)
		if len(s) > maxLineChars {
			s = s[:maxLineChars] + "..."
		}
		formatted[i] = s
		total += len(s)
	}

	start := 0
	for start < len(formatted)-1 && total > budget {
		total -= len(formatted[start])
		start++
	}

	out := formatted[start:]
	if len(out) == 1 && len(out[0]) > budget {
		out = []string{out[0][:budget]}
	}
	return out
}
