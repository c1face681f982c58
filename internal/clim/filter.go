package clim

import "strings"

// FilterAnswer strips an echoed prompt from a generated answer and returns
// the remaining non-empty, trimmed lines in order.
func FilterAnswer(answer, prompt string) []string {
	if prompt != "" {
		answer = strings.ReplaceAll(answer, prompt+"\n", "")
	}

	var lines []string
	for _, line := range strings.Split(answer, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
