// Package printer renders CLI output: colored status lines, decisions and
// tables.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
)

func init() {
	// NO_COLOR disables colors even on a TTY.
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a green line with a checkmark prefix
func Success(format string, a ...any) {
	green.Printf("✓ %s\n", fmt.Sprintf(format, a...))
}

// Info prints a plain line
func Info(format string, a ...any) {
	fmt.Printf(format+"\n", a...)
}

// Warning prints a yellow line with a warning prefix
func Warning(format string, a ...any) {
	yellow.Printf("⚠️  %s\n", fmt.Sprintf(format, a...))
}

// Step prints a cyan progress line
func Step(format string, a ...any) {
	cyan.Printf("→ %s\n", fmt.Sprintf(format, a...))
}

// Error prints title, explanation and suggestions to stderr and returns an
// error carrying only the title, for Cobra to exit with.
func Error(title, explanation string, suggestions ...string) error {
	return ErrorWithContext(title, explanation, nil, suggestions...)
}

// ErrorWithContext is Error with key/value details, printed sorted by key.
func ErrorWithContext(title, explanation string, details map[string]string, suggestions ...string) error {
	writeError(os.Stderr, title, explanation, details, suggestions)
	return fmt.Errorf("%s", title)
}

func writeError(w io.Writer, title, explanation string, details map[string]string, suggestions []string) {
	red.Fprintf(w, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(w, "%s\n", explanation)
	}

	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, details[k])
		}
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(w, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(w, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
}

// Decision colors a decision key: green for GO, red for stops and
// emergencies, yellow for everything that defers.
func Decision(d decision.Decision) string {
	switch {
	case d == decision.Go:
		return green.Sprint(d.String())
	case d == decision.Stop || d == decision.NoGo || d == decision.Escalate || d.IsEmergency():
		return red.Sprint(d.String())
	default:
		return yellow.Sprint(d.String())
	}
}

// Table writes rows under header as a light box table.
func Table(w io.Writer, header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	h := make(table.Row, len(header))
	for i, c := range header {
		h[i] = c
	}
	t.AppendHeader(h)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()
}
