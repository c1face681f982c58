// Package security provides identity cards that gate the release of to-dos:
// bcrypt-checked passwords, clearance levels and RSA-signed receipts.
package security

import (
	"fmt"
	"strings"
)

// Level is a clearance level. Higher values grant more.
type Level int

const (
	LevelLow Level = iota + 1
	LevelMedium
	LevelHigh
)

var levelNames = map[Level]string{
	LevelLow:    "LOW",
	LevelMedium: "MEDIUM",
	LevelHigh:   "HIGH",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel accepts LOW, MEDIUM or HIGH in any case.
func ParseLevel(s string) (Level, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == upper {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown security level %q", s)
}

// Covers reports whether l grants access to something requiring required.
func (l Level) Covers(required Level) bool {
	return l >= required
}

func (l Level) MarshalText() ([]byte, error) {
	if _, ok := levelNames[l]; !ok {
		return nil, fmt.Errorf("unknown security level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
