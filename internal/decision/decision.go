// Package decision defines the closed decision vocabulary shared by all
// layers and the first-match parser that extracts a decision from free text.
package decision

import (
	"fmt"
	"strings"
	"sync"
)

// Decision is one element of the fixed decision vocabulary.
// The zero value None means "no decision yet".
type Decision int

// Declaration order matters: Parse checks the patterns in this order.
const (
	None Decision = iota
	Stop
	EmergencySurvival
	EmergencyEssential
	EmergencyRecommended
	Go
	NoGo
	Wait
	Adjust
	Escalate
	Improve
)

var keys = [...]string{
	None:                 "",
	Stop:                 "STOP",
	EmergencySurvival:    "EMERGENCY_SURVIVAL",
	EmergencyEssential:   "EMERGENCY_ESSENTIAL",
	EmergencyRecommended: "EMERGENCY_RECOMMENDED",
	Go:                   "GO",
	NoGo:                 "NOGO",
	Wait:                 "WAIT",
	Adjust:               "ADJUST",
	Escalate:             "ESCALATE",
	Improve:              "IMPROVE",
}

// All returns every decision in declaration order, excluding None.
func All() []Decision {
	out := make([]Decision, 0, len(keys)-1)
	for d := Stop; d <= Improve; d++ {
		out = append(out, d)
	}
	return out
}

// String returns the canonical key, which is also the translation key.
func (d Decision) String() string {
	if d < None || int(d) >= len(keys) {
		return fmt.Sprintf("Decision(%d)", int(d))
	}
	if d == None {
		return "NONE"
	}
	return keys[d]
}

// IsEmergency reports whether d is one of the three emergency tiers.
func (d Decision) IsEmergency() bool {
	return d == EmergencySurvival || d == EmergencyEssential || d == EmergencyRecommended
}

// Severity ranks the emergency tiers: RECOMMENDED 1, ESSENTIAL 2, SURVIVAL 3.
// Every other decision ranks 0.
func (d Decision) Severity() int {
	switch d {
	case EmergencySurvival:
		return 3
	case EmergencyEssential:
		return 2
	case EmergencyRecommended:
		return 1
	}
	return 0
}

// FromKey resolves a canonical key (case-insensitive).
func FromKey(key string) (Decision, bool) {
	key = strings.ToUpper(strings.TrimSpace(key))
	for _, d := range All() {
		if keys[d] == key {
			return d, true
		}
	}
	return None, false
}

// MarshalText encodes the canonical key so JSON and YAML stay readable.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(keys[d]), nil
}

// UnmarshalText accepts a canonical key or the empty string for None.
func (d *Decision) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = None
		return nil
	}
	parsed, ok := FromKey(string(text))
	if !ok {
		return fmt.Errorf("unknown decision %q", string(text))
	}
	*d = parsed
	return nil
}

// Translator resolves display names for decision keys.
type Translator interface {
	T(key string, args ...any) string
}

type pattern struct {
	needle   string
	decision Decision
}

// Vocabulary binds the decisions to their display names in one language.
// Names are resolved once on first use and cached.
type Vocabulary struct {
	tr Translator

	once     sync.Once
	names    map[Decision]string
	byName   map[string]Decision
	patterns []pattern
	err      error
}

// NewVocabulary returns a vocabulary for tr.
// Fails when two decisions translate to the same display name, since the
// parser could then never tell them apart.
func NewVocabulary(tr Translator) (*Vocabulary, error) {
	v := &Vocabulary{tr: tr}
	v.load()
	if v.err != nil {
		return nil, v.err
	}
	return v, nil
}

func (v *Vocabulary) load() {
	v.once.Do(func() {
		v.names = make(map[Decision]string, len(keys))
		v.byName = make(map[string]Decision, len(keys))
		for _, d := range All() {
			name := v.tr.T(keys[d])
			if prev, dup := v.byName[name]; dup {
				v.err = fmt.Errorf("decisions %s and %s share display name %q", prev, d, name)
				return
			}
			v.names[d] = name
			v.byName[name] = d
			v.patterns = append(v.patterns, pattern{needle: strings.ToLower(name), decision: d})
		}
	})
}

// Name returns the display name of d.
func (v *Vocabulary) Name(d Decision) string {
	v.load()
	if name, ok := v.names[d]; ok {
		return name
	}
	return d.String()
}

// ParseName resolves an exact display name.
func (v *Vocabulary) ParseName(name string) (Decision, bool) {
	v.load()
	d, ok := v.byName[name]
	return d, ok
}

// List renders the vocabulary as "[STOP, EMERGENCY_SURVIVAL, ...]" for prompts.
func (v *Vocabulary) List() string {
	v.load()
	names := make([]string, 0, len(v.patterns))
	for _, d := range All() {
		names = append(names, v.names[d])
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Parse returns the first decision whose display name occurs in text,
// compared case-insensitively, checking in declaration order.
//
// The scan is deliberately first-match: "NOGO" parses as GO because GO is
// declared before NOGO and is a substring of it.
func (v *Vocabulary) Parse(text string) (Decision, bool) {
	v.load()
	lower := strings.ToLower(text)
	if lower == "" {
		return None, false
	}
	for _, p := range v.patterns {
		if strings.Contains(lower, p.needle) {
			return p.decision, true
		}
	}
	return None, false
}

// ParseForLayer returns {layerName: decision} for the first match, or nil
// when text contains no decision.
func (v *Vocabulary) ParseForLayer(layerName, text string) map[string]Decision {
	d, ok := v.Parse(text)
	if !ok {
		return nil
	}
	return map[string]Decision{layerName: d}
}
