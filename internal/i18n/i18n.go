// Package i18n provides the locale tables used for decision names, ethics
// domains and generated goal texts.
//
// Tables are embedded YAML files loaded once at startup. A Translator is
// read-only after construction and safe for concurrent use.
package i18n

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used as fallback for keys missing in another table.
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// Translator resolves keys against one language table, falling back to the
// default language and finally to the key itself.
type Translator struct {
	lang     string
	table    map[string]string
	fallback map[string]string
}

// New builds a Translator for the given language code.
// Returns an error if no embedded table exists for lang.
func New(lang string) (*Translator, error) {
	if lang == "" {
		lang = DefaultLanguage
	}

	table, err := loadTable(lang)
	if err != nil {
		return nil, err
	}

	fallback := table
	if lang != DefaultLanguage {
		if fallback, err = loadTable(DefaultLanguage); err != nil {
			return nil, err
		}
	}

	return &Translator{lang: lang, table: table, fallback: fallback}, nil
}

// Languages lists the embedded language codes in sorted order.
func Languages() []string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(langs)
	return langs
}

func loadTable(lang string) (map[string]string, error) {
	data, err := localeFS.ReadFile("locales/" + lang + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unsupported language %q (available: %s)", lang, strings.Join(Languages(), ", "))
	}

	table := make(map[string]string)
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse locale table %s: %w", lang, err)
	}
	return table, nil
}

// Language returns the language code of this translator.
func (t *Translator) Language() string {
	return t.lang
}

// T looks up key and substitutes each "{}" placeholder with the next arg.
func (t *Translator) T(key string, args ...any) string {
	text, ok := t.table[key]
	if !ok {
		if text, ok = t.fallback[key]; !ok {
			text = key
		}
	}
	if len(args) == 0 {
		return text
	}
	return Format(text, args...)
}

// Format replaces "{}" placeholders in template positionally.
// Surplus placeholders are left untouched; surplus args are ignored.
func Format(template string, args ...any) string {
	var b strings.Builder
	rest := template
	for _, arg := range args {
		idx := strings.Index(rest, "{}")
		if idx < 0 {
			break
		}
		b.WriteString(rest[:idx])
		b.WriteString(fmt.Sprint(arg))
		rest = rest[idx+2:]
	}
	b.WriteString(rest)
	return b.String()
}
