package ethics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Questions holds the base questions (one per domain) and the dynamic
// questions learned at runtime, persisted as a JSON list.
type Questions struct {
	path   string
	logger *zap.Logger

	base []string

	mu      sync.RWMutex
	dynamic []string
}

// NewQuestions builds the base questions and loads dynamic ones from path.
// A missing file starts with no dynamic questions; an unreadable one is
// logged and ignored.
func NewQuestions(domains []Domain, tr Translator, path string, logger *zap.Logger) *Questions {
	q := &Questions{path: path, logger: logger}
	for _, d := range domains {
		q.base = append(q.base, tr.T("IS_ACTION_NEEDED", tr.T(d.Key)))
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &q.dynamic); err != nil {
			logger.Error("Failed to parse dynamic questions", zap.String("path", path), zap.Error(err))
			q.dynamic = nil
		}
	case !os.IsNotExist(err):
		logger.Error("Failed to read dynamic questions", zap.String("path", path), zap.Error(err))
	}
	return q
}

// Validate rejects questions shorter than ten characters or without a question mark.
func Validate(question string) error {
	if len(question) < 10 {
		return fmt.Errorf("question too short: %q", question)
	}
	if !strings.Contains(question, "?") {
		return fmt.Errorf("question has no question mark: %q", question)
	}
	return nil
}

// Add validates and appends a dynamic question. Returns false for invalid
// or duplicate questions.
func (q *Questions) Add(question string) bool {
	if err := Validate(question); err != nil {
		q.logger.Warn("Question rejected", zap.Error(err))
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, existing := range q.dynamic {
		if existing == question {
			q.logger.Warn("Question already exists", zap.String("question", question))
			return false
		}
	}
	q.dynamic = append(q.dynamic, question)
	q.logger.Info("New ethical question", zap.String("question", question))
	return true
}

// All returns base questions followed by dynamic ones.
func (q *Questions) All() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]string, 0, len(q.base)+len(q.dynamic))
	out = append(out, q.base...)
	return append(out, q.dynamic...)
}

// Save writes the dynamic questions to disk.
func (q *Questions) Save() error {
	q.mu.RLock()
	data, err := json.MarshalIndent(q.dynamic, "", "    ")
	q.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("failed to create ethics directory: %w", err)
	}
	if err := os.WriteFile(q.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save dynamic questions: %w", err)
	}
	return nil
}
