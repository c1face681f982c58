package generator

import (
	"context"
	"strings"
	"sync"
)

// Rule maps a prompt substring to a canned reply.
type Rule struct {
	Contains string
	Reply    string
}

// Scripted is a deterministic generator for offline runs and tests.
//
// Replies are chosen in this order: the next queued reply, the first rule
// whose Contains occurs in the prompt, then Default. With EchoPrompt set the
// prompt is prepended to the reply the way causal language models echo
// their input.
type Scripted struct {
	mu sync.Mutex

	Queue      []string
	Rules      []Rule
	Default    string
	EchoPrompt bool
	Err        error

	calls []string
}

// Generate implements Generator.
func (s *Scripted) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, prompt)
	if s.Err != nil {
		return "", s.Err
	}

	reply := s.Default
	switch {
	case len(s.Queue) > 0:
		reply = s.Queue[0]
		s.Queue = s.Queue[1:]
	default:
		for _, r := range s.Rules {
			if strings.Contains(prompt, r.Contains) {
				reply = r.Reply
				break
			}
		}
	}

	if s.EchoPrompt {
		return prompt + "\n" + reply, nil
	}
	return reply, nil
}

// Enqueue appends replies to be served before any rule.
func (s *Scripted) Enqueue(replies ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queue = append(s.Queue, replies...)
}

// Calls returns the prompts seen so far.
func (s *Scripted) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}
