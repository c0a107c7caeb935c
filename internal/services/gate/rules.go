package gate

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Well-known gated actions.
const (
	ActionChatCheckBlocked    = "chat-check-blocked"
	ActionChatMessage         = "chat-message"
	ActionNewsletterSubscribe = "newsletter-subscribe"
	ActionSurveySubmit        = "survey-submit"
)

// StaticRules is an in-memory RuleSource backed by a fixed table.
type StaticRules struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// DefaultRules returns the enumerated rule table for public endpoints.
func DefaultRules() *StaticRules {
	return NewStaticRules(map[string]Rule{
		ActionChatCheckBlocked:    {Window: time.Minute, MaxCount: 30},
		ActionChatMessage:         {Window: time.Minute, MaxCount: 20},
		ActionNewsletterSubscribe: {Window: time.Minute, MaxCount: 5},
		ActionSurveySubmit:        {Window: time.Minute, MaxCount: 10},
	})
}

// NewStaticRules builds a RuleSource from the given table.
func NewStaticRules(rules map[string]Rule) *StaticRules {
	copied := make(map[string]Rule, len(rules))
	for action, rule := range rules {
		copied[strings.TrimSpace(action)] = rule
	}
	return &StaticRules{rules: copied}
}

// RuleFor returns the rule for action, or ErrNotFound for unknown actions.
func (s *StaticRules) RuleFor(_ context.Context, action string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[strings.TrimSpace(action)]
	if !ok {
		return Rule{}, ErrNotFound
	}
	return rule, nil
}

// Set replaces the rule for action, allowing runtime tuning in tests.
func (s *StaticRules) Set(action string, rule Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[strings.TrimSpace(action)] = rule
}
