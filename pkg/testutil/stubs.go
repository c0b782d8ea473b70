// Package testutil provides stub adapters for pipeline tests.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// StubLLM replays scripted responses keyed by a substring of the user prompt.
// Unmatched prompts fall through to Default. Calls are recorded so tests can
// assert how often the model was consulted.
type StubLLM struct {
	mu sync.Mutex

	// Responses maps a user-prompt substring to the canned reply.
	Responses map[string]string
	// Default is returned when no substring matches. Empty Default with no
	// match returns Err.
	Default string
	// Err, when set, is returned for every call.
	Err error

	calls []string
}

func (s *StubLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, userPrompt)

	if s.Err != nil {
		return "", s.Err
	}

	for needle, response := range s.Responses {
		if strings.Contains(userPrompt, needle) {
			return response, nil
		}
	}

	if s.Default != "" {
		return s.Default, nil
	}

	return "", errors.New("no stubbed response for prompt")
}

// Calls returns a copy of the recorded user prompts.
func (s *StubLLM) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

// CallCount returns how many recorded prompts contain the given substring.
func (s *StubLLM) CallCount(needle string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0

	for _, call := range s.calls {
		if strings.Contains(call, needle) {
			count++
		}
	}

	return count
}

// StubSource returns fixed raw payloads per keyword, or empty strings when
// nothing is scripted, which drives the fallback synthesis path.
type StubSource struct {
	mu sync.Mutex

	// Topics and Posts map keyword to raw payload.
	Topics map[string]string
	Posts  map[string]string
	// Err, when set, is returned for every lookup.
	Err error

	topicCalls []string
	postCalls  []string
	shutdowns  int
}

func (s *StubSource) SearchTopics(ctx context.Context, keyword string, limit int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.topicCalls = append(s.topicCalls, keyword)

	if s.Err != nil {
		return "", s.Err
	}

	return s.Topics[keyword], nil
}

func (s *StubSource) RetrievePosts(ctx context.Context, keyword string, limit int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.postCalls = append(s.postCalls, keyword)

	if s.Err != nil {
		return "", s.Err
	}

	return s.Posts[keyword], nil
}

func (s *StubSource) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shutdowns++

	return nil
}

// TopicCalls returns the keywords passed to SearchTopics.
func (s *StubSource) TopicCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.topicCalls...)
}

// PostCalls returns the keywords passed to RetrievePosts.
func (s *StubSource) PostCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.postCalls...)
}

// Shutdowns returns how many times Shutdown was called.
func (s *StubSource) Shutdowns() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.shutdowns
}
