package source

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
)

// MockSource serves deterministic canned data keyed by keyword, for demos and
// tests that must not depend on a live platform. Topics come back as the JSON
// shape the live source produces; posts come back as a markdown table, the
// same shape the fallback synthesis path produces.
type MockSource struct{}

// NewMockSource returns a mock content source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

type mockTopic struct {
	Name    string `json:"name"`
	ViewNum string `json:"view_num"`
	Trend   string `json:"trend"`
}

// SearchTopics returns a topics JSON document derived from the keyword.
func (m *MockSource) SearchTopics(_ context.Context, keyword string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if limit > 5 {
		limit = 5
	}

	trends := []string{"up", "steady", "up", "down", "steady"}

	topics := make([]mockTopic, 0, limit)
	for i := range limit {
		topics = append(topics, mockTopic{
			Name:    fmt.Sprintf("%s tips #%d", keyword, i+1),
			ViewNum: fmt.Sprintf("%d", 5000+seed(keyword)%1000*(i+1)),
			Trend:   trends[i%len(trends)],
		})
	}

	payload, err := json.Marshal(map[string]any{"topics": topics})
	if err != nil {
		return "", err
	}

	return string(payload), nil
}

// RetrievePosts returns a markdown table of plausible posts for the keyword.
func (m *MockSource) RetrievePosts(_ context.Context, keyword string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if limit > 5 {
		limit = 5
	}

	var table strings.Builder

	table.WriteString("| Title | Content | Author |\n| :--- | :--- | :--- |\n")

	for i := range limit {
		fmt.Fprintf(&table, "| %s story %d | A popular post about %s, part %d of a series that readers keep sharing. | creator_%d |\n",
			keyword, i+1, keyword, i+1, seed(keyword)%90+i)
	}

	return table.String(), nil
}

// Shutdown is a no-op for the mock source.
func (m *MockSource) Shutdown(_ context.Context) error {
	return nil
}

func seed(keyword string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(keyword))

	return int(h.Sum32() % 10000)
}
