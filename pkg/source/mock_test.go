package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/postpilot/pkg/parser"
)

func TestMockSourceSearchTopics(t *testing.T) {
	src := NewMockSource()

	raw, err := src.SearchTopics(context.Background(), "fitness", 5)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	// The mock emits the platform JSON shape, so it must survive the topics
	// formatter.
	table, err := parser.FormatTopicsTable(raw)
	require.NoError(t, err)
	assert.True(t, parser.LooksLikeMarkdownTable(table))
}

func TestMockSourceSearchTopicsDeterministic(t *testing.T) {
	src := NewMockSource()

	first, err := src.SearchTopics(context.Background(), "fitness", 3)
	require.NoError(t, err)

	second, err := src.SearchTopics(context.Background(), "fitness", 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMockSourceRetrievePosts(t *testing.T) {
	src := NewMockSource()

	raw, err := src.RetrievePosts(context.Background(), "fitness", 5)
	require.NoError(t, err)
	assert.True(t, parser.LooksLikeMarkdownTable(raw))

	records := parser.ParseMarkdownTable(raw)
	require.Len(t, records, 5)
	assert.NotEmpty(t, records[0].Title)
	assert.NotEmpty(t, records[0].Content)
	assert.NotEmpty(t, records[0].Author)
}

func TestMockSourceShutdown(t *testing.T) {
	assert.NoError(t, NewMockSource().Shutdown(context.Background()))
}
