package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostEngagementRate(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want float64
	}{
		{
			name: "zero views yields zero rate",
			post: Post{Likes: 10, Comments: 5, Shares: 3, Views: 0},
			want: 0,
		},
		{
			name: "standard rate",
			post: Post{Likes: 10, Comments: 5, Shares: 5, Views: 100},
			want: 0.2,
		},
		{
			name: "no interactions",
			post: Post{Views: 500},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.post.EngagementRate(), 1e-9)
		})
	}
}

func TestQualityForScore(t *testing.T) {
	assert.Equal(t, QualityExcellent, QualityForScore(9.2))
	assert.Equal(t, QualityExcellent, QualityForScore(8))
	assert.Equal(t, QualityGood, QualityForScore(6.5))
	assert.Equal(t, QualityAverage, QualityForScore(3))
	assert.Equal(t, QualityPoor, QualityForScore(1.4))
}

func TestWorkflowStateSetErrorIsTerminal(t *testing.T) {
	state := NewWorkflowState("fitness account")

	state.SetError("topic search exploded")
	assert.Equal(t, StatusError, state.Status())
	assert.True(t, state.Failed())

	// First error wins; later errors and status changes are ignored.
	state.SetError("a different error")
	state.SetStatus(StatusContentGeneration)

	assert.Equal(t, "topic search exploded", state.ErrorMessage)
	assert.Equal(t, StatusError, state.Status())
}

func TestWorkflowStateSnapshot(t *testing.T) {
	state := NewWorkflowState("fitness account")
	state.SetStatus(StatusContentFiltering)
	state.RetrievedPosts = []Post{
		{ID: "post-1", Title: "t", Content: "c", Likes: 2, Views: 10},
	}
	state.Hitpoints = []Hitpoint{{ID: "hitpoint_1", Description: "angle"}}
	state.SelectedHitpoint = &state.Hitpoints[0]
	state.GeneratedContent = &GeneratedContent{Title: "draft", Tags: []string{"fit"}}

	snap := state.Snapshot()

	assert.Equal(t, "fitness account", snap["user_input"])
	assert.Equal(t, "content_filtering", snap["current_state"])

	posts, ok := snap["retrieved_posts"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, posts, 1)
	assert.Equal(t, "post-1", posts[0]["id"])
	assert.InDelta(t, 0.2, posts[0]["engagement_rate"].(float64), 1e-9)

	selected, ok := snap["selected_hitpoint"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hitpoint_1", selected["id"])

	content, ok := snap["generated_content"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "draft", content["title"])
}

func TestEmptyPostSlot(t *testing.T) {
	slot := EmptyPostSlot()
	assert.Equal(t, "none", slot.Title)
	assert.Equal(t, "none", slot.Content)
}
