package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/postpilot/pkg/models"
)

func TestExtractTagsRoundTrip(t *testing.T) {
	text := "<t1>A</t1><t2>B</t2>"

	got := ExtractTags(text, "t1", "t2")

	assert.Equal(t, map[string]string{"t1": "A", "t2": "B"}, got)
}

func TestExtractTagsMissingYieldsSentinel(t *testing.T) {
	got := ExtractTags("<topic1>fitness</topic1>", "topic1", "topic2")

	assert.Equal(t, "fitness", got["topic1"])
	assert.True(t, IsMissing(got["topic2"]))
	assert.Equal(t, "Error: Cannot find <topic2> tag", got["topic2"])
}

func TestExtractTagSpansNewlinesNonGreedy(t *testing.T) {
	text := "<hitpoint1>line one\nline two</hitpoint1><hitpoint1>second</hitpoint1>"

	value, ok := ExtractTag(text, "hitpoint1")

	require.True(t, ok)
	assert.Equal(t, "line one\nline two", value)
}

func TestExtractTagAbsent(t *testing.T) {
	value, ok := ExtractTag("no tags here", "result")

	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestLooksLikeMarkdownTable(t *testing.T) {
	table := "| Title | Content |\n| :--- | :--- |\n| a | b |"
	assert.True(t, LooksLikeMarkdownTable(table))

	assert.False(t, LooksLikeMarkdownTable(`{"items":[]}`))
	// Pipes without a separator row are not a table.
	assert.False(t, LooksLikeMarkdownTable("a | b | c"))
}

func TestParseMarkdownTable(t *testing.T) {
	table := "| Title | Content | Author |\n" +
		"| :--- | :--- | :--- |\n" +
		"| Home workout | 30 day plan | coach_amy |\n" +
		"| HIIT basics | 20 minute burn | trainer_joe |"

	records := ParseMarkdownTable(table)

	require.Len(t, records, 2)
	assert.Equal(t, "Home workout", records[0].Title)
	assert.Equal(t, "30 day plan", records[0].Content)
	assert.Equal(t, "coach_amy", records[0].Author)
	assert.Equal(t, "trainer_joe", records[1].Author)
}

func TestParseMarkdownTableDropsShortRows(t *testing.T) {
	table := "| Title | Content | Author |\n" +
		"| :--- | :--- | :--- |\n" +
		"| only title\n" +
		"| full | row | author |"

	records := ParseMarkdownTable(table)

	require.Len(t, records, 1)
	assert.Equal(t, "full", records[0].Title)
}

func TestParseSourceJSONShapes(t *testing.T) {
	item := `{"title":"t","content":"c","author":"a","likes":3,"views":50}`

	tests := []struct {
		name string
		text string
	}{
		{"flat items", `{"items":[` + item + `]}`},
		{"data list", `{"data":[` + item + `]}`},
		{"nested data items", `{"data":{"items":[` + item + `]}}`},
		{"bare array", `[` + item + `]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := ParseSourceJSON(tt.text)

			require.Len(t, records, 1)
			assert.Equal(t, "t", records[0].Title)
			assert.Equal(t, 3, records[0].Likes)
			assert.Equal(t, 50, records[0].Views)
		})
	}
}

func TestParseSourceJSONMalformed(t *testing.T) {
	assert.Empty(t, ParseSourceJSON("not json at all"))
	assert.Empty(t, ParseSourceJSON(`{"unknown":"shape"}`))
}

func TestFormatTopicsTable(t *testing.T) {
	text := `{"topics":[{"name":"home workouts","view_num":"10000","trend":"up"}]}`

	table, err := FormatTopicsTable(text)

	require.NoError(t, err)
	assert.Contains(t, table, "| Topic | Views | Trend |")
	assert.Contains(t, table, "| home workouts | 10,000 | up |")
	assert.True(t, LooksLikeMarkdownTable(table))
}

func TestFormatTopicsTableErrors(t *testing.T) {
	_, err := FormatTopicsTable("garbage")
	assert.Error(t, err)

	_, err = FormatTopicsTable(`{"topics":[]}`)
	assert.ErrorIs(t, err, ErrNoTopics)
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "10,000", groupDigits("10000"))
	assert.Equal(t, "1,234,567", groupDigits("1,234,567"))
	assert.Equal(t, "987", groupDigits("987"))
	assert.Equal(t, "N/A", groupDigits("N/A"))
}

func makePosts(n int) []models.Post {
	posts := make([]models.Post, 0, n)
	for i := range n {
		posts = append(posts, models.Post{
			ID:      fmt.Sprintf("post-%d", i),
			Title:   fmt.Sprintf("title %d", i),
			Content: fmt.Sprintf("content %d", i),
		})
	}

	return posts
}

func allDecisions(n int, flag string) []string {
	decisions := make([]string, n)
	for i := range decisions {
		decisions[i] = flag
	}

	return decisions
}

func TestFilterAndSampleBounds(t *testing.T) {
	for _, n := range []int{0, 1, 3, 5, 8, 20} {
		posts := makePosts(n)

		got := FilterAndSample(posts, allDecisions(n, "1"), 5)

		want := n
		if want > 5 {
			want = 5
		}

		assert.Len(t, got, want, "n=%d", n)
	}
}

func TestFilterAndSampleAllRejected(t *testing.T) {
	got := FilterAndSample(makePosts(6), allDecisions(6, "0"), 5)
	assert.Empty(t, got)
}

func TestFilterAndSampleNoDuplicatesAndSubset(t *testing.T) {
	posts := makePosts(12)
	byID := make(map[string]bool, len(posts))
	for _, p := range posts {
		byID[p.ID] = true
	}

	got := FilterAndSample(posts, allDecisions(12, "1"), 5)

	require.Len(t, got, 5)

	seen := make(map[string]bool)
	for _, p := range got {
		assert.True(t, byID[p.ID], "result must be a subset of input")
		assert.False(t, seen[p.ID], "result must not contain duplicates")
		seen[p.ID] = true
	}
}

func TestFilterAndSampleRequiresTitleAndContent(t *testing.T) {
	posts := makePosts(3)
	posts[1].Title = ""
	posts[2].Content = ""

	got := FilterAndSample(posts, allDecisions(3, "1"), 5)

	require.Len(t, got, 1)
	assert.Equal(t, "post-0", got[0].ID)
}

func TestFilterAndSampleDropsTrailingWithoutDecision(t *testing.T) {
	got := FilterAndSample(makePosts(6), allDecisions(4, "1"), 5)
	assert.Len(t, got, 4)
}
