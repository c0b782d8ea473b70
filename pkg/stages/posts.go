package stages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/postpilot/postpilot/pkg/llm"
	"github.com/postpilot/postpilot/pkg/models"
	"github.com/postpilot/postpilot/pkg/parser"
	"github.com/postpilot/postpilot/pkg/source"
)

// PostRetrieval pulls raw post data for one keyword, preferring the refined
// keywords from topic research and falling back to the seed keywords. Source
// failures degrade to model-synthesized posts, mirroring TopicSearch.
type PostRetrieval struct {
	slot   int
	llm    llm.Client
	source source.ContentSource
	limit  int
	logger *slog.Logger
}

func NewPostRetrieval(slot int, client llm.Client, src source.ContentSource, limit int, logger *slog.Logger) *PostRetrieval {
	if limit <= 0 {
		limit = source.DefaultLimit
	}

	return &PostRetrieval{slot: slot, llm: client, source: src, limit: limit, logger: logger}
}

func (s *PostRetrieval) ID() string {
	if s.slot == 1 {
		return StagePostRetrieval1
	}

	return StagePostRetrieval2
}

func (s *PostRetrieval) keyword(state *models.WorkflowState) string {
	index := s.slot - 1
	if index < len(state.RefinedKeywords) && state.RefinedKeywords[index] != "" {
		return state.RefinedKeywords[index]
	}

	if s.slot == 1 {
		return state.PrimaryKeyword
	}

	return state.SecondaryKeyword
}

func (s *PostRetrieval) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	state.SetStatus(models.StatusPostRetrieval)

	keyword := s.keyword(state)

	var raw string

	if keyword != "" {
		result, err := s.source.RetrievePosts(ctx, keyword, s.limit)
		if err != nil {
			s.logger.Warn("Post retrieval failed, falling back to synthesis",
				"slot", s.slot, "keyword", keyword, "error", err)
		} else {
			raw = result
		}
	}

	if raw == "" {
		subject := keyword
		if subject == "" {
			subject = state.UserInput
		}

		synthesized, err := s.llm.Complete(ctx, llm.SystemPrompt, llm.FallbackPostsPrompt(subject))
		if err != nil {
			state.SetError(fmt.Sprintf("post retrieval %d failed: %v", s.slot, err))

			return nil
		}

		raw = synthesized
	}

	if s.slot == 1 {
		state.PostRetrievalResult1 = raw
	} else {
		state.PostRetrievalResult2 = raw
	}

	return nil
}

// ParsePosts turns one raw post result into records, choosing the markdown
// or JSON parse path with the same heuristic FormatTopics uses. Malformed
// input parses to an empty list, never an error.
type ParsePosts struct {
	slot int
}

func NewParsePosts(slot int) *ParsePosts {
	return &ParsePosts{slot: slot}
}

func (s *ParsePosts) ID() string {
	if s.slot == 1 {
		return StageParsePosts1
	}

	return StageParsePosts2
}

func (s *ParsePosts) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	raw := state.PostRetrievalResult1
	if s.slot == 2 {
		raw = state.PostRetrievalResult2
	}

	var records []models.PostRecord

	if parser.LooksLikeMarkdownTable(raw) {
		records = parser.ParseMarkdownTable(raw)
	} else {
		records = parser.ParseSourceJSON(raw)
	}

	if s.slot == 1 {
		state.ParsedPosts1 = records
	} else {
		state.ParsedPosts2 = records
	}

	return nil
}

// CombinePostResults is the fan-in for the two retrieval branches. It promotes
// the parsed records to posts and updates the processed counter.
type CombinePostResults struct{}

func NewCombinePostResults() *CombinePostResults {
	return &CombinePostResults{}
}

func (s *CombinePostResults) ID() string {
	return StageCombinePostResults
}

func (s *CombinePostResults) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	records := make([]models.PostRecord, 0, len(state.ParsedPosts1)+len(state.ParsedPosts2))
	records = append(records, state.ParsedPosts1...)
	records = append(records, state.ParsedPosts2...)

	now := time.Now().UTC()
	posts := make([]models.Post, 0, len(records))

	for i, record := range records {
		posts = append(posts, models.Post{
			ID:        fmt.Sprintf("post-%d", i+1),
			Title:     record.Title,
			Content:   record.Content,
			Author:    record.Author,
			Likes:     record.Likes,
			Comments:  record.Comments,
			Shares:    record.Shares,
			Views:     record.Views,
			Tags:      record.Tags,
			CreatedAt: now,
		})
	}

	state.RetrievedPosts = posts
	state.TotalPostsProcessed = len(posts)

	return nil
}

// EndNoPosts is the short-circuit terminal taken when retrieval produced
// nothing. Skipping straight to the end avoids spending model calls on empty
// input.
type EndNoPosts struct {
	logger *slog.Logger
}

func NewEndNoPosts(logger *slog.Logger) *EndNoPosts {
	return &EndNoPosts{logger: logger}
}

func (s *EndNoPosts) ID() string {
	return StageEndNoPosts
}

func (s *EndNoPosts) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	s.logger.Info("No posts retrieved, ending run early")
	state.SetStatus(models.StatusEndNoPosts)

	return nil
}
