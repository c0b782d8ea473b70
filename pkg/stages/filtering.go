package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/postpilot/postpilot/pkg/llm"
	"github.com/postpilot/postpilot/pkg/models"
	"github.com/postpilot/postpilot/pkg/parser"
)

// NoSuitablePostsSummary is propagated downstream when filtering keeps
// nothing. Later stages describe it instead of failing.
const NoSuitablePostsSummary = "no suitable posts found"

// ContentFiltering scores every retrieved post, asks the model for one
// keep/drop decision per post with a bounded fan-out, and samples up to
// maxSelected survivors into the named selection slots.
type ContentFiltering struct {
	llm         llm.Client
	maxSelected int
	concurrency int
	logger      *slog.Logger
}

func NewContentFiltering(client llm.Client, maxSelected, concurrency int, logger *slog.Logger) *ContentFiltering {
	if maxSelected <= 0 {
		maxSelected = parser.DefaultSampleSize
	}

	if concurrency <= 0 {
		concurrency = 4
	}

	return &ContentFiltering{
		llm:         client,
		maxSelected: maxSelected,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (s *ContentFiltering) ID() string {
	return StageContentFiltering
}

func (s *ContentFiltering) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	state.SetStatus(models.StatusContentFiltering)

	posts := state.RetrievedPosts
	for i := range posts {
		score := posts[i].EngagementRate() * 100
		if score > 10 {
			score = 10
		}

		posts[i].QualityScore = score
		posts[i].QualityLevel = models.QualityForScore(score)
	}

	decisions := s.decide(ctx, posts)

	filtered := make([]models.Post, 0, len(posts))

	for i, post := range posts {
		if i < len(decisions) && decisions[i] == "1" && post.Title != "" && post.Content != "" {
			filtered = append(filtered, post)
		}
	}

	selected := parser.FilterAndSample(posts, decisions, s.maxSelected)

	state.FilterDecisions = decisions
	state.FilteredPosts = filtered
	state.SelectedPosts = selected
	state.SelectedSlots = buildSlots(selected, s.maxSelected)
	state.SelectedPostsSummary = summarizeSelection(selected)

	s.logger.Info("Content filtering finished",
		"posts", len(posts), "kept", len(filtered), "selected", len(selected))

	return nil
}

// decide fans out one keep/drop call per post, capped at the configured
// concurrency. A failed or unparseable reply drops the post.
func (s *ContentFiltering) decide(ctx context.Context, posts []models.Post) []string {
	decisions := make([]string, len(posts))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for i, post := range posts {
		group.Go(func() error {
			decisions[i] = "0"

			response, err := s.llm.Complete(groupCtx, llm.FilterSystemPrompt, llm.FilterPrompt(post))
			if err != nil {
				s.logger.Warn("Filter decision failed, dropping post", "post", post.ID, "error", err)

				return nil
			}

			if value, ok := parser.ExtractTag(response, "result"); ok {
				decisions[i] = strings.TrimSpace(value)
			}

			return nil
		})
	}

	_ = group.Wait()

	return decisions
}

func buildSlots(selected []models.Post, size int) []models.PostSlot {
	slots := make([]models.PostSlot, 0, size)

	for i := range size {
		if i < len(selected) {
			slots = append(slots, models.PostSlot{
				Title:   selected[i].Title,
				Content: selected[i].Content,
			})
		} else {
			slots = append(slots, models.EmptyPostSlot())
		}
	}

	return slots
}

func summarizeSelection(selected []models.Post) string {
	if len(selected) == 0 {
		return NoSuitablePostsSummary
	}

	var builder strings.Builder

	for i, post := range selected {
		fmt.Fprintf(&builder, "#### Post %d\nTitle: %s\nContent: %s\n\n", i+1, post.Title, post.Content)
	}

	return strings.TrimRight(builder.String(), "\n")
}
