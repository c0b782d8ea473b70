package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/postpilot/postpilot/pkg/llm"
	"github.com/postpilot/postpilot/pkg/models"
	"github.com/postpilot/postpilot/pkg/parser"
)

const maxHitpoints = 5

// HitpointAnalysis asks the model why the selected posts resonate and stores
// the raw tagged reply. When filtering selected nothing it falls back to a
// summary synthesized from the filtered posts.
type HitpointAnalysis struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewHitpointAnalysis(client llm.Client, logger *slog.Logger) *HitpointAnalysis {
	return &HitpointAnalysis{llm: client, logger: logger}
}

func (s *HitpointAnalysis) ID() string {
	return StageHitpointAnalysis
}

func (s *HitpointAnalysis) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	state.SetStatus(models.StatusHitpointAnalysis)

	summary := state.SelectedPostsSummary
	if summary == "" || summary == NoSuitablePostsSummary {
		summary = synthesizeSummary(state.FilteredPosts)
	}

	response, err := s.llm.Complete(ctx, llm.SystemPrompt, llm.HitpointPrompt(summary, state.UserInput))
	if err != nil {
		state.SetError(fmt.Sprintf("hitpoint analysis failed: %v", err))

		return nil
	}

	state.HitpointsLLMOutput = response

	return nil
}

// synthesizeSummary builds a compact posts digest when no selection summary
// exists, truncating each body to keep the prompt small.
func synthesizeSummary(posts []models.Post) string {
	if len(posts) == 0 {
		return NoSuitablePostsSummary
	}

	if len(posts) > maxHitpoints {
		posts = posts[:maxHitpoints]
	}

	var builder strings.Builder

	for i, post := range posts {
		fmt.Fprintf(&builder, "#### Post %d\nTitle: %s\nContent: %s\n\n",
			i+1, post.Title, truncateRunes(post.Content, 100))
	}

	return strings.TrimRight(builder.String(), "\n")
}

// ExtractHitpoints parses the numbered hitpoint tags into records. Missing
// tags are omitted, not padded.
type ExtractHitpoints struct{}

func NewExtractHitpoints() *ExtractHitpoints {
	return &ExtractHitpoints{}
}

func (s *ExtractHitpoints) ID() string {
	return StageExtractHitpoints
}

func (s *ExtractHitpoints) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	now := time.Now().UTC()
	hitpoints := make([]models.Hitpoint, 0, maxHitpoints)

	for i := 1; i <= maxHitpoints; i++ {
		value, ok := parser.ExtractTag(state.HitpointsLLMOutput, fmt.Sprintf("hitpoint%d", i))
		if !ok {
			continue
		}

		description := strings.TrimSpace(value)
		if description == "" {
			continue
		}

		hitpoints = append(hitpoints, models.Hitpoint{
			ID:          fmt.Sprintf("hitpoint-%d", i),
			Title:       hitpointTitle(description),
			Description: description,
			CreatedAt:   now,
		})
	}

	state.Hitpoints = hitpoints
	state.TotalHitpointsGenerated = len(hitpoints)

	return nil
}

// hitpointTitle derives a short title from the first line of a description.
func hitpointTitle(description string) string {
	line := description
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}

	return truncateRunes(strings.TrimSpace(line), 40)
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit]) + "..."
}
