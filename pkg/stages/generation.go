package stages

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/postpilot/postpilot/pkg/llm"
	"github.com/postpilot/postpilot/pkg/models"
)

const generatedQualityScore = 8.5

// ContentGeneration produces the terminal artifact from the selected
// hitpoint. A missing selection or a failed model call substitutes a fixed
// failure artifact with score 0 instead of leaving the field empty.
type ContentGeneration struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewContentGeneration(client llm.Client, logger *slog.Logger) *ContentGeneration {
	return &ContentGeneration{llm: client, logger: logger}
}

func (s *ContentGeneration) ID() string {
	return StageContentGeneration
}

func (s *ContentGeneration) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	state.SetStatus(models.StatusContentGeneration)

	if state.SelectedHitpoint == nil {
		s.logger.Warn("No hitpoint selected, recording failure artifact")

		state.GeneratedContent = failedArtifact()

		return nil
	}

	hitpoint := *state.SelectedHitpoint

	response, err := s.llm.Complete(ctx, llm.SystemPrompt, llm.GenerationPrompt(state.UserInput, hitpoint))
	if err != nil {
		s.logger.Warn("Content generation call failed, recording failure artifact", "error", err)

		state.GeneratedContent = failedArtifact()

		return nil
	}

	title, body, hashtags := parseGeneration(response)

	if title == "" {
		title = hitpoint.Title
	}

	if body == "" {
		body = response
	}

	state.GeneratedContent = &models.GeneratedContent{
		Title:        title,
		Content:      body,
		Tags:         splitHashtags(hashtags),
		Hitpoints:    []string{hitpoint.ID},
		QualityScore: generatedQualityScore,
		CreatedAt:    time.Now().UTC(),
	}

	return nil
}

// parseGeneration scans the reply for the three expected line prefixes.
func parseGeneration(response string) (title, body, hashtags string) {
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "Title:"):
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Title:"))
		case strings.HasPrefix(trimmed, "Body:"):
			body = strings.TrimSpace(strings.TrimPrefix(trimmed, "Body:"))
		case strings.HasPrefix(trimmed, "Hashtags:"):
			hashtags = strings.TrimSpace(strings.TrimPrefix(trimmed, "Hashtags:"))
		}
	}

	return title, body, hashtags
}

func splitHashtags(raw string) []string {
	tags := make([]string, 0)

	for _, part := range strings.Split(raw, "#") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

func failedArtifact() *models.GeneratedContent {
	return &models.GeneratedContent{
		Title:        "Content generation failed",
		Content:      "The post could not be generated for this run.",
		Tags:         []string{},
		Hitpoints:    []string{},
		QualityScore: 0,
		CreatedAt:    time.Now().UTC(),
	}
}
