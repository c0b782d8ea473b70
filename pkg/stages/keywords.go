package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/postpilot/postpilot/pkg/llm"
	"github.com/postpilot/postpilot/pkg/models"
	"github.com/postpilot/postpilot/pkg/parser"
)

// KeywordGeneration asks the model for two seed keywords and stores the raw
// reply. Parsing happens in a separate stage so the call stays replayable.
type KeywordGeneration struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewKeywordGeneration(client llm.Client, logger *slog.Logger) *KeywordGeneration {
	return &KeywordGeneration{llm: client, logger: logger}
}

func (s *KeywordGeneration) ID() string {
	return StageKeywordGeneration
}

func (s *KeywordGeneration) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	state.SetStatus(models.StatusKeywordGeneration)

	response, err := s.llm.Complete(ctx, llm.SystemPrompt, llm.KeywordPrompt(state.UserInput))
	if err != nil {
		state.SetError(fmt.Sprintf("keyword generation failed: %v", err))

		return nil
	}

	state.LLMOutput = response

	return nil
}

// ExtractInitialKeywords parses the two seed keywords out of the stored
// keyword-generation reply. A missing tag yields an empty keyword, which
// routes the matching topic-search branch straight to fallback synthesis.
type ExtractInitialKeywords struct{}

func NewExtractInitialKeywords() *ExtractInitialKeywords {
	return &ExtractInitialKeywords{}
}

func (s *ExtractInitialKeywords) ID() string {
	return StageExtractInitialKeywords
}

func (s *ExtractInitialKeywords) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	tags := parser.ExtractTags(state.LLMOutput, "topic1", "topic2")

	state.PrimaryKeyword = cleanKeyword(tags["topic1"])
	state.SecondaryKeyword = cleanKeyword(tags["topic2"])

	return nil
}

// TopicRefinement feeds the combined topic research back to the model and
// stores the raw refined-keyword reply.
type TopicRefinement struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewTopicRefinement(client llm.Client, logger *slog.Logger) *TopicRefinement {
	return &TopicRefinement{llm: client, logger: logger}
}

func (s *TopicRefinement) ID() string {
	return StageTopicRefinement
}

func (s *TopicRefinement) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	state.SetStatus(models.StatusTopicRefinement)

	response, err := s.llm.Complete(ctx, llm.SystemPrompt,
		llm.RefinementPrompt(state.UserInput, state.CombinedTopicResults))
	if err != nil {
		state.SetError(fmt.Sprintf("topic refinement failed: %v", err))

		return nil
	}

	state.RefinementLLMOutput = response

	return nil
}

// ExtractRefinedKeywords collects the refined keywords for post retrieval.
// Missing tags are skipped; retrieval falls back to the seed keywords.
type ExtractRefinedKeywords struct{}

func NewExtractRefinedKeywords() *ExtractRefinedKeywords {
	return &ExtractRefinedKeywords{}
}

func (s *ExtractRefinedKeywords) ID() string {
	return StageExtractRefinedKeywords
}

func (s *ExtractRefinedKeywords) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	tags := parser.ExtractTags(state.RefinementLLMOutput, "topic1", "topic2")

	refined := make([]string, 0, 2)

	for _, tag := range []string{"topic1", "topic2"} {
		if keyword := cleanKeyword(tags[tag]); keyword != "" {
			refined = append(refined, keyword)
		}
	}

	state.RefinedKeywords = refined

	return nil
}

// cleanKeyword trims a tag value and maps the missing-tag sentinel to empty
// so it never leaks into search queries.
func cleanKeyword(value string) string {
	if parser.IsMissing(value) {
		return ""
	}

	return strings.TrimSpace(value)
}
