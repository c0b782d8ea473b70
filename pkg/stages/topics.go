package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/postpilot/postpilot/pkg/llm"
	"github.com/postpilot/postpilot/pkg/models"
	"github.com/postpilot/postpilot/pkg/parser"
	"github.com/postpilot/postpilot/pkg/source"
)

// TopicSearch queries the content source for trending topics around one seed
// keyword. An empty or failed lookup falls back to model-synthesized topics,
// so a dead source never stalls the run. Each instance owns one numbered
// result field.
type TopicSearch struct {
	slot   int
	llm    llm.Client
	source source.ContentSource
	limit  int
	logger *slog.Logger
}

func NewTopicSearch(slot int, client llm.Client, src source.ContentSource, limit int, logger *slog.Logger) *TopicSearch {
	if limit <= 0 {
		limit = source.DefaultLimit
	}

	return &TopicSearch{slot: slot, llm: client, source: src, limit: limit, logger: logger}
}

func (s *TopicSearch) ID() string {
	if s.slot == 1 {
		return StageTopicSearch1
	}

	return StageTopicSearch2
}

func (s *TopicSearch) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	state.SetStatus(models.StatusTopicSearch)

	keyword := state.PrimaryKeyword
	if s.slot == 2 {
		keyword = state.SecondaryKeyword
	}

	var raw string

	if keyword != "" {
		result, err := s.source.SearchTopics(ctx, keyword, s.limit)
		if err != nil {
			s.logger.Warn("Topic search failed, falling back to synthesis",
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

		synthesized, err := s.llm.Complete(ctx, llm.SystemPrompt, llm.FallbackTopicsPrompt(subject))
		if err != nil {
			state.SetError(fmt.Sprintf("topic search %d failed: %v", s.slot, err))

			return nil
		}

		raw = synthesized
	}

	if s.slot == 1 {
		state.TopicSearchResult1 = raw
	} else {
		state.TopicSearchResult2 = raw
	}

	return nil
}

// FormatTopics normalizes one raw topic result into a markdown table. Already
// tabular text passes through verbatim; structured JSON is rendered by the
// parser; anything else becomes an explanatory placeholder.
type FormatTopics struct {
	slot int
}

func NewFormatTopics(slot int) *FormatTopics {
	return &FormatTopics{slot: slot}
}

func (s *FormatTopics) ID() string {
	if s.slot == 1 {
		return StageFormatTopics1
	}

	return StageFormatTopics2
}

func (s *FormatTopics) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	raw := state.TopicSearchResult1

	keyword := state.PrimaryKeyword
	if s.slot == 2 {
		raw = state.TopicSearchResult2
		keyword = state.SecondaryKeyword
	}

	var formatted string

	if parser.LooksLikeMarkdownTable(raw) {
		formatted = raw
	} else {
		table, err := parser.FormatTopicsTable(raw)
		if err != nil {
			formatted = fmt.Sprintf("No topic data available for %q.", keyword)
		} else {
			formatted = table
		}
	}

	if s.slot == 1 {
		state.FormattedTopics1 = formatted
	} else {
		state.FormattedTopics2 = formatted
	}

	return nil
}

// CombineTopicResults is the fan-in for the two topic branches. It runs only
// after both formatted blocks exist and labels each block by its keyword.
type CombineTopicResults struct{}

func NewCombineTopicResults() *CombineTopicResults {
	return &CombineTopicResults{}
}

func (s *CombineTopicResults) ID() string {
	return StageCombineTopicResults
}

func (s *CombineTopicResults) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	state.CombinedTopicResults = fmt.Sprintf("### Keyword: %s\n%s\n\n### Keyword: %s\n%s",
		state.PrimaryKeyword, state.FormattedTopics1,
		state.SecondaryKeyword, state.FormattedTopics2)

	return nil
}
