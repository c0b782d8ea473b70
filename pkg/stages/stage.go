// Package stages implements the pipeline stage functions. Every stage follows
// the same contract: skip work when the run has already failed, record
// expected upstream failures through the state instead of returning an error,
// and only write the state fields it owns.
package stages

import (
	"context"

	"github.com/postpilot/postpilot/pkg/models"
)

// Stage IDs, used for graph wiring and activation routing.
const (
	StageKeywordGeneration      = "keyword_generation"
	StageExtractInitialKeywords = "extract_initial_keywords"
	StageTopicSearch1           = "topic_search_1"
	StageTopicSearch2           = "topic_search_2"
	StageFormatTopics1          = "format_topics_1"
	StageFormatTopics2          = "format_topics_2"
	StageCombineTopicResults    = "combine_topic_results"
	StageTopicRefinement        = "topic_refinement"
	StageExtractRefinedKeywords = "extract_refined_keywords"
	StagePostRetrieval1         = "post_retrieval_1"
	StagePostRetrieval2         = "post_retrieval_2"
	StageParsePosts1            = "parse_posts_1"
	StageParsePosts2            = "parse_posts_2"
	StageCombinePostResults     = "combine_post_results"
	StageContentFiltering       = "content_filtering"
	StageEndNoPosts             = "end_no_posts"
	StageHitpointAnalysis       = "hitpoint_analysis"
	StageExtractHitpoints       = "extract_hitpoints"
	StageUserSelection          = "user_selection"
	StageContentGeneration      = "content_generation"
)

// Stage is one unit of pipeline work. Run returns an error only for
// infrastructure faults; business failures are recorded on the state.
type Stage interface {
	ID() string
	Run(ctx context.Context, state *models.WorkflowState) error
}
