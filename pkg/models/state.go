package models

import (
	"sync"
	"time"
)

// WorkflowStatus represents the lifecycle state of a pipeline run.
type WorkflowStatus string

const (
	StatusInitialized       WorkflowStatus = "initialized"
	StatusKeywordGeneration WorkflowStatus = "keyword_generation"
	StatusTopicSearch       WorkflowStatus = "topic_search"
	StatusTopicRefinement   WorkflowStatus = "topic_refinement"
	StatusPostRetrieval     WorkflowStatus = "post_retrieval"
	StatusContentFiltering  WorkflowStatus = "content_filtering"
	StatusHitpointAnalysis  WorkflowStatus = "hitpoint_analysis"
	StatusUserSelection     WorkflowStatus = "user_selection"
	StatusContentGeneration WorkflowStatus = "content_generation"
	StatusCompleted         WorkflowStatus = "completed"
	StatusEndNoPosts        WorkflowStatus = "end_no_posts"
	StatusError             WorkflowStatus = "error"
)

// PostRecord is a post as parsed from raw source output, before it is scored
// and promoted to a Post by the combine stage.
type PostRecord struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Author   string   `json:"author"`
	Likes    int      `json:"likes"`
	Comments int      `json:"comments"`
	Shares   int      `json:"shares"`
	Views    int      `json:"views"`
	Tags     []string `json:"tags"`
}

// WorkflowState is the single record threaded through every stage of a run.
// Parallel branches own disjoint numbered fields (TopicSearchResult1/2,
// ParsedPosts1/2, FormattedTopics1/2); only the corresponding join stage reads
// both. Bookkeeping mutations go through SetStatus/SetError, which are safe to
// call from concurrent branches.
type WorkflowState struct {
	mu sync.Mutex

	UserInput    string         `json:"user_input"`
	CurrentState WorkflowStatus `json:"current_state"`

	// Raw LLM responses, kept separate from parsed results so re-parsing is
	// replayable without re-invoking the model.
	LLMOutput           string `json:"llm_output,omitempty"`
	RefinementLLMOutput string `json:"refinement_llm_output,omitempty"`
	HitpointsLLMOutput  string `json:"hitpoints_llm_output,omitempty"`

	PrimaryKeyword   string   `json:"primary_keyword,omitempty"`
	SecondaryKeyword string   `json:"secondary_keyword,omitempty"`
	RefinedKeywords  []string `json:"refined_keywords,omitempty"`

	TopicSearchResult1   string `json:"topic_search_result_1,omitempty"`
	TopicSearchResult2   string `json:"topic_search_result_2,omitempty"`
	FormattedTopics1     string `json:"formatted_topics_1,omitempty"`
	FormattedTopics2     string `json:"formatted_topics_2,omitempty"`
	CombinedTopicResults string `json:"combined_topic_results,omitempty"`

	PostRetrievalResult1 string       `json:"post_retrieval_result_1,omitempty"`
	PostRetrievalResult2 string       `json:"post_retrieval_result_2,omitempty"`
	ParsedPosts1         []PostRecord `json:"parsed_posts_1,omitempty"`
	ParsedPosts2         []PostRecord `json:"parsed_posts_2,omitempty"`

	RetrievedPosts []Post `json:"retrieved_posts,omitempty"`
	FilteredPosts  []Post `json:"filtered_posts,omitempty"`

	FilterDecisions      []string   `json:"filter_decisions,omitempty"`
	SelectedPosts        []Post     `json:"selected_posts,omitempty"`
	SelectedSlots        []PostSlot `json:"selected_slots,omitempty"`
	SelectedPostsSummary string     `json:"selected_posts_summary,omitempty"`

	Hitpoints        []Hitpoint        `json:"hitpoints,omitempty"`
	SelectedHitpoint *Hitpoint         `json:"selected_hitpoint,omitempty"`
	GeneratedContent *GeneratedContent `json:"generated_content,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`

	TotalPostsProcessed     int `json:"total_posts_processed"`
	TotalHitpointsGenerated int `json:"total_hitpoints_generated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWorkflowState creates the initial state for a run. UserInput is immutable
// once set.
func NewWorkflowState(userInput string) *WorkflowState {
	now := time.Now().UTC()

	return &WorkflowState{
		UserInput:    userInput,
		CurrentState: StatusInitialized,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetStatus moves the run to a new lifecycle state. Errored runs stay in the
// error state.
func (s *WorkflowState) SetStatus(status WorkflowStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorMessage != "" {
		return
	}

	s.CurrentState = status
	s.UpdatedAt = time.Now().UTC()
}

// SetError records a terminal error. The first error wins; later calls are
// ignored so the original failure is preserved.
func (s *WorkflowState) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorMessage != "" {
		return
	}

	s.ErrorMessage = message
	s.CurrentState = StatusError
	s.UpdatedAt = time.Now().UTC()
}

// Failed reports whether an error has been recorded. Stages short-circuit on
// a failed state and must not mutate business fields afterwards.
func (s *WorkflowState) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ErrorMessage != ""
}

// Status returns the current lifecycle state.
func (s *WorkflowState) Status() WorkflowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.CurrentState
}

// Snapshot produces a lossless dictionary projection of the state for
// logging, checkpointing, or cross-process handoff. Enum fields serialize to
// their string values.
func (s *WorkflowState) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := map[string]any{
		"user_input":                s.UserInput,
		"current_state":             string(s.CurrentState),
		"llm_output":                s.LLMOutput,
		"refinement_llm_output":     s.RefinementLLMOutput,
		"hitpoints_llm_output":      s.HitpointsLLMOutput,
		"primary_keyword":           s.PrimaryKeyword,
		"secondary_keyword":         s.SecondaryKeyword,
		"refined_keywords":          append([]string(nil), s.RefinedKeywords...),
		"combined_topic_results":    s.CombinedTopicResults,
		"retrieved_posts":           postDicts(s.RetrievedPosts),
		"filtered_posts":            postDicts(s.FilteredPosts),
		"selected_posts":            postDicts(s.SelectedPosts),
		"selected_posts_summary":    s.SelectedPostsSummary,
		"hitpoints":                 hitpointDicts(s.Hitpoints),
		"error_message":             s.ErrorMessage,
		"total_posts_processed":     s.TotalPostsProcessed,
		"total_hitpoints_generated": s.TotalHitpointsGenerated,
		"created_at":                s.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":                s.UpdatedAt.Format(time.RFC3339Nano),
	}

	if s.SelectedHitpoint != nil {
		snap["selected_hitpoint"] = hitpointDict(*s.SelectedHitpoint)
	}

	if s.GeneratedContent != nil {
		snap["generated_content"] = map[string]any{
			"title":         s.GeneratedContent.Title,
			"content":       s.GeneratedContent.Content,
			"tags":          append([]string(nil), s.GeneratedContent.Tags...),
			"hitpoints":     append([]string(nil), s.GeneratedContent.Hitpoints...),
			"quality_score": s.GeneratedContent.QualityScore,
		}
	}

	return snap
}

func postDicts(posts []Post) []map[string]any {
	out := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		out = append(out, map[string]any{
			"id":              p.ID,
			"title":           p.Title,
			"content":         p.Content,
			"author":          p.Author,
			"likes":           p.Likes,
			"comments":        p.Comments,
			"shares":          p.Shares,
			"views":           p.Views,
			"engagement_rate": p.EngagementRate(),
			"quality_score":   p.QualityScore,
			"quality_level":   string(p.QualityLevel),
			"tags":            append([]string(nil), p.Tags...),
		})
	}

	return out
}

func hitpointDicts(hitpoints []Hitpoint) []map[string]any {
	out := make([]map[string]any, 0, len(hitpoints))
	for _, hp := range hitpoints {
		out = append(out, hitpointDict(hp))
	}

	return out
}

func hitpointDict(hp Hitpoint) map[string]any {
	return map[string]any{
		"id":          hp.ID,
		"title":       hp.Title,
		"description": hp.Description,
	}
}
