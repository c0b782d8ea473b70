package workflow

import "github.com/postpilot/postpilot/pkg/models"

// NoPostsMessage explains the no-posts short-circuit to the caller.
const NoPostsMessage = "no posts could be retrieved for the generated keywords"

// Statistics summarizes the work a run performed.
type Statistics struct {
	PostsProcessed     int `json:"posts_processed"`
	HitpointsGenerated int `json:"hitpoints_generated"`
}

// FinalResult is what the pipeline entry point returns to the caller.
type FinalResult struct {
	RunID            string                   `json:"run_id"`
	Success          bool                     `json:"success"`
	CurrentState     string                   `json:"current_state"`
	ErrorMessage     string                   `json:"error_message,omitempty"`
	GeneratedContent *models.GeneratedContent `json:"generated_content,omitempty"`
	Hitpoints        []models.Hitpoint        `json:"hitpoints"`
	Statistics       Statistics               `json:"statistics"`
}

func resultFromState(runID string, state *models.WorkflowState) FinalResult {
	status := state.Status()

	result := FinalResult{
		RunID:            runID,
		CurrentState:     string(status),
		GeneratedContent: state.GeneratedContent,
		Hitpoints:        state.Hitpoints,
		Statistics: Statistics{
			PostsProcessed:     state.TotalPostsProcessed,
			HitpointsGenerated: state.TotalHitpointsGenerated,
		},
	}

	switch status {
	case models.StatusCompleted:
		result.Success = true
	case models.StatusEndNoPosts:
		result.ErrorMessage = NoPostsMessage
	default:
		result.ErrorMessage = state.ErrorMessage
	}

	return result
}
