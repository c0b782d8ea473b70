package stages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/postpilot/postpilot/pkg/models"
)

// SelectionStrategy picks the hitpoint that drives content generation. The
// list passed to Select is never empty.
type SelectionStrategy interface {
	Select(ctx context.Context, hitpoints []models.Hitpoint) (models.Hitpoint, error)
}

// FirstOption deterministically picks the first hitpoint. It is the default
// strategy; an interactive caller can plug in its own.
type FirstOption struct{}

func (FirstOption) Select(ctx context.Context, hitpoints []models.Hitpoint) (models.Hitpoint, error) {
	return hitpoints[0], nil
}

// UserSelection promotes one hitpoint to selected_hitpoint via the configured
// strategy. An empty hitpoint list is padded with placeholders so the rest of
// the pipeline stays demonstrable.
type UserSelection struct {
	strategy SelectionStrategy
	logger   *slog.Logger
}

func NewUserSelection(strategy SelectionStrategy, logger *slog.Logger) *UserSelection {
	if strategy == nil {
		strategy = FirstOption{}
	}

	return &UserSelection{strategy: strategy, logger: logger}
}

func (s *UserSelection) ID() string {
	return StageUserSelection
}

func (s *UserSelection) Run(ctx context.Context, state *models.WorkflowState) error {
	if state.Failed() {
		return nil
	}

	state.SetStatus(models.StatusUserSelection)

	if len(state.Hitpoints) == 0 {
		s.logger.Warn("No hitpoints extracted, padding with placeholders")

		state.Hitpoints = placeholderHitpoints()
		state.TotalHitpointsGenerated = len(state.Hitpoints)
	}

	selected, err := s.strategy.Select(ctx, state.Hitpoints)
	if err != nil {
		state.SetError(fmt.Sprintf("hitpoint selection failed: %v", err))

		return nil
	}

	state.SelectedHitpoint = &selected

	return nil
}

func placeholderHitpoints() []models.Hitpoint {
	now := time.Now().UTC()

	return []models.Hitpoint{
		{
			ID:          "hitpoint-placeholder-1",
			Title:       "Relatable everyday struggle",
			Description: "Content that shows the messy, unpolished reality behind the topic tends to earn trust and comments.",
			CreatedAt:   now,
		},
		{
			ID:          "hitpoint-placeholder-2",
			Title:       "Small win, big feeling",
			Description: "Celebrating a modest, concrete achievement invites the audience to share their own progress.",
			CreatedAt:   now,
		},
	}
}
