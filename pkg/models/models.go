// Package models defines the core domain models for the content-ideation pipeline.
package models

import "time"

// PostQuality is the quality level assigned to a post by the filtering stage.
type PostQuality string

const (
	QualityExcellent PostQuality = "excellent"
	QualityGood      PostQuality = "good"
	QualityAverage   PostQuality = "average"
	QualityPoor      PostQuality = "poor"
)

// Keyword is a search keyword derived from the user goal. Created by the
// keyword-generation stage and never mutated afterwards.
type Keyword struct {
	Text           string    `json:"text"            validate:"required"`
	RelevanceScore float64   `json:"relevance_score"`
	SearchVolume   *int      `json:"search_volume,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Post is a single post pulled from the content source (or synthesized by the
// fallback policy). Quality fields are populated by the filtering stage and
// the post is read-only afterwards.
type Post struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Author       string      `json:"author"`
	Likes        int         `json:"likes"    validate:"gte=0"`
	Comments     int         `json:"comments" validate:"gte=0"`
	Shares       int         `json:"shares"   validate:"gte=0"`
	Views        int         `json:"views"    validate:"gte=0"`
	QualityScore float64     `json:"quality_score" validate:"gte=0,lte=10"`
	QualityLevel PostQuality `json:"quality_level"`
	Tags         []string    `json:"tags"`
	CreatedAt    time.Time   `json:"created_at"`
}

// EngagementRate is (likes+comments+shares)/views, 0 when there are no views.
func (p Post) EngagementRate() float64 {
	if p.Views == 0 {
		return 0
	}

	return float64(p.Likes+p.Comments+p.Shares) / float64(p.Views)
}

// QualityForScore maps a 0-10 quality score to its level.
func QualityForScore(score float64) PostQuality {
	switch {
	case score >= 8:
		return QualityExcellent
	case score >= 6:
		return QualityGood
	case score >= 3:
		return QualityAverage
	default:
		return QualityPoor
	}
}

// Hitpoint is a candidate emotional or narrative angle extracted from source
// posts, used to drive final content generation.
type Hitpoint struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Posts       []Post         `json:"posts,omitempty"`
	Analysis    map[string]any `json:"analysis,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// GeneratedContent is the terminal artifact of a pipeline run. Immutable once
// created.
type GeneratedContent struct {
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	Hitpoints    []string  `json:"hitpoints"`
	QualityScore float64   `json:"quality_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// PostSlot is one of the five named selection slots filled by the filtering
// stage. Unfilled slots hold the "none" placeholder.
type PostSlot struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// EmptyPostSlot returns the placeholder for an unfilled selection slot.
func EmptyPostSlot() PostSlot {
	return PostSlot{Title: "none", Content: "none"}
}
