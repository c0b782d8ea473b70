// Package source provides the Content Source adapter: keyword in, raw
// topic/post data out. An empty result or an error signals "use fallback
// synthesis"; the pipeline never fails a run on a dead content source.
package source

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the content source could not be reached at all.
var ErrUnavailable = errors.New("content source unavailable")

// DefaultLimit is the number of results requested when the caller passes a
// non-positive limit.
const DefaultLimit = 10

// ContentSource is the external platform collaborator supplying raw topic and
// post data. Implementations return raw text (markdown table or JSON
// document); the parse strategy is decided downstream.
type ContentSource interface {
	// SearchTopics returns raw trending-topic data for a keyword. An empty
	// string means no data.
	SearchTopics(ctx context.Context, keyword string, limit int) (string, error)

	// RetrievePosts returns raw post data for a keyword. An empty string
	// means no data.
	RetrievePosts(ctx context.Context, keyword string, limit int) (string, error)

	// Shutdown releases any held resources (browser contexts, connections).
	Shutdown(ctx context.Context) error
}
