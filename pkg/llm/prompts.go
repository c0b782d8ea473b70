package llm

import (
	"fmt"

	"github.com/postpilot/postpilot/pkg/models"
)

// SystemPrompt is the default persona for pipeline calls.
const SystemPrompt = "You are a social media growth strategist who helps creators find winning content angles."

// FilterSystemPrompt is the persona for the per-post keep/drop classifier.
const FilterSystemPrompt = "You are a content reviewer. Decide whether a social media post is low quality " +
	"(advertising, traffic bait, empty filler). Reply <result>0</result> for low quality posts and " +
	"<result>1</result> otherwise. Reply with nothing else."

// KeywordPrompt asks for two seed keywords wrapped in topic tags.
func KeywordPrompt(userInput string) string {
	return fmt.Sprintf(
		"A creator wants to grow a social media account around this goal: %q.\n"+
			"Propose the two best search keywords for researching this niche.\n"+
			"Reply with exactly: <topic1>first keyword</topic1><topic2>second keyword</topic2>",
		userInput)
}

// RefinementPrompt asks for refined search keywords given the combined topic
// research.
func RefinementPrompt(userInput, searchResults string) string {
	return fmt.Sprintf(
		"A creator's goal: %q.\n\nTrending topic research:\n%s\n\n"+
			"Based on this research, propose two refined search keywords that will surface "+
			"high-engagement posts. Reply with exactly: "+
			"<topic1>first keyword</topic1><topic2>second keyword</topic2>",
		userInput, searchResults)
}

// FilterPrompt renders a single post for the keep/drop decision.
func FilterPrompt(post models.Post) string {
	return fmt.Sprintf("Post title: %s\nPost body: %s", post.Title, post.Content)
}

// HitpointPrompt asks for up to five narrative angles in hitpoint tags.
func HitpointPrompt(postsSummary, userInput string) string {
	return fmt.Sprintf(
		"A creator's goal: %q.\n\nSelected high-quality posts:\n%s\n\n"+
			"Extract up to five emotional angles (hitpoints) that explain why these posts resonate. "+
			"Wrap each one as <hitpointN>description</hitpointN> with N from 1 to 5.",
		userInput, postsSummary)
}

// GenerationPrompt asks for a finished post driven by the selected hitpoint.
func GenerationPrompt(userInput string, hitpoint models.Hitpoint) string {
	return fmt.Sprintf(
		"A creator's goal: %q.\nChosen angle: %s\n\n"+
			"Write a finished social media post. Reply using exactly three lines:\n"+
			"Title: <the title>\nBody: <the post body>\nHashtags: #tag1 #tag2 #tag3",
		userInput, hitpoint.Description)
}

// FallbackTopicsPrompt asks the model to synthesize a hot-topics table when
// the content source is unavailable.
func FallbackTopicsPrompt(keyword string) string {
	return fmt.Sprintf(
		"List the five hottest social media topics currently related to %q. "+
			"Reply as a markdown table with columns Topic, Views, Trend, including the dash separator row.",
		keyword)
}

// FallbackPostsPrompt asks the model to synthesize a posts table when the
// content source is unavailable.
func FallbackPostsPrompt(keyword string) string {
	return fmt.Sprintf(
		"Write five plausible popular social media posts about %q. "+
			"Reply as a markdown table with columns Title, Content, Author, including the dash separator row.",
		keyword)
}
