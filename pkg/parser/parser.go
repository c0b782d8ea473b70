// Package parser converts semi-structured LLM and content-source output into
// typed values. Parsers never panic on malformed input; they return a
// best-effort value or an explicit error the caller can branch on.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/postpilot/postpilot/pkg/models"
)

// DefaultSampleSize is how many posts filter-and-sample keeps when the caller
// does not specify a limit.
const DefaultSampleSize = 5

// ErrNoTopics indicates the source payload contained no parseable topic data.
var ErrNoTopics = errors.New("no topic data in source response")

// ExtractTags finds the first <tag>...</tag> occurrence for each tag name.
// Matching is case-sensitive, non-greedy, and spans newlines. A missing tag
// maps to a sentinel string rather than an error; callers must check
// IsMissing before trusting a value.
func ExtractTags(text string, tags ...string) map[string]string {
	out := make(map[string]string, len(tags))
	for _, tag := range tags {
		value, ok := ExtractTag(text, tag)
		if !ok {
			out[tag] = missingTagSentinel(tag)

			continue
		}

		out[tag] = value
	}

	return out
}

// ExtractTag extracts a single tag's content. The second return is false when
// the tag is absent, for callers where absence is a legitimate branch.
func ExtractTag(text, tag string) (string, bool) {
	re := regexp.MustCompile(`(?s)<` + regexp.QuoteMeta(tag) + `>(.*?)</` + regexp.QuoteMeta(tag) + `>`)

	match := re.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}

	return strings.TrimSpace(match[1]), true
}

// IsMissing reports whether a value returned by ExtractTags is the
// missing-tag sentinel.
func IsMissing(value string) bool {
	return strings.HasPrefix(value, "Error: Cannot find <")
}

func missingTagSentinel(tag string) string {
	return fmt.Sprintf("Error: Cannot find <%s> tag", tag)
}

// LooksLikeMarkdownTable reports whether text appears to be a pipe-delimited
// markdown table with a dash separator row.
func LooksLikeMarkdownTable(text string) bool {
	if !strings.Contains(text, "|") {
		return false
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "|") && strings.Contains(line, "---") {
			return true
		}
	}

	return false
}

// ParseMarkdownTable parses a pipe-delimited markdown table into post records,
// mapping columns positionally: title, content, author. Header and separator
// rows are skipped by detecting the dash-separator line; rows with fewer than
// four pipe-delimited cells are dropped.
func ParseMarkdownTable(text string) []models.PostRecord {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	start := 0
	for i, line := range lines {
		if strings.Contains(line, "|") && strings.Contains(line, "---") {
			start = i + 1

			break
		}
	}

	records := make([]models.PostRecord, 0, len(lines))

	for _, line := range lines[start:] {
		if !strings.Contains(line, "|") || strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		if len(parts) < 4 {
			continue
		}

		records = append(records, models.PostRecord{
			Title:   parts[1],
			Content: parts[2],
			Author:  parts[3],
		})
	}

	return records
}

type sourceItem struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Author   string   `json:"author"`
	Likes    int      `json:"likes"`
	Comments int      `json:"comments"`
	Shares   int      `json:"shares"`
	Views    int      `json:"views"`
	Tags     []string `json:"tags"`
}

// ParseSourceJSON parses a content-source JSON document into post records.
// Accepted shapes: `{"items":[...]}`, `{"data":[...]}`,
// `{"data":{"items":[...]}}`, or a bare top-level array. Anything else yields
// an empty list, never an error.
func ParseSourceJSON(text string) []models.PostRecord {
	var flat struct {
		Items []sourceItem `json:"items"`
	}

	if err := json.Unmarshal([]byte(text), &flat); err == nil && len(flat.Items) > 0 {
		return itemsToRecords(flat.Items)
	}

	var dataList struct {
		Data []sourceItem `json:"data"`
	}

	if err := json.Unmarshal([]byte(text), &dataList); err == nil && len(dataList.Data) > 0 {
		return itemsToRecords(dataList.Data)
	}

	var nested struct {
		Data struct {
			Items []sourceItem `json:"items"`
		} `json:"data"`
	}

	if err := json.Unmarshal([]byte(text), &nested); err == nil && len(nested.Data.Items) > 0 {
		return itemsToRecords(nested.Data.Items)
	}

	var bare []sourceItem
	if err := json.Unmarshal([]byte(text), &bare); err == nil {
		return itemsToRecords(bare)
	}

	return []models.PostRecord{}
}

func itemsToRecords(items []sourceItem) []models.PostRecord {
	records := make([]models.PostRecord, 0, len(items))
	for _, item := range items {
		records = append(records, models.PostRecord{
			Title:    item.Title,
			Content:  item.Content,
			Author:   item.Author,
			Likes:    item.Likes,
			Comments: item.Comments,
			Shares:   item.Shares,
			Views:    item.Views,
			Tags:     item.Tags,
		})
	}

	return records
}

type topicItem struct {
	Name    string `json:"name"`
	ViewNum string `json:"view_num"`
	Trend   string `json:"trend"`
}

// FormatTopicsTable renders a content-source topics JSON document as a
// markdown table. Accepted shapes: `{"topics":[...]}` or `{"data":[...]}`.
func FormatTopicsTable(text string) (string, error) {
	var withTopics struct {
		Topics []topicItem `json:"topics"`
		Data   []topicItem `json:"data"`
	}

	if err := json.Unmarshal([]byte(text), &withTopics); err != nil {
		return "", fmt.Errorf("parse topics response: %w", err)
	}

	topics := withTopics.Topics
	if len(topics) == 0 {
		topics = withTopics.Data
	}

	if len(topics) == 0 {
		return "", ErrNoTopics
	}

	var table strings.Builder

	table.WriteString("| Topic | Views | Trend |\n| :--- | ---: | :---: |\n")

	for _, topic := range topics {
		fmt.Fprintf(&table, "| %s | %s | %s |\n", topic.Name, groupDigits(topic.ViewNum), topic.Trend)
	}

	return table.String(), nil
}

// groupDigits formats a numeric string with comma grouping (10000 -> 10,000).
// Non-numeric input passes through untouched.
func groupDigits(raw string) string {
	clean := strings.ReplaceAll(raw, ",", "")

	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return raw
	}

	digits := strconv.FormatInt(n, 10)

	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}

	if neg {
		return "-" + grouped.String()
	}

	return grouped.String()
}

// FilterAndSample keeps the posts whose decision flag is "1" and that have a
// non-empty title and content, shuffles the survivors (Fisher-Yates), and
// returns the first maxN. Posts beyond len(decisions) are dropped. An empty
// result means "no good content", not an error.
func FilterAndSample(posts []models.Post, decisions []string, maxN int) []models.Post {
	if maxN <= 0 {
		maxN = DefaultSampleSize
	}

	survivors := make([]models.Post, 0, len(posts))

	for i, post := range posts {
		if i >= len(decisions) {
			break
		}

		if decisions[i] == "1" && post.Title != "" && post.Content != "" {
			survivors = append(survivors, post)
		}
	}

	rand.Shuffle(len(survivors), func(i, j int) {
		survivors[i], survivors[j] = survivors[j], survivors[i]
	})

	if len(survivors) > maxN {
		survivors = survivors[:maxN]
	}

	return survivors
}
