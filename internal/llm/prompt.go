package llm

import (
	"strings"
	"time"
)

const (
	datePlaceholder   = "{{date}}"
	searchPlaceholder = "{{search_context}}"
	dateLayout        = "Monday, January 2, 2006"
)

// DefaultSystemPrompt is the Nova persona. {{date}} and {{search_context}}
// are filled in per request by BuildSystemPrompt.
const DefaultSystemPrompt = `You are Nova, a friendly and helpful AI assistant with real-time web search capabilities.

IMPORTANT: Today's date is {{date}}. You have access to current information through web search.
{{search_context}}

Your personality traits:
- Warm, approachable, and conversational
- Concise but thorough in explanations
- Uses occasional emojis to add warmth (but not excessively)
- Admits when you don't know something
- Asks clarifying questions when needed
- Remembers context from the conversation
- ALWAYS provide current and up-to-date information when available

When you have search results, use them to provide accurate, current information. Cite sources when relevant.

Keep responses helpful and engaging. Format responses with markdown when appropriate for code, lists, or emphasis.`

// SearchContext renders a search result as an extra block of system context.
func SearchContext(r *SearchResult) string {
	if r == nil {
		return ""
	}
	return "\n\n[REAL-TIME SEARCH RESULTS - Use this information to answer the user's question accurately]\n" +
		r.Content + "\n\nSources: " + strings.Join(r.Citations, ", ")
}

// BuildSystemPrompt fills the placeholders of template. A template without a
// search placeholder gets the search context appended.
func BuildSystemPrompt(template string, now time.Time, search *SearchResult) string {
	if template == "" {
		template = DefaultSystemPrompt
	}
	searchCtx := SearchContext(search)
	if searchCtx != "" && !strings.Contains(template, searchPlaceholder) {
		template += searchCtx
		searchCtx = ""
	}
	return strings.NewReplacer(
		datePlaceholder, now.Format(dateLayout),
		searchPlaceholder, searchCtx,
	).Replace(template)
}
