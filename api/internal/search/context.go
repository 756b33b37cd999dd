package search

import "strings"

const (
	ContextMarker = "FACTUAL CONTEXT:"
	SnippetMarker = "[Snippet]"
)

// FallbackReason names why no live search result was used. The zero value
// means the context is real.
type FallbackReason string

const (
	ReasonNone               FallbackReason = ""
	ReasonMissingCredentials FallbackReason = "missing_credentials"
	ReasonUpstreamStatus     FallbackReason = "upstream_status"
	ReasonNetwork            FallbackReason = "network"
	ReasonNoResults          FallbackReason = "no_results"
)

var fallbackText = map[FallbackReason]string{
	ReasonMissingCredentials: "Search credentials are not configured on the server. Please treat this information with caution.",
	ReasonUpstreamStatus:     "An error occurred while searching for context (search API).",
	ReasonNetwork:            "A network error prevented the retrieval of factual context.",
	ReasonNoResults:          "The search engine found no recent or relevant information on this topic. Please treat this information with caution.",
}

// Context is the premise handed to the classifier. Text is never empty and
// always starts with ContextMarker.
type Context struct {
	Text    string
	Reason  FallbackReason
	Results int
}

func (c Context) IsFallback() bool { return c.Reason != ReasonNone }

func Real(snippets string, results int) Context {
	return Context{Text: ContextMarker + " " + snippets, Results: results}
}

func Fallback(reason FallbackReason) Context {
	msg, ok := fallbackText[reason]
	if !ok {
		msg = fallbackText[ReasonUpstreamStatus]
	}
	return Context{Text: ContextMarker + " " + msg, Reason: reason}
}

// Snippets returns the text without ContextMarker and with every
// SnippetMarker rendered as a dash bullet.
func (c Context) Snippets() string {
	s := strings.TrimSpace(strings.TrimPrefix(c.Text, ContextMarker))
	return strings.TrimSpace(strings.ReplaceAll(s, SnippetMarker, " -"))
}
