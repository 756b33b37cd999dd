package telegram

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"factcheck/api/internal/nli"
	"factcheck/api/internal/verify"
)

// Telegram messages are capped at 4096 characters.
const maxMessageLen = 3900

var (
	mdConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	reBold = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

var statusTitle = map[nli.Status]string{
	nli.StatusVerified: "✅ VERIFIED",
	nli.StatusFakeNews: "🚫 FAKE NEWS",
	nli.StatusPartial:  "⚠️ PARTIAL",
}

// FormatReport renders a verdict as a chat message. The HTML explanation
// becomes markdown text.
func FormatReport(rep verify.Report) string {
	title, ok := statusTitle[rep.Verdict.Status]
	if !ok {
		title = string(rep.Verdict.Status)
	}
	body := ExplanationText(rep.Verdict.Explanation)

	out := title + "\n\n" + body
	if rs := []rune(out); len(rs) > maxMessageLen {
		out = string(rs[:maxMessageLen]) + "…"
	}
	return out
}

// ExplanationText converts the explanation HTML to markdown. Inline **bold**
// is turned into <strong> first so the converter does not escape it.
func ExplanationText(explanation string) string {
	html := reBold.ReplaceAllString(explanation, "<strong>$1</strong>")
	md, err := mdConverter.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(explanation)
	}
	return strings.TrimSpace(md)
}

func isURL(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
