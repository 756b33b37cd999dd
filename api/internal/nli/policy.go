package nli

import (
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"

	"factcheck/api/internal/search"
	"factcheck/api/internal/util"
)

const (
	// HighConfidence is exclusive: a score of exactly 0.8 is not enough.
	HighConfidence = 0.8
	ExcerptMaxLen  = 200
)

// excerpts are embedded in HTML; only text survives
var excerptPolicy = bluemonday.StrictPolicy()

// ToVerdict maps a prediction (nil when indeterminate) and the context that
// produced it onto a verdict. It never fails.
func ToVerdict(p *Prediction, sc search.Context) Verdict {
	v := Verdict{
		Status:      StatusPartial,
		Explanation: "Uncertain information that needs further checking.",
	}

	if p != nil {
		switch {
		case p.Label == Contradiction && p.Score > HighConfidence:
			v.Status = StatusFakeNews
			v.Explanation = fmt.Sprintf("The model detects a **strong contradiction** (Score: %.2f) with the facts found by the search.", p.Score)
		case p.Label == Entailment && p.Score > HighConfidence:
			v.Status = StatusVerified
			v.Explanation = fmt.Sprintf("The model confirms the consistency (Score: %.2f) of this information with the facts found by the search.", p.Score)
		default:
			v.Explanation = fmt.Sprintf("The model is neutral or the confidence score (%.2f) is too low.", p.Score)
		}
	}

	if ex := Excerpt(sc); ex != "" {
		v.Explanation += fmt.Sprintf(`<br><br>Factual context used (search snippets): <i class="text-xs italic">"%s"</i>`, ex)
	}
	return v
}

// Excerpt renders the context for display: markers removed, markup stripped,
// at most ExcerptMaxLen characters, HTML-escaped. Fallback contexts carry no
// evidence and yield "".
func Excerpt(sc search.Context) string {
	if sc.IsFallback() {
		return ""
	}
	plain := html.UnescapeString(excerptPolicy.Sanitize(sc.Snippets()))
	return html.EscapeString(util.Truncate(plain, ExcerptMaxLen))
}
