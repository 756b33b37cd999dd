package verify

import "factcheck/api/internal/search"

const (
	ClaimMarker  = "CLAIM TO VERIFY:"
	linkTemplate = "The information at the link is: "
)

// Claim is one user submission. A link is never fetched; its text is
// checked as given.
type Claim struct {
	Text   string `json:"input"`
	IsLink bool   `json:"isLink"`
}

// Hypothesis is the sentence the classifier tests against the context.
func (c Claim) Hypothesis() string {
	if c.IsLink {
		return linkTemplate + c.Text
	}
	return c.Text
}

// Compose joins the premise and the hypothesis into the single text the
// classifier receives: context first, claim second.
func Compose(c Claim, sc search.Context) string {
	return sc.Text + " " + ClaimMarker + " " + c.Hypothesis()
}
