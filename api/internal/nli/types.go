package nli

import (
	"fmt"
	"strings"
)

type Label string

const (
	Contradiction Label = "CONTRADICTION"
	Entailment    Label = "ENTAILMENT"
	Neutral       Label = "NEUTRAL"
)

// CandidateLabels is the zero-shot label set sent with every request.
var CandidateLabels = []Label{Contradiction, Entailment, Neutral}

func CandidateLabelStrings() []string {
	out := make([]string, len(CandidateLabels))
	for i, l := range CandidateLabels {
		out[i] = string(l)
	}
	return out
}

// NormalizeLabel maps model spellings ("entailment", "LABEL_ENTAILMENT ") onto
// the canonical labels. Unknown labels are returned upper-cased.
func NormalizeLabel(s string) Label {
	u := strings.ToUpper(strings.TrimSpace(s))
	for _, l := range CandidateLabels {
		if strings.Contains(u, string(l)) {
			return l
		}
	}
	return Label(u)
}

// Classification is the raw zero-shot output: labels and scores pair up by index.
type Classification struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

type Prediction struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

type Status string

const (
	StatusVerified Status = "VERIFIED"
	StatusFakeNews Status = "FAKE_NEWS"
	StatusPartial  Status = "PARTIAL"
)

type Verdict struct {
	Status      Status `json:"status"`
	Explanation string `json:"explanation"`
}

// UpstreamError is any failed classifier call. StatusCode is 0 when no HTTP
// response was received.
type UpstreamError struct {
	Engine     string
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s classifier: %s", e.Engine, e.Details())
}

// Details is the text surfaced to API callers; it always names the status.
func (e *UpstreamError) Details() string {
	if e.StatusCode == 0 {
		return "transport: " + e.Detail
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Detail)
}
