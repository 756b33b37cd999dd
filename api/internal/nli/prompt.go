package nli

import (
	"strings"

	"factcheck/api/internal/util"
)

// DefaultSystemPrompt instructs a chat model to behave like a zero-shot NLI
// classifier. It can be overridden with <PROMPT_DIR>/nli.system.txt.
const DefaultSystemPrompt = `You are a natural language inference classifier.
The user message contains a premise (the text after "FACTUAL CONTEXT:") followed by a hypothesis (the text after "CLAIM TO VERIFY:").
Decide whether the premise ENTAILS the hypothesis, CONTRADICTS it, or is NEUTRAL towards it.
Score every label between 0 and 1 so that the scores sum to 1.
Return ONLY a JSON object of the form:
{"labels": ["ENTAILMENT", "CONTRADICTION", "NEUTRAL"], "scores": [0.0, 0.0, 0.0]}
Labels and scores pair up by index. Do not add any other text.`

// SystemPrompt resolves the prompt for LLM-backed engines.
func SystemPrompt(dir string) string {
	return util.LoadSystemPrompt(dir, "nli", DefaultSystemPrompt)
}

// PredictionFromText parses a chat model reply, tolerating code fences.
func PredictionFromText(s string) (*Prediction, error) {
	return PredictionFromBody([]byte(util.StripCodeFences(strings.TrimSpace(s))))
}
