package nli

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrMalformed marks a 2xx classifier body that carries no usable
// labels/scores pair. Callers treat it as an indeterminate classification.
var ErrMalformed = errors.New("malformed classification response")

// Shape tells which of the two payload layouts the endpoint answered with.
type Shape int

const (
	Unwrapped Shape = iota // {"labels": [...], "scores": [...]}
	Wrapped                // [{"labels": [...], "scores": [...]}]
)

func (s Shape) String() string {
	if s == Wrapped {
		return "wrapped"
	}
	return "unwrapped"
}

// Response is the decoded classifier body with its shape resolved.
type Response struct {
	Shape   Shape
	Payload Classification
}

// DecodeResponse resolves the wrapped/unwrapped union into a single payload.
func DecodeResponse(body []byte) (Response, error) {
	b := bytes.TrimSpace(body)
	if len(b) == 0 {
		return Response{}, errors.Wrap(ErrMalformed, "empty body")
	}
	switch b[0] {
	case '[':
		var arr []Classification
		if err := json.Unmarshal(b, &arr); err != nil {
			return Response{}, errors.Wrapf(ErrMalformed, "wrapped payload: %v", err)
		}
		if len(arr) == 0 {
			return Response{Shape: Wrapped}, errors.Wrap(ErrMalformed, "empty wrapper")
		}
		return Response{Shape: Wrapped, Payload: arr[0]}, nil
	case '{':
		var c Classification
		if err := json.Unmarshal(b, &c); err != nil {
			return Response{}, errors.Wrapf(ErrMalformed, "payload: %v", err)
		}
		return Response{Shape: Unwrapped, Payload: c}, nil
	default:
		return Response{}, errors.Wrap(ErrMalformed, "unexpected body")
	}
}

// Best picks the highest score by linear scan; the first maximum wins ties.
func (c Classification) Best() (*Prediction, error) {
	if len(c.Labels) == 0 || len(c.Scores) == 0 {
		return nil, errors.Wrap(ErrMalformed, "missing labels or scores")
	}
	if len(c.Labels) != len(c.Scores) {
		return nil, errors.Wrapf(ErrMalformed, "%d labels vs %d scores", len(c.Labels), len(c.Scores))
	}
	idx := 0
	for i := 1; i < len(c.Scores); i++ {
		if c.Scores[i] > c.Scores[idx] {
			idx = i
		}
	}
	return &Prediction{Label: NormalizeLabel(c.Labels[idx]), Score: c.Scores[idx]}, nil
}

// PredictionFromBody decodes a 2xx body and returns its argmax.
func PredictionFromBody(body []byte) (*Prediction, error) {
	r, err := DecodeResponse(body)
	if err != nil {
		return nil, err
	}
	return r.Payload.Best()
}
