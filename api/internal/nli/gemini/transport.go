package gemini

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
)

var errSecondAttempt = errors.New("gemini: only one request per classification")

const maxErrorBody = 64 << 10

// singleShot lets one client reach the network once and remembers the
// status and body of a non-2xx answer.
type singleShot struct {
	base   http.RoundTripper
	apiKey string

	mu     sync.Mutex
	used   bool
	status int
	body   []byte
}

func (s *singleShot) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	if s.used {
		s.mu.Unlock()
		return nil, errSecondAttempt
	}
	s.used = true
	s.mu.Unlock()

	// WithHTTPClient bypasses the SDK's key handling
	req = req.Clone(req.Context())
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp, nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(b))

	s.mu.Lock()
	s.status, s.body = resp.StatusCode, b
	s.mu.Unlock()
	return resp, nil
}

func (s *singleShot) failure() (int, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.body
}
