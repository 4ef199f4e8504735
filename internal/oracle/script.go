package oracle

import (
	"context"
	"fmt"
	"sync"
)

// Scripted is a deterministic oracle that replays canned responses in
// order. It is used by tests and by the offline batch runner when no
// model endpoint is configured.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	next      int
	calls     int

	// Err, when set, is returned by every call instead of a response.
	Err error
}

// NewScripted creates a scripted oracle. With no responses every call
// returns an error, which a Resilient wrapper turns into fallback text.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

// Generate returns the next scripted response. The last response
// repeats once the script is exhausted.
func (s *Scripted) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.responses) == 0 {
		return "", fmt.Errorf("scripted oracle has no responses")
	}
	resp := s.responses[s.next]
	if s.next < len(s.responses)-1 {
		s.next++
	}
	return resp, nil
}

// Calls returns how many times Generate has been invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
