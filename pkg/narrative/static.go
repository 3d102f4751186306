package narrative

import (
	"context"
	"sync"
)

// Static is a scripted provider. Each kind has a queue of responses that
// is consumed in order; the last response of a queue repeats once the
// queue is drained. Kinds with no script return Fallback, or a sentinel
// when Fallback is empty.
type Static struct {
	Responses map[Kind][]string
	Fallback  string

	mu       sync.Mutex
	requests []Request
	served   map[Kind]int
}

// NewStatic returns a Static provider answering every kind with text.
func NewStatic(text string) *Static {
	return &Static{Fallback: text}
}

func (s *Static) Generate(_ context.Context, req Request) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	script := s.Responses[req.Kind]
	if len(script) == 0 {
		if s.Fallback == "" {
			return Sentinel("no scripted response for " + string(req.Kind))
		}
		return s.Fallback
	}
	if s.served == nil {
		s.served = make(map[Kind]int)
	}
	i := min(s.served[req.Kind], len(script)-1)
	s.served[req.Kind]++
	return script[i]
}

// Requests returns a copy of every request received so far.
func (s *Static) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CallCount returns how many requests of kind were received.
func (s *Static) CallCount(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Kind == kind {
			n++
		}
	}
	return n
}
