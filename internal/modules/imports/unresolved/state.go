package unresolved

import "sync"

// SinkState tracks whether the store sink may still be written. It starts
// enabled and can be disabled once; it lives for the whole process.
type SinkState struct {
	mu       sync.RWMutex
	disabled bool
	reason   string
}

func NewSinkState() *SinkState { return &SinkState{} }

func (s *SinkState) StoreEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.disabled
}

// Disable switches the store sink off. It reports true only for the call
// that performed the transition.
func (s *SinkState) Disable(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return false
	}
	s.disabled = true
	s.reason = reason
	return true
}

func (s *SinkState) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Reset re-enables the store sink. Tests only.
func (s *SinkState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = false
	s.reason = ""
}
