package testutil

import (
	"fmt"
	"sync"
)

// ScriptedSource returns predetermined draws for sample.Source consumers.
//
// Each IntN call consumes the next scripted value. It panics when a value is
// out of range for the requested n or when the script is exhausted, which
// catches tests whose expected draw sequence has drifted.
type ScriptedSource struct {
	mu     sync.Mutex
	values []int
	idx    int
}

// NewScriptedSource creates a source that yields values in order.
func NewScriptedSource(values ...int) *ScriptedSource {
	return &ScriptedSource{values: values}
}

// IntN returns the next scripted value.
func (s *ScriptedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.values) {
		panic(fmt.Sprintf("ScriptedSource: script exhausted after %d draws", s.idx))
	}
	v := s.values[s.idx]
	if v < 0 || v >= n {
		panic(fmt.Sprintf("ScriptedSource: draw %d = %d out of range [0, %d)", s.idx, v, n))
	}
	s.idx++
	return v
}

// Consumed returns how many draws have been taken.
func (s *ScriptedSource) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

// ZeroSource always draws 0.
type ZeroSource struct{}

// IntN returns 0.
func (ZeroSource) IntN(int) int { return 0 }
