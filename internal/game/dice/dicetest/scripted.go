// Package dicetest provides deterministic dice.Source doubles for tests.
package dicetest

import (
	"fmt"
	"sync"
)

// ScriptedSource returns a fixed sequence of die faces. Each scripted value is
// the 1-based face a die of any size should show; Intn(n) returns value-1.
//
// Invariant: panics if the script is exhausted or a value is outside [1, n].
type ScriptedSource struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewScriptedSource returns a source that yields faces in order.
func NewScriptedSource(faces ...int) *ScriptedSource {
	return &ScriptedSource{values: faces}
}

// Intn returns the next scripted face minus one.
func (s *ScriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.values) {
		panic(fmt.Sprintf("dicetest: script exhausted after %d draws", len(s.values)))
	}
	v := s.values[s.next]
	s.next++
	if v < 1 || v > n {
		panic(fmt.Sprintf("dicetest: scripted face %d out of range for d%d", v, n))
	}
	return v - 1
}

// Remaining reports how many scripted faces have not been drawn.
func (s *ScriptedSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values) - s.next
}

// ConstSource always returns the same face, clamped to the die size.
type ConstSource int

// Intn returns min(face, n) - 1.
func (c ConstSource) Intn(n int) int {
	return min(int(c), n) - 1
}
