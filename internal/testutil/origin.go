package testutil

import (
	"fmt"
	"sync"
)

// SequentialGenerator produces origin ids "<prefix>-1", "<prefix>-2", ...
//
// Subsets built in the same order with a fresh generator receive the same
// ids, which keeps traces and golden files stable across runs.
//
// Thread-safety: SequentialGenerator is safe for concurrent use.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialGenerator creates a generator. An empty prefix means "origin".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "origin"
	}
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next id. Implements subset.OriginGenerator.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequentialGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
