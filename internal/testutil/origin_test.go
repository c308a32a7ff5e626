package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialGenerator_Sequence(t *testing.T) {
	gen := NewSequentialGenerator("subset")

	assert.Equal(t, "subset-1", gen.Generate())
	assert.Equal(t, "subset-2", gen.Generate())

	gen.Reset()
	assert.Equal(t, "subset-1", gen.Generate())
}

func TestSequentialGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "origin-1", NewSequentialGenerator("").Generate())
}

func TestSequentialGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialGenerator("p")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
}
