package engine

import (
	"sync/atomic"
)

// Snapshot holds the process-wide current compiled index. Readers load the
// pointer once per decision and keep using that index even if a reload swaps
// the pointer mid-flight; no reader ever observes a partially-built index.
type Snapshot struct {
	ptr atomic.Pointer[CompiledIndex]
}

// NewSnapshot creates a snapshot holder seeded with an initial index
func NewSnapshot(idx *CompiledIndex) *Snapshot {
	s := &Snapshot{}
	s.ptr.Store(idx)
	return s
}

// Load returns the currently active index
func (s *Snapshot) Load() *CompiledIndex {
	return s.ptr.Load()
}

// Swap atomically publishes a fully-built replacement index
func (s *Snapshot) Swap(idx *CompiledIndex) {
	s.ptr.Store(idx)
}
