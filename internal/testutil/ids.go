package testutil

import (
	"fmt"
	"sync/atomic"
)

// SequenceIDGenerator generates predictable run IDs: prefix-1, prefix-2, ...
//
// This enables deterministic store tests and golden output; production code
// uses UUIDv7 run IDs instead.
//
// Thread-safety: Generate is safe for concurrent use.
type SequenceIDGenerator struct {
	prefix string
	n      atomic.Int64
}

// NewSequenceIDGenerator creates a generator.
//
// If prefix is empty, Generate() returns "test-run-1", "test-run-2", ...
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "test-run"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequenceIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}
