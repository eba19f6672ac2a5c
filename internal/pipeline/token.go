package pipeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// RunTokenGenerator produces run correlation tokens. Implemented by
// UUIDv7Generator (production) and FixedGenerator (tests and golden
// comparisons).
type RunTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens. Stateless
// and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string. Panics if UUID
// generation fails, which requires the system entropy source to break.
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined run tokens in order, for
// deterministic tests. Safe for concurrent use.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator over a known token sequence.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token. Panics once the
// sequence is exhausted; a test consuming more runs than it planned for
// should fail loudly.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.tokens) {
		panic(fmt.Sprintf("pipeline: fixed token generator exhausted after %d tokens", len(g.tokens)))
	}
	tok := g.tokens[g.idx]
	g.idx++
	return tok
}
