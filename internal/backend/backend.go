// Package backend defines the dispatch boundary between the translation
// engine and pluggable code generators.
//
// The engine hands a Backend the ordered item sequence with attached
// contracts, loop specs, and refinement specs, plus a manifest of
// excluded and failed items with reasons. Rendering syntax is the
// backend's business; the engine guarantees the input is monomorphic,
// marker-free, and ordered dependencies-first.
package backend

import (
	"context"
	"fmt"
	"sort"

	"github.com/veil-verify/veil/internal/ir"
	"github.com/veil-verify/veil/internal/order"
)

// Backend renders one translated compilation unit.
type Backend interface {
	// Name identifies the backend in configuration and manifests.
	Name() string
	// Emit consumes the full output of one run. Emit owns its output
	// resource for the duration of the call and must release it on
	// every path.
	Emit(ctx context.Context, out *Output) error
}

// Output is the complete engine→backend handoff for one unit.
type Output struct {
	// Run is the run correlation token.
	Run string
	// Unit names the compilation unit (input bundle).
	Unit string
	// Arena owns every item; Groups reference into it.
	Arena *ir.Arena
	// Groups in emission order, dependencies first.
	Groups []order.Group
	// Manifest lists what was emitted, what was skipped, and why.
	Manifest *Manifest
}

// registry of constructable backends, keyed by name. Backends register
// from init so the CLI can enumerate them.
var registry = map[string]func(opts map[string]any) (Backend, error){}

// Register makes a backend constructor available under name.
// Duplicate registration is a programming error.
func Register(name string, ctor func(opts map[string]any) (Backend, error)) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("backend: duplicate registration of %q", name))
	}
	registry[name] = ctor
}

// New constructs the named backend with its option bag. Options pass
// through from configuration verbatim; each backend validates its own.
func New(name string, opts map[string]any) (Backend, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("backend: unknown backend %q (have %v)", name, Names())
	}
	return ctor(opts)
}

// Names lists the registered backends, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
