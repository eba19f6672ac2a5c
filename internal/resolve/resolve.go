// Package resolve binds trait-method call sites to concrete targets.
//
// For each MethodCall the resolver searches registered Impl items whose
// (trait, receiver pattern) unifies with the call's static receiver
// type. The most specific match wins: fewest free type variables in the
// impl's receiver pattern. A tie is AmbiguousResolution, a verification
// pipeline must never pick silently. Zero matches is UnresolvedTraitCall
// unless the receiver is still a type variable (the call threads a
// dictionary parameter and resolves at monomorphization time) or the
// enclosing item is opaque (resolution defers the same way).
package resolve

import (
	"errors"
	"fmt"

	"github.com/veil-verify/veil/internal/ir"
)

// Resolution error kinds.
const (
	KindAmbiguous  = "AmbiguousResolution"
	KindUnresolved = "UnresolvedTraitCall"
)

// ResolutionError is a per-item recoverable resolution failure. The item
// is marked failed; sibling items continue.
type ResolutionError struct {
	Kind   string
	Item   ir.ItemID
	Path   ir.NamePath
	Trait  ir.NamePath
	Method string
	Detail string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s.%s in %s: %s", e.Kind, e.Trait, e.Method, e.Path, e.Detail)
}

// IsAmbiguous reports whether err is an AmbiguousResolution failure.
func IsAmbiguous(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re) && re.Kind == KindAmbiguous
}

// implEntry is one registered impl for a trait.
type implEntry struct {
	impl     *ir.Item
	recv     ir.Type
	provides map[string]ir.ItemID
	// specificity is the free type variable count of recv. Lower is
	// more specific.
	specificity int
}

// Registry indexes Impl items by trait path. Built once per unit and
// reused by the monomorphizer for deferred (dictionary) calls.
type Registry struct {
	byTrait map[string][]implEntry
}

// NewRegistry indexes every Impl item in the arena. Registration order
// follows arena order, so candidate enumeration is deterministic.
func NewRegistry(arena *ir.Arena) *Registry {
	reg := &Registry{byTrait: make(map[string][]implEntry)}
	for _, it := range arena.Items() {
		if it.Kind != ir.KindImpl || len(it.TraitRef) == 0 {
			continue
		}
		key := it.TraitRef.String()
		reg.byTrait[key] = append(reg.byTrait[key], implEntry{
			impl:        it,
			recv:        it.RecvType,
			provides:    it.Provides,
			specificity: len(ir.FreeTypeVars(it.RecvType)),
		})
	}
	return reg
}

// ResolveCall resolves one MethodCall for the item at path/id. A nil
// error with target == NoItem and dict != "" means the call was deferred
// to dictionary threading; a nil error with both zero means the call was
// deferred because the enclosing item is opaque.
func (r *Registry) ResolveCall(call *ir.MethodCall, id ir.ItemID, path ir.NamePath, opaque bool) (ir.ItemID, string, error) {
	// A type-variable receiver cannot pick an impl yet: thread the
	// dictionary through the enclosing generic parameter.
	if tv, ok := call.RecvType.(*ir.TVar); ok {
		return ir.NoItem, tv.Name, nil
	}

	candidates := r.byTrait[call.Trait.String()]
	best := -1
	bestSpec := int(^uint(0) >> 1)
	tied := false
	for i, c := range candidates {
		if _, ok := Unify(c.recv, call.RecvType); !ok {
			continue
		}
		switch {
		case c.specificity < bestSpec:
			best, bestSpec, tied = i, c.specificity, false
		case c.specificity == bestSpec:
			tied = true
		}
	}

	if best < 0 {
		if opaque {
			return ir.NoItem, "", nil
		}
		return ir.NoItem, "", &ResolutionError{
			Kind:   KindUnresolved,
			Item:   id,
			Path:   path,
			Trait:  call.Trait,
			Method: call.Method,
			Detail: fmt.Sprintf("no impl matches receiver type %s", ir.TypeKey(call.RecvType)),
		}
	}
	if tied {
		return ir.NoItem, "", &ResolutionError{
			Kind:   KindAmbiguous,
			Item:   id,
			Path:   path,
			Trait:  call.Trait,
			Method: call.Method,
			Detail: fmt.Sprintf("multiple impls are equally specific for receiver type %s", ir.TypeKey(call.RecvType)),
		}
	}

	target, ok := candidates[best].provides[call.Method]
	if !ok {
		return ir.NoItem, "", &ResolutionError{
			Kind:   KindUnresolved,
			Item:   id,
			Path:   path,
			Trait:  call.Trait,
			Method: call.Method,
			Detail: fmt.Sprintf("impl %s does not provide method %q", candidates[best].impl.Path, call.Method),
		}
	}
	return target, "", nil
}

// Run resolves every method call in every non-failed function item.
// Pure transformation: call nodes are annotated in place, nothing else
// changes. Failures are per item; the first failure in an item stops
// work on that item only.
func Run(arena *ir.Arena, failed map[ir.ItemID]bool) []*ResolutionError {
	reg := NewRegistry(arena)
	var errs []*ResolutionError

	for _, it := range arena.Items() {
		if failed[it.ID] || it.Body == nil {
			continue
		}
		opaque := hasVisibilityMarker(it.Body, ir.MarkOpaque)
		var itemErr *ResolutionError
		ir.Rewrite(it.Body, func(e ir.Expr) ir.Expr {
			call, ok := e.(*ir.MethodCall)
			if !ok || call.Target != ir.NoItem || call.Dict != "" || itemErr != nil {
				return e
			}
			target, dict, err := reg.ResolveCall(call, it.ID, it.Path, opaque)
			if err != nil {
				var re *ResolutionError
				errors.As(err, &re)
				itemErr = re
				return e
			}
			call.Target = target
			call.Dict = dict
			return e
		})
		if itemErr != nil {
			errs = append(errs, itemErr)
			failed[it.ID] = true
			continue
		}
		ir.RecomputeRefs(it)
	}
	return errs
}

// hasVisibilityMarker reports whether a body contains a given zero-arg
// visibility marker. Resolution runs before extraction, so it has to
// recognize the marker structurally.
func hasVisibilityMarker(body ir.Expr, kind ir.MarkerKind) bool {
	found := false
	ir.Walk(body, func(e ir.Expr) bool {
		if m, ok := e.(*ir.Marker); ok && m.Kind == kind {
			found = true
		}
		return !found
	})
	return found
}
