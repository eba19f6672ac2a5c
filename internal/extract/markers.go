package extract

import (
	"fmt"

	"github.com/veil-verify/veil/internal/ir"
)

// extractor carries the state of one item's extraction traversal.
type extractor struct {
	item       *ir.Item
	contract   ir.Contract
	refinement *ir.RefinementSpec
	visibility ir.Visibility
	loops      []*ir.Loop
	err        *SpecError
}

func (x *extractor) fail(kind string, span ir.Span, format string, args ...any) {
	if x.err == nil {
		x.err = &SpecError{
			Kind:   kind,
			Item:   x.item.ID,
			Path:   x.item.Path,
			Detail: fmt.Sprintf(format, args...),
			Span:   span,
		}
	}
}

// walk visits one node in source order and returns its replacement.
// A nil return means the node was a lifted marker and must be deleted;
// parents splice accordingly. The traversal is pre-order left-to-right,
// which is exactly the "source order" clause lists preserve.
func (x *extractor) walk(e ir.Expr) ir.Expr {
	if e == nil || x.err != nil {
		return e
	}
	switch n := e.(type) {
	case *ir.Marker:
		return x.marker(n)

	case *ir.Let:
		n.Value = x.walk(n.Value)
		if n.Value == nil {
			// The bound value was a lifted marker; the binding
			// disappears with it.
			return x.walk(n.Body)
		}
		n.Body = x.walk(n.Body)
		if n.Body == nil {
			n.Body = ir.Unit()
		}
		return n

	case *ir.Loop:
		if n.Spec == nil {
			n.Spec = &ir.LoopSpec{}
		}
		x.loops = append(x.loops, n)
		n.Body = x.walk(n.Body)
		x.loops = x.loops[:len(x.loops)-1]
		if n.Body == nil {
			n.Body = ir.Unit()
		}
		if n.Spec.IsEmpty() {
			n.Spec = nil
		}
		return n

	case *ir.App:
		n.Fn = x.must(n.Fn)
		x.walkList(n.Args)
		return n
	case *ir.MethodCall:
		n.Recv = x.must(n.Recv)
		x.walkList(n.Args)
		return n
	case *ir.Lambda:
		n.Body = x.must(n.Body)
		return n
	case *ir.If:
		n.Cond = x.must(n.Cond)
		n.Then = x.walkBranch(n.Then)
		n.Else = x.walkBranch(n.Else)
		return n
	case *ir.Construct:
		for i := range n.Fields {
			n.Fields[i].Value = x.must(n.Fields[i].Value)
		}
		return n
	case *ir.FieldAccess:
		n.Recv = x.must(n.Recv)
		return n
	case *ir.Index:
		n.Recv = x.must(n.Recv)
		n.Index = x.must(n.Index)
		return n
	case *ir.Cast:
		n.Value = x.must(n.Value)
		return n
	case *ir.Ascribe:
		n.Value = x.must(n.Value)
		return n
	case *ir.Return:
		if n.Value != nil {
			n.Value = x.must(n.Value)
		}
		return n
	case *ir.Obligation:
		n.Pred = x.must(n.Pred)
		return n
	case *ir.Quant:
		n.Body = x.must(n.Body)
		return n
	case *ir.Implies:
		n.Lhs = x.must(n.Lhs)
		n.Rhs = x.must(n.Rhs)
		return n
	case *ir.Match:
		// Extraction runs after desugaring; a surviving Match means a
		// phase ordering bug, but its children still get walked so the
		// invariant "no markers remain" holds for the whole tree.
		n.Scrutinee = x.must(n.Scrutinee)
		for i := range n.Arms {
			n.Arms[i].Body = x.walkBranch(n.Arms[i].Body)
		}
		return n
	default:
		// Leaves: Lit, Var, Break, Continue, Unsupported.
		return e
	}
}

// must walks a position where a marker cannot be deleted into nothing
// (argument positions, conditions). A marker that would vanish there is
// malformed.
func (x *extractor) must(e ir.Expr) ir.Expr {
	out := x.walk(e)
	if out == nil && x.err == nil {
		x.fail(KindMalformedMarker, ir.Span{}, "specification marker in value position")
		return e
	}
	if out == nil {
		return e
	}
	return out
}

// walkBranch walks a branch body where a deleted marker leaves unit.
func (x *extractor) walkBranch(e ir.Expr) ir.Expr {
	out := x.walk(e)
	if out == nil {
		return ir.Unit()
	}
	return out
}

func (x *extractor) walkList(es []ir.Expr) {
	for i := range es {
		es[i] = x.must(es[i])
	}
}

// marker lifts one marker node. Returns nil when the marker is removed
// from the executable body, or the replacement Obligation node for the
// position-sensitive kinds.
func (x *extractor) marker(m *ir.Marker) ir.Expr {
	switch m.Kind {
	case ir.MarkRequires:
		pred, ok := x.singleArg(m)
		if !ok {
			return nil
		}
		x.contract.Preconditions = append(x.contract.Preconditions, pred)
		return nil

	case ir.MarkEnsures:
		lam, ok := x.resultClosure(m)
		if !ok {
			return nil
		}
		x.contract.Postconditions = append(x.contract.Postconditions, ir.Postcondition{
			Result: lam.Params[0].Name,
			Pred:   lam.Body,
		})
		return nil

	case ir.MarkDecreases:
		measure, ok := x.singleArg(m)
		if !ok {
			return nil
		}
		if x.contract.Decreases != nil {
			x.fail(KindMalformedMarker, m.Span, "duplicate decreases marker")
			return nil
		}
		x.contract.Decreases = measure
		return nil

	case ir.MarkInvariant:
		pred, ok := x.singleArg(m)
		if !ok {
			return nil
		}
		loop := x.enclosingLoop(m)
		if loop == nil {
			return nil
		}
		loop.Spec.Invariants = append(loop.Spec.Invariants, pred)
		return nil

	case ir.MarkLoopDecreases:
		measure, ok := x.singleArg(m)
		if !ok {
			return nil
		}
		loop := x.enclosingLoop(m)
		if loop == nil {
			return nil
		}
		if loop.Spec.Decreases != nil {
			x.fail(KindMalformedMarker, m.Span, "duplicate loop decreases marker")
			return nil
		}
		loop.Spec.Decreases = measure
		return nil

	case ir.MarkRefinement:
		lam, ok := x.resultClosure(m)
		if !ok {
			return nil
		}
		if x.item.Kind != ir.KindType {
			x.fail(KindMalformedMarker, m.Span, "refinement invariant on %s item", x.item.Kind)
			return nil
		}
		if x.refinement != nil {
			// Multiple refinement markers conjoin over one binder.
			x.refinement.Pred = ir.App2("&&", x.refinement.Pred,
				renameVar(lam.Body, lam.Params[0].Name, x.refinement.Binder))
			return nil
		}
		x.refinement = &ir.RefinementSpec{Binder: lam.Params[0].Name, Pred: lam.Body}
		return nil

	case ir.MarkAssert, ir.MarkAssume, ir.MarkAssertProp:
		pred, ok := x.singleArg(m)
		if !ok {
			return nil
		}
		kind := map[ir.MarkerKind]ir.ObligationKind{
			ir.MarkAssert:     ir.ObAssert,
			ir.MarkAssume:     ir.ObAssume,
			ir.MarkAssertProp: ir.ObAssertProp,
		}[m.Kind]
		return &ir.Obligation{Kind: kind, Pred: pred}

	case ir.MarkOpaque:
		x.setVisibility(ir.VisOpaque, m.Span)
		return nil
	case ir.MarkLemma:
		x.setVisibility(ir.VisLemma, m.Span)
		return nil
	case ir.MarkExclude:
		x.setVisibility(ir.VisExcluded, m.Span)
		return nil
	case ir.MarkInclude:
		x.setVisibility(ir.VisIncluded, m.Span)
		return nil

	default:
		x.fail(KindMalformedMarker, m.Span, "unrecognized marker kind %q", m.Kind)
		return nil
	}
}

// setVisibility records a visibility marker. Opaque and Lemma together
// are the one contradictory pair; any other repetition keeps the last
// marker, which stays deterministic because traversal is source order.
func (x *extractor) setVisibility(v ir.Visibility, span ir.Span) {
	prev := x.visibility
	if (prev == ir.VisOpaque && v == ir.VisLemma) || (prev == ir.VisLemma && v == ir.VisOpaque) {
		x.fail(KindConflictingVisibility, span, "item marked both opaque and lemma")
		return
	}
	x.visibility = v
}

// singleArg extracts the predicate of a one-argument marker, walking it
// first so nested assert markers inside predicates get converted too.
func (x *extractor) singleArg(m *ir.Marker) (ir.Expr, bool) {
	if len(m.Args) != 1 {
		x.fail(KindMalformedMarker, m.Span, "%s marker takes exactly one argument, got %d", m.Kind, len(m.Args))
		return nil, false
	}
	return x.must(m.Args[0]), x.err == nil
}

// resultClosure extracts the single-binder closure of an ensures or
// refinement marker. The binder is the named result (or refined value);
// binder names are unique per closure by construction, one binder each.
func (x *extractor) resultClosure(m *ir.Marker) (*ir.Lambda, bool) {
	pred, ok := x.singleArg(m)
	if !ok {
		return nil, false
	}
	lam, isLam := pred.(*ir.Lambda)
	if !isLam || len(lam.Params) != 1 {
		x.fail(KindMalformedMarker, m.Span, "%s marker requires a single-binder closure", m.Kind)
		return nil, false
	}
	if lam.Params[0].Name == "" {
		x.fail(KindMalformedMarker, m.Span, "%s marker binder must be named", m.Kind)
		return nil, false
	}
	return lam, true
}

// enclosingLoop finds the loop a loop-level marker attaches to.
func (x *extractor) enclosingLoop(m *ir.Marker) *ir.Loop {
	if len(x.loops) == 0 {
		x.fail(KindMalformedMarker, m.Span, "%s marker outside any loop", m.Kind)
		return nil
	}
	return x.loops[len(x.loops)-1]
}

// renameVar rewrites free occurrences of old to new in a predicate.
// Shadowing needs no handling here: refinement binders are the only
// names renamed and frontends do not shadow them inside their own
// predicate.
func renameVar(e ir.Expr, old, new string) ir.Expr {
	return ir.Rewrite(e, func(n ir.Expr) ir.Expr {
		if v, ok := n.(*ir.Var); ok && v.Item == ir.NoItem && v.Name == old {
			return &ir.Var{Name: new}
		}
		return n
	})
}
