package ir

import "slices"

// RecomputeRefs rebuilds the recorded reference set of an item from its
// actual payload. Every phase that rewrites trees calls this afterwards
// so the "Refs matches reachable identifiers" invariant holds before the
// next phase reads it. The result is sorted and deduplicated.
func RecomputeRefs(it *Item) {
	seen := make(map[ItemID]bool)
	add := func(id ItemID) {
		if id != NoItem && id != it.ID {
			seen[id] = true
		}
	}

	for _, p := range it.Params {
		typeRefs(p.Type, add)
	}
	typeRefs(it.Result, add)
	typeRefs(it.Underlying, add)
	typeRefs(it.RecvType, add)
	for _, m := range it.Methods {
		for _, p := range m.Params {
			typeRefs(p.Type, add)
		}
		typeRefs(m.Result, add)
	}
	for _, id := range it.Provides {
		add(id)
	}
	for _, ta := range it.TypeArgs {
		typeRefs(ta, add)
	}

	exprRefs(it.Body, add)
	exprRefs(it.ConstValue, add)

	if c := it.Contract; c != nil {
		for _, p := range c.Preconditions {
			exprRefs(p, add)
		}
		for _, q := range c.Postconditions {
			exprRefs(q.Pred, add)
		}
		exprRefs(c.Decreases, add)
	}
	if r := it.Refinement; r != nil {
		typeRefs(r.Base, add)
		exprRefs(r.Pred, add)
	}

	refs := make([]ItemID, 0, len(seen))
	for id := range seen {
		refs = append(refs, id)
	}
	slices.Sort(refs)
	it.Refs = refs
}

// exprRefs collects item references reachable from an expression,
// including types embedded in nodes and specs attached to loops.
func exprRefs(e Expr, add func(ItemID)) {
	Walk(e, func(n Expr) bool {
		switch x := n.(type) {
		case *Var:
			add(x.Item)
			for _, t := range x.TypeArgs {
				typeRefs(t, add)
			}
		case *MethodCall:
			add(x.Target)
			typeRefs(x.RecvType, add)
			for _, t := range x.TypeArgs {
				typeRefs(t, add)
			}
		case *Lambda:
			for _, p := range x.Params {
				typeRefs(p.Type, add)
			}
		case *Construct:
			typeRefs(x.Type, add)
		case *Cast:
			typeRefs(x.From, add)
			typeRefs(x.To, add)
		case *Ascribe:
			typeRefs(x.To, add)
		case *Quant:
			for _, p := range x.Binders {
				typeRefs(p.Type, add)
			}
		case *Loop:
			if x.Spec != nil {
				for _, inv := range x.Spec.Invariants {
					exprRefs(inv, add)
				}
				exprRefs(x.Spec.Decreases, add)
			}
		case *Match:
			for _, arm := range x.Arms {
				patternRefs(arm.Pat, add)
			}
		}
		return true
	})
}

func patternRefs(p Pattern, add func(ItemID)) {
	switch pn := p.(type) {
	case *PatConstruct:
		typeRefs(pn.Type, add)
		for _, e := range pn.Elems {
			patternRefs(e, add)
		}
	case *PatRecord:
		for _, f := range pn.Fields {
			patternRefs(f.Pat, add)
		}
	case *PatArray:
		for _, e := range pn.Elems {
			patternRefs(e, add)
		}
	case *PatOr:
		for _, a := range pn.Alts {
			patternRefs(a, add)
		}
	case *PatGuarded:
		patternRefs(pn.Pat, add)
		exprRefs(pn.Cond, add)
	}
}

func typeRefs(t Type, add func(ItemID)) {
	switch tt := t.(type) {
	case *TTuple:
		for _, e := range tt.Elems {
			typeRefs(e, add)
		}
	case *TArray:
		typeRefs(tt.Elem, add)
	case *TSlice:
		typeRefs(tt.Elem, add)
	case *TRef:
		typeRefs(tt.Elem, add)
	case *TFunc:
		for _, p := range tt.Params {
			typeRefs(p, add)
		}
		typeRefs(tt.Result, add)
	case *TNamed:
		add(tt.Item)
		for _, a := range tt.Args {
			typeRefs(a, add)
		}
	}
}
