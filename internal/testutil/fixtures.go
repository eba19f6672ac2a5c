// Package testutil builds deterministic item-graph fixtures shared by
// phase tests. Fixtures are constructed in the imported shape: marker
// calls still in bodies, method calls unresolved, generics
// uninstantiated.
package testutil

import "github.com/veil-verify/veil/internal/ir"

// U32 is the fixture integer type.
func U32() ir.Type { return &ir.TInt{Width: 32} }

// Bool is the fixture boolean type.
func Bool() ir.Type { return &ir.TBool{} }

// Seq chains expressions with unit-named lets, last value wins.
func Seq(exprs ...ir.Expr) ir.Expr {
	if len(exprs) == 0 {
		return ir.Unit()
	}
	out := exprs[len(exprs)-1]
	for i := len(exprs) - 2; i >= 0; i-- {
		out = &ir.Let{Name: "_", Value: exprs[i], Body: out}
	}
	return out
}

// ResultClosure wraps a predicate in the single-binder closure ensures
// and refinement markers take.
func ResultClosure(binder string, pred ir.Expr) ir.Expr {
	return &ir.Lambda{Params: []ir.Param{{Name: binder}}, Body: pred}
}

// ContractedIncrement builds:
//
//	fn inc(x: u32) -> u32 { requires(x < 100); ensures(|r| r > x); x + 1 }
//
// The canonical contract-extraction fixture.
func ContractedIncrement() (*ir.Arena, *ir.Item) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "inc"})
	f.Params = []ir.Param{{Name: "x", Type: U32()}}
	f.Result = U32()
	f.Body = Seq(
		&ir.Marker{Kind: ir.MarkRequires, Args: []ir.Expr{
			ir.App2("<", &ir.Var{Name: "x"}, ir.IntLit(100)),
		}},
		&ir.Marker{Kind: ir.MarkEnsures, Args: []ir.Expr{
			ResultClosure("r", ir.App2("<", &ir.Var{Name: "x"}, &ir.Var{Name: "r"})),
		}},
		ir.App2("+", &ir.Var{Name: "x"}, ir.IntLit(1)),
	)
	ir.RecomputeRefs(f)
	return a, f
}

// MutualEvenOdd builds mutually recursive even/odd over u32:
//
//	fn even(n) { if n == 0 { true } else { odd(n - 1) } }
//	fn odd(n)  { if n == 0 { false } else { even(n - 1) } }
func MutualEvenOdd() (*ir.Arena, *ir.Item, *ir.Item) {
	a := ir.NewArena()
	even := a.New(ir.KindFunction, ir.NamePath{"demo", "even"})
	odd := a.New(ir.KindFunction, ir.NamePath{"demo", "odd"})
	for _, f := range []*ir.Item{even, odd} {
		f.Params = []ir.Param{{Name: "n", Type: U32()}}
		f.Result = Bool()
	}
	body := func(zeroCase bool, other *ir.Item) ir.Expr {
		return &ir.If{
			Cond: ir.App2("==", &ir.Var{Name: "n"}, ir.IntLit(0)),
			Then: ir.BoolLit(zeroCase),
			Else: &ir.App{
				Fn:   &ir.Var{Name: other.Path.Leaf(), Item: other.ID},
				Args: []ir.Expr{ir.App2("-", &ir.Var{Name: "n"}, ir.IntLit(1))},
			},
		}
	}
	even.Body = body(true, odd)
	odd.Body = body(false, even)
	ir.RecomputeRefs(even)
	ir.RecomputeRefs(odd)
	return a, even, odd
}

// GenericIdentity builds a generic id<T> plus a caller using it at u32
// and bool. Returns the arena, the template, and the caller.
func GenericIdentity() (*ir.Arena, *ir.Item, *ir.Item) {
	a := ir.NewArena()
	id := a.New(ir.KindFunction, ir.NamePath{"demo", "id"})
	id.Generics = []ir.GenericParam{{Name: "T"}}
	id.Params = []ir.Param{{Name: "v", Type: &ir.TVar{Name: "T"}}}
	id.Result = &ir.TVar{Name: "T"}
	id.Body = &ir.Var{Name: "v"}

	caller := a.New(ir.KindFunction, ir.NamePath{"demo", "use"})
	caller.Result = Bool()
	caller.Body = Seq(
		&ir.App{
			Fn:   &ir.Var{Name: "id", Item: id.ID, TypeArgs: []ir.Type{U32()}},
			Args: []ir.Expr{ir.IntLit(7)},
		},
		&ir.App{
			Fn:   &ir.Var{Name: "id", Item: id.ID, TypeArgs: []ir.Type{Bool()}},
			Args: []ir.Expr{ir.BoolLit(true)},
		},
	)
	ir.RecomputeRefs(id)
	ir.RecomputeRefs(caller)
	return a, id, caller
}

// ConflictingVisibility builds a function carrying both opaque and
// lemma markers.
func ConflictingVisibility() (*ir.Arena, *ir.Item) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "both"})
	f.Result = &ir.TUnit{}
	f.Body = Seq(
		&ir.Marker{Kind: ir.MarkOpaque},
		&ir.Marker{Kind: ir.MarkLemma},
		ir.Unit(),
	)
	ir.RecomputeRefs(f)
	return a, f
}

// ExcludedButReferenced builds g (excluded) and h (calls g). Returns
// the arena, g, and h.
func ExcludedButReferenced() (*ir.Arena, *ir.Item, *ir.Item) {
	a := ir.NewArena()
	g := a.New(ir.KindFunction, ir.NamePath{"demo", "g"})
	g.Result = U32()
	g.Body = Seq(
		&ir.Marker{Kind: ir.MarkExclude},
		ir.IntLit(1),
	)

	h := a.New(ir.KindFunction, ir.NamePath{"demo", "h"})
	h.Result = U32()
	h.Body = &ir.App{Fn: &ir.Var{Name: "g", Item: g.ID}, Args: nil}
	ir.RecomputeRefs(g)
	ir.RecomputeRefs(h)
	return a, g, h
}
