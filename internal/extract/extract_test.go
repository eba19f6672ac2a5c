package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-verify/veil/internal/ir"
	"github.com/veil-verify/veil/internal/testutil"
)

func TestRun_ContractExtraction(t *testing.T) {
	a, f := testutil.ContractedIncrement()

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)

	require.NotNil(t, f.Contract)
	require.Len(t, f.Contract.Preconditions, 1)
	assert.Equal(t, "(app < x 100)", ir.ExprKey(f.Contract.Preconditions[0]))

	require.Len(t, f.Contract.Postconditions, 1)
	assert.Equal(t, "r", f.Contract.Postconditions[0].Result)
	assert.Equal(t, "(app < x r)", ir.ExprKey(f.Contract.Postconditions[0].Pred))

	// Markers are gone from the executable body.
	assert.Equal(t, "(app + x 1)", ir.ExprKey(f.Body))
}

// Same-kind clauses conjoin in source order.
func TestRun_PreconditionOrder(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "f"})
	f.Result = testutil.U32()
	f.Body = testutil.Seq(
		&ir.Marker{Kind: ir.MarkRequires, Args: []ir.Expr{&ir.Var{Name: "p1"}}},
		&ir.Marker{Kind: ir.MarkRequires, Args: []ir.Expr{&ir.Var{Name: "p2"}}},
		&ir.Marker{Kind: ir.MarkRequires, Args: []ir.Expr{&ir.Var{Name: "p3"}}},
		ir.IntLit(0),
	)

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)
	require.NotNil(t, f.Contract)
	require.Len(t, f.Contract.Preconditions, 3)
	assert.Equal(t, "p1", ir.ExprKey(f.Contract.Preconditions[0]))
	assert.Equal(t, "p2", ir.ExprKey(f.Contract.Preconditions[1]))
	assert.Equal(t, "p3", ir.ExprKey(f.Contract.Preconditions[2]))
}

// assert/assume stay in the tree as position-sensitive obligations.
func TestRun_AssertStaysInBody(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "f"})
	f.Result = testutil.U32()
	f.Body = testutil.Seq(
		&ir.Marker{Kind: ir.MarkAssert, Args: []ir.Expr{
			ir.App2(">", &ir.Var{Name: "x"}, ir.IntLit(0)),
		}},
		&ir.Var{Name: "x"},
	)

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)

	let, ok := f.Body.(*ir.Let)
	require.True(t, ok)
	ob, ok := let.Value.(*ir.Obligation)
	require.True(t, ok)
	assert.Equal(t, ir.ObAssert, ob.Kind)
	assert.Equal(t, "(app > x 0)", ir.ExprKey(ob.Pred))
}

func TestRun_LoopSpecAttachesToEnclosingLoop(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "f"})
	f.Result = &ir.TUnit{}
	f.Body = &ir.Loop{
		Body: testutil.Seq(
			&ir.Marker{Kind: ir.MarkInvariant, Args: []ir.Expr{
				ir.App2("<=", &ir.Var{Name: "i"}, ir.IntLit(10)),
			}},
			&ir.Marker{Kind: ir.MarkLoopDecreases, Args: []ir.Expr{
				ir.App2("-", ir.IntLit(10), &ir.Var{Name: "i"}),
			}},
			&ir.Break{},
		),
	}

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)

	loop, ok := f.Body.(*ir.Loop)
	require.True(t, ok)
	require.NotNil(t, loop.Spec)
	require.Len(t, loop.Spec.Invariants, 1)
	assert.Equal(t, "(app <= i 10)", ir.ExprKey(loop.Spec.Invariants[0]))
	assert.Equal(t, "(app - 10 i)", ir.ExprKey(loop.Spec.Decreases))
}

func TestRun_InvariantOutsideLoopIsMalformed(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "f"})
	f.Result = &ir.TUnit{}
	f.Body = testutil.Seq(
		&ir.Marker{Kind: ir.MarkInvariant, Args: []ir.Expr{ir.BoolLit(true)}},
		ir.Unit(),
	)

	failed := map[ir.ItemID]bool{}
	errs := Run(a, failed)
	require.Len(t, errs, 1)
	assert.Equal(t, KindMalformedMarker, errs[0].Kind)
	assert.True(t, failed[f.ID])
}

func TestRun_DuplicateDecreasesIsMalformed(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "f"})
	f.Result = testutil.U32()
	f.Body = testutil.Seq(
		&ir.Marker{Kind: ir.MarkDecreases, Args: []ir.Expr{&ir.Var{Name: "n"}}},
		&ir.Marker{Kind: ir.MarkDecreases, Args: []ir.Expr{&ir.Var{Name: "n"}}},
		ir.IntLit(0),
	)

	errs := Run(a, map[ir.ItemID]bool{})
	require.Len(t, errs, 1)
	assert.Equal(t, KindMalformedMarker, errs[0].Kind)
	assert.Contains(t, errs[0].Detail, "duplicate decreases")
}

func TestRun_MarkerInValuePositionIsMalformed(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "f"})
	f.Result = testutil.U32()
	f.Body = &ir.App{
		Fn:   &ir.Var{Name: "+"},
		Args: []ir.Expr{&ir.Marker{Kind: ir.MarkRequires, Args: []ir.Expr{ir.BoolLit(true)}}, ir.IntLit(1)},
	}

	errs := Run(a, map[ir.ItemID]bool{})
	require.Len(t, errs, 1)
	assert.Equal(t, KindMalformedMarker, errs[0].Kind)
}

func TestRun_EnsuresRequiresClosure(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "f"})
	f.Result = testutil.U32()
	f.Body = testutil.Seq(
		&ir.Marker{Kind: ir.MarkEnsures, Args: []ir.Expr{ir.BoolLit(true)}},
		ir.IntLit(0),
	)

	errs := Run(a, map[ir.ItemID]bool{})
	require.Len(t, errs, 1)
	assert.Equal(t, KindMalformedMarker, errs[0].Kind)
	assert.Contains(t, errs[0].Detail, "single-binder closure")
}

func TestRun_VisibilityMarkers(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "hidden"})
	f.Result = testutil.U32()
	f.Body = testutil.Seq(&ir.Marker{Kind: ir.MarkOpaque}, ir.IntLit(0))

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)
	assert.Equal(t, ir.VisOpaque, f.Visibility)
}

func TestRun_ConflictingVisibility(t *testing.T) {
	a, f := testutil.ConflictingVisibility()

	failed := map[ir.ItemID]bool{}
	errs := Run(a, failed)
	require.Len(t, errs, 1)
	assert.Equal(t, KindConflictingVisibility, errs[0].Kind)
	assert.Equal(t, f.ID, errs[0].Item)
	assert.True(t, failed[f.ID])
}

// The error attaches to the referencer and names the excluded item.
func TestRun_ExcludedItemStillReferenced(t *testing.T) {
	a, g, h := testutil.ExcludedButReferenced()

	failed := map[ir.ItemID]bool{}
	errs := Run(a, failed)
	require.Len(t, errs, 1)
	assert.Equal(t, KindExcludedReferenced, errs[0].Kind)
	assert.Equal(t, h.ID, errs[0].Item)
	assert.Equal(t, g.ID, errs[0].Excluded)
	assert.True(t, failed[h.ID])
	assert.False(t, failed[g.ID])
	assert.Equal(t, ir.VisExcluded, g.Visibility)
}

func TestRun_RefinementOnTypeItem(t *testing.T) {
	a := ir.NewArena()
	ty := a.New(ir.KindType, ir.NamePath{"demo", "Small"})
	ty.Underlying = testutil.U32()
	ty.Body = &ir.Marker{Kind: ir.MarkRefinement, Args: []ir.Expr{
		testutil.ResultClosure("v", ir.App2("<", &ir.Var{Name: "v"}, ir.IntLit(256))),
	}}

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)

	require.NotNil(t, ty.Refinement)
	assert.Equal(t, "v", ty.Refinement.Binder)
	assert.Equal(t, "u32", ir.TypeKey(ty.Refinement.Base))
	assert.Equal(t, "(app < v 256)", ir.ExprKey(ty.Refinement.Pred))
	assert.Nil(t, ty.Body)
}

// A second refinement marker conjoins onto the first binder.
func TestRun_RefinementMarkersConjoin(t *testing.T) {
	a := ir.NewArena()
	ty := a.New(ir.KindType, ir.NamePath{"demo", "Digit"})
	ty.Underlying = testutil.U32()
	ty.Body = testutil.Seq(
		&ir.Marker{Kind: ir.MarkRefinement, Args: []ir.Expr{
			testutil.ResultClosure("v", ir.App2("<", &ir.Var{Name: "v"}, ir.IntLit(10))),
		}},
		&ir.Marker{Kind: ir.MarkRefinement, Args: []ir.Expr{
			testutil.ResultClosure("w", ir.App2("<=", ir.IntLit(0), &ir.Var{Name: "w"})),
		}},
		ir.Unit(),
	)

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)
	require.NotNil(t, ty.Refinement)
	assert.Equal(t, "v", ty.Refinement.Binder)
	assert.Equal(t, "(app && (app < v 10) (app <= 0 v))", ir.ExprKey(ty.Refinement.Pred))
}

func TestRun_RefinementOnFunctionIsMalformed(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "f"})
	f.Result = testutil.U32()
	f.Body = testutil.Seq(
		&ir.Marker{Kind: ir.MarkRefinement, Args: []ir.Expr{
			testutil.ResultClosure("v", ir.BoolLit(true)),
		}},
		ir.IntLit(0),
	)

	errs := Run(a, map[ir.ItemID]bool{})
	require.Len(t, errs, 1)
	assert.Equal(t, KindMalformedMarker, errs[0].Kind)
}
