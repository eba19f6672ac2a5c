package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-verify/veil/internal/ir"
)

// ordWorld builds a unit with trait demo::Ord, one impl per receiver in
// recvs (each providing "lt"), and a caller whose body invokes lt on a
// receiver of type callRecv.
func ordWorld(recvs []ir.Type, callRecv ir.Type) (*ir.Arena, *ir.Item, []*ir.Item) {
	a := ir.NewArena()
	trait := ir.NamePath{"demo", "Ord"}

	var methods []*ir.Item
	for i, recv := range recvs {
		m := a.New(ir.KindFunction, ir.NamePath{"demo", "lt_" + ir.TypeKey(recv)})
		m.Result = &ir.TBool{}
		m.Body = ir.BoolLit(true)
		methods = append(methods, m)

		impl := a.New(ir.KindImpl, ir.NamePath{"demo", "impl_Ord_" + string(rune('a'+i))})
		impl.TraitRef = trait
		impl.RecvType = recv
		impl.Provides = map[string]ir.ItemID{"lt": m.ID}
	}

	caller := a.New(ir.KindFunction, ir.NamePath{"demo", "caller"})
	caller.Result = &ir.TBool{}
	caller.Body = &ir.MethodCall{
		Trait:    trait,
		Method:   "lt",
		RecvType: callRecv,
		Recv:     &ir.Var{Name: "x"},
		Args:     []ir.Expr{&ir.Var{Name: "y"}},
	}
	return a, caller, methods
}

func callOf(t *testing.T, it *ir.Item) *ir.MethodCall {
	t.Helper()
	call, ok := it.Body.(*ir.MethodCall)
	require.True(t, ok)
	return call
}

func TestRun_SingleImplResolves(t *testing.T) {
	u32 := &ir.TInt{Width: 32}
	a, caller, methods := ordWorld([]ir.Type{u32}, u32)

	failed := map[ir.ItemID]bool{}
	errs := Run(a, failed)
	require.Empty(t, errs)

	call := callOf(t, caller)
	assert.Equal(t, methods[0].ID, call.Target)
	assert.Empty(t, call.Dict)
	assert.Contains(t, caller.Refs, methods[0].ID)
}

func TestRun_GenericImplMatchesStructurally(t *testing.T) {
	pattern := &ir.TNamed{Path: ir.NamePath{"demo", "Pair"}, Args: []ir.Type{&ir.TVar{Name: "T"}, &ir.TVar{Name: "T"}}}
	concrete := &ir.TNamed{Path: ir.NamePath{"demo", "Pair"}, Args: []ir.Type{&ir.TInt{Width: 8}, &ir.TInt{Width: 8}}}
	a, caller, methods := ordWorld([]ir.Type{pattern}, concrete)

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)
	assert.Equal(t, methods[0].ID, callOf(t, caller).Target)
}

// A concrete impl beats a blanket impl for the same trait.
func TestRun_MostSpecificImplWins(t *testing.T) {
	u32 := &ir.TInt{Width: 32}
	a, caller, methods := ordWorld([]ir.Type{&ir.TVar{Name: "T"}, u32}, u32)

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)
	assert.Equal(t, methods[1].ID, callOf(t, caller).Target)
}

func TestRun_EqualSpecificityIsAmbiguous(t *testing.T) {
	u32 := &ir.TInt{Width: 32}
	a, caller, _ := ordWorld([]ir.Type{u32, u32}, u32)

	failed := map[ir.ItemID]bool{}
	errs := Run(a, failed)
	require.Len(t, errs, 1)
	assert.Equal(t, KindAmbiguous, errs[0].Kind)
	assert.Equal(t, caller.ID, errs[0].Item)
	assert.True(t, failed[caller.ID])
	assert.Equal(t, ir.NoItem, callOf(t, caller).Target)
	assert.True(t, IsAmbiguous(errs[0]))
}

func TestRun_NoImplIsUnresolved(t *testing.T) {
	a, caller, _ := ordWorld(nil, &ir.TBool{})

	failed := map[ir.ItemID]bool{}
	errs := Run(a, failed)
	require.Len(t, errs, 1)
	assert.Equal(t, KindUnresolved, errs[0].Kind)
	assert.Equal(t, "lt", errs[0].Method)
	assert.True(t, failed[caller.ID])
}

func TestRun_ImplWithoutMethodIsUnresolved(t *testing.T) {
	u32 := &ir.TInt{Width: 32}
	a, caller, _ := ordWorld([]ir.Type{u32}, u32)
	callOf(t, caller).Method = "gt"

	errs := Run(a, map[ir.ItemID]bool{})
	require.Len(t, errs, 1)
	assert.Equal(t, KindUnresolved, errs[0].Kind)
}

// A type-variable receiver defers to dictionary threading instead of
// failing: the impl is picked per instantiation at monomorphization.
func TestRun_TypeVarReceiverThreadsDictionary(t *testing.T) {
	a, caller, _ := ordWorld([]ir.Type{&ir.TInt{Width: 32}}, &ir.TVar{Name: "T"})
	caller.Generics = []ir.GenericParam{{Name: "T"}}

	errs := Run(a, map[ir.ItemID]bool{})
	require.Empty(t, errs)

	call := callOf(t, caller)
	assert.Equal(t, ir.NoItem, call.Target)
	assert.Equal(t, "T", call.Dict)
}

// Opaque items hide their bodies from verification; unresolvable calls
// inside them are tolerated rather than reported.
func TestRun_OpaqueBodyDefersUnresolvedCalls(t *testing.T) {
	a, caller, _ := ordWorld(nil, &ir.TBool{})
	caller.Body = &ir.Let{
		Name:  "_",
		Value: &ir.Marker{Kind: ir.MarkOpaque},
		Body:  caller.Body,
	}

	failed := map[ir.ItemID]bool{}
	errs := Run(a, failed)
	require.Empty(t, errs)
	assert.False(t, failed[caller.ID])
}

func TestRun_SkipsAlreadyFailedItems(t *testing.T) {
	a, caller, _ := ordWorld(nil, &ir.TBool{})
	failed := map[ir.ItemID]bool{caller.ID: true}

	errs := Run(a, failed)
	assert.Empty(t, errs)
	assert.Equal(t, ir.NoItem, callOf(t, caller).Target)
}

func TestUnify(t *testing.T) {
	u32 := &ir.TInt{Width: 32}
	pair := func(a, b ir.Type) ir.Type {
		return &ir.TNamed{Path: ir.NamePath{"demo", "Pair"}, Args: []ir.Type{a, b}}
	}

	cases := []struct {
		name     string
		pattern  ir.Type
		concrete ir.Type
		ok       bool
	}{
		{"var binds anything", &ir.TVar{Name: "T"}, u32, true},
		{"exact scalar", u32, &ir.TInt{Width: 32}, true},
		{"width mismatch", u32, &ir.TInt{Width: 64}, false},
		{"signedness mismatch", u32, &ir.TInt{Width: 32, Signed: true}, false},
		{"var bound twice consistent", pair(&ir.TVar{Name: "T"}, &ir.TVar{Name: "T"}), pair(u32, &ir.TInt{Width: 32}), true},
		{"var bound twice conflicting", pair(&ir.TVar{Name: "T"}, &ir.TVar{Name: "T"}), pair(u32, &ir.TBool{}), false},
		{"named path mismatch", pair(u32, u32), &ir.TNamed{Path: ir.NamePath{"demo", "Other"}, Args: []ir.Type{u32, u32}}, false},
		{"ref mutability", &ir.TRef{Elem: u32, Mut: true}, &ir.TRef{Elem: u32}, false},
		{"slice elem recurses", &ir.TSlice{Elem: &ir.TVar{Name: "T"}}, &ir.TSlice{Elem: &ir.TBool{}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Unify(tc.pattern, tc.concrete)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestUnify_ReturnsSubstitution(t *testing.T) {
	subst, ok := Unify(
		&ir.TFunc{Params: []ir.Type{&ir.TVar{Name: "A"}}, Result: &ir.TVar{Name: "B"}},
		&ir.TFunc{Params: []ir.Type{&ir.TInt{Width: 8}}, Result: &ir.TBool{}},
	)
	require.True(t, ok)
	assert.Equal(t, "u8", ir.TypeKey(subst["A"]))
	assert.Equal(t, "bool", ir.TypeKey(subst["B"]))
}
