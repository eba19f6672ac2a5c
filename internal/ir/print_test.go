package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeKey(t *testing.T) {
	cases := []struct {
		name string
		in   Type
		want string
	}{
		{"unsigned int", &TInt{Width: 32}, "u32"},
		{"signed int", &TInt{Width: 64, Signed: true}, "i64"},
		{"bool", &TBool{}, "bool"},
		{"bigint", &TBigInt{}, "int"},
		{"unit", &TUnit{}, "unit"},
		{"tuple", &TTuple{Elems: []Type{&TInt{Width: 8}, &TBool{}}}, "(u8,bool)"},
		{"array", &TArray{Elem: &TInt{Width: 8}, Size: 4}, "[u8;4]"},
		{"slice", &TSlice{Elem: &TBool{}}, "[bool]"},
		{"mutable ref", &TRef{Elem: &TInt{Width: 32}, Mut: true}, "&mut u32"},
		{"func", &TFunc{Params: []Type{&TBool{}}, Result: &TUnit{}}, "fn(bool)->unit"},
		{"type var", &TVar{Name: "T"}, "?T"},
		{
			"named generic",
			&TNamed{Path: NamePath{"ns", "Pair"}, Args: []Type{&TInt{Width: 8}, &TBool{}}},
			"ns::Pair<u8,bool>",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TypeKey(tc.in))
		})
	}
}

// Two types are equal iff their keys are equal; the key is the equality.
func TestTypeEqual(t *testing.T) {
	assert.True(t, TypeEqual(&TInt{Width: 32}, &TInt{Width: 32}))
	assert.False(t, TypeEqual(&TInt{Width: 32}, &TInt{Width: 32, Signed: true}))
	assert.False(t, TypeEqual(&TBool{}, &TUnit{}))
}

func TestSuffixKey(t *testing.T) {
	cases := []struct {
		name string
		in   []Type
		want string
	}{
		{"single scalar", []Type{&TInt{Width: 32}}, "u32"},
		{"two scalars", []Type{&TInt{Width: 32}, &TBool{}}, "u32_bool"},
		{
			"named generic flattens",
			[]Type{&TNamed{Path: NamePath{"ns", "Pair"}, Args: []Type{&TInt{Width: 8}, &TInt{Width: 8}}}},
			"ns_Pair_u8_u8",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SuffixKey(tc.in))
		})
	}
}

func TestWithSuffix(t *testing.T) {
	p := NamePath{"demo", "id"}
	assert.Equal(t, "demo::id_u32", p.WithSuffix("u32").String())
	// The original path is untouched.
	assert.Equal(t, "demo::id", p.String())
}

func TestExprKey(t *testing.T) {
	expr := &Let{
		Name:  "x",
		Value: App2("+", IntLit(1), IntLit(2)),
		Body: &If{
			Cond: App2("<", &Var{Name: "x"}, IntLit(10)),
			Then: BoolLit(true),
			Else: BoolLit(false),
		},
	}
	assert.Equal(t, "(let x (app + 1 2) (if (app < x 10) true false))", ExprKey(expr))
}

// A loop's key carries the full spec content: every invariant
// predicate and the decreases expression, not just their presence.
func TestExprKey_LoopSpecContent(t *testing.T) {
	loop := &Loop{
		Body: &Break{},
		Spec: &LoopSpec{
			Invariants: []Expr{
				App2("<", &Var{Name: "i"}, IntLit(10)),
				App2("<=", IntLit(0), &Var{Name: "i"}),
			},
			Decreases: App2("-", IntLit(10), &Var{Name: "i"}),
		},
	}
	assert.Equal(t,
		"(loop spec[(inv (app < i 10))(inv (app <= 0 i))(dec (app - 10 i))] (break))",
		ExprKey(loop))

	bare := &Loop{Body: &Break{}}
	assert.Equal(t, "(loop (break))", ExprKey(bare))
}

func TestExprKey_VarWithHandleAndTypeArgs(t *testing.T) {
	v := &Var{Name: "id", Item: ItemID(3), TypeArgs: []Type{&TInt{Width: 32}}}
	assert.Equal(t, "id#3<u32>", ExprKey(v))
}

func TestFreeTypeVars_FirstOccurrenceOrder(t *testing.T) {
	ty := &TFunc{
		Params: []Type{&TVar{Name: "B"}, &TVar{Name: "A"}, &TVar{Name: "B"}},
		Result: &TVar{Name: "C"},
	}
	assert.Equal(t, []string{"B", "A", "C"}, FreeTypeVars(ty))
}
