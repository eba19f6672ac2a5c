package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneExpr_DeepCopy(t *testing.T) {
	orig := &Let{
		Name:  "x",
		Value: App2("+", IntLit(1), IntLit(2)),
		Body:  &Var{Name: "x"},
	}
	clone := CloneExpr(orig)
	require.Equal(t, ExprKey(orig), ExprKey(clone))

	// Mutating the clone must leave the original alone.
	clone.(*Let).Value.(*App).Args[0] = IntLit(99)
	assert.Equal(t, "(let x (app + 1 2) x)", ExprKey(orig))
	assert.Equal(t, "(let x (app + 99 2) x)", ExprKey(clone))
}

func TestCloneExpr_LoopSpec(t *testing.T) {
	orig := &Loop{
		Spec: &LoopSpec{
			Invariants: []Expr{App2("<", &Var{Name: "i"}, IntLit(10))},
			Decreases:  App2("-", IntLit(10), &Var{Name: "i"}),
		},
		Body: Unit(),
	}
	clone := CloneExpr(orig).(*Loop)
	require.NotNil(t, clone.Spec)

	clone.Spec.Invariants[0] = BoolLit(true)
	assert.Equal(t, "(app < i 10)", ExprKey(orig.Spec.Invariants[0]))
}

func TestCloneExpr_PatternsInMatch(t *testing.T) {
	orig := &Match{
		Scrutinee: &Var{Name: "v"},
		Arms: []MatchArm{
			{Pat: &PatVar{Name: "a"}, Body: &Var{Name: "a"}},
			{Pat: &PatWildcard{}, Body: Unit()},
		},
	}
	clone := CloneExpr(orig).(*Match)
	clone.Arms[0].Pat.(*PatVar).Name = "b"
	assert.Equal(t, "a", orig.Arms[0].Pat.(*PatVar).Name)
}

func TestCloneExpr_PanicsOnUnknownNode(t *testing.T) {
	assert.Panics(t, func() { CloneExpr(unknownExpr{}) })
}

type unknownExpr struct{}

func (unknownExpr) exprNode() {}
