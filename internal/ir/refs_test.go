package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeRefs_BodyAndSignature(t *testing.T) {
	a := NewArena()
	dep := a.New(KindFunction, NamePath{"ns", "dep"})
	named := a.New(KindType, NamePath{"ns", "Pair"})

	f := a.New(KindFunction, NamePath{"ns", "f"})
	f.Params = []Param{{Name: "p", Type: &TNamed{Path: named.Path, Item: named.ID}}}
	f.Result = &TUnit{}
	f.Body = &App{Fn: &Var{Name: "dep", Item: dep.ID}, Args: nil}

	RecomputeRefs(f)
	assert.Equal(t, []ItemID{dep.ID, named.ID}, f.Refs)
}

func TestRecomputeRefs_DedupesAndSorts(t *testing.T) {
	a := NewArena()
	dep := a.New(KindFunction, NamePath{"ns", "dep"})
	other := a.New(KindFunction, NamePath{"ns", "other"})

	f := a.New(KindFunction, NamePath{"ns", "f"})
	f.Body = Unit()
	f.Body = &Let{
		Name:  "_",
		Value: &App{Fn: &Var{Name: "other", Item: other.ID}},
		Body: &App{
			Fn:   &Var{Name: "dep", Item: dep.ID},
			Args: []Expr{&App{Fn: &Var{Name: "dep", Item: dep.ID}}},
		},
	}
	RecomputeRefs(f)
	assert.Equal(t, []ItemID{dep.ID, other.ID}, f.Refs)
}

// Contract and loop-spec predicates count as references even though
// they live outside the executable body.
func TestRecomputeRefs_SpecPositions(t *testing.T) {
	a := NewArena()
	bound := a.New(KindConst, NamePath{"ns", "LIMIT"})
	measure := a.New(KindFunction, NamePath{"ns", "measure"})

	f := a.New(KindFunction, NamePath{"ns", "f"})
	f.Contract = &Contract{
		Preconditions: []Expr{
			App2("<", &Var{Name: "x"}, &Var{Name: "LIMIT", Item: bound.ID}),
		},
	}
	f.Body = &Loop{
		Spec: &LoopSpec{
			Decreases: &App{Fn: &Var{Name: "measure", Item: measure.ID}},
		},
		Body: &Break{},
	}
	RecomputeRefs(f)
	assert.Equal(t, []ItemID{bound.ID, measure.ID}, f.Refs)
}

func TestRecomputeRefs_RefinementAndUnderlying(t *testing.T) {
	a := NewArena()
	helper := a.New(KindFunction, NamePath{"ns", "valid"})

	ty := a.New(KindType, NamePath{"ns", "Small"})
	ty.Underlying = &TInt{Width: 32}
	ty.Refinement = &RefinementSpec{
		Base:   ty.Underlying,
		Binder: "v",
		Pred:   &App{Fn: &Var{Name: "valid", Item: helper.ID}, Args: []Expr{&Var{Name: "v"}}},
	}
	RecomputeRefs(ty)
	assert.Equal(t, []ItemID{helper.ID}, ty.Refs)
}
