package harness

import (
	"github.com/veil-verify/veil/internal/ir"
	"github.com/veil-verify/veil/internal/testutil"
)

// The standard fixture catalog. Scenario files reference these by name;
// each build call returns a fresh arena so scenarios cannot interfere.
func init() {
	RegisterFixture("contracted-increment", func() *ir.Arena {
		a, _ := testutil.ContractedIncrement()
		return a
	})
	RegisterFixture("mutual-even-odd", func() *ir.Arena {
		a, _, _ := testutil.MutualEvenOdd()
		return a
	})
	RegisterFixture("generic-identity", func() *ir.Arena {
		a, _, _ := testutil.GenericIdentity()
		return a
	})
	RegisterFixture("conflicting-visibility", func() *ir.Arena {
		a, _ := testutil.ConflictingVisibility()
		return a
	})
	RegisterFixture("excluded-but-referenced", func() *ir.Arena {
		a, _, _ := testutil.ExcludedButReferenced()
		return a
	})
}
