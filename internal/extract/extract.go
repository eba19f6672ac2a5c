// Package extract lifts specification markers into structured proof
// obligations.
//
// One traversal per item body recognizes the closed marker set, fills
// Contract/LoopSpec/RefinementSpec fields, and deletes the marker nodes
// from executable bodies. assert/assume/assert_prop markers are the
// exception: they are position-sensitive and stay in the tree as
// Obligation nodes. Same-kind clauses conjoin in source order.
//
// Visibility markers set the item's single visibility field. Opaque and
// Lemma together are contradictory (hide the body vs. be only a body)
// and fail with ConflictingVisibility. Excluded items still participate
// in dependency analysis so that a still-referenced excluded item fails
// its referencer with ExcludedItemStillReferenced.
package extract

import (
	"errors"
	"fmt"

	"github.com/veil-verify/veil/internal/ir"
)

// Specification error kinds.
const (
	KindConflictingVisibility = "ConflictingVisibility"
	KindExcludedReferenced    = "ExcludedItemStillReferenced"
	KindMalformedMarker       = "MalformedMarker"
)

// SpecError is a per-item recoverable specification failure.
type SpecError struct {
	Kind   string
	Item   ir.ItemID
	Path   ir.NamePath
	Detail string
	Span   ir.Span
	// Excluded identifies the excluded item for KindExcludedReferenced;
	// the error itself attaches to the referencer.
	Excluded ir.ItemID
}

// Error implements the error interface.
func (e *SpecError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Detail)
}

// IsSpecError reports whether err is (or wraps) a SpecError.
func IsSpecError(err error) bool {
	var se *SpecError
	return errors.As(err, &se)
}

// Run extracts specifications from all non-failed items, then checks
// that nothing still references an excluded item. Newly failed items are
// recorded in failed so the exclusion check sees them.
func Run(arena *ir.Arena, failed map[ir.ItemID]bool) []*SpecError {
	var errs []*SpecError

	for _, it := range arena.Items() {
		if failed[it.ID] {
			continue
		}
		if err := extractItem(it); err != nil {
			errs = append(errs, err)
			failed[it.ID] = true
			continue
		}
		ir.RecomputeRefs(it)
	}

	errs = append(errs, CheckExclusions(arena, failed)...)
	return errs
}

// CheckExclusions reports every live item whose reference set includes
// an excluded item. The dependency orderer re-runs this after
// monomorphization, since specialization can introduce new references.
func CheckExclusions(arena *ir.Arena, failed map[ir.ItemID]bool) []*SpecError {
	var errs []*SpecError
	for _, it := range arena.Items() {
		if failed[it.ID] || it.Visibility == ir.VisExcluded {
			continue
		}
		for _, ref := range it.Refs {
			dep := arena.Get(ref)
			if dep.Visibility == ir.VisExcluded {
				errs = append(errs, &SpecError{
					Kind:     KindExcludedReferenced,
					Item:     it.ID,
					Path:     it.Path,
					Detail:   fmt.Sprintf("references excluded item %s", dep.Path),
					Excluded: dep.ID,
				})
				failed[it.ID] = true
				break
			}
		}
	}
	return errs
}

// extractItem runs the single extraction traversal over one item.
func extractItem(it *ir.Item) *SpecError {
	x := &extractor{item: it}

	switch it.Kind {
	case ir.KindFunction:
		if it.Body != nil {
			it.Body = x.walk(it.Body)
			if it.Body == nil {
				it.Body = ir.Unit()
			}
		}
		if x.err != nil {
			return x.err
		}
		if !x.contract.IsEmpty() {
			it.Contract = &x.contract
		}
		if x.visibility != "" {
			it.Visibility = x.visibility
		}
	case ir.KindType:
		// A type item's body carries only refinement markers.
		if it.Body != nil {
			it.Body = x.walk(it.Body)
			it.Body = nil
		}
		if x.err != nil {
			return x.err
		}
		if x.refinement != nil {
			x.refinement.Base = it.Underlying
			it.Refinement = x.refinement
		}
	case ir.KindConst:
		if it.ConstValue != nil {
			it.ConstValue = x.walk(it.ConstValue)
		}
		if x.err != nil {
			return x.err
		}
	}
	return nil
}
