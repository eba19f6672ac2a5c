package resolve

import "github.com/veil-verify/veil/internal/ir"

// Unify matches an impl receiver pattern against a concrete type.
// Pattern type variables bind structurally; a variable bound twice must
// bind equal types. Returns the substitution on success.
func Unify(pattern, concrete ir.Type) (map[string]ir.Type, bool) {
	subst := make(map[string]ir.Type)
	if !unify(pattern, concrete, subst) {
		return nil, false
	}
	return subst, true
}

func unify(pattern, concrete ir.Type, subst map[string]ir.Type) bool {
	if pattern == nil || concrete == nil {
		return pattern == nil && concrete == nil
	}
	if tv, ok := pattern.(*ir.TVar); ok {
		if bound, seen := subst[tv.Name]; seen {
			return ir.TypeEqual(bound, concrete)
		}
		subst[tv.Name] = concrete
		return true
	}

	switch p := pattern.(type) {
	case *ir.TBool:
		_, ok := concrete.(*ir.TBool)
		return ok
	case *ir.TInt:
		c, ok := concrete.(*ir.TInt)
		return ok && c.Width == p.Width && c.Signed == p.Signed
	case *ir.TFloat:
		c, ok := concrete.(*ir.TFloat)
		return ok && c.Width == p.Width
	case *ir.TBigInt:
		_, ok := concrete.(*ir.TBigInt)
		return ok
	case *ir.TUnit:
		_, ok := concrete.(*ir.TUnit)
		return ok
	case *ir.TTuple:
		c, ok := concrete.(*ir.TTuple)
		if !ok || len(c.Elems) != len(p.Elems) {
			return false
		}
		for i := range p.Elems {
			if !unify(p.Elems[i], c.Elems[i], subst) {
				return false
			}
		}
		return true
	case *ir.TArray:
		c, ok := concrete.(*ir.TArray)
		return ok && c.Size == p.Size && unify(p.Elem, c.Elem, subst)
	case *ir.TSlice:
		c, ok := concrete.(*ir.TSlice)
		return ok && unify(p.Elem, c.Elem, subst)
	case *ir.TRef:
		c, ok := concrete.(*ir.TRef)
		return ok && c.Mut == p.Mut && unify(p.Elem, c.Elem, subst)
	case *ir.TFunc:
		c, ok := concrete.(*ir.TFunc)
		if !ok || len(c.Params) != len(p.Params) {
			return false
		}
		for i := range p.Params {
			if !unify(p.Params[i], c.Params[i], subst) {
				return false
			}
		}
		return unify(p.Result, c.Result, subst)
	case *ir.TNamed:
		c, ok := concrete.(*ir.TNamed)
		if !ok || c.Path.String() != p.Path.String() || len(c.Args) != len(p.Args) {
			return false
		}
		for i := range p.Args {
			if !unify(p.Args[i], c.Args[i], subst) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
